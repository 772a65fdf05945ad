package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/hupe1980/seekline"
	"github.com/hupe1980/seekline/codec"
)

type searchResult struct {
	Offset int64  `json:"offset"`
	Line   string `json:"line,omitempty"`
	Found  bool   `json:"found"`
	Exact  bool   `json:"exact"`
}

type scanRecord struct {
	Offset int64  `json:"offset"`
	Line   string `json:"line"`
}

func runSearch(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		cfg   config
		key   keySpec
		exact bool
	)
	fs := newFlagSet("search", "search [flags] <source> <target> [<to>]", stderr)
	cfg.register(fs)
	key.register(fs)
	fs.BoolVar(&exact, "exact", false, "fail unless the found key equals the target")

	rest, err := parseArgs(fs, args, 2, 3)
	if err != nil {
		return err
	}
	opts, err := cfg.options(stderr)
	if err != nil {
		return err
	}
	key.logger = cfg.log

	src, err := openSource(ctx, rest[0], &cfg, opts, true)
	if err != nil {
		return err
	}
	defer src.Close()
	defer cfg.printStats(stderr)

	if !key.numeric {
		return search(src.File, key.stringKey, rest[1:], func(s string) (string, error) { return s, nil }, exact, &cfg, stdout)
	}
	return search(src.File, key.numberKey, rest[1:], func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}, exact, &cfg, stdout)
}

func search[K cmp.Ordered](f *seekline.File, key func([]byte) K, targets []string, parse func(string) (K, error), exact bool, cfg *config, stdout io.Writer) error {
	from, err := parse(targets[0])
	if err != nil {
		return fmt.Errorf("target %q: %w", targets[0], err)
	}

	if len(targets) == 2 {
		to, err := parse(targets[1])
		if err != nil {
			return fmt.Errorf("target %q: %w", targets[1], err)
		}
		return seekline.Scan(f, key, from, to, func(offset int64, line []byte) error {
			if cfg.jsonOut {
				return codec.WriteLine(stdout, codec.Default, scanRecord{Offset: offset, Line: string(line)})
			}
			_, err := fmt.Fprintf(stdout, "%s\n", line)
			return err
		})
	}

	m, err := seekline.Search(f, key, from)
	if err != nil {
		return err
	}

	if cfg.jsonOut {
		if err := codec.WriteLine(stdout, codec.Default, searchResult{
			Offset: m.Offset,
			Line:   string(m.Line),
			Found:  m.Found,
			Exact:  m.Exact,
		}); err != nil {
			return err
		}
	} else if m.Found && (m.Exact || !exact) {
		if _, err := fmt.Fprintf(stdout, "%s\n", m.Line); err != nil {
			return err
		}
	}

	if !m.Found || (exact && !m.Exact) {
		return errNoMatch
	}
	return nil
}
