package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/seekline"
	"github.com/hupe1980/seekline/codec"
)

type lineRecord struct {
	Index int64  `json:"index"`
	Line  string `json:"line"`
}

func runLines(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var (
		cfg       config
		skipEmpty bool
		number    bool
		limit     int64
		progress  int64
	)
	fs := newFlagSet("lines", "lines [flags] <source>", stderr)
	cfg.register(fs)
	fs.BoolVar(&skipEmpty, "skip-empty", false, "skip lines that contain only whitespace")
	fs.BoolVar(&number, "number", false, "prefix every line with its zero-based index")
	fs.Int64Var(&limit, "n", 0, "stop after n lines (0 = all)")
	fs.Int64Var(&progress, "progress", 0, "report progress to stderr every n lines (0 = never)")

	rest, err := parseArgs(fs, args, 1, 1)
	if err != nil {
		return err
	}
	opts, err := cfg.options(stderr)
	if err != nil {
		return err
	}

	src, err := openSource(ctx, rest[0], &cfg, opts, false)
	if err != nil {
		return err
	}
	defer src.Close()
	defer cfg.printStats(stderr)

	w := bufio.NewWriter(stdout)
	defer w.Flush()

	var lineOpts []seekline.LineOption
	if skipEmpty {
		lineOpts = append(lineOpts, seekline.SkipEmpty())
	}

	var printed int64
	err = src.Lines(func(i int64, line []byte, p seekline.Progress) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := writeLine(w, &cfg, number, i, line); err != nil {
			return err
		}
		printed++

		if progress > 0 && printed%progress == 0 {
			fmt.Fprintf(stderr, "%d/%d lines (%.1f%%)\n", p.Lines, p.ExpectedLines, 100*p.Fraction())
		}
		if limit > 0 && printed >= limit {
			return seekline.ErrStop
		}
		return nil
	}, lineOpts...)
	if err != nil {
		return err
	}
	return w.Flush()
}

func writeLine(w io.Writer, cfg *config, number bool, i int64, line []byte) error {
	if cfg.jsonOut {
		return codec.WriteLine(w, codec.Default, lineRecord{Index: i, Line: string(trimNewline(line))})
	}
	if number {
		if _, err := fmt.Fprintf(w, "%d\t", i); err != nil {
			return err
		}
	}
	if _, err := w.Write(line); err != nil {
		return err
	}
	if len(line) == 0 || line[len(line)-1] != '\n' {
		_, err := w.Write([]byte{'\n'})
		return err
	}
	return nil
}

func trimNewline(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\n' {
		return line[:n-1]
	}
	return line
}
