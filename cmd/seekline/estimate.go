package main

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/seekline/codec"
)

func runEstimate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	var cfg config
	fs := newFlagSet("estimate", "estimate [flags] <source>", stderr)
	cfg.register(fs)

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

	report, err := src.Estimate()
	if err != nil {
		return err
	}

	if cfg.jsonOut {
		// JSON has no infinity; a compressed file that decodes to nothing
		// reports a ratio of 0.
		if math.IsInf(report.CompressionRatio, 0) {
			report.CompressionRatio = 0
		}
		return codec.WriteLine(stdout, codec.Default, report)
	}

	_, err = fmt.Fprintf(stdout, `name:              %s
compression:       %s
size:              %d
compression ratio: %.4f
decoded size:      %d
line length:       %.2f
line count:        %d
`, report.Name, report.Algorithm, report.Size, report.CompressionRatio,
		report.FileSize, report.LineLength, report.LineCount)
	if err == nil && report.Truncated {
		_, err = fmt.Fprintln(stdout, "warning:           stream is truncated")
	}
	return err
}
