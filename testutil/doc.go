// Package testutil provides testing utilities for seekline.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source and generators for line-oriented
// fixtures: sorted keyed lines, fixed-length lines and lines with skewed
// length distributions, optionally compressed.
//
// # Random Fixtures
//
//	rng := testutil.NewRNG(seed)
//	lines := rng.SortedKeyedLines(1000, 3, 40)
//	off := lines.FirstAtLeast(42) // ground truth for a search
//
// # Compressed Fixtures
//
//	enc := testutil.Compress(t, lines.Data, compress.Gzip)
//	path := testutil.WriteFile(t, t.TempDir(), "data.gz", enc)
package testutil
