// Package seekline searches and samples large sorted line files without
// reading them end to end.
//
// # Quick Start
//
//	f, err := seekline.Open("access.log")
//	defer f.Close()
//
//	m, err := seekline.Search(f, timestampKey, "2024-01-01T12:00:00")
//	fmt.Println(m.Offset, string(m.Line))
//
// Remote objects work the same way through a blob store:
//
//	store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("logs/"))
//	f, err := seekline.OpenBlob(ctx, store, "access.log")
//
// # Searching
//
// [Search] bisects on byte offsets and snaps every probe to a line start, so
// the cost is O(log size) reads of one buffer each. The key function sees a
// line without its terminator. Lines must be sorted by that key; duplicates
// are fine and [Search] finds the first one.
//
// # Estimating
//
// Compressed files cannot be measured without decoding them. The Estimate
// methods sample the decoded stream until a Chebyshev bound holds:
//
//	r, err := f.Estimate()
//	fmt.Println(r.LineCount, r.FileSize, r.CompressionRatio.Value)
//
// Accuracy and confidence come from [WithEstimateOptions].
//
// # Compression
//
// Open picks the codec by extension (.gz, .zst, .lz4) and falls back to the
// magic bytes. Compressed files stream and estimate, but only support
// forward seeking, so [File.Cursor] and [Search] need an uncompressed copy;
// see [File.WriteTo].
//
// # Observability
//
//   - [WithLogger] and [WithLogLevel] attach a structured slog logger
//   - [WithMetricsCollector] records searches, estimates and buffer refills
package seekline
