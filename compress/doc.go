// Package compress decodes gzip, zstd and lz4 streams behind a seekable
// io.Reader that reports how much of its transport it has consumed.
//
// Seeking a Reader is implemented the way compressed files usually are:
// moving backward rewinds the transport and decodes again from the start,
// moving forward decodes and discards. Seeking relative to the end is not
// supported because the decoded size is unknown until the stream is drained.
package compress
