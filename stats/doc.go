// Package stats derives line and size statistics from a stream while it is
// read for another purpose.
//
// [LineLength] and [Stream] are plain aggregates. An [Accumulator] turns
// arbitrarily chunked bytes into completed line lengths, and a
// [CountingReader] wires both into an io.Reader so that a decompression pass
// yields running estimates of the decoded size and line count for free.
package stats
