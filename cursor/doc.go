// Package cursor implements a bidirectional, line-aligned buffered reader over
// a seekable byte stream.
//
// A [Reader] keeps a moving focus offset and two adjacent in-memory windows
// around its last resting point: the left window holds history, the right
// window holds lookahead. Both windows are fixed-capacity buffers owned by the
// Reader, so memory stays bounded at two windows no matter how far or in which
// direction the focus travels.
//
// # Usage
//
//	r, err := cursor.New(f, cursor.WithBufferSize(64*1024))
//	if err != nil { ... }
//
//	_, _ = r.Seek(0, io.SeekEnd)
//	last, _ := r.ReadLineBackward(cursor.Unlimited, cursor.Greedy)
//
// # Line Snapping
//
// ReadLineBackward takes an explicit [Mode]. In [Greedy] mode a terminator
// sitting immediately left of the focus is skipped before the scan, so a
// backward read from a line start yields the previous line. In [NonGreedy]
// mode that terminator stops the scan at once, which snaps an arbitrary
// offset to the start of the line containing it and leaves an offset that is
// already a line start untouched.
//
// # Concurrency
//
// A Reader is not safe for concurrent use. It assumes exclusive control of
// the underlying stream's offset for its whole lifetime.
package cursor
