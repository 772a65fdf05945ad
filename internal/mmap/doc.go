// Package mmap provides read-only memory-mapped files for line cursors.
//
// A mapped file serves cursor refills as copies out of the page cache, with
// no read or seek system call per window.
//
//	m, err := mmap.Open("events.log")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.Random) // bisection touches scattered pages
//	r := m.Reader()           // io.ReadSeeker over the whole file
//
// On Unix the file is mapped with mmap(2) and hints go to madvise(2). On
// Windows it is mapped with MapViewOfFile and hints are ignored.
//
// A Mapping may be read concurrently and Close is idempotent. Bytes must not
// be used after Close returns.
package mmap
