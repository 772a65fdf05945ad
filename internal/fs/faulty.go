package fs

import (
	"errors"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the error returned by a Fault without an explicit Err.
var ErrInjected = errors.New("injected fault error")

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail reads once this many bytes were read. -1 to disable.
	FailOnSeek     bool
	FailOnClose    bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyFS is a FileSystem wrapper that can inject errors.
type FaultyFS struct {
	FS      FileSystem
	Default Fault

	mu    sync.Mutex
	rules map[string]Fault // Filename pattern -> Fault
	read  int64
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:      fs,
		rules:   make(map[string]Fault),
		Default: Fault{FailAfterBytes: -1},
	}
}

// AddRule adds a fault injection rule for files whose name contains pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// BytesRead returns the total bytes read through all opened files.
func (f *FaultyFS) BytesRead() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.read
}

func (f *FaultyFS) Open(name string) (File, error) {
	file, err := f.FS.Open(name)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	fault := f.Default
	for pattern, rule := range f.rules {
		if strings.Contains(name, pattern) {
			fault = rule
		}
	}
	f.mu.Unlock()

	return &faultyFile{File: file, fs: f, fault: fault}, nil
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) charge(n int) {
	f.mu.Lock()
	f.read += int64(n)
	f.mu.Unlock()
}

type faultyFile struct {
	File
	fs    *FaultyFS
	fault Fault
	read  int64
}

func (ff *faultyFile) Read(p []byte) (int, error) {
	n, err := readWithFault(ff.File, p, ff.fault, &ff.read)
	ff.fs.charge(n)
	return n, err
}

func (ff *faultyFile) ReadAt(p []byte, off int64) (int, error) {
	if ff.fault.FailAfterBytes >= 0 && ff.read+int64(len(p)) > ff.fault.FailAfterBytes {
		return 0, ff.fault.err()
	}
	n, err := ff.File.ReadAt(p, off)
	ff.read += int64(n)
	ff.fs.charge(n)
	return n, err
}

func (ff *faultyFile) Seek(offset int64, whence int) (int64, error) {
	if ff.fault.FailOnSeek {
		return 0, ff.fault.err()
	}
	return ff.File.Seek(offset, whence)
}

func (ff *faultyFile) Close() error {
	if ff.fault.FailOnClose {
		_ = ff.File.Close()
		return ff.fault.err()
	}
	return ff.File.Close()
}

// FaultyReadSeeker injects a Fault into any io.ReadSeeker.
type FaultyReadSeeker struct {
	rs    io.ReadSeeker
	fault Fault
	read  int64
}

// NewFaultyReadSeeker wraps rs with fault.
func NewFaultyReadSeeker(rs io.ReadSeeker, fault Fault) *FaultyReadSeeker {
	return &FaultyReadSeeker{rs: rs, fault: fault}
}

// BytesRead returns the bytes read so far.
func (f *FaultyReadSeeker) BytesRead() int64 { return f.read }

func (f *FaultyReadSeeker) Read(p []byte) (int, error) {
	return readWithFault(f.rs, p, f.fault, &f.read)
}

func (f *FaultyReadSeeker) Seek(offset int64, whence int) (int64, error) {
	if f.fault.FailOnSeek {
		return 0, f.fault.err()
	}
	return f.rs.Seek(offset, whence)
}

// readWithFault reads up to the byte limit and fails the read that would
// cross it.
func readWithFault(r io.Reader, p []byte, fault Fault, read *int64) (int, error) {
	if fault.FailAfterBytes >= 0 {
		left := fault.FailAfterBytes - *read
		if left <= 0 {
			return 0, fault.err()
		}
		if int64(len(p)) > left {
			p = p[:left]
		}
	}
	n, err := r.Read(p)
	*read += int64(n)
	return n, err
}
