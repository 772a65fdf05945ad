package fs

import (
	"io"
	"os"
)

// File represents an open read-only file.
type File interface {
	io.ReadSeekCloser
	io.ReaderAt
	Name() string
	Stat() (os.FileInfo, error)
}

// FileSystem abstracts file system access for testability.
type FileSystem interface {
	Open(name string) (File, error)
	Stat(name string) (os.FileInfo, error)
}

// LocalFS implements FileSystem using the local os package.
type LocalFS struct{}

func (LocalFS) Open(name string) (File, error)        { return os.Open(name) }
func (LocalFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }

// Default is the default local file system.
var Default FileSystem = LocalFS{}
