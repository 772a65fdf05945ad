// Package fs provides a read-side filesystem abstraction for testability and
// fault injection.
//
//   - [File]: an open, seekable, read-only file
//   - [FileSystem]: opens and stats files
//
// # Implementations
//
//   - [LocalFS]: production implementation using the os package
//   - [FaultyFS]: test utility that injects read, seek and close failures
//
// Production code uses fs.Default:
//
//	f, err := fs.Default.Open(path)
//
// Tests inject [FaultyFS], or wrap any stream with [NewFaultyReadSeeker]:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".gz", fs.Fault{FailAfterBytes: 1024})
//
// Operations take no context.Context. Local reads are short and not
// interruptible at the syscall level; remote sources go through blobstore.
package fs
