package position

import (
	"errors"
	"fmt"
	"io"
)

// Tell returns the current offset of s.
func Tell(s io.Seeker) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

// Scope records the current offset of s, runs fn and, if reset is true,
// seeks back to the recorded offset afterwards. The restore runs even when fn
// fails or panics. A restore failure is joined with the error returned by fn.
func Scope(s io.Seeker, reset bool, fn func() error) (err error) {
	saved, err := Tell(s)
	if err != nil {
		return fmt.Errorf("position: save: %w", err)
	}

	if reset {
		defer func() {
			if _, serr := s.Seek(saved, io.SeekStart); serr != nil {
				err = errors.Join(err, fmt.Errorf("position: restore %d: %w", saved, serr))
			}
		}()
	}

	return fn()
}

// Size returns the size of s by seeking to its end. With reset the original
// offset is restored.
func Size(s io.Seeker, reset bool) (size int64, err error) {
	err = Scope(s, reset, func() error {
		size, err = s.Seek(0, io.SeekEnd)
		return err
	})
	return size, err
}
