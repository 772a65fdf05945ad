// Package position provides scoped save/restore of a stream's read position.
//
// Estimators and search anchors run as cheap preliminary passes over a stream
// that the caller is about to read for real. They save the current offset on
// entry and restore it on every exit path, including errors and panics:
//
//	err = position.Scope(r, true, func() error {
//	    // read freely
//	    return nil
//	})
package position
