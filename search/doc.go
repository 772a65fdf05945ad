// Package search locates lines in a sorted text stream by binary search.
//
// A [Searcher] drives a [cursor.Reader] over a stream whose lines are sorted
// non-decreasingly by a caller-supplied key function. Probes bisect byte
// offsets, snap each probe to a line start, and compare the key of that line.
// Once the bisection bottoms out at adjacent lines the search finishes with a
// short forward scan, which keeps it exact even when line lengths vary wildly.
//
//	s, err := search.NewOrdered(r, func(line []byte) string {
//	    key, _, _ := bytes.Cut(line, []byte{'\t'})
//	    return string(key)
//	})
//	off, err := s.FindFirstAtLeast("2024-06-01")
//	line, _ := r.ReadLine() // first line with key >= target
//
// The sort order is a precondition and is not validated.
package search
