package benchmark_test

import (
	"strconv"
	"sync"
	"testing"

	"github.com/hupe1980/seekline/testutil"
)

// ============================================================================
// Fixture Configuration
// ============================================================================

const (
	sizeSmall  = 10_000
	sizeMedium = 100_000
	sizeLarge  = 1_000_000
)

var (
	fixtureMu    sync.Mutex
	fixtureCache = map[int]testutil.Lines{}
)

// SortedFixture returns n sorted keyed lines, generated once per size.
func SortedFixture(b *testing.B, n int) testutil.Lines {
	b.Helper()
	fixtureMu.Lock()
	defer fixtureMu.Unlock()

	if l, ok := fixtureCache[n]; ok {
		return l
	}
	l := testutil.NewRNG(42).SortedKeyedLines(n, 3, 80)
	fixtureCache[n] = l
	return l
}

// MakeTargets draws search targets over the key range of l.
func MakeTargets(l testutil.Lines, n int) []int {
	rng := testutil.NewRNG(7)
	targets := make([]int, n)
	for i := range targets {
		targets[i] = rng.Intn(l.MaxKey() + 1)
	}
	return targets
}

func intKey(line []byte) int {
	end := 0
	for end < len(line) && line[end] != ' ' {
		end++
	}
	k, _ := strconv.Atoi(string(line[:end]))
	return k
}

func sizeName(n int) string {
	return "lines=" + strconv.Itoa(n)
}
