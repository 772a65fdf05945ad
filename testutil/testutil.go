package testutil

import (
	"bytes"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/hupe1980/seekline/compress"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// Lines is a generated line fixture with its ground truth.
type Lines struct {
	Data    []byte
	Offsets []int64 // start offset of every line
	Keys    []int   // key of every line, non-decreasing
}

// Len returns the number of lines.
func (l Lines) Len() int { return len(l.Offsets) }

// FirstAtLeast returns the offset of the first line with key >= target, or
// len(Data) if there is none.
func (l Lines) FirstAtLeast(target int) int64 {
	i := sort.SearchInts(l.Keys, target)
	if i == len(l.Keys) {
		return int64(len(l.Data))
	}
	return l.Offsets[i]
}

// MaxKey returns the largest key, or 0 for an empty fixture.
func (l Lines) MaxKey() int {
	if len(l.Keys) == 0 {
		return 0
	}
	return l.Keys[len(l.Keys)-1]
}

// SortedKeyedLines generates n lines "<key> <padding>\n" with keys increasing
// by 0..maxStep (so duplicate runs are common) and 0..maxPad padding bytes.
func (r *RNG) SortedKeyedLines(n, maxStep, maxPad int) Lines {
	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	l := Lines{
		Offsets: make([]int64, n),
		Keys:    make([]int, n),
	}

	key := 0
	for i := range n {
		key += r.rand.Intn(maxStep + 1)
		l.Offsets[i] = int64(buf.Len())
		l.Keys[i] = key

		buf.WriteString(strconv.Itoa(key))
		if maxPad > 0 {
			if pad := r.rand.Intn(maxPad + 1); pad > 0 {
				buf.WriteByte(' ')
				buf.WriteString(strings.Repeat("~", pad))
			}
		}
		buf.WriteByte('\n')
	}

	l.Data = buf.Bytes()
	return l
}

// FixedLines returns n lines that are each exactly length bytes long,
// including the terminator.
func FixedLines(n, length int) []byte {
	if length < 1 {
		panic("testutil: line length must include the terminator")
	}
	line := strings.Repeat("x", length-1) + "\n"
	return []byte(strings.Repeat(line, n))
}

// VariableLines returns n lines whose lengths, including the terminator, are
// uniform in [minLen, maxLen].
func (r *RNG) VariableLines(n, minLen, maxLen int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	for range n {
		length := minLen + r.rand.Intn(maxLen-minLen+1)
		for j := 0; j < length-1; j++ {
			buf.WriteByte(byte('a' + r.rand.Intn(26)))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// ZipfLines returns n lines whose lengths follow a Zipf distribution over
// [1, maxLen], producing a heavy tail of long lines.
func (r *RNG) ZipfLines(n, maxLen int, s float64) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	var buf bytes.Buffer
	for range n {
		length := 1 + r.zipfLocked(maxLen, s)
		buf.WriteString(strings.Repeat("z", length-1))
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// Compress encodes data with alg and fails the test on error.
func Compress(tb testing.TB, data []byte, alg compress.Algorithm) []byte {
	tb.Helper()
	enc, err := compress.Encode(data, alg)
	if err != nil {
		tb.Fatalf("testutil: compress %s: %v", alg, err)
	}
	return enc
}

// WriteFile writes data to dir/name and returns the path.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("testutil: write %s: %v", path, err)
	}
	return path
}
