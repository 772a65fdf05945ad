package search

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/hupe1980/seekline/cursor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intKey(line []byte) int {
	field, _, _ := bytes.Cut(line, []byte{' '})
	v, err := strconv.Atoi(string(field))
	if err != nil {
		panic(err)
	}
	return v
}

type fixture struct {
	data    string
	keys    []int
	offsets []int64
}

func buildFixture(keys []int, pad func(i int) int, trailingNewline bool) fixture {
	var sb strings.Builder
	offsets := make([]int64, len(keys))
	for i, k := range keys {
		offsets[i] = int64(sb.Len())
		sb.WriteString(strconv.Itoa(k))
		if p := pad(i); p > 0 {
			sb.WriteByte(' ')
			sb.WriteString(strings.Repeat("~", p))
		}
		if i < len(keys)-1 || trailingNewline {
			sb.WriteByte('\n')
		}
	}
	return fixture{data: sb.String(), keys: keys, offsets: offsets}
}

func (f fixture) expected(target int) int64 {
	i := sort.SearchInts(f.keys, target)
	if i == len(f.keys) {
		return int64(len(f.data))
	}
	return f.offsets[i]
}

func newSearcher(t *testing.T, data string, bufSize int, optFns ...Option) (*cursor.Reader, *Searcher[int]) {
	t.Helper()
	r, err := cursor.New(strings.NewReader(data), cursor.WithBufferSize(bufSize))
	require.NoError(t, err)
	s, err := NewOrdered(r, intKey, optFns...)
	require.NoError(t, err)
	return r, s
}

func TestFindFirstAtLeast_Example(t *testing.T) {
	f := buildFixture([]int{1, 1, 3, 3, 3, 7, 9}, func(int) int { return 0 }, true)

	tests := []struct {
		target int
		index  int
	}{
		{target: 3, index: 2},
		{target: 5, index: 5},
		{target: 10, index: 7},
		{target: 0, index: 0},
		{target: 1, index: 0},
		{target: 2, index: 2},
		{target: 9, index: 6},
	}

	for _, bs := range []int{1, 2, 3, 8, 4096} {
		for _, tt := range tests {
			t.Run(fmt.Sprintf("buf=%d/target=%d", bs, tt.target), func(t *testing.T) {
				r, s := newSearcher(t, f.data, bs)

				off, err := s.FindFirstAtLeast(tt.target)
				require.NoError(t, err)
				assert.Equal(t, r.Tell(), off)

				if tt.index == len(f.keys) {
					assert.True(t, r.AtEnd())
					return
				}
				assert.Equal(t, f.offsets[tt.index], off)

				line, err := r.ReadLine()
				require.NoError(t, err)
				assert.Equal(t, strconv.Itoa(f.keys[tt.index])+"\n", string(line))
			})
		}
	}
}

func TestNew_Anchors(t *testing.T) {
	f := buildFixture([]int{2, 4, 6, 8}, func(int) int { return 3 }, false)
	r, s := newSearcher(t, f.data, 4)

	assert.Equal(t, Anchor[int]{Offset: 0, Key: 2}, s.First())
	assert.Equal(t, Anchor[int]{Offset: f.offsets[3], Key: 8}, s.Last())
	assert.Equal(t, int64(0), r.Tell())
}

func TestNew_RestoresFocus(t *testing.T) {
	f := buildFixture([]int{1, 2, 3, 4, 5}, func(int) int { return 0 }, true)
	r, err := cursor.New(strings.NewReader(f.data), cursor.WithBufferSize(3))
	require.NoError(t, err)

	_, err = r.Seek(f.offsets[2], io.SeekStart)
	require.NoError(t, err)

	_, err = NewOrdered(r, intKey)
	require.NoError(t, err)
	assert.Equal(t, f.offsets[2], r.Tell())
}

func TestFindFirstAtLeast_EmptyStream(t *testing.T) {
	r, err := cursor.New(strings.NewReader(""))
	require.NoError(t, err)

	called := false
	s, err := NewOrdered(r, func([]byte) int { called = true; return 0 })
	require.NoError(t, err)

	off, err := s.FindFirstAtLeast(42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), off)
	assert.False(t, called)
}

func TestFindFirstAtLeast_SingleLine(t *testing.T) {
	for _, data := range []string{"5", "5\n"} {
		r, s := newSearcher(t, data, 2)

		off, err := s.FindFirstAtLeast(5)
		require.NoError(t, err)
		assert.Equal(t, int64(0), off)

		off, err = s.FindFirstAtLeast(6)
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), off)
		assert.True(t, r.AtEnd())
	}
}

func TestFindFirstAtLeast_AllEqual(t *testing.T) {
	keys := make([]int, 50)
	for i := range keys {
		keys[i] = 7
	}
	f := buildFixture(keys, func(i int) int { return i % 5 }, true)
	_, s := newSearcher(t, f.data, 8)

	for _, target := range []int{6, 7, 8} {
		off, err := s.FindFirstAtLeast(target)
		require.NoError(t, err)
		assert.Equal(t, f.expected(target), off)
	}
}

func TestFindFirstAtLeast_VariableLineLengths(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 40; trial++ {
		n := 1 + rng.Intn(200)
		keys := make([]int, n)
		k := 0
		for i := range keys {
			k += rng.Intn(3) // duplicates are common
			keys[i] = k
		}
		pads := make([]int, n)
		for i := range pads {
			if rng.Intn(10) == 0 {
				pads[i] = rng.Intn(500)
			} else {
				pads[i] = rng.Intn(4)
			}
		}
		f := buildFixture(keys, func(i int) int { return pads[i] }, rng.Intn(2) == 0)
		bs := []int{1, 7, 64, 8196}[rng.Intn(4)]

		r, s := newSearcher(t, f.data, bs)
		for target := -1; target <= k+1; target++ {
			off, err := s.FindFirstAtLeast(target)
			require.NoError(t, err)
			require.Equal(t, f.expected(target), off, "trial=%d buf=%d target=%d", trial, bs, target)
			require.Equal(t, off, r.Tell())
		}
	}
}

func TestFindFirstAtLeast_StringKeys(t *testing.T) {
	data := "apple 1\nbanana 2\nbanana 3\ncherry 4\ndate 5\n"
	r, err := cursor.New(strings.NewReader(data), cursor.WithBufferSize(5))
	require.NoError(t, err)

	s, err := NewOrdered(r, func(line []byte) string {
		word, _, _ := bytes.Cut(line, []byte{' '})
		return string(word)
	})
	require.NoError(t, err)

	off, err := s.FindFirstAtLeast("banana")
	require.NoError(t, err)
	assert.Equal(t, int64(8), off)

	off, err = s.FindFirstAtLeast("c")
	require.NoError(t, err)
	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "cherry 4\n", string(line))
	assert.Equal(t, int64(26), off)
}

func TestFindFirstAtLeast_CustomCompare(t *testing.T) {
	// Lines sorted descending; compare inverted accordingly.
	data := "9\n7\n7\n4\n1\n"
	r, err := cursor.New(strings.NewReader(data), cursor.WithBufferSize(2))
	require.NoError(t, err)

	s, err := New(r, intKey, func(a, b int) int { return b - a })
	require.NoError(t, err)

	off, err := s.FindFirstAtLeast(7) // first line "not before" 7 in descending order
	require.NoError(t, err)
	assert.Equal(t, int64(2), off)

	off, err = s.FindFirstAtLeast(5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), off)
}

type recordingObserver struct {
	calls   int
	probes  int
	scanned int
}

func (o *recordingObserver) OnSearch(probes, scanned int, _ error) {
	o.calls++
	o.probes += probes
	o.scanned += scanned
}

func TestFindFirstAtLeast_Observer(t *testing.T) {
	keys := make([]int, 1000)
	for i := range keys {
		keys[i] = i
	}
	f := buildFixture(keys, func(int) int { return 0 }, true)
	obs := &recordingObserver{}
	_, s := newSearcher(t, f.data, 64, WithObserver(obs))

	off, err := s.FindFirstAtLeast(500)
	require.NoError(t, err)
	assert.Equal(t, f.offsets[500], off)

	assert.Equal(t, 1, obs.calls)
	assert.Greater(t, obs.probes, 0)
	assert.Less(t, obs.probes, 40, "bisection should need about log2(size) probes")
}

type failAfterReads struct {
	io.ReadSeeker
	left int
	err  error
}

func (f *failAfterReads) Read(p []byte) (int, error) {
	if f.left == 0 {
		return 0, f.err
	}
	f.left--
	return f.ReadSeeker.Read(p)
}

func TestFindFirstAtLeast_PropagatesIOErrors(t *testing.T) {
	keys := make([]int, 500)
	for i := range keys {
		keys[i] = i
	}
	f := buildFixture(keys, func(int) int { return 0 }, true)

	src := &failAfterReads{ReadSeeker: strings.NewReader(f.data), left: 2, err: io.ErrClosedPipe}
	r, err := cursor.New(src, cursor.WithBufferSize(16))
	require.NoError(t, err)

	s, err := NewOrdered(r, intKey)
	require.NoError(t, err)

	_, err = s.FindFirstAtLeast(250)
	require.ErrorIs(t, err, io.ErrClosedPipe)
}
