// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share_test

import (
	"errors"
	"io/fs"
	"sync/atomic"
	"testing"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/ec"

	"github.com/stretchr/testify/require"
)

// testLengths are the original lengths every grid test covers
var testLengths = []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 23, 57, 64, 277, 1045}

// pattern returns n deterministic bytes with no zero runs, so padding
// mistakes show up as mismatches
func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 1)
	}
	return b
}

func newCodec(t *testing.T, k, n int) *ec.ReedSolomonCoder {
	t.Helper()
	c, err := ec.NewReedSolomonCoder(k, n-k)
	require.NoError(t, err)
	return c
}

// encodeAll materializes all n shares of original
func encodeAll(t *testing.T, codec share.Codec, original []byte) [][]byte {
	t.Helper()
	k := codec.Required()
	shares := make([][]byte, codec.Total())
	for i := range shares {
		enc, err := share.NewEncoder(k, i, share.NewBytesSource("original", original), codec)
		require.NoError(t, err)
		full, err := enc.ReadAt(0, enc.Size())
		require.NoError(t, err)
		require.Len(t, full, int(enc.Size()))
		shares[i] = full
	}
	return shares
}

// pick returns byte sources for the given share indices, in that order
func pick(shares [][]byte, indices ...int) []share.Source {
	sources := make([]share.Source, len(indices))
	for i, idx := range indices {
		sources[i] = share.NewBytesSource("share", shares[idx])
	}
	return sources
}

// clamp is the expected result of a ranged read of data
func clamp(data []byte, offset, length int) []byte {
	if offset >= len(data) || length <= 0 {
		return []byte{}
	}
	end := min(offset+length, len(data))
	return data[offset:end]
}

// combinations returns every k-subset of [0,n) in lexicographic order
func combinations(n, k int) [][]int {
	var out [][]int
	var walk func(start int, cur []int)
	walk = func(start int, cur []int) {
		if len(cur) == k {
			out = append(out, append([]int(nil), cur...))
			return
		}
		for i := start; i < n; i++ {
			walk(i+1, append(cur, i))
		}
	}
	walk(0, nil)
	return out
}

// countingSource records Close calls
type countingSource struct {
	share.Source
	closes atomic.Int32
}

func (c *countingSource) Close() error {
	c.closes.Add(1)
	return c.Source.Close()
}

// flakySource fails its first failures reads
type flakySource struct {
	share.Source
	failures int
}

var errFlaky = errors.New("transient read failure")

func (f *flakySource) ReadAt(offset, length int64) ([]byte, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errFlaky
	}
	return f.Source.ReadAt(offset, length)
}

// sizedSource reports a fixed size regardless of its content
type sizedSource struct {
	share.Source
	size int64
}

func (s *sizedSource) Size() (int64, error) { return s.size, nil }

func (s *sizedSource) Stat() (fs.FileInfo, error) {
	return &share.FileInfo{FileName: "sized", FileSize: s.size}, nil
}

// opaqueCodec hides the systematic fast path so every share goes through
// the codec
type opaqueCodec struct {
	share.Codec
}
