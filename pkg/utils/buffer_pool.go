// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"math/bits"
	"sync"
)

// Size classes are powers of two from 1KB to 4MB
const (
	minPoolSize   = 1 << 10
	maxPoolSize   = 1 << 22
	numPoolLevels = 13
)

var bufferPools [numPoolLevels]sync.Pool

func init() {
	for i := range bufferPools {
		size := minPoolSize << i
		bufferPools[i] = sync.Pool{
			New: func() any {
				buf := make([]byte, size)
				return &buf
			},
		}
	}
}

// poolIndex returns the size class holding size, or -1 above maxPoolSize
func poolIndex(size int) int {
	if size <= minPoolSize {
		return 0
	}
	if size > maxPoolSize {
		return -1
	}
	return bits.Len(uint(size-1)) - 10
}

// GetBuffer returns a scratch slice of exactly size bytes. Contents are
// undefined. Sizes above 4MB are allocated directly.
func GetBuffer(size int) []byte {
	idx := poolIndex(size)
	if idx < 0 {
		return make([]byte, size)
	}
	bufPtr := bufferPools[idx].Get().(*[]byte)
	return (*bufPtr)[:size]
}

// PutBuffer returns a slice obtained from GetBuffer. Slices whose capacity
// is not a pool size class are dropped.
//
// The slice, and anything aliasing it, must not be used afterwards.
func PutBuffer(buf []byte) {
	c := cap(buf)
	idx := poolIndex(c)
	if idx < 0 || c != minPoolSize<<idx {
		return
	}
	buf = buf[:c]
	bufferPools[idx].Put(&buf)
}
