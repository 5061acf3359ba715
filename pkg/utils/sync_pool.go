// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"crypto/md5"
	"fmt"
	"hash"
	"hash/crc32"
	"sync"

	"github.com/minio/crc64nvme"
	"github.com/minio/sha256-simd"
)

// Checksum algorithms accepted by GetHasher
const (
	HashSHA256    = "sha256"
	HashCRC64NVME = "crc64nvme"
	HashCRC32     = "crc32"
	HashMD5       = "md5"
)

var hashPools = map[string]*sync.Pool{
	HashSHA256: {
		New: func() any {
			return sha256.New()
		},
	},
	HashCRC64NVME: {
		New: func() any {
			return crc64nvme.New()
		},
	},
	HashCRC32: {
		New: func() any {
			return crc32.NewIEEE()
		},
	},
	HashMD5: {
		New: func() any {
			return md5.New()
		},
	},
}

// GetHasher returns a reset hasher for algo from its pool
func GetHasher(algo string) (hash.Hash, error) {
	pool, ok := hashPools[algo]
	if !ok {
		return nil, fmt.Errorf("unknown checksum algorithm %q", algo)
	}
	return pool.Get().(hash.Hash), nil
}

// PutHasher resets h and returns it to the pool for algo
func PutHasher(algo string, h hash.Hash) {
	pool, ok := hashPools[algo]
	if !ok {
		return
	}
	h.Reset()
	pool.Put(h)
}
