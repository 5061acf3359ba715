// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package ec

import (
	"errors"
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// MaxShards is the largest number of distinct share indices (GF(2^8))
const MaxShards = 256

// ErrInvalidInput is returned when the coder is called with the wrong number
// of blocks, blocks of unequal length, or bad share indices. It signals a
// caller bug rather than a runtime condition.
var ErrInvalidInput = errors.New("invalid erasure coder input")

// ReedSolomonCoder implements share.Codec using Reed-Solomon. It is
// systematic: shares 0..K-1 carry the original blocks unchanged.
type ReedSolomonCoder struct {
	enc          reedsolomon.Encoder // nil when there are no parity shares
	dataShards   int
	parityShards int
}

// NewReedSolomonCoder creates a coder producing dataShards+parityShards shares
func NewReedSolomonCoder(dataShards, parityShards int) (*ReedSolomonCoder, error) {
	if dataShards < 1 || parityShards < 0 || dataShards+parityShards > MaxShards {
		return nil, fmt.Errorf("%w: %d+%d shares", ErrInvalidInput, dataShards, parityShards)
	}
	r := &ReedSolomonCoder{
		dataShards:   dataShards,
		parityShards: parityShards,
	}
	if parityShards > 0 {
		enc, err := reedsolomon.New(dataShards, parityShards)
		if err != nil {
			return nil, err
		}
		r.enc = enc
	}
	return r, nil
}

// Required returns the number of shares needed to reconstruct
func (r *ReedSolomonCoder) Required() int {
	return r.dataShards
}

// Total returns the number of distinct share indices
func (r *ReedSolomonCoder) Total() int {
	return r.dataShards + r.parityShards
}

func (r *ReedSolomonCoder) DataShards() int {
	return r.dataShards
}

func (r *ReedSolomonCoder) ParityShards() int {
	return r.parityShards
}

func (r *ReedSolomonCoder) Systematic() bool {
	return true
}

// Encode returns the blocks of the wanted share indices. Parity is computed
// only when a parity index is requested.
func (r *ReedSolomonCoder) Encode(blocks [][]byte, wanted []int) ([][]byte, error) {
	size, err := r.checkBlocks(blocks)
	if err != nil {
		return nil, err
	}
	needParity := false
	for _, w := range wanted {
		if w < 0 || w >= r.Total() {
			return nil, fmt.Errorf("%w: wanted index %d outside [0,%d)", ErrInvalidInput, w, r.Total())
		}
		if w >= r.dataShards {
			needParity = true
		}
	}

	shards := make([][]byte, r.Total())
	copy(shards, blocks)
	if needParity && size > 0 {
		for i := r.dataShards; i < len(shards); i++ {
			shards[i] = make([]byte, size)
		}
		if err := r.enc.Encode(shards); err != nil {
			return nil, fmt.Errorf("encode: %w", err)
		}
	}

	out := make([][]byte, len(wanted))
	for i, w := range wanted {
		if w >= r.dataShards {
			if size == 0 {
				out[i] = []byte{}
			} else {
				out[i] = shards[w]
			}
			continue
		}
		out[i] = append([]byte(nil), shards[w]...)
	}
	return out, nil
}

// Decode reconstructs the K original blocks from any K shares
func (r *ReedSolomonCoder) Decode(blocks [][]byte, indices []int) ([][]byte, error) {
	size, err := r.checkBlocks(blocks)
	if err != nil {
		return nil, err
	}
	if len(indices) != len(blocks) {
		return nil, fmt.Errorf("%w: %d indices for %d blocks", ErrInvalidInput, len(indices), len(blocks))
	}

	shards := make([][]byte, r.Total())
	needReconstruct := false
	for i, idx := range indices {
		if idx < 0 || idx >= r.Total() {
			return nil, fmt.Errorf("%w: index %d outside [0,%d)", ErrInvalidInput, idx, r.Total())
		}
		if shards[idx] != nil {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrInvalidInput, idx)
		}
		shards[idx] = blocks[i]
		if idx >= r.dataShards {
			needReconstruct = true
		}
	}

	if needReconstruct && size > 0 {
		if err := r.enc.ReconstructData(shards); err != nil {
			return nil, fmt.Errorf("reconstruct: %w", err)
		}
	}

	out := make([][]byte, r.dataShards)
	for i := range out {
		if shards[i] == nil {
			out[i] = []byte{}
			continue
		}
		out[i] = shards[i]
	}
	return out, nil
}

// checkBlocks verifies there are exactly K blocks of equal length and
// returns that length
func (r *ReedSolomonCoder) checkBlocks(blocks [][]byte) (int, error) {
	if len(blocks) != r.dataShards {
		return 0, fmt.Errorf("%w: got %d blocks, want %d", ErrInvalidInput, len(blocks), r.dataShards)
	}
	size := len(blocks[0])
	for i, b := range blocks {
		if len(b) != size {
			return 0, fmt.Errorf("%w: block %d has %d bytes, block 0 has %d", ErrInvalidInput, i, len(b), size)
		}
	}
	return size, nil
}
