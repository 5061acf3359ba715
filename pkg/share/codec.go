// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share

// Codec is the erasure-coding primitive the transform is built on. It works
// on K equal-length blocks, one symbol per row.
type Codec interface {
	// Required returns K, the number of blocks needed to reconstruct
	Required() int

	// Total returns N, the number of distinct share indices
	Total() int

	// Encode takes the K original blocks in order and returns one block per
	// wanted index, in the order requested.
	Encode(blocks [][]byte, wanted []int) ([][]byte, error)

	// Decode takes K blocks with their share indices and returns the K
	// original blocks in index order.
	Decode(blocks [][]byte, indices []int) ([][]byte, error)
}

// Systematic is implemented by codecs whose share i, for i < K, is exactly
// original block i. The encoder serves those shares without a codec call.
type Systematic interface {
	Systematic() bool
}

func isSystematic(c Codec) bool {
	s, ok := c.(Systematic)
	return ok && s.Systematic()
}
