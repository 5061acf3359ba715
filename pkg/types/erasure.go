// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// maxShards bounds data+parity for GF(2^8) codes
const maxShards = 256

// ECScheme defines erasure coding parameters
type ECScheme struct {
	DataShards   int `json:"data_shards" mapstructure:"data_shards"`     // K, shares needed to reconstruct
	ParityShards int `json:"parity_shards" mapstructure:"parity_shards"` // extra shares beyond K
}

// Common EC schemes
var (
	// EC3_17 mirrors the classic zfec filesystem default: any 3 of 20
	EC3_17 = ECScheme{DataShards: 3, ParityShards: 17}

	// EC4_2 for smaller deployments: 4 data + 2 parity
	// Can tolerate 2 failures, 50% storage overhead
	EC4_2 = ECScheme{DataShards: 4, ParityShards: 2}

	// EC6_3 balanced: 6 data + 3 parity
	EC6_3 = ECScheme{DataShards: 6, ParityShards: 3}

	// EC10_4: 10 data + 4 parity, 40% storage overhead
	EC10_4 = ECScheme{DataShards: 10, ParityShards: 4}

	// ECSchemes maps scheme names to predefined schemes
	ECSchemes = map[string]ECScheme{
		"3+17": EC3_17,
		"4+2":  EC4_2,
		"6+3":  EC6_3,
		"10+4": EC10_4,
	}
)

// NewECScheme builds a scheme from K required shares out of total shares
func NewECScheme(required, total int) (ECScheme, error) {
	s := ECScheme{DataShards: required, ParityShards: total - required}
	if err := s.Validate(); err != nil {
		return ECScheme{}, err
	}
	return s, nil
}

// ParseECScheme parses an EC scheme string like "4+2" or "3+17"
// Returns the parsed scheme or an error if invalid
func ParseECScheme(s string) (ECScheme, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EC3_17, nil // Default scheme
	}

	// Check predefined schemes first
	if scheme, ok := ECSchemes[s]; ok {
		return scheme, nil
	}

	// Parse custom "data+parity" format
	parts := strings.Split(s, "+")
	if len(parts) != 2 {
		return ECScheme{}, fmt.Errorf("invalid EC scheme format %q: expected 'data+parity' (e.g., '3+17')", s)
	}

	data, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || data < 1 {
		return ECScheme{}, fmt.Errorf("invalid data shards in EC scheme %q: must be positive integer", s)
	}

	parity, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || parity < 0 {
		return ECScheme{}, fmt.Errorf("invalid parity shards in EC scheme %q: must be non-negative integer", s)
	}

	scheme := ECScheme{DataShards: data, ParityShards: parity}
	if err := scheme.Validate(); err != nil {
		return ECScheme{}, err
	}
	return scheme, nil
}

// Validate checks 1 <= K <= 255 and K <= N <= 256
func (e ECScheme) Validate() error {
	if e.DataShards < 1 || e.DataShards > maxShards-1 {
		return fmt.Errorf("invalid EC scheme %s: data shards must be in [1,%d]", e, maxShards-1)
	}
	if e.ParityShards < 0 {
		return fmt.Errorf("invalid EC scheme %s: parity shards must not be negative", e)
	}
	if e.TotalShards() > maxShards {
		return fmt.Errorf("invalid EC scheme %s: at most %d shares", e, maxShards)
	}
	return nil
}

// String returns the scheme in "data+parity" format
func (e ECScheme) String() string {
	return fmt.Sprintf("%d+%d", e.DataShards, e.ParityShards)
}

// TotalShards returns total number of shards
func (e ECScheme) TotalShards() int {
	return e.DataShards + e.ParityShards
}

// Overhead returns the storage overhead ratio (e.g., 1.4 for 10+4)
func (e ECScheme) Overhead() float64 {
	if e.DataShards == 0 {
		return 0
	}
	return float64(e.TotalShards()) / float64(e.DataShards)
}

// FaultTolerance returns how many shards can be lost
func (e ECScheme) FaultTolerance() int {
	return e.ParityShards
}
