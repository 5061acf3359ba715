// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

type FreeSpaceType int

const (
	AsPercent FreeSpaceType = iota
	AsBytes
)

// FreeSpace is a minimum free space threshold, either a percentage of the
// volume or an absolute byte count
type FreeSpace struct {
	Type    FreeSpaceType
	Bytes   uint64
	Percent float32
	Raw     string
}

// IsLow reports whether the volume is below the threshold, with a message
// describing the comparison
func (s FreeSpace) IsLow(freeBytes, totalBytes uint64) (bool, string) {
	switch s.Type {
	case AsPercent:
		var freePercent float32
		if totalBytes > 0 {
			freePercent = float32(freeBytes) / float32(totalBytes) * 100
		}
		return freePercent < s.Percent, fmt.Sprintf("disk free percent %.2f%%, threshold %.2f%%", freePercent, s.Percent)
	case AsBytes:
		return freeBytes < s.Bytes, fmt.Sprintf("disk free %s, threshold %s", humanize.IBytes(freeBytes), humanize.IBytes(s.Bytes))
	}
	return false, ""
}

func (s FreeSpace) String() string {
	switch s.Type {
	case AsPercent:
		return fmt.Sprintf("%.2f%%", s.Percent)
	default:
		return s.Raw
	}
}

// ParseMinFreeSpace accepts a bare number as a percentage ("5") or a byte
// size ("10GiB")
func ParseMinFreeSpace(s string) (*FreeSpace, error) {
	if percent, err := strconv.ParseFloat(s, 32); err == nil {
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("invalid percent value: %s", s)
		}
		return &FreeSpace{
			Type:    AsPercent,
			Percent: float32(percent),
			Raw:     s,
		}, nil
	}

	if bytes, err := humanize.ParseBytes(s); err == nil {
		if bytes <= 100 {
			return nil, fmt.Errorf("invalid byte value: %s", s)
		}
		return &FreeSpace{
			Type:  AsBytes,
			Bytes: bytes,
			Raw:   s,
		}, nil
	}

	return nil, errors.New("invalid min free space format")
}
