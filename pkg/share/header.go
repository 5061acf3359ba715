// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share

import (
	"fmt"
)

// HeaderSize is the length of the metadata prefix carried by every share
const HeaderSize = 3

// MaxRequired is the largest K a header can record
const MaxRequired = 255

// Header is the per-share metadata prefix: [K][index][leftover], one raw byte each.
// Headers are never erasure coded, so every share can be validated on its own.
type Header struct {
	Required uint8 // K, shares needed to reconstruct
	Index    uint8 // share index in [0, N)
	Leftover uint8 // original length mod K
}

// NewHeader builds the header of share index for an original of originalSize bytes
func NewHeader(required, index int, originalSize int64) Header {
	return Header{
		Required: uint8(required),
		Index:    uint8(index),
		Leftover: uint8(originalSize % int64(required)),
	}
}

// ParseHeader decodes the first HeaderSize bytes of b
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: got %d bytes", ErrShortHeader, len(b))
	}
	return Header{Required: b[0], Index: b[1], Leftover: b[2]}, nil
}

// Bytes returns the wire form of the header
func (h Header) Bytes() []byte {
	return []byte{h.Required, h.Index, h.Leftover}
}

func (h Header) String() string {
	return fmt.Sprintf("k=%d index=%d leftover=%d", h.Required, h.Index, h.Leftover)
}

// EncodedSize returns the length of every share of an original of
// originalSize bytes split with the given K.
func EncodedSize(required int, originalSize int64) int64 {
	return ceilDiv(originalSize, int64(required)) + HeaderSize
}

// DecodedSize predicts the original length from a single share, using only the
// header and the share's total size. The payload itself is never scanned.
func DecodedSize(src Source) (int64, error) {
	raw, err := src.ReadAt(0, HeaderSize)
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	h, err := ParseHeader(raw)
	if err != nil {
		return 0, &IntegrityError{Reason: ReasonShortHeader, Share: -1, Detail: err.Error()}
	}
	if h.Required == 0 {
		return 0, &IntegrityError{Reason: ReasonInvalidRequired, Share: -1, Detail: "k is zero"}
	}

	size, err := src.Size()
	if err != nil {
		return 0, fmt.Errorf("share size: %w", err)
	}
	return decodedSize(h, size-HeaderSize, -1)
}

// decodedSize applies the size formula to a payload length. share is the
// position reported in errors.
func decodedSize(h Header, payload int64, share int) (int64, error) {
	if payload < 0 {
		return 0, &IntegrityError{Reason: ReasonTruncatedShare, Share: share,
			Detail: fmt.Sprintf("payload length %d", payload)}
	}
	if h.Leftover >= h.Required {
		return 0, &IntegrityError{Reason: ReasonInvalidLeftover, Share: share,
			Detail: fmt.Sprintf("leftover %d with k=%d", h.Leftover, h.Required)}
	}
	if payload == 0 && h.Leftover != 0 {
		return 0, &IntegrityError{Reason: ReasonInvalidLeftover, Share: share,
			Detail: fmt.Sprintf("leftover %d on an empty payload", h.Leftover)}
	}

	var padded int64
	if h.Leftover > 0 {
		padded = 1
	}
	return (payload-padded)*int64(h.Required) + int64(h.Leftover), nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
