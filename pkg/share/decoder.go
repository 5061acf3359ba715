// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share

import (
	"errors"
	"fmt"
)

// Decoder reconstructs byte ranges of an original from exactly K shares.
//
// Share headers are validated once, on first use. A failed validation is
// fatal: every later call returns the same *IntegrityError.
type Decoder struct {
	required int
	sources  []Source
	codec    Codec

	validated *validation
	closed    bool
}

// validation is the outcome of the one-time header check
type validation struct {
	size    int64
	indices []int
	err     error
}

// NewDecoder creates a decoder over sources, which must hold exactly K shares
// with distinct indices. Share indices are taken from the share headers.
// The decoder takes ownership of sources and closes them on Close.
func NewDecoder(required int, sources []Source, codec Codec) (*Decoder, error) {
	if required < 1 || required > MaxRequired {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidParams, required)
	}
	if codec.Required() != required {
		return nil, fmt.Errorf("%w: codec k=%d, decoder k=%d", ErrInvalidParams, codec.Required(), required)
	}
	if len(sources) < required {
		return nil, &ResourceError{Required: required, Available: len(sources)}
	}
	if len(sources) > required {
		return nil, fmt.Errorf("%w: %d sources for k=%d", ErrInvalidParams, len(sources), required)
	}
	return &Decoder{
		required: required,
		sources:  sources,
		codec:    codec,
	}, nil
}

// Size returns the length of the original
func (d *Decoder) Size() (int64, error) {
	v, err := d.metadata()
	if err != nil {
		return 0, err
	}
	return v.size, nil
}

// Indices returns the share index of each source, in source order
func (d *Decoder) Indices() ([]int, error) {
	v, err := d.metadata()
	if err != nil {
		return nil, err
	}
	return append([]int(nil), v.indices...), nil
}

// ReadAt returns up to length bytes of the original starting at offset.
// Reads past the end clamp to the original size.
func (d *Decoder) ReadAt(offset, length int64) ([]byte, error) {
	v, err := d.metadata()
	if err != nil {
		return nil, err
	}
	if offset < 0 || length <= 0 || offset >= v.size {
		return []byte{}, nil
	}
	// Clamp before the row arithmetic so huge lengths cannot overflow
	length = min(length, v.size-offset)

	k := int64(d.required)
	rowStart := offset / k
	// One extra row absorbs an offset that is not row aligned
	rows := ceilDiv(length, k) + 1

	columns := make([][]byte, d.required)
	shortest := rows
	for i, src := range d.sources {
		b, err := src.ReadAt(HeaderSize+rowStart, rows)
		if err != nil {
			return nil, fmt.Errorf("read source %d: %w", i, err)
		}
		columns[i] = b
		shortest = min(shortest, int64(len(b)))
	}
	if shortest == 0 {
		return []byte{}, nil
	}
	for i := range columns {
		columns[i] = columns[i][:shortest]
	}

	decoded, err := d.codec.Decode(columns, v.indices)
	if err != nil {
		return nil, fmt.Errorf("decode rows %d-%d: %w", rowStart, rowStart+shortest, err)
	}
	data := interleave(decoded, int(shortest))

	skip := offset % k
	n := min(length, int64(len(data))-skip)
	if n <= 0 {
		return []byte{}, nil
	}
	return data[skip : skip+n], nil
}

// Close closes every source exactly once
func (d *Decoder) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true

	var errs []error
	for i, src := range d.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close source %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

func (d *Decoder) metadata() (*validation, error) {
	if d.validated != nil {
		return d.validated, d.validated.err
	}
	v, err := d.validate()
	if err != nil {
		var ie *IntegrityError
		if errors.As(err, &ie) {
			d.validated = &validation{err: err}
		}
		return nil, err
	}
	d.validated = v
	return v, nil
}

// validate checks every share header in a single pass. Read failures are
// returned as they are and are not cached.
func (d *Decoder) validate() (*validation, error) {
	var (
		leftover  uint8
		shareSize int64
		indices   = make([]int, 0, len(d.sources))
		seen      = make(map[int]int, len(d.sources))
	)

	for i, src := range d.sources {
		raw, err := src.ReadAt(0, HeaderSize)
		if err != nil {
			return nil, fmt.Errorf("read header of source %d: %w", i, err)
		}
		h, err := ParseHeader(raw)
		if err != nil {
			return nil, &IntegrityError{Reason: ReasonShortHeader, Share: i, Detail: err.Error()}
		}
		if int(h.Required) != d.required {
			return nil, &IntegrityError{Reason: ReasonRequiredMismatch, Share: i,
				Detail: fmt.Sprintf("header k=%d, expected %d", h.Required, d.required)}
		}

		size, err := src.Size()
		if err != nil {
			return nil, fmt.Errorf("size of source %d: %w", i, err)
		}

		if i == 0 {
			leftover = h.Leftover
			shareSize = size
		} else {
			if h.Leftover != leftover {
				return nil, &IntegrityError{Reason: ReasonLeftoverMismatch, Share: i,
					Detail: fmt.Sprintf("leftover %d, expected %d", h.Leftover, leftover)}
			}
			if size != shareSize {
				return nil, &IntegrityError{Reason: ReasonSizeMismatch, Share: i,
					Detail: fmt.Sprintf("size %d, expected %d", size, shareSize)}
			}
		}

		index := int(h.Index)
		if index >= d.codec.Total() {
			return nil, &IntegrityError{Reason: ReasonIndexOutOfRange, Share: i,
				Detail: fmt.Sprintf("index %d, codec has %d shares", index, d.codec.Total())}
		}
		if prev, dup := seen[index]; dup {
			return nil, &IntegrityError{Reason: ReasonDuplicateIndex, Share: i,
				Detail: fmt.Sprintf("index %d also carried by source %d", index, prev)}
		}
		seen[index] = i
		indices = append(indices, index)
	}

	h := Header{Required: uint8(d.required), Leftover: leftover}
	size, err := decodedSize(h, shareSize-HeaderSize, -1)
	if err != nil {
		return nil, err
	}
	return &validation{size: size, indices: indices}, nil
}

// interleave merges k columns of rows symbols back into row-major order
func interleave(columns [][]byte, rows int) []byte {
	k := len(columns)
	out := make([]byte, rows*k)
	for p, column := range columns {
		for r := 0; r < rows; r++ {
			out[r*k+p] = column[r]
		}
	}
	return out
}
