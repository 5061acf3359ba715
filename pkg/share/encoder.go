// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share

import (
	"fmt"

	"github.com/LeeDigitalWorks/sharefs/pkg/utils"
)

// DefaultBatchRows bounds how many rows a single codec call covers
const DefaultBatchRows = 64 * 1024

// Encoder projects one share of an original file. Nothing is materialized:
// every ReadAt recomputes the requested bytes from the original.
type Encoder struct {
	required     int
	index        int
	original     Source
	originalSize int64
	codec        Codec
	systematic   bool
	batchRows    int64
}

// EncoderOption configures an Encoder
type EncoderOption func(*Encoder)

// WithBatchRows sets the number of rows encoded per codec call
func WithBatchRows(rows int) EncoderOption {
	return func(e *Encoder) {
		if rows > 0 {
			e.batchRows = int64(rows)
		}
	}
}

// NewEncoder creates the encoder for share index of original. The original
// size is read once here and assumed stable for the encoder's lifetime.
func NewEncoder(required, index int, original Source, codec Codec, opts ...EncoderOption) (*Encoder, error) {
	if required < 1 || required > MaxRequired {
		return nil, fmt.Errorf("%w: k=%d", ErrInvalidParams, required)
	}
	if codec.Required() != required {
		return nil, fmt.Errorf("%w: codec k=%d, encoder k=%d", ErrInvalidParams, codec.Required(), required)
	}
	if index < 0 || index >= codec.Total() {
		return nil, fmt.Errorf("%w: index %d outside [0,%d)", ErrInvalidParams, index, codec.Total())
	}

	size, err := original.Size()
	if err != nil {
		return nil, fmt.Errorf("original size: %w", err)
	}

	e := &Encoder{
		required:     required,
		index:        index,
		original:     original,
		originalSize: size,
		codec:        codec,
		systematic:   isSystematic(codec),
		batchRows:    DefaultBatchRows,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Header returns the metadata prefix of this share
func (e *Encoder) Header() Header {
	return NewHeader(e.required, e.index, e.originalSize)
}

// Size returns the total length of this share
func (e *Encoder) Size() int64 {
	return EncodedSize(e.required, e.originalSize)
}

// Index returns the share index
func (e *Encoder) Index() int {
	return e.index
}

// OriginalSize returns the length of the original the share is derived from
func (e *Encoder) OriginalSize() int64 {
	return e.originalSize
}

// ReadAt returns up to length bytes of the share starting at offset. Reads
// past the end clamp to the share size.
func (e *Encoder) ReadAt(offset, length int64) ([]byte, error) {
	size := e.Size()
	if offset < 0 || length <= 0 || offset >= size {
		return []byte{}, nil
	}
	if length > size-offset {
		length = size - offset
	}

	out := make([]byte, 0, length)
	if offset < HeaderSize {
		n := min(HeaderSize-offset, length)
		out = append(out, e.Header().Bytes()[offset:offset+n]...)
		offset += n
		length -= n
	}
	if length == 0 {
		return out, nil
	}

	// Payload byte i of a share is the symbol of row i
	row := offset - HeaderSize
	for length > 0 {
		column, err := e.encodeRows(row, min(length, e.batchRows))
		if err != nil {
			return nil, err
		}
		if len(column) == 0 {
			break
		}
		out = append(out, column...)
		row += int64(len(column))
		length -= int64(len(column))
	}
	return out, nil
}

// encodeRows returns this share's symbols for rows [row, row+rows)
func (e *Encoder) encodeRows(row, rows int64) ([]byte, error) {
	k := int64(e.required)
	start := row * k
	data, err := e.original.ReadAt(start, rows*k)
	if err != nil {
		return nil, fmt.Errorf("read original at %d: %w", start, err)
	}
	data = e.alignRows(data, start)
	if len(data) == 0 {
		return nil, nil
	}

	if e.systematic && e.index < e.required {
		column := make([]byte, len(data)/e.required)
		copyColumn(column, data, e.index, e.required)
		return column, nil
	}

	scratch := utils.GetBuffer(len(data))
	defer utils.PutBuffer(scratch)
	columns := deinterleave(scratch, data, e.required)

	encoded, err := e.codec.Encode(columns, []int{e.index})
	if err != nil {
		return nil, fmt.Errorf("encode share %d: %w", e.index, err)
	}
	return encoded[0], nil
}

// alignRows makes data a whole number of rows. A short run before the end of
// the original is trimmed to the last full row; a run that reaches the end is
// zero-padded to complete the final row.
func (e *Encoder) alignRows(data []byte, start int64) []byte {
	excess := len(data) % e.required
	if excess == 0 {
		return data
	}
	if start+int64(len(data)) < e.originalSize {
		return data[:len(data)-excess]
	}
	// Sources may hand out their own buffers, so pad a copy
	padded := make([]byte, len(data)+e.required-excess)
	copy(padded, data)
	return padded
}

// deinterleave splits row-major data into k columns backed by buf
func deinterleave(buf, data []byte, k int) [][]byte {
	rows := len(data) / k
	columns := make([][]byte, k)
	for p := range columns {
		columns[p] = buf[p*rows : (p+1)*rows : (p+1)*rows]
		copyColumn(columns[p], data, p, k)
	}
	return columns
}

// copyColumn copies every stride-th byte of data starting at pos into dst
func copyColumn(dst, data []byte, pos, stride int) {
	for i := range dst {
		dst[i] = data[pos+i*stride]
	}
}
