// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share

import (
	"io"
)

// DefaultBlockSize is the read size used when streaming a share or original
const DefaultBlockSize = 1024 * 1024

// RangeReader is the ranged read exposed by encoders, decoders and sources.
// A short result means the end was reached.
type RangeReader interface {
	ReadAt(offset, length int64) ([]byte, error)
}

// SectionReader streams a byte range of a RangeReader in fixed size blocks
type SectionReader struct {
	r         RangeReader
	offset    int64
	remaining int64 // negative reads to the end
	blockSize int64
	eof       bool

	buf []byte
}

// NewSectionReader streams length bytes of r starting at offset. A negative
// length reads to the end.
func NewSectionReader(r RangeReader, offset, length int64, blockSize int) *SectionReader {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &SectionReader{
		r:         r,
		offset:    offset,
		remaining: length,
		blockSize: int64(blockSize),
		eof:       length == 0,
	}
}

func (s *SectionReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(s.buf) == 0 {
		if s.eof {
			return 0, io.EOF
		}
		if err := s.fill(); err != nil {
			return 0, err
		}
		if len(s.buf) == 0 {
			return 0, io.EOF
		}
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

func (s *SectionReader) fill() error {
	want := s.blockSize
	if s.remaining >= 0 {
		want = min(want, s.remaining)
	}
	b, err := s.r.ReadAt(s.offset, want)
	if err != nil {
		return err
	}

	s.buf = b
	s.offset += int64(len(b))
	if s.remaining >= 0 {
		s.remaining -= int64(len(b))
	}
	// A short block is the end of the underlying file
	if int64(len(b)) < want || s.remaining == 0 {
		s.eof = true
	}
	return nil
}
