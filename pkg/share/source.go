// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share

import (
	"io"
	"io/fs"
	"time"
)

// Source is a random-access, read-only byte source exclusively owned by its
// holder.
//
// ReadAt must return fewer than length bytes only when the end of the source
// is reached. Offsets or lengths outside the source clamp to the available
// bytes and are never an error. The encoder's tail padding and the decoder's
// column alignment both rely on this.
type Source interface {
	io.Closer

	// Size returns the total length of the source
	Size() (int64, error)

	// ReadAt returns up to length bytes starting at offset
	ReadAt(offset, length int64) ([]byte, error)

	// Stat returns passthrough metadata for the underlying object
	Stat() (fs.FileInfo, error)
}

// OpenRequired calls open for candidates 0..candidates-1 in order until
// required sources are open. When fewer open, those already acquired are
// closed and a *ResourceError wrapping the last open failure is returned.
// On success the caller owns the sources.
func OpenRequired(required, candidates int, open func(i int) (Source, error)) ([]Source, error) {
	var (
		sources []Source
		lastErr error
	)
	for i := 0; i < candidates && len(sources) < required; i++ {
		src, err := open(i)
		if err != nil {
			lastErr = err
			continue
		}
		sources = append(sources, src)
	}
	if len(sources) < required {
		CloseAll(sources)
		return nil, &ResourceError{Required: required, Available: len(sources), Err: lastErr}
	}
	return sources, nil
}

// CloseAll closes every source, ignoring errors
func CloseAll(sources []Source) {
	for _, s := range sources {
		s.Close()
	}
}

// BytesSource serves a Source from a byte slice
type BytesSource struct {
	name    string
	data    []byte
	modTime time.Time
}

// NewBytesSource wraps data. The slice is not copied and must not be modified
// while the source is in use.
func NewBytesSource(name string, data []byte) *BytesSource {
	return &BytesSource{name: name, data: data, modTime: time.Now()}
}

func (b *BytesSource) Size() (int64, error) {
	return int64(len(b.data)), nil
}

func (b *BytesSource) ReadAt(offset, length int64) ([]byte, error) {
	return ClampRange(b.data, offset, length), nil
}

func (b *BytesSource) Stat() (fs.FileInfo, error) {
	return &FileInfo{FileName: b.name, FileSize: int64(len(b.data)), FileMode: 0444, Modified: b.modTime}, nil
}

func (b *BytesSource) Close() error {
	return nil
}

// ClampRange returns a copy of data[offset:offset+length] clamped to the
// bounds of data.
func ClampRange(data []byte, offset, length int64) []byte {
	size := int64(len(data))
	if offset < 0 || length <= 0 || offset >= size {
		return []byte{}
	}
	end := offset + length
	if end > size || end < offset {
		end = size
	}
	out := make([]byte, end-offset)
	copy(out, data[offset:end])
	return out
}

// FileInfo is a plain fs.FileInfo used by sources and views that have no
// operating system metadata to pass through.
type FileInfo struct {
	FileName string
	FileSize int64
	FileMode fs.FileMode
	Modified time.Time
}

func (fi *FileInfo) Name() string       { return fi.FileName }
func (fi *FileInfo) Size() int64        { return fi.FileSize }
func (fi *FileInfo) Mode() fs.FileMode  { return fi.FileMode }
func (fi *FileInfo) ModTime() time.Time { return fi.Modified }
func (fi *FileInfo) IsDir() bool        { return fi.FileMode.IsDir() }
func (fi *FileInfo) Sys() any           { return nil }
