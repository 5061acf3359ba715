// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// FileSource serves a share.Source from an open file. os.File.ReadAt keeps
// reading until the buffer is full or the file ends, so short reads only
// happen at end of file.
type FileSource struct {
	f *os.File
}

// OpenFile opens path read-only as a source
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s: is a directory", path)
	}
	return &FileSource{f: f}, nil
}

func (s *FileSource) Size() (int64, error) {
	info, err := s.f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (s *FileSource) ReadAt(offset, length int64) ([]byte, error) {
	if offset < 0 || length <= 0 {
		return []byte{}, nil
	}
	size, err := s.Size()
	if err != nil {
		return nil, err
	}
	if offset >= size {
		return []byte{}, nil
	}
	length = min(length, size-offset)

	buf := make([]byte, length)
	n, err := s.f.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read %s at %d: %w", s.f.Name(), offset, err)
	}
	return buf[:n], nil
}

func (s *FileSource) Stat() (fs.FileInfo, error) {
	return s.f.Stat()
}

func (s *FileSource) Close() error {
	return s.f.Close()
}
