// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package sharefs presents share trees over storage backends.
//
// An EncodedView projects every file of a source backend into N shares laid
// out as /<xx>/<path>, where xx is the share index in two hex digits. A
// RestoredView does the reverse over a root whose children are share
// directories, reassembling each file from the first K shares it finds.
// Both views are read-only and compute their contents on demand.
package sharefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync/atomic"

	"github.com/LeeDigitalWorks/sharefs/pkg/logger"
	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"
)

// EncodedView presents the shares of every file below a source backend
type EncodedView struct {
	source types.BackendStorage
	codec  share.Codec
	opts   []share.EncoderOption
}

// NewEncodedView creates a view over source. The codec fixes K and N.
func NewEncodedView(source types.BackendStorage, codec share.Codec, opts ...share.EncoderOption) *EncodedView {
	return &EncodedView{
		source: source,
		codec:  codec,
		opts:   opts,
	}
}

// Shares returns the number of share directories, N
func (v *EncodedView) Shares() int {
	return v.codec.Total()
}

// Stat returns metadata for a view path. Regular files report their share
// size, directories pass through.
func (v *EncodedView) Stat(ctx context.Context, p string) (fs.FileInfo, error) {
	dp, err := DecodePath(p, v.codec.Total())
	if err != nil {
		return nil, err
	}
	if !dp.HasIndex {
		return rootInfo(), nil
	}

	info, err := v.source.Stat(ctx, dp.Key)
	if err != nil {
		return nil, err
	}
	if dp.Key == "" {
		name, _ := EncodeShareIndex(dp.Index)
		return project(info, name, info.Size()), nil
	}
	return v.project(info), nil
}

// ReadDir lists a view directory. The root lists one directory per share
// index.
func (v *EncodedView) ReadDir(ctx context.Context, p string) ([]fs.FileInfo, error) {
	dp, err := DecodePath(p, v.codec.Total())
	if err != nil {
		return nil, err
	}

	if !dp.HasIndex {
		root, err := v.source.Stat(ctx, "")
		if err != nil {
			return nil, err
		}
		infos := make([]fs.FileInfo, v.codec.Total())
		for i := range infos {
			name, _ := EncodeShareIndex(i)
			infos[i] = project(root, name, root.Size())
		}
		return infos, nil
	}

	entries, err := v.source.ReadDir(ctx, dp.Key)
	if err != nil {
		return nil, err
	}
	infos := make([]fs.FileInfo, len(entries))
	for i, e := range entries {
		infos[i] = v.project(e)
	}
	return infos, nil
}

// Open opens the share of a regular file. The caller must close it.
func (v *EncodedView) Open(ctx context.Context, p string) (*EncodedFile, error) {
	dp, err := DecodePath(p, v.codec.Total())
	if err != nil {
		return nil, err
	}
	if !dp.HasIndex || dp.Key == "" {
		return nil, fmt.Errorf("open %s: %w", p, errIsDir)
	}

	src, err := v.source.Open(ctx, dp.Key)
	if err != nil {
		return nil, err
	}
	enc, err := share.NewEncoder(v.codec.Required(), dp.Index, src, v.codec, v.opts...)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("open %s: %w", p, err)
	}

	logger.Ctx(ctx).Debug().
		Str("path", p).
		Int("index", dp.Index).
		Int64("original_size", enc.OriginalSize()).
		Msg("opened share")

	OpenFiles.WithLabelValues(modeEncoded).Inc()
	return &EncodedFile{enc: enc, src: src}, nil
}

// StatFS reports the volume statistics of the source backend
func (v *EncodedView) StatFS(ctx context.Context) (types.VolumeStats, error) {
	if s, ok := v.source.(types.VolumeStater); ok {
		return s.StatFS(ctx)
	}
	return types.VolumeStats{}, fmt.Errorf("statfs on %s backend: %w", v.source.Type(), errors.ErrUnsupported)
}

func (v *EncodedView) project(info fs.FileInfo) fs.FileInfo {
	if !info.Mode().IsRegular() {
		return project(info, info.Name(), info.Size())
	}
	return project(info, info.Name(), share.EncodedSize(v.codec.Required(), info.Size()))
}

var errIsDir = errors.New("is a directory")

// EncodedFile is an open share. It satisfies share.Source, so a set of K
// encoded files can feed a share.Decoder directly.
type EncodedFile struct {
	enc    *share.Encoder
	src    share.Source
	closed atomic.Bool
}

func (f *EncodedFile) ReadAt(offset, length int64) ([]byte, error) {
	b, err := f.enc.ReadAt(offset, length)
	if err != nil {
		return nil, err
	}
	BytesServed.WithLabelValues(modeEncoded).Add(float64(len(b)))
	return b, nil
}

func (f *EncodedFile) Size() (int64, error) {
	return f.enc.Size(), nil
}

// Header returns the share header
func (f *EncodedFile) Header() share.Header {
	return f.enc.Header()
}

// Stat reports the original's metadata with the share size
func (f *EncodedFile) Stat() (fs.FileInfo, error) {
	info, err := f.src.Stat()
	if err != nil {
		return nil, err
	}
	return project(info, info.Name(), f.enc.Size()), nil
}

func (f *EncodedFile) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	OpenFiles.WithLabelValues(modeEncoded).Dec()
	return f.src.Close()
}
