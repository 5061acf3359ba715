// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package sharefs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sync/atomic"

	"github.com/LeeDigitalWorks/sharefs/pkg/logger"
	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"

	"github.com/rs/zerolog"
)

// RestoredView reassembles original files from share directories. Every
// directory directly below the root is treated as one share tree; which
// share index it holds is read from the share headers.
type RestoredView struct {
	root  types.BackendStorage
	codec share.Codec
}

// NewRestoredView creates a view over root. The codec fixes K.
func NewRestoredView(root types.BackendStorage, codec share.Codec) *RestoredView {
	return &RestoredView{root: root, codec: codec}
}

// ShareDirs returns the share directories below the root, in listing order
func (v *RestoredView) ShareDirs(ctx context.Context) ([]string, error) {
	entries, err := v.root.ReadDir(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list share directories: %w", err)
	}
	dirs := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs, nil
}

// Stat returns metadata from the first share directory holding p. Regular
// files report the size predicted from their share header.
func (v *RestoredView) Stat(ctx context.Context, p string) (fs.FileInfo, error) {
	key := cleanKey(p)
	if key == "" {
		return rootInfo(), nil
	}
	dirs, err := v.ShareDirs(ctx)
	if err != nil {
		return nil, err
	}

	for _, dir := range dirs {
		info, err := v.root.Stat(ctx, path.Join(dir, key))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return project(info, info.Name(), info.Size()), nil
		}
		size, err := v.decodedSize(ctx, path.Join(dir, key))
		if err != nil {
			return nil, err
		}
		return project(info, info.Name(), size), nil
	}
	return nil, fmt.Errorf("stat %s: %w", p, fs.ErrNotExist)
}

// ReadDir returns the union of a directory across all share directories,
// deduplicated by name in first-seen order
func (v *RestoredView) ReadDir(ctx context.Context, p string) ([]fs.FileInfo, error) {
	key := cleanKey(p)
	dirs, err := v.ShareDirs(ctx)
	if err != nil {
		return nil, err
	}

	var (
		infos []fs.FileInfo
		seen  = make(map[string]struct{})
		found bool
	)
	for _, dir := range dirs {
		entries, err := v.root.ReadDir(ctx, path.Join(dir, key))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		found = true

		for _, e := range entries {
			if _, dup := seen[e.Name()]; dup {
				continue
			}
			seen[e.Name()] = struct{}{}
			infos = append(infos, v.projectEntry(ctx, path.Join(dir, key, e.Name()), e))
		}
	}
	if !found && key != "" {
		return nil, fmt.Errorf("read dir %s: %w", p, fs.ErrNotExist)
	}
	return infos, nil
}

// Open acquires K shares of p, trying share directories in listing order.
// Sources already opened are closed when fewer than K are found.
func (v *RestoredView) Open(ctx context.Context, p string) (*RestoredFile, error) {
	key := cleanKey(p)
	if key == "" {
		return nil, fmt.Errorf("open %s: %w", p, errIsDir)
	}
	dirs, err := v.ShareDirs(ctx)
	if err != nil {
		return nil, err
	}

	required := v.codec.Required()
	sources, err := share.OpenRequired(required, len(dirs), func(i int) (share.Source, error) {
		return v.root.Open(ctx, path.Join(dirs[i], key))
	})
	if err != nil {
		OpenFailures.Inc()
		return nil, err
	}

	dec, err := share.NewDecoder(required, sources, v.codec)
	if err != nil {
		share.CloseAll(sources)
		return nil, err
	}

	log := logger.Ctx(ctx).With().Str("path", p).Logger()
	log.Debug().Int("shares", len(sources)).Msg("opened restored file")

	OpenFiles.WithLabelValues(modeRestored).Inc()
	return &RestoredFile{name: path.Base(key), dec: dec, src: sources[0], log: log}, nil
}

func (v *RestoredView) decodedSize(ctx context.Context, key string) (int64, error) {
	src, err := v.root.Open(ctx, key)
	if err != nil {
		return 0, err
	}
	defer src.Close()

	size, err := share.DecodedSize(src)
	if err != nil {
		countIntegrity(err)
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return size, nil
}

// projectEntry reports a directory entry with its decoded size. Entries
// whose header cannot be read are listed with size zero.
func (v *RestoredView) projectEntry(ctx context.Context, key string, e fs.FileInfo) fs.FileInfo {
	if !e.Mode().IsRegular() {
		return project(e, e.Name(), e.Size())
	}
	size, err := v.decodedSize(ctx, key)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("unreadable share in listing")
		size = 0
	}
	return project(e, e.Name(), size)
}

// RestoredFile is an original reassembled from K shares. It satisfies
// share.Source.
type RestoredFile struct {
	name   string
	dec    *share.Decoder
	src    share.Source // first share, for passthrough metadata
	log    zerolog.Logger
	closed atomic.Bool
}

func (f *RestoredFile) ReadAt(offset, length int64) ([]byte, error) {
	b, err := f.dec.ReadAt(offset, length)
	if err != nil {
		if countIntegrity(err) {
			f.log.Error().Err(err).Msg("share integrity check failed")
		}
		return nil, err
	}
	BytesServed.WithLabelValues(modeRestored).Add(float64(len(b)))
	return b, nil
}

func (f *RestoredFile) Size() (int64, error) {
	size, err := f.dec.Size()
	if err != nil {
		countIntegrity(err)
	}
	return size, err
}

// Indices returns the share index behind each opened source
func (f *RestoredFile) Indices() ([]int, error) {
	return f.dec.Indices()
}

func (f *RestoredFile) Stat() (fs.FileInfo, error) {
	size, err := f.Size()
	if err != nil {
		return nil, err
	}
	info, err := f.src.Stat()
	if err != nil {
		return nil, err
	}
	return project(info, f.name, size), nil
}

func (f *RestoredFile) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	OpenFiles.WithLabelValues(modeRestored).Dec()
	return f.dec.Close()
}

// countIntegrity records an integrity failure and reports whether err was one
func countIntegrity(err error) bool {
	var ie *share.IntegrityError
	if !errors.As(err, &ie) {
		return false
	}
	IntegrityFailures.WithLabelValues(string(ie.Reason)).Inc()
	return true
}

func cleanKey(p string) string {
	return path.Clean("/" + p)[1:]
}
