package backend

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"
)

func init() {
	Register(types.StorageTypeLocal, NewLocal)
}

// Local implements BackendStorage for local filesystem
type Local struct {
	basePath string
	sync     bool
}

// NewLocal creates a local filesystem backend
func NewLocal(cfg types.BackendConfig) (types.BackendStorage, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path required for local backend")
	}

	// Ensure base path exists
	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("create base path: %w", err)
	}

	return &Local{basePath: cfg.Path, sync: cfg.Sync}, nil
}

func (l *Local) Type() types.StorageType {
	return types.StorageTypeLocal
}

// BasePath returns the directory the backend is rooted at
func (l *Local) BasePath() string {
	return l.basePath
}

func (l *Local) path(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(CleanKey(key)))
}

func (l *Local) Open(ctx context.Context, key string) (share.Source, error) {
	src, err := OpenFile(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
		}
		return nil, err
	}
	return src, nil
}

func (l *Local) Stat(ctx context.Context, key string) (fs.FileInfo, error) {
	info, err := os.Stat(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
		}
		return nil, err
	}
	return info, nil
}

func (l *Local) ReadDir(ctx context.Context, key string) ([]fs.FileInfo, error) {
	entries, err := os.ReadDir(l.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
		}
		return nil, err
	}

	infos := make([]fs.FileInfo, 0, len(entries))
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			// Removed between listing and stat
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Write stores data through a temporary file renamed into place, so readers
// never observe a partially written share.
func (l *Local) Write(ctx context.Context, key string, data io.Reader, size int64) error {
	path := l.path(key)

	// Ensure parent directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp) // no-op after a successful rename

	if err := f.Chmod(0644); err != nil {
		f.Close()
		return fmt.Errorf("chmod: %w", err)
	}

	if size > 0 {
		// Best effort, unsupported filesystems ignore it
		Fallocate(f, size)
	}

	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		return fmt.Errorf("write data: %w", err)
	}

	if l.sync {
		if err := Fdatasync(f); err != nil {
			f.Close()
			return fmt.Errorf("sync: %w", err)
		}
		FadviseDontNeed(f)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (l *Local) StatFS(ctx context.Context) (types.VolumeStats, error) {
	return StatVolume(l.basePath)
}

func (l *Local) Close() error {
	return nil
}
