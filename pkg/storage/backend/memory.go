// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package backend

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"

	"github.com/google/btree"
)

// StorageTypeMemory is used for testing
const StorageTypeMemory types.StorageType = "memory"

func init() {
	Register(StorageTypeMemory, func(cfg types.BackendConfig) (types.BackendStorage, error) {
		return NewMemoryStorage(), nil
	})
}

type memoryObject struct {
	key     string
	data    []byte
	modTime time.Time
}

// Less orders objects by key, so a directory's descendants are contiguous
func (o *memoryObject) Less(than btree.Item) bool {
	return o.key < than.(*memoryObject).key
}

// MemoryStorage is an in-memory backend. Directories are implied by the keys
// stored beneath them.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects *btree.BTree
}

// NewMemoryStorage creates a new in-memory storage
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: btree.New(32),
	}
}

func (m *MemoryStorage) Type() types.StorageType {
	return StorageTypeMemory
}

// Put stores data under key without going through an io.Reader
func (m *MemoryStorage) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects.ReplaceOrInsert(&memoryObject{key: CleanKey(key), data: data, modTime: time.Now()})
}

func (m *MemoryStorage) Write(ctx context.Context, key string, data io.Reader, size int64) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.Put(key, buf)
	return nil
}

// Open serves the stored bytes. Writes replace objects instead of mutating
// them, so an open source keeps a stable view.
func (m *MemoryStorage) Open(ctx context.Context, key string) (share.Source, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key = CleanKey(key)
	obj, ok := m.getLocked(key)
	if !ok {
		return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
	}
	return share.NewBytesSource(path.Base(key), obj.data), nil
}

func (m *MemoryStorage) Stat(ctx context.Context, key string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key = CleanKey(key)
	if obj, ok := m.getLocked(key); ok {
		return fileInfo(path.Base(key), obj), nil
	}
	if key == "" || m.hasChildrenLocked(key) {
		return dirInfo(path.Base(key)), nil
	}
	return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
}

// ReadDir lists children in name order
func (m *MemoryStorage) ReadDir(ctx context.Context, key string) ([]fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	key = CleanKey(key)
	prefix := key + "/"
	if key == "" {
		prefix = ""
	}

	// Keys ascend, so children of one nested directory arrive together and
	// file names come out sorted; only directory entries need deduplication.
	var infos []fs.FileInfo
	lastDir := ""
	m.objects.AscendGreaterOrEqual(&memoryObject{key: prefix}, func(item btree.Item) bool {
		obj := item.(*memoryObject)
		if !strings.HasPrefix(obj.key, prefix) {
			return false
		}
		rest := obj.key[len(prefix):]
		if name, _, nested := strings.Cut(rest, "/"); nested {
			if name != lastDir {
				infos = append(infos, dirInfo(name))
				lastDir = name
			}
		} else if rest != "" {
			infos = append(infos, fileInfo(rest, obj))
		}
		return true
	})
	if len(infos) == 0 && key != "" {
		if _, ok := m.getLocked(key); ok {
			return nil, fmt.Errorf("read dir %s: not a directory", key)
		}
		return nil, fmt.Errorf("key not found: %s: %w", key, fs.ErrNotExist)
	}

	// "a/x" sorts after "a.txt" but the directory is named "a"
	sort.SliceStable(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	return infos, nil
}

// Delete removes a stored object
func (m *MemoryStorage) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects.Delete(&memoryObject{key: CleanKey(key)})
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects.Clear(false)
	return nil
}

func (m *MemoryStorage) getLocked(key string) (*memoryObject, bool) {
	item := m.objects.Get(&memoryObject{key: key})
	if item == nil {
		return nil, false
	}
	return item.(*memoryObject), true
}

func (m *MemoryStorage) hasChildrenLocked(key string) bool {
	prefix := key + "/"
	found := false
	m.objects.AscendGreaterOrEqual(&memoryObject{key: prefix}, func(item btree.Item) bool {
		found = strings.HasPrefix(item.(*memoryObject).key, prefix)
		return false
	})
	return found
}

func fileInfo(name string, obj *memoryObject) fs.FileInfo {
	return &share.FileInfo{FileName: name, FileSize: int64(len(obj.data)), FileMode: 0644, Modified: obj.modTime}
}

func dirInfo(name string) fs.FileInfo {
	if name == "" || name == "." {
		name = "/"
	}
	return &share.FileInfo{FileName: name, FileMode: fs.ModeDir | 0755}
}

// AddMemory is a convenience method to add a memory backend to the manager
func (mgr *Manager) AddMemory(id string) (*MemoryStorage, error) {
	b, err := mgr.Add(id, types.BackendConfig{
		Type: StorageTypeMemory,
	})
	if err != nil {
		return nil, err
	}
	return b.(*MemoryStorage), nil
}
