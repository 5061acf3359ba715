package backend

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/LeeDigitalWorks/sharefs/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Registry Tests
// ============================================================================

func TestRegister_CustomType(t *testing.T) {
	t.Parallel()

	customType := types.StorageType("test-custom")

	Register(customType, func(cfg types.BackendConfig) (types.BackendStorage, error) {
		return NewMemoryStorage(), nil
	})

	backend, err := New(types.BackendConfig{Type: customType})
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.Equal(t, StorageTypeMemory, backend.Type())
}

func TestNew_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := New(types.BackendConfig{Type: "unknown-type"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestCleanKey(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":            "",
		"/":           "",
		"a/b":         "a/b",
		"/a//b/":      "a/b",
		"../../etc":   "etc",
		"a/../../b/c": "b/c",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanKey(in), "key %q", in)
	}
}

// ============================================================================
// Manager Tests
// ============================================================================

func TestManager_Add_Memory(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	mem, err := mgr.AddMemory("test-mem")
	require.NoError(t, err)
	require.NotNil(t, mem)

	backend, ok := mgr.Get("test-mem")
	assert.True(t, ok)
	assert.Same(t, mem, backend)

	cfg, ok := mgr.Config("test-mem")
	assert.True(t, ok)
	assert.Equal(t, StorageTypeMemory, cfg.Type)
}

func TestManager_Add_UnknownType(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	_, err := mgr.Add("test", types.BackendConfig{Type: "invalid"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown storage type")
}

func TestManager_Add_ReplacesExisting(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()
	ctx := context.Background()

	first, err := mgr.AddMemory("test")
	require.NoError(t, err)
	require.NoError(t, first.Write(ctx, "key1", strings.NewReader("data1"), 5))

	second, err := mgr.AddMemory("test")
	require.NoError(t, err)

	_, err = second.Stat(ctx, "key1")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestManager_RemoveAndList(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	for _, id := range []string{"backend-c", "backend-a", "backend-b"} {
		_, err := mgr.AddMemory(id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"backend-a", "backend-b", "backend-c"}, mgr.List())

	require.NoError(t, mgr.Remove("backend-b"))
	require.NoError(t, mgr.Remove("nonexistent"))
	assert.Equal(t, []string{"backend-a", "backend-c"}, mgr.List())

	require.NoError(t, mgr.Close())
	assert.Empty(t, mgr.List())
}

func TestManager_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(id int) {
			defer wg.Done()
			_, _ = mgr.AddMemory("backend-" + string(rune('a'+id)))
		}(i)
		go func() {
			defer wg.Done()
			mgr.Get("backend-a")
			mgr.List()
		}()
	}
	wg.Wait()

	assert.Len(t, mgr.List(), 10)
}

// ============================================================================
// MemoryStorage Tests
// ============================================================================

func TestMemoryStorage_OpenReadAt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemoryStorage()
	require.NoError(t, m.Write(ctx, "/dir/file", strings.NewReader("hello world"), 11))

	src, err := m.Open(ctx, "dir/file")
	require.NoError(t, err)
	defer src.Close()

	size, err := src.Size()
	require.NoError(t, err)
	assert.Equal(t, int64(11), size)

	tests := []struct {
		offset, length int64
		want           string
	}{
		{0, 5, "hello"},
		{6, 100, "world"},
		{11, 1, ""},
		{20, 5, ""},
		{3, 0, ""},
		{-1, 4, ""},
	}
	for _, tc := range tests {
		got, err := src.ReadAt(tc.offset, tc.length)
		require.NoError(t, err)
		assert.Equal(t, tc.want, string(got), "offset=%d length=%d", tc.offset, tc.length)
	}

	info, err := src.Stat()
	require.NoError(t, err)
	assert.Equal(t, "file", info.Name())
}

func TestMemoryStorage_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemoryStorage()

	_, err := m.Open(ctx, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = m.Stat(ctx, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = m.ReadDir(ctx, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryStorage_Directories(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemoryStorage()
	m.Put("a/one", []byte("1"))
	m.Put("a/b/two", []byte("22"))
	m.Put("top", []byte("333"))

	root, err := m.ReadDir(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 2)
	assert.Equal(t, "a", root[0].Name())
	assert.True(t, root[0].IsDir())
	assert.Equal(t, "top", root[1].Name())
	assert.Equal(t, int64(3), root[1].Size())

	sub, err := m.ReadDir(ctx, "a")
	require.NoError(t, err)
	require.Len(t, sub, 2)
	assert.Equal(t, "b", sub[0].Name())
	assert.Equal(t, "one", sub[1].Name())

	info, err := m.Stat(ctx, "a/b")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = m.ReadDir(ctx, "top")
	assert.Error(t, err)

	m.Delete("a/b/two")
	_, err = m.Stat(ctx, "a/b")
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestMemoryStorage_OpenIsStableAcrossWrites(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := NewMemoryStorage()
	m.Put("k", []byte("old"))

	src, err := m.Open(ctx, "k")
	require.NoError(t, err)
	defer src.Close()

	m.Put("k", []byte("new contents"))
	got, err := src.ReadAt(0, 100)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

// ============================================================================
// Local Tests
// ============================================================================

func newLocal(t *testing.T, sync bool) *Local {
	t.Helper()
	b, err := NewLocal(types.BackendConfig{Type: types.StorageTypeLocal, Path: t.TempDir(), Sync: sync})
	require.NoError(t, err)
	return b.(*Local)
}

func TestLocal_NewLocal_NoPath(t *testing.T) {
	t.Parallel()

	_, err := NewLocal(types.BackendConfig{Type: types.StorageTypeLocal})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path required")
}

func TestLocal_WriteOpen(t *testing.T) {
	t.Parallel()

	for _, sync := range []bool{false, true} {
		l := newLocal(t, sync)
		ctx := context.Background()
		data := strings.Repeat("share bytes ", 1000)

		require.NoError(t, l.Write(ctx, "00/nested/file", strings.NewReader(data), int64(len(data))))

		src, err := l.Open(ctx, "00/nested/file")
		require.NoError(t, err)

		size, err := src.Size()
		require.NoError(t, err)
		assert.Equal(t, int64(len(data)), size)

		got, err := src.ReadAt(6, 5)
		require.NoError(t, err)
		assert.Equal(t, "bytes", string(got))

		// Past the end clamps to what is there
		got, err = src.ReadAt(int64(len(data))-3, 100)
		require.NoError(t, err)
		assert.Equal(t, "es ", string(got))

		got, err = src.ReadAt(int64(len(data)), 1)
		require.NoError(t, err)
		assert.Empty(t, got)
		require.NoError(t, src.Close())

		// No temporary files are left behind
		entries, err := os.ReadDir(filepath.Join(l.BasePath(), "00", "nested"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "file", entries[0].Name())
	}
}

func TestLocal_WriteOverwrite(t *testing.T) {
	t.Parallel()

	l := newLocal(t, false)
	ctx := context.Background()

	require.NoError(t, l.Write(ctx, "k", strings.NewReader("a much longer first version"), 27))
	require.NoError(t, l.Write(ctx, "k", strings.NewReader("short"), 5))

	info, err := l.Stat(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())
}

func TestLocal_NotFoundAndDirectories(t *testing.T) {
	t.Parallel()

	l := newLocal(t, false)
	ctx := context.Background()
	require.NoError(t, os.MkdirAll(filepath.Join(l.BasePath(), "dir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(l.BasePath(), "dir", "f"), []byte("x"), 0644))

	_, err := l.Open(ctx, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = l.Stat(ctx, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = l.ReadDir(ctx, "missing")
	assert.ErrorIs(t, err, fs.ErrNotExist)

	_, err = l.Open(ctx, "dir")
	assert.Error(t, err)

	entries, err := l.ReadDir(ctx, "dir")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "f", entries[0].Name())

	// Keys cannot escape the base path
	info, err := l.Stat(ctx, "../../dir/f")
	require.NoError(t, err)
	assert.Equal(t, int64(1), info.Size())
}

func TestManager_WithLocal(t *testing.T) {
	t.Parallel()

	mgr := NewManager()
	defer mgr.Close()

	b, err := mgr.Add("local", types.BackendConfig{Type: types.StorageTypeLocal, Path: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, types.StorageTypeLocal, b.Type())
}
