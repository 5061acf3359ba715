// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command. Flags keep their values between runs, so
// callers pass every flag they depend on.
func run(t *testing.T, args ...string) string {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	require.NoError(t, err, "sharefs %s: %s", strings.Join(args, " "), errOut.String())
	return out.String()
}

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, data, 0644))
	}
}

func TestCommands_ExportRestore(t *testing.T) {
	tmp := t.TempDir()
	src := filepath.Join(tmp, "src")
	out := filepath.Join(tmp, "out")

	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i*7 + 1)
	}
	writeTree(t, src, map[string][]byte{
		"a.txt":     data,
		"dir/b.bin": []byte("hello"),
	})

	layout := []string{"--required", "3", "--shares", "5", "--scheme", "", "--backend", "local"}
	encoded := append([]string{"--source", src, "--restore=false"}, layout...)
	restored := append([]string{"--source", out, "--restore=true"}, layout...)

	t.Run("ls", func(t *testing.T) {
		listing := run(t, append([]string{"ls", "--bytes=true", "/01"}, encoded...)...)
		assert.Contains(t, listing, "a.txt")
		assert.Contains(t, listing, "dir/")
		assert.Contains(t, listing, " 337 ")
	})

	t.Run("export", func(t *testing.T) {
		msg := run(t, append([]string{"export", "--sync=false", "--export_rate", "", "--min_free", "", "a.txt", out}, encoded...)...)
		assert.Contains(t, msg, "5/5 shares")

		for i, dir := range []string{"00", "01", "02", "03", "04"} {
			raw, err := os.ReadFile(filepath.Join(out, dir, "a.txt"))
			require.NoError(t, err)
			assert.Len(t, raw, int(share.EncodedSize(3, int64(len(data)))))
			assert.Equal(t, []byte{3, byte(i), 1}, raw[:share.HeaderSize])
		}
	})

	// Any three shares are enough
	require.NoError(t, os.RemoveAll(filepath.Join(out, "00")))
	require.NoError(t, os.RemoveAll(filepath.Join(out, "03")))

	t.Run("restore", func(t *testing.T) {
		dst := filepath.Join(tmp, "restored.txt")
		run(t, append([]string{"restore", "a.txt", dst}, restored...)...)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("cat range", func(t *testing.T) {
		got := run(t, append([]string{"cat", "--offset", "10", "--length", "20", "a.txt"}, restored...)...)
		assert.Equal(t, string(data[10:30]), got)
	})

	t.Run("sum", func(t *testing.T) {
		want := sha256.Sum256(data)
		got := run(t, append([]string{"sum", "--algo", "sha256", "a.txt"}, restored...)...)
		assert.Equal(t, hex.EncodeToString(want[:])+"  a.txt\n", got)
	})

	t.Run("stat", func(t *testing.T) {
		got := run(t, append([]string{"stat", "a.txt"}, restored...)...)
		assert.Contains(t, got, "a.txt")
		assert.Contains(t, got, "1000 B")
	})
}

func TestLoadShareOpts_Scheme(t *testing.T) {
	tmp := t.TempDir()
	run(t, "ls", "--source", tmp, "--restore=false", "--scheme", "4+2", "--backend", "local", "--bytes=false", "/")

	opts, err := loadShareOpts(lsCmd)
	require.NoError(t, err)
	assert.Equal(t, 4, opts.Scheme.DataShards)
	assert.Equal(t, 6, opts.Scheme.TotalShards())
	assert.Equal(t, tmp, opts.Source.Path)
}
