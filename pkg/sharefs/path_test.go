// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package sharefs_test

import (
	"io/fs"
	"testing"

	"github.com/LeeDigitalWorks/sharefs/pkg/sharefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeShareIndex(t *testing.T) {
	t.Parallel()

	for index, want := range map[int]string{0: "00", 9: "09", 10: "0a", 171: "ab", 255: "ff"} {
		got, err := sharefs.EncodeShareIndex(index)
		require.NoError(t, err)
		assert.Equal(t, want, got)

		back, err := sharefs.DecodeShareIndex(got)
		require.NoError(t, err)
		assert.Equal(t, index, back)
	}

	_, err := sharefs.EncodeShareIndex(256)
	assert.Error(t, err)
	_, err = sharefs.EncodeShareIndex(-1)
	assert.Error(t, err)
}

func TestDecodeShareIndex_Invalid(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", "0", "000", "0A", "zz", "-1"} {
		_, err := sharefs.DecodeShareIndex(name)
		assert.ErrorIs(t, err, sharefs.ErrInvalidPath, "name %q", name)
	}
}

func TestDecodePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want sharefs.DecodedPath
	}{
		{path: "", want: sharefs.DecodedPath{}},
		{path: "/", want: sharefs.DecodedPath{}},
		{path: "/03", want: sharefs.DecodedPath{Index: 3, HasIndex: true}},
		{path: "/03/", want: sharefs.DecodedPath{Index: 3, HasIndex: true}},
		{path: "/04/a/b.txt", want: sharefs.DecodedPath{Index: 4, HasIndex: true, Key: "a/b.txt"}},
		{path: "00/a//b/../c", want: sharefs.DecodedPath{Index: 0, HasIndex: true, Key: "a/c"}},
	}
	for _, tc := range tests {
		got, err := sharefs.DecodePath(tc.path, 5)
		require.NoError(t, err, "path %q", tc.path)
		assert.Equal(t, tc.want, got, "path %q", tc.path)
	}
}

func TestDecodePath_Invalid(t *testing.T) {
	t.Parallel()

	for _, p := range []string{"/05/a", "/ff", "/1/a", "/003/a", "/0G/a", "/file"} {
		_, err := sharefs.DecodePath(p, 5)
		assert.ErrorIs(t, err, sharefs.ErrInvalidPath, "path %q", p)
		assert.ErrorIs(t, err, fs.ErrNotExist, "path %q", p)
	}
}

func TestShareKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0a/dir/file", sharefs.ShareKey(10, "dir/file"))
	assert.Equal(t, "00/file", sharefs.ShareKey(0, "/file"))
}
