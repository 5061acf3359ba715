// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package sharefs

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
)

// ErrInvalidPath is returned for paths that do not name a share. It also
// matches fs.ErrNotExist.
var ErrInvalidPath = errors.New("invalid share path")

const hexDigits = "0123456789abcdef"

// DecodedPath is a view path split into its share index and the key of the
// original below the source root
type DecodedPath struct {
	Index    int
	HasIndex bool   // false for the view root
	Key      string // slash separated, relative to the source root
}

// EncodeShareIndex renders index as the two lowercase hex digits used as the
// top-level directory name of a share
func EncodeShareIndex(index int) (string, error) {
	if index < 0 || index >= 256 {
		return "", fmt.Errorf("share index %d outside [0,256)", index)
	}
	return string([]byte{hexDigits[index>>4], hexDigits[index&0xf]}), nil
}

// DecodeShareIndex parses a two digit lowercase hex share directory name
func DecodeShareIndex(name string) (int, error) {
	if len(name) != 2 {
		return 0, fmt.Errorf("%w: share directory %q", ErrInvalidPath, name)
	}
	hi := strings.IndexByte(hexDigits, name[0])
	lo := strings.IndexByte(hexDigits, name[1])
	if hi < 0 || lo < 0 {
		return 0, fmt.Errorf("%w: share directory %q", ErrInvalidPath, name)
	}
	return hi<<4 | lo, nil
}

// DecodePath splits "/<xx>/rest" into share index xx and key "rest". Leading
// slashes are ignored; an empty path is the view root. Indices at or beyond
// shares are rejected.
func DecodePath(p string, shares int) (DecodedPath, error) {
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return DecodedPath{}, nil
	}

	name, rest, _ := strings.Cut(p, "/")
	index, err := DecodeShareIndex(name)
	if err != nil {
		return DecodedPath{}, errors.Join(err, fs.ErrNotExist)
	}
	if index >= shares {
		return DecodedPath{}, errors.Join(
			fmt.Errorf("%w: share %s of %d", ErrInvalidPath, name, shares), fs.ErrNotExist)
	}

	return DecodedPath{
		Index:    index,
		HasIndex: true,
		Key:      strings.TrimPrefix(path.Clean("/"+rest), "/"),
	}, nil
}

// ShareKey returns the key of share index of key in a share tree
func ShareKey(index int, key string) string {
	name, err := EncodeShareIndex(index)
	if err != nil {
		panic(err)
	}
	return path.Join(name, key)
}
