// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"os"
)

// TestWritableFile reports whether folder is a directory its owner can write
func TestWritableFile(folder string) error {
	info, err := os.Stat(folder)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return os.ErrInvalid
	}

	permission := info.Mode().Perm()
	if permission&0200 != 0 {
		return nil
	}

	return os.ErrPermission
}
