// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package backend

import (
	"fmt"

	"github.com/LeeDigitalWorks/sharefs/pkg/types"

	"golang.org/x/sys/unix"
)

// StatVolume reports statistics of the filesystem holding path
func StatVolume(path string) (types.VolumeStats, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return types.VolumeStats{}, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(fs.Bsize)
	return types.VolumeStats{
		BlockSize:   bsize,
		TotalBytes:  fs.Blocks * bsize,
		FreeBytes:   fs.Bfree * bsize,
		AvailBytes:  fs.Bavail * bsize,
		TotalFiles:  fs.Files,
		FreeFiles:   fs.Ffree,
		MaxNameSize: uint64(fs.Namelen),
	}, nil
}
