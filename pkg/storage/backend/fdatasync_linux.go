// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build linux

package backend

import (
	"os"

	"golang.org/x/sys/unix"
)

// Fdatasync flushes file data and the metadata needed to read it back
func Fdatasync(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}

// FadviseDontNeed drops the file's pages from the page cache. Exported shares
// are not read back by the exporting process.
func FadviseDontNeed(f *os.File) error {
	return unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED)
}

// Fallocate reserves size bytes for f without changing its length, so a
// short write never leaves zero-filled tail bytes behind.
func Fallocate(f *os.File, size int64) error {
	return unix.Fallocate(int(f.Fd()), unix.FALLOC_FL_KEEP_SIZE, 0, size)
}
