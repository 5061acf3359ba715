// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package sharefs

import (
	"io/fs"
	"time"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
)

func rootInfo() fs.FileInfo {
	return &share.FileInfo{FileName: "/", FileMode: fs.ModeDir | 0555, Modified: time.Now()}
}

// project copies info under a new name and size. Write permission bits are
// dropped since both views are read-only.
func project(info fs.FileInfo, name string, size int64) fs.FileInfo {
	return &share.FileInfo{
		FileName: name,
		FileSize: size,
		FileMode: info.Mode() &^ 0222,
		Modified: info.ModTime(),
	}
}
