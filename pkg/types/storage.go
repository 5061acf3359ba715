// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"context"
	"io"
	"io/fs"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
)

// StorageType identifies the backend storage implementation
type StorageType string

const (
	StorageTypeLocal StorageType = "local" // Local filesystem
	StorageTypeS3    StorageType = "s3"    // S3-compatible
)

// BackendStorage is a tree of read-only objects that can be opened as share
// sources. Keys are slash separated and relative to the backend root; "" is
// the root. Missing keys are reported with errors wrapping fs.ErrNotExist.
type BackendStorage interface {
	// Type returns the storage type
	Type() StorageType

	// Open opens key for random access. The caller owns the returned source.
	Open(ctx context.Context, key string) (share.Source, error)

	// Stat returns metadata for a file or directory key
	Stat(ctx context.Context, key string) (fs.FileInfo, error)

	// ReadDir lists the immediate children of a directory key
	ReadDir(ctx context.Context, key string) ([]fs.FileInfo, error)

	// Write stores data under key. Only used to export materialized shares.
	Write(ctx context.Context, key string, data io.Reader, size int64) error

	// Close releases any resources
	Close() error
}

// VolumeStats describes the volume a backend lives on
type VolumeStats struct {
	BlockSize   uint64 `json:"block_size"`
	TotalBytes  uint64 `json:"total_bytes"`
	FreeBytes   uint64 `json:"free_bytes"`
	AvailBytes  uint64 `json:"avail_bytes"`
	TotalFiles  uint64 `json:"total_files"`
	FreeFiles   uint64 `json:"free_files"`
	MaxNameSize uint64 `json:"max_name_size"`
}

// VolumeStater is implemented by backends that can report volume statistics
type VolumeStater interface {
	StatFS(ctx context.Context) (VolumeStats, error)
}

// BackendConfig contains configuration for creating a backend storage instance
type BackendConfig struct {
	Type      StorageType       `json:"type" mapstructure:"type"`
	Endpoint  string            `json:"endpoint,omitempty" mapstructure:"endpoint"`
	Bucket    string            `json:"bucket,omitempty" mapstructure:"bucket"`
	Prefix    string            `json:"prefix,omitempty" mapstructure:"prefix"`
	Path      string            `json:"path,omitempty" mapstructure:"path"`
	Region    string            `json:"region,omitempty" mapstructure:"region"`
	AccessKey string            `json:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string            `json:"secret_key,omitempty" mapstructure:"secret_key"`
	Options   map[string]string `json:"options,omitempty" mapstructure:"options"`

	// Sync flushes exported files with fdatasync before returning
	Sync bool `json:"sync,omitempty" mapstructure:"sync"`
}
