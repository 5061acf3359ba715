// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

//go:build !linux

package backend

import (
	"errors"

	"github.com/LeeDigitalWorks/sharefs/pkg/types"
)

// StatVolume is only implemented on Linux
func StatVolume(path string) (types.VolumeStats, error) {
	return types.VolumeStats{}, errors.ErrUnsupported
}
