// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package env

import (
	"os"
	"sync"
)

const (
	Local      = "local"
	Production = "production"
	Testing    = "testing"
)

var (
	Env string

	once sync.Once
)

func IsLocal() bool {
	return Env == Local
}

func IsProduction() bool {
	return Env == Production
}

func IsTesting() bool {
	return Env == Testing
}

// Read at init, before viper has loaded any configuration, so only the
// process environment is consulted. SHAREFS_ENV wins over ENV.
func init() {
	once.Do(func() {
		Env = os.Getenv("SHAREFS_ENV")
		if Env == "" {
			Env = os.Getenv("ENV")
		}
		if Env == "" {
			Env = Production
		}
	})
}
