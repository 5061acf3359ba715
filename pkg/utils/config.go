// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package utils

import (
	"errors"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. SHAREFS_REQUIRED
const EnvPrefix = "SHAREFS"

var (
	ConfigurationFileDirectory string
)

// LoadConfiguration merges configFileName from the usual search path into
// viper. A missing file is fine unless required; any other failure is
// returned.
func LoadConfiguration(configFileName string, required bool) (bool, error) {
	viper.SetConfigName(configFileName)
	viper.AddConfigPath(ResolvePath(ConfigurationFileDirectory))
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.sharefs")
	viper.AddConfigPath("/etc/sharefs/")
	viper.SetEnvPrefix(EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if required {
				return false, err
			}
			log.Debug().Msgf("Config file not found: %s", configFileName)
			return false, nil
		}
		return false, err
	}
	log.Debug().Msgf("Loaded config file: %s", viper.ConfigFileUsed())

	return true, nil
}

// ResolvePath expands a leading ~ and environment variables and makes the
// path absolute
func ResolvePath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if usr, err := user.Current(); err == nil {
			path = filepath.Join(usr.HomeDir, strings.TrimPrefix(path, "~"))
		}
	}

	path = os.ExpandEnv(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
