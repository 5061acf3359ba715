// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeeDigitalWorks/sharefs/pkg/debug"
	"github.com/LeeDigitalWorks/sharefs/pkg/logger"
	"github.com/LeeDigitalWorks/sharefs/pkg/utils"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "sharefs",
	Short: "sharefs - erasure coded views of a file tree",
	Long: `sharefs splits every file of a source tree into N shares, any K of which
are enough to rebuild any byte range of the original. Shares are computed on
demand and laid out as /<xx>/<path>, xx being the share index in hex.
With --restore the source is instead a directory of share trees and the
originals are reassembled from them.`,
	PersistentPreRunE: initialize,
	SilenceUsage:      true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&utils.ConfigurationFileDirectory, "config_dir", ".", "Directory for configuration files")

	// Share layout
	f.Int("required", 3, "Shares needed to reconstruct a file (K)")
	f.Int("shares", 20, "Shares produced per file (N)")
	f.String("scheme", "", "Erasure coding scheme as 'K+P' (e.g. '3+17'), overrides --required and --shares")

	// Source tree
	f.String("source", ".", "Root of the original tree, or of the share directories with --restore")
	f.Bool("restore", false, "Reassemble originals from the share directories below --source")
	f.String("backend", string(defaultBackend), "Storage backend holding --source (local, s3)")
	f.String("bucket", "", "S3 bucket, --source is then a key prefix")
	f.String("region", "", "S3 region")
	f.String("endpoint", "", "S3 endpoint for S3-compatible services")
	f.String("access_key", "", "S3 access key")
	f.String("secret_key", "", "S3 secret key")

	// Observability
	f.String("log_level", "info", "Log level (debug, info, warn, error)")
	f.Int("debug_port", 0, "Serve metrics and pprof on this port (0 disables)")

	viper.BindPFlags(f)
}

// initialize loads configuration and starts the debug server before any
// command runs
func initialize(cmd *cobra.Command, args []string) error {
	if _, err := utils.LoadConfiguration("sharefs", false); err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	loader := NewFlagLoader(cmd)
	if err := logger.SetLevelString(loader.String("log_level")); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if port := loader.Int("debug_port"); port > 0 {
		addr := fmt.Sprintf(":%d", port)
		go func() {
			if err := debug.Serve(cmd.Context(), addr); err != nil {
				logger.Warn().Err(err).Str("addr", addr).Msg("debug server stopped")
			}
		}()
		debug.SetReady()
		logger.Debug().Str("addr", addr).Msg("debug server listening")
	}
	return nil
}

// Execute runs the root command until it finishes or the process is
// interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
