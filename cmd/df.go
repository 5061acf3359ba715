// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"

	"github.com/LeeDigitalWorks/sharefs/pkg/sharefs"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/backend"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var dfCmd = &cobra.Command{
	Use:   "df",
	Short: "Report usage of the volume holding --source",
	Args:  cobra.NoArgs,
	RunE:  runDf,
}

func init() {
	rootCmd.AddCommand(dfCmd)
}

func runDf(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := loadShareOpts(cmd)
	if err != nil {
		return err
	}
	coder, err := newCoder(opts.Scheme)
	if err != nil {
		return err
	}

	mgr := backend.NewManager()
	defer closeManager(ctx, mgr)

	src, err := mgr.Add("source", opts.Source)
	if err != nil {
		return err
	}
	stats, err := sharefs.NewEncodedView(src, coder).StatFS(ctx)
	if err != nil {
		return err
	}

	used := stats.TotalBytes - stats.FreeBytes
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Size:      %s\n", humanize.IBytes(stats.TotalBytes))
	fmt.Fprintf(out, "Used:      %s\n", humanize.IBytes(used))
	fmt.Fprintf(out, "Available: %s\n", humanize.IBytes(stats.AvailBytes))
	fmt.Fprintf(out, "Files:     %s of %s free\n", humanize.Comma(int64(stats.FreeFiles)), humanize.Comma(int64(stats.TotalFiles)))
	fmt.Fprintf(out, "Scheme:    %s (%.2fx per exported file)\n", opts.Scheme, opts.Scheme.Overhead())
	return nil
}
