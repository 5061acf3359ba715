// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io/fs"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Show metadata of a view path",
	Args:  cobra.ExactArgs(1),
	RunE:  runStat,
}

func init() {
	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v, mgr, err := openView(cmd)
	if err != nil {
		return err
	}
	defer closeManager(ctx, mgr)

	info, err := v.Stat(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "  Name:     %s\n", info.Name())
	fmt.Fprintf(out, "  Size:     %d (%s)\n", info.Size(), humanize.IBytes(uint64(info.Size())))
	fmt.Fprintf(out, "  Type:     %s\n", fileType(info))
	fmt.Fprintf(out, "  Mode:     %s\n", info.Mode())
	fmt.Fprintf(out, "  Modified: %s (%s)\n", info.ModTime().Format(time.RFC3339), humanize.Time(info.ModTime()))
	return nil
}

func fileType(info fs.FileInfo) string {
	switch {
	case info.IsDir():
		return "directory"
	case info.Mode().IsRegular():
		return "regular file"
	default:
		return "other"
	}
}
