// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/ec"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Write a share, or with --restore an original, to stdout",
	Long: `Write the bytes of a view path to stdout. Without --restore the path has
the form /<xx>/<file> and the share with index xx of <file> is produced.
With --restore the path names an original, reassembled from K shares.`,
	Args: cobra.ExactArgs(1),
	RunE: runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)

	f := catCmd.Flags()
	f.Int64("offset", 0, "Byte offset to start at")
	f.Int64("length", -1, "Number of bytes to write (-1 for all)")
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	v, mgr, err := openView(cmd)
	if err != nil {
		return err
	}
	defer closeManager(ctx, mgr)

	offset, _ := cmd.Flags().GetInt64("offset")
	length, _ := cmd.Flags().GetInt64("length")
	if offset < 0 {
		return fmt.Errorf("--offset must not be negative")
	}

	f, err := v.OpenFile(ctx, args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r := share.NewSectionReader(f, offset, length, ec.BlockSize)
	if _, err := io.Copy(cmd.OutOrStdout(), r); err != nil {
		return fmt.Errorf("cat %s: %w", args[0], err)
	}
	return nil
}
