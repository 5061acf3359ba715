// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/ec"
	"github.com/LeeDigitalWorks/sharefs/pkg/utils"

	"github.com/spf13/cobra"
)

var sumCmd = &cobra.Command{
	Use:   "sum <path>...",
	Short: "Print checksums of view files",
	Long: `Print a checksum per view path in the format of sha256sum. Comparing the
sum of an original with the sum of the same path under --restore checks a
round trip.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSum,
}

func init() {
	rootCmd.AddCommand(sumCmd)

	sumCmd.Flags().String("algo", utils.HashSHA256, "Checksum algorithm (sha256, crc64nvme, crc32, md5)")
}

func runSum(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	algo, _ := cmd.Flags().GetString("algo")

	v, mgr, err := openView(cmd)
	if err != nil {
		return err
	}
	defer closeManager(ctx, mgr)

	h, err := utils.GetHasher(algo)
	if err != nil {
		return err
	}
	defer utils.PutHasher(algo, h)

	for _, p := range args {
		h.Reset()
		f, err := v.OpenFile(ctx, p)
		if err != nil {
			return err
		}
		_, err = io.Copy(h, share.NewSectionReader(f, 0, -1, ec.BlockSize))
		f.Close()
		if err != nil {
			return fmt.Errorf("sum %s: %w", p, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", hex.EncodeToString(h.Sum(nil)), p)
	}
	return nil
}
