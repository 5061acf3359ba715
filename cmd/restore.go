// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/LeeDigitalWorks/sharefs/pkg/logger"
	"github.com/LeeDigitalWorks/sharefs/pkg/sharefs"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/backend"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/ec"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore <file> <out>",
	Short: "Reassemble a file from the share directories below --source",
	Long: `Reassemble <file> from the first K share directories below --source that
hold it and write it to <out>, or to stdout when <out> is '-'.`,
	Args: cobra.ExactArgs(2),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
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

	root, err := mgr.Add("source", opts.Source)
	if err != nil {
		return err
	}
	dirs, err := sharefs.NewRestoredView(root, coder).ShareDirs(ctx)
	if err != nil {
		return err
	}

	sources := make([]types.BackendStorage, 0, len(dirs))
	for _, dir := range dirs {
		b, err := mgr.Add("share-"+dir, subConfig(opts.Source, dir))
		if err != nil {
			return err
		}
		sources = append(sources, b)
	}

	key := backend.CleanKey(args[0])
	ctx = logger.With(ctx, map[string]any{"command": "restore", "scheme": opts.Scheme.String()})

	var (
		out     io.Writer = cmd.OutOrStdout()
		outFile *os.File
	)
	if args[1] != "-" {
		outFile, err = os.Create(filepath.Clean(args[1]))
		if err != nil {
			return err
		}
		out = outFile
	}

	n, err := ec.NewManager(coder).Restore(ctx, key, sources, out)
	if outFile != nil {
		if cerr := outFile.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(outFile.Name())
		}
	}
	if err != nil {
		return err
	}

	if outFile != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "restored %s: %s to %s\n", key, humanize.IBytes(uint64(n)), outFile.Name())
	}
	return nil
}
