// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeeDigitalWorks/sharefs/pkg/logger"
	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/sharefs"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/backend"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/ec"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"
	"github.com/LeeDigitalWorks/sharefs/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export <file> <out_dir>",
	Short: "Write every share of a source file below out_dir/<xx>/",
	Long: `Materialize all N shares of one file of the source tree. Share xx is
written to <out_dir>/<xx>/<file>, so <out_dir> can later be used as the
--source of a restore.`,
	Args: cobra.ExactArgs(2),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	f := exportCmd.Flags()
	f.Bool("sync", false, "fdatasync every share before it is renamed into place")
	f.String("export_rate", "", "Limit share writes to this many bytes per second (e.g. '50MiB')")
	f.String("block_size", "1MiB", "Read size used when streaming shares")
	f.String("min_free", "", "Refuse to export when out_dir has less free space, as a percent ('5') or size ('10GiB')")

	viper.BindPFlags(f)
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	opts, err := loadShareOpts(cmd)
	if err != nil {
		return err
	}
	coder, err := newCoder(opts.Scheme)
	if err != nil {
		return err
	}

	loader := NewFlagLoader(cmd)
	rate, err := loader.Bytes("export_rate")
	if err != nil {
		return err
	}
	blockSize, err := loader.Bytes("block_size")
	if err != nil {
		return err
	}

	mgr := backend.NewManager()
	defer closeManager(ctx, mgr)

	src, err := mgr.Add("source", opts.Source)
	if err != nil {
		return err
	}

	key := backend.CleanKey(args[0])
	outDir := utils.ResolvePath(args[1])
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	if err := utils.TestWritableFile(outDir); err != nil {
		return fmt.Errorf("output directory %s: %w", outDir, err)
	}
	if err := checkFreeSpace(ctx, outDir, loader.String("min_free")); err != nil {
		return err
	}
	targets := make([]types.BackendStorage, opts.Scheme.TotalShards())
	for i := range targets {
		name, err := sharefs.EncodeShareIndex(i)
		if err != nil {
			return err
		}
		targets[i], err = mgr.Add(name, types.BackendConfig{
			Type: types.StorageTypeLocal,
			Path: filepath.Join(outDir, name),
			Sync: loader.Bool("sync"),
		})
		if err != nil {
			return err
		}
	}

	ctx = logger.With(ctx, map[string]any{"command": "export", "scheme": opts.Scheme.String()})
	m := ec.NewManager(coder,
		ec.WithBlockSize(int(blockSize)),
		ec.WithRateLimit(int(rate)),
	)
	open := func(ctx context.Context) (share.Source, error) {
		return src.Open(ctx, key)
	}

	result, err := m.Export(ctx, key, open, targets)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "exported %s: %d/%d shares of %s each (original %s) to %s\n",
		key,
		len(result.Stored), opts.Scheme.TotalShards(),
		humanize.IBytes(uint64(result.ShareSize)),
		humanize.IBytes(uint64(result.OriginalSize)),
		outDir,
	)
	return nil
}

// checkFreeSpace fails when the volume holding dir is below the threshold.
// Volumes whose statistics are unavailable are not checked.
func checkFreeSpace(ctx context.Context, dir, threshold string) error {
	if threshold == "" {
		return nil
	}
	limit, err := utils.ParseMinFreeSpace(threshold)
	if err != nil {
		return fmt.Errorf("--min_free: %w", err)
	}
	stats, err := backend.StatVolume(dir)
	if err != nil {
		logger.Ctx(ctx).Warn().Err(err).Str("dir", dir).Msg("free space not checked")
		return nil
	}
	if low, msg := limit.IsLow(stats.AvailBytes, stats.TotalBytes); low {
		return fmt.Errorf("%s: %s", dir, msg)
	}
	return nil
}
