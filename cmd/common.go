// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"io/fs"
	"path"
	"path/filepath"

	"github.com/LeeDigitalWorks/sharefs/pkg/logger"
	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/sharefs"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/backend"
	"github.com/LeeDigitalWorks/sharefs/pkg/storage/ec"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"
	"github.com/LeeDigitalWorks/sharefs/pkg/utils"

	"github.com/spf13/cobra"
)

const defaultBackend = types.StorageTypeLocal

// ShareOpts holds the configuration shared by every command
type ShareOpts struct {
	Scheme  types.ECScheme
	Source  types.BackendConfig
	Restore bool
}

func loadShareOpts(cmd *cobra.Command) (ShareOpts, error) {
	loader := NewFlagLoader(cmd)

	var (
		scheme types.ECScheme
		err    error
	)
	if s := loader.String("scheme"); s != "" {
		scheme, err = types.ParseECScheme(s)
	} else {
		scheme, err = types.NewECScheme(loader.Int("required"), loader.Int("shares"))
	}
	if err != nil {
		return ShareOpts{}, err
	}

	cfg := types.BackendConfig{
		Type:      types.StorageType(loader.String("backend")),
		Bucket:    loader.String("bucket"),
		Region:    loader.String("region"),
		Endpoint:  loader.String("endpoint"),
		AccessKey: loader.String("access_key"),
		SecretKey: loader.String("secret_key"),
	}
	if cfg.Type == "" {
		cfg.Type = defaultBackend
	}
	source := loader.String("source")
	switch cfg.Type {
	case types.StorageTypeLocal:
		cfg.Path = utils.ResolvePath(source)
	default:
		cfg.Prefix = source
	}

	return ShareOpts{
		Scheme:  scheme,
		Source:  cfg,
		Restore: loader.Bool("restore"),
	}, nil
}

// subConfig points cfg at a directory below its root
func subConfig(cfg types.BackendConfig, dir string) types.BackendConfig {
	if cfg.Type == types.StorageTypeLocal {
		cfg.Path = filepath.Join(cfg.Path, filepath.FromSlash(dir))
	} else {
		cfg.Prefix = path.Join(cfg.Prefix, dir)
	}
	return cfg
}

func newCoder(scheme types.ECScheme) (*ec.ReedSolomonCoder, error) {
	return ec.NewReedSolomonCoder(scheme.DataShards, scheme.ParityShards)
}

// view is the read surface shared by the encoded and restored views
type view interface {
	Stat(ctx context.Context, p string) (fs.FileInfo, error)
	ReadDir(ctx context.Context, p string) ([]fs.FileInfo, error)
	OpenFile(ctx context.Context, p string) (share.Source, error)
}

type encodedView struct {
	*sharefs.EncodedView
}

func (v encodedView) OpenFile(ctx context.Context, p string) (share.Source, error) {
	f, err := v.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

type restoredView struct {
	*sharefs.RestoredView
}

func (v restoredView) OpenFile(ctx context.Context, p string) (share.Source, error) {
	f, err := v.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// openView builds the view selected by --restore over the configured
// source. The returned manager owns the source backend.
func openView(cmd *cobra.Command) (view, *backend.Manager, error) {
	opts, err := loadShareOpts(cmd)
	if err != nil {
		return nil, nil, err
	}
	coder, err := newCoder(opts.Scheme)
	if err != nil {
		return nil, nil, err
	}

	mgr := backend.NewManager()
	src, err := mgr.Add("source", opts.Source)
	if err != nil {
		return nil, nil, err
	}

	logger.Ctx(cmd.Context()).Debug().
		Str("scheme", opts.Scheme.String()).
		Str("backend", string(opts.Source.Type)).
		Bool("restore", opts.Restore).
		Msg("opened source")

	if opts.Restore {
		return restoredView{sharefs.NewRestoredView(src, coder)}, mgr, nil
	}
	return encodedView{sharefs.NewEncodedView(src, coder)}, mgr, nil
}

func closeManager(ctx context.Context, mgr *backend.Manager) {
	if err := mgr.Close(); err != nil {
		logger.Ctx(ctx).Warn().Err(err).Msg("close backends")
	}
}
