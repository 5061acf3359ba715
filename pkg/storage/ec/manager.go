// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package ec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LeeDigitalWorks/sharefs/pkg/logger"
	"github.com/LeeDigitalWorks/sharefs/pkg/share"
	"github.com/LeeDigitalWorks/sharefs/pkg/types"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// BlockSize is the default read size when streaming shares and originals
const BlockSize = 1 * 1024 * 1024 // 1MB

// ErrWriteQuorum is returned when too few shares could be stored
var ErrWriteQuorum = errors.New("write quorum not met")

// Opener opens a fresh handle on an original. Export calls it once per share
// so that every writer owns its source.
type Opener func(ctx context.Context) (share.Source, error)

// Manager materializes shares into backends and restores originals from them
type Manager struct {
	codec     share.Codec
	blockSize int
	limiter   *rate.Limiter
	encOpts   []share.EncoderOption
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithBlockSize sets the streaming block size
func WithBlockSize(size int) ManagerOption {
	return func(m *Manager) {
		if size > 0 {
			m.blockSize = size
		}
	}
}

// WithRateLimit caps the bytes per second written across all shares of an
// export. Zero or less disables the limit.
func WithRateLimit(bytesPerSecond int) ManagerOption {
	return func(m *Manager) {
		if bytesPerSecond <= 0 {
			m.limiter = nil
			return
		}
		m.limiter = rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
	}
}

// WithEncoderOptions passes options to every share encoder
func WithEncoderOptions(opts ...share.EncoderOption) ManagerOption {
	return func(m *Manager) {
		m.encOpts = append(m.encOpts, opts...)
	}
}

// NewManager creates a manager for the given codec
func NewManager(codec share.Codec, opts ...ManagerOption) *Manager {
	m := &Manager{
		codec:     codec,
		blockSize: BlockSize,
	}
	for _, opt := range opts {
		opt(m)
	}
	// A single read never exceeds the block size, so the burst must cover it
	if m.limiter != nil && m.limiter.Burst() < m.blockSize {
		m.limiter.SetBurst(m.blockSize)
	}
	return m
}

// WriteQuorum returns the number of shares an export must store.
// This is K+1 so one share can be lost right away, or N when there is no
// parity.
func (m *Manager) WriteQuorum() int {
	if m.codec.Total() == m.codec.Required() {
		return m.codec.Total()
	}
	return m.codec.Required() + 1
}

// ReadQuorum returns the number of shares needed to restore
func (m *Manager) ReadQuorum() int {
	return m.codec.Required()
}

// ExportResult describes the shares stored by an export
type ExportResult struct {
	ID           string // correlates the log lines of one export
	Key          string
	OriginalSize int64
	ShareSize    int64
	Stored       []int         // share indices written, ascending
	Failed       map[int]error // share index to failure
}

// Export writes every share of an original under key, share i going to
// targets[i]. Shares are produced and written in parallel. It fails when
// fewer than WriteQuorum shares were stored; the result is returned either
// way.
func (m *Manager) Export(ctx context.Context, key string, original Opener, targets []types.BackendStorage) (*ExportResult, error) {
	total := m.codec.Total()
	if len(targets) != total {
		return nil, fmt.Errorf("%w: %d targets for %d shares", share.ErrInvalidParams, len(targets), total)
	}

	id := uuid.NewString()
	log := logger.Ctx(ctx).With().Str("export_id", id).Str("key", key).Logger()
	start := time.Now()

	var (
		wg           sync.WaitGroup
		mu           sync.Mutex
		successCount int32
		result       = &ExportResult{ID: id, Key: key, Failed: make(map[int]error)}
	)

	for i := range total {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			originalSize, shareSize, err := m.exportShare(ctx, key, idx, original, targets[idx])

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				ShareWriteFailures.Inc()
				log.Warn().Err(err).Int("index", idx).Msg("share export failed")
				result.Failed[idx] = err
				return
			}
			atomic.AddInt32(&successCount, 1)
			result.Stored = append(result.Stored, idx)
			result.OriginalSize = originalSize
			result.ShareSize = shareSize
		}(i)
	}

	wg.Wait()
	sort.Ints(result.Stored)
	ExportDuration.Observe(time.Since(start).Seconds())

	if int(successCount) < m.WriteQuorum() {
		errs := make([]error, 0, len(result.Failed))
		for _, err := range result.Failed {
			errs = append(errs, err)
		}
		return result, fmt.Errorf("%w: %d/%d shares stored: %w",
			ErrWriteQuorum, successCount, m.WriteQuorum(), errors.Join(errs...))
	}

	ExportsTotal.Inc()
	log.Info().
		Int("stored", len(result.Stored)).
		Int64("original_size", result.OriginalSize).
		Int64("share_size", result.ShareSize).
		Dur("elapsed", time.Since(start)).
		Msg("exported shares")
	return result, nil
}

func (m *Manager) exportShare(ctx context.Context, key string, idx int, original Opener, target types.BackendStorage) (int64, int64, error) {
	if target == nil {
		return 0, 0, fmt.Errorf("share %d: no target", idx)
	}
	src, err := original(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("share %d: open original: %w", idx, err)
	}
	defer src.Close()

	enc, err := share.NewEncoder(m.codec.Required(), idx, src, m.codec, m.encOpts...)
	if err != nil {
		return 0, 0, fmt.Errorf("share %d: %w", idx, err)
	}

	r := &meteredReader{
		ctx:     ctx,
		r:       share.NewSectionReader(enc, 0, -1, m.blockSize),
		limiter: m.limiter,
		bytes:   ExportedBytes,
	}
	if err := target.Write(ctx, key, r, enc.Size()); err != nil {
		return 0, 0, fmt.Errorf("write share %d: %w", idx, err)
	}
	return enc.OriginalSize(), enc.Size(), nil
}

// Restore reassembles the original stored under key from the first K sources
// that hold it and writes it to dst. It returns the number of bytes written.
func (m *Manager) Restore(ctx context.Context, key string, sources []types.BackendStorage, dst io.Writer) (int64, error) {
	required := m.codec.Required()
	opened, err := share.OpenRequired(required, len(sources), func(i int) (share.Source, error) {
		return sources[i].Open(ctx, key)
	})
	if err != nil {
		return 0, err
	}

	dec, err := share.NewDecoder(required, opened, m.codec)
	if err != nil {
		share.CloseAll(opened)
		return 0, err
	}
	defer dec.Close()

	size, err := dec.Size()
	if err != nil {
		return 0, fmt.Errorf("restore %s: %w", key, err)
	}

	n, err := io.Copy(dst, &meteredReader{
		ctx:   ctx,
		r:     share.NewSectionReader(dec, 0, size, m.blockSize),
		bytes: RestoredBytes,
	})
	if err != nil {
		return n, fmt.Errorf("restore %s: %w", key, err)
	}

	indices, _ := dec.Indices()
	logger.Ctx(ctx).Info().
		Str("key", key).
		Ints("indices", indices).
		Int64("bytes", n).
		Msg("restored original")
	return n, nil
}

// meteredReader counts bytes and applies the optional rate limit. It stops
// once ctx is done.
type meteredReader struct {
	ctx     context.Context
	r       io.Reader
	limiter *rate.Limiter
	bytes   prometheus.Counter
}

func (r *meteredReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	if r.limiter != nil && len(p) > r.limiter.Burst() {
		p = p[:r.limiter.Burst()]
	}
	n, err := r.r.Read(p)
	if n == 0 {
		return n, err
	}
	r.bytes.Add(float64(n))
	if r.limiter != nil {
		if werr := r.limiter.WaitN(r.ctx, n); werr != nil {
			return n, werr
		}
	}
	return n, err
}
