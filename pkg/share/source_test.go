// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share_test

import (
	"errors"
	"testing"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenRequired_StopsAtRequired(t *testing.T) {
	t.Parallel()

	var calls []int
	sources, err := share.OpenRequired(2, 5, func(i int) (share.Source, error) {
		calls = append(calls, i)
		if i == 1 {
			return nil, errFlaky
		}
		return share.NewBytesSource("s", []byte{byte(i)}), nil
	})
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, []int{0, 1, 2}, calls)

	b, err := sources[1].ReadAt(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, b)
	share.CloseAll(sources)
}

func TestOpenRequired_NotEnough(t *testing.T) {
	t.Parallel()

	missing := errors.New("share missing")
	var opened []*countingSource
	_, err := share.OpenRequired(3, 4, func(i int) (share.Source, error) {
		if i%2 == 1 {
			return nil, missing
		}
		src := &countingSource{Source: share.NewBytesSource("s", nil)}
		opened = append(opened, src)
		return src, nil
	})
	require.ErrorIs(t, err, share.ErrResource)
	assert.ErrorIs(t, err, missing)

	var re *share.ResourceError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 3, re.Required)
	assert.Equal(t, 2, re.Available)

	// Everything acquired before giving up is released
	require.Len(t, opened, 2)
	for _, src := range opened {
		assert.Equal(t, int32(1), src.closes.Load())
	}
}

func TestOpenRequired_NoCandidates(t *testing.T) {
	t.Parallel()

	_, err := share.OpenRequired(1, 0, func(i int) (share.Source, error) {
		t.Fatal("open called without candidates")
		return nil, nil
	})
	var re *share.ResourceError
	require.True(t, errors.As(err, &re))
	assert.Zero(t, re.Available)
}
