// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package share_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/LeeDigitalWorks/sharefs/pkg/share"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Header
// =============================================================================

func TestHeader_Bytes(t *testing.T) {
	t.Parallel()

	h := share.NewHeader(3, 4, 10)
	assert.Equal(t, []byte{3, 4, 1}, h.Bytes())
	assert.Equal(t, "k=3 index=4 leftover=1", h.String())

	parsed, err := share.ParseHeader([]byte{3, 4, 1, 0xff})
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestParseHeader_Short(t *testing.T) {
	t.Parallel()

	for _, b := range [][]byte{nil, {1}, {1, 2}} {
		_, err := share.ParseHeader(b)
		assert.ErrorIs(t, err, share.ErrShortHeader)
	}
}

// =============================================================================
// Size predictors
// =============================================================================

func TestEncodedSize_Grid(t *testing.T) {
	t.Parallel()

	for k := 1; k <= 9; k++ {
		codec := newCodec(t, k, k+2)
		for _, l := range testLengths {
			t.Run(fmt.Sprintf("k=%d/l=%d", k, l), func(t *testing.T) {
				want := int64((l+k-1)/k + share.HeaderSize)
				assert.Equal(t, want, share.EncodedSize(k, int64(l)))

				original := pattern(l)
				for i, s := range encodeAll(t, codec, original) {
					require.Len(t, s, int(want), "share %d", i)
					assert.Equal(t, []byte{byte(k), byte(i), byte(l % k)}, s[:share.HeaderSize], "share %d header", i)

					size, err := share.DecodedSize(share.NewBytesSource("share", s))
					require.NoError(t, err)
					assert.Equal(t, int64(l), size, "share %d", i)
				}
			})
		}
	}
}

func TestDecodedSize_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    share.Source
		reason share.IntegrityReason
	}{
		{
			name:   "short header",
			src:    share.NewBytesSource("s", []byte{3, 0}),
			reason: share.ReasonShortHeader,
		},
		{
			name:   "zero k",
			src:    share.NewBytesSource("s", []byte{0, 0, 0, 1, 2}),
			reason: share.ReasonInvalidRequired,
		},
		{
			name:   "leftover not below k",
			src:    share.NewBytesSource("s", []byte{3, 0, 3, 1, 2}),
			reason: share.ReasonInvalidLeftover,
		},
		{
			name:   "leftover on empty payload",
			src:    share.NewBytesSource("s", []byte{3, 0, 1}),
			reason: share.ReasonInvalidLeftover,
		},
		{
			name: "size below header",
			src: &sizedSource{
				Source: share.NewBytesSource("s", []byte{3, 0, 0}),
				size:   2,
			},
			reason: share.ReasonTruncatedShare,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := share.DecodedSize(tc.src)
			require.ErrorIs(t, err, share.ErrIntegrity)

			var ie *share.IntegrityError
			require.True(t, errors.As(err, &ie))
			assert.Equal(t, tc.reason, ie.Reason)
		})
	}
}

func TestDecodedSize_EmptyOriginal(t *testing.T) {
	t.Parallel()

	size, err := share.DecodedSize(share.NewBytesSource("s", []byte{5, 2, 0}))
	require.NoError(t, err)
	assert.Zero(t, size)
}
