// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseECScheme(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    ECScheme
		wantErr bool
	}{
		{in: "", want: EC3_17},
		{in: "4+2", want: EC4_2},
		{in: " 10+4 ", want: EC10_4},
		{in: "5+0", want: ECScheme{DataShards: 5}},
		{in: "1+255", want: ECScheme{DataShards: 1, ParityShards: 255}},
		{in: "1+256", wantErr: true},
		{in: "0+3", wantErr: true},
		{in: "3-2", wantErr: true},
		{in: "a+b", wantErr: true},
		{in: "3+-1", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseECScheme(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNewECScheme(t *testing.T) {
	t.Parallel()

	s, err := NewECScheme(3, 20)
	require.NoError(t, err)
	assert.Equal(t, EC3_17, s)
	assert.Equal(t, "3+17", s.String())
	assert.Equal(t, 20, s.TotalShards())
	assert.InDelta(t, 20.0/3.0, s.Overhead(), 1e-9)

	_, err = NewECScheme(4, 3)
	assert.Error(t, err)
	_, err = NewECScheme(256, 256)
	assert.Error(t, err)
	_, err = NewECScheme(255, 256)
	assert.NoError(t, err)
}
