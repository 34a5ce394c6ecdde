// Copyright (C) ClusterCockpit
// All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAndFetchBusDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	none, err := c.LatestBusDigest(ctx, "bus.dbc")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, c.RecordBusDigest(ctx, BusDigest{
		SourcePath:   "bus.dbc",
		Version:      "1.0",
		MessageCount: 3,
		NodeCount:    2,
		Digest:       "abc123",
		ParsedAt:     now,
	}))

	got, err := c.LatestBusDigest(ctx, "bus.dbc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc123", got.Digest)
	assert.Equal(t, 3, got.MessageCount)
}

func TestRecordDiffResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	c, err := Open(path)
	require.NoError(t, err)
	defer c.Close()

	err = c.RecordDiffResult(context.Background(), DiffResult{
		LeftPath:   "a.dbc",
		RightPath:  "b.dbc",
		Difference: "version:\n < a\n > b\n",
		DiffedAt:   time.Now().UTC(),
	})
	assert.NoError(t, err)
}
