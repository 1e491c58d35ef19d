// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/transporttest"
)

func TestCommitOrderedResults(t *testing.T) {
	c := NewCommit("db", transporttest.New(), nil, nil)
	require.NoError(t, c.Set("docs/1", map[string]any{"a": 1}, nil))
	require.NoError(t, c.Set("docs/2", map[string]any{"b": 2}, nil))

	results, err := c.Commit(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "docs/1", results[0].DocumentPath)
	assert.Equal(t, "docs/2", results[1].DocumentPath)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
}

func TestCommitResetReusesCoordinator(t *testing.T) {
	c := NewCommit("db", transporttest.New(), nil, nil)
	require.NoError(t, c.Set("docs/1", map[string]any{"a": 1}, nil))
	_, err := c.Commit(context.Background(), nil)
	require.NoError(t, err)

	c.Reset()
	require.NoError(t, c.Set("docs/2", map[string]any{"b": 2}, nil))
	results, err := c.Commit(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "docs/2", results[0].DocumentPath)
}
