// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package vaultdoc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/transporttest"
)

func TestNewRequiresProjectID(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrEmptyProjectID)
}

func TestNewDefaultsDatabaseID(t *testing.T) {
	c, err := New(Params{ProjectID: "p", Transport: transporttest.New()})
	require.NoError(t, err)
	assert.Equal(t, "projects/p/databases/(default)", c.Database())
}

func TestNewDocumentRef(t *testing.T) {
	c, err := New(Params{ProjectID: "p", Transport: transporttest.New()})
	require.NoError(t, err)

	ref, err := c.NewDocumentRef("users/alice")
	require.NoError(t, err)
	assert.Equal(t, "projects/p/databases/(default)/documents/users/alice", ref.Path())
	assert.Equal(t, "users", ref.Collection())
	assert.Equal(t, "alice", ref.ID())

	_, err = c.NewDocumentRef("users")
	assert.Error(t, err)

	_, err = c.NewDocumentRef("users//alice")
	assert.Error(t, err)
}

func TestClientBulkWriterAndCommitEndToEnd(t *testing.T) {
	tr := transporttest.New()
	c, err := New(Params{ProjectID: "p", Transport: tr})
	require.NoError(t, err)

	ref, err := c.NewDocumentRef("users/alice")
	require.NoError(t, err)

	w := c.BulkWriter(nil)
	h, err := w.Set(ref.Path(), map[string]any{"name": "Ada"}, nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = h.Wait()
	require.NoError(t, err)

	commit := c.Commit(nil)
	require.NoError(t, commit.Set(ref.Path(), map[string]any{"name": "Ada"}, nil))
	results, err := commit.Commit(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NoError(t, results[0].Err)
}
