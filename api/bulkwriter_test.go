// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdocdb/vaultdoc-client-go/internal/scheduler"
	"github.com/vaultdocdb/vaultdoc-client-go/serializer"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/transporttest"
)

func TestBulkWriterSetAndWait(t *testing.T) {
	w := NewBulkWriter("projects/p/databases/(default)", transporttest.New(), nil, nil)

	h, err := w.Set("docs/1", map[string]any{"name": "ada"}, nil)
	require.NoError(t, err)

	// The open batch is only sent by Flush/Close (or when it fills up).
	require.NoError(t, w.Close())

	writeTime, err := h.Wait()
	require.NoError(t, err)
	assert.False(t, writeTime.IsZero())
}

func TestBulkWriterRejectsAfterClose(t *testing.T) {
	w := NewBulkWriter("db", transporttest.New(), nil, nil)
	require.NoError(t, w.Close())

	_, err := w.Create("docs/1", map[string]any{"a": 1})
	assert.ErrorIs(t, err, scheduler.ErrClosed)
}

func TestBulkWriterCreateRejectsInvalidDataSynchronously(t *testing.T) {
	w := NewBulkWriter("db", transporttest.New(), serializer.NewDefault(), nil)

	_, err := w.Create("docs/1", map[string]any{"deleted": serializer.Delete()})
	var sentinelErr *serializer.ErrSentinelNotAllowed
	assert.ErrorAs(t, err, &sentinelErr)

	require.NoError(t, w.Close())
}

func TestBulkWriterUpdateImplicitPrecondition(t *testing.T) {
	tr := transporttest.New()
	w := NewBulkWriter("db", tr, serializer.NewDefault(), nil)

	h, err := w.Update("docs/1", map[string]any{"x": 1}, serializer.PreconditionInput{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	_, err = h.Wait()
	require.NoError(t, err)

	require.NotEmpty(t, tr.BatchWriteCalls)
	got := tr.BatchWriteCalls[0].Request.Writes[0].Precondition
	require.NotNil(t, got)
	assert.True(t, got.Exists)
}
