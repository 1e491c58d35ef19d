// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/transporttest"
)

func TestCommitDirectWhenTransactionsNotPreferred(t *testing.T) {
	tr := transporttest.New()
	c := NewCommit("db", tr, NewPolicy())

	op := newSetOp("docs/1")
	require.NoError(t, c.Append(op))

	require.NoError(t, c.Commit(context.Background(), nil))
	assert.NoError(t, op.Wait().Err)
	assert.Equal(t, 0, tr.TransactionsBegun)
	assert.True(t, c.Committed())
}

func TestCommitWrapsTransactionWhenIdle(t *testing.T) {
	tr := transporttest.New()
	tr.PreferTransactionsValue = true
	tr.SetLastSuccessfulRequestMillis(time.Now().Add(-200 * time.Second).UnixMilli())

	c := NewCommit("db", tr, NewPolicy())
	op := newSetOp("docs/1")
	require.NoError(t, c.Append(op))

	require.NoError(t, c.Commit(context.Background(), nil))
	assert.Equal(t, 1, tr.TransactionsBegun)
	assert.NoError(t, op.Wait().Err)
}

func TestCommitSkipsTransactionWhenRecentlyActive(t *testing.T) {
	tr := transporttest.New()
	tr.PreferTransactionsValue = true
	tr.SetLastSuccessfulRequestMillis(time.Now().UnixMilli())

	c := NewCommit("db", tr, NewPolicy())
	op := newSetOp("docs/1")
	require.NoError(t, c.Append(op))

	require.NoError(t, c.Commit(context.Background(), nil))
	assert.Equal(t, 0, tr.TransactionsBegun)
}

func TestCommitExplicitTransactionIDSkipsBeginTransaction(t *testing.T) {
	tr := transporttest.New()
	tr.PreferTransactionsValue = true
	tr.SetLastSuccessfulRequestMillis(time.Now().Add(-1 * time.Hour).UnixMilli())

	c := NewCommit("db", tr, NewPolicy())
	op := newSetOp("docs/1")
	require.NoError(t, c.Append(op))

	require.NoError(t, c.Commit(context.Background(), []byte("caller-txn")))
	assert.Equal(t, 0, tr.TransactionsBegun)
	require.Len(t, tr.CommitCalls, 1)
	assert.Equal(t, []byte("caller-txn"), tr.CommitCalls[0].Request.Transaction)
}

func TestCommitResetAllowsReuse(t *testing.T) {
	tr := transporttest.New()
	c := NewCommit("db", tr, NewPolicy())
	op1 := newSetOp("docs/1")
	require.NoError(t, c.Append(op1))
	require.NoError(t, c.Commit(context.Background(), nil))

	c.Reset()
	assert.False(t, c.Committed())

	op2 := newSetOp("docs/1")
	require.NoError(t, c.Append(op2))
	require.NoError(t, c.Commit(context.Background(), nil))
	assert.NoError(t, op2.Wait().Err)
}
