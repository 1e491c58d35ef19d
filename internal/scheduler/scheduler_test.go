// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/transporttest"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

func newSetOp(path string) *Operation {
	return NewOperation(wire.KindSet, path, func() (wire.Write, error) {
		return wire.Write{Kind: wire.KindSet, DocumentPath: path, Fields: map[string]any{"a": 1}}, nil
	})
}

func TestEnqueueRejectsWhenClosed(t *testing.T) {
	s := New("db", transporttest.New(), NewPolicy())
	require.NoError(t, s.Close())
	err := s.Enqueue(newSetOp("docs/1"))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestEnqueueSameDocumentSplitsBatch(t *testing.T) {
	policy := NewPolicy().SetMaxBatchSize(10)
	s := New("db", transporttest.New(), policy)

	op1 := newSetOp("docs/1")
	op2 := newSetOp("docs/1")
	require.NoError(t, s.Enqueue(op1))

	s.mu.Lock()
	first := s.queue.Back()
	s.mu.Unlock()

	require.NoError(t, s.Enqueue(op2))

	s.mu.Lock()
	second := s.queue.Back()
	s.mu.Unlock()

	assert.NotSame(t, first, second, "repeating a document path must force a new batch")
}

func TestEnqueueSizeSplit(t *testing.T) {
	policy := NewPolicy().SetMaxBatchSize(2)
	tr := transporttest.New()
	tr.BatchWriteFunc = func(ctx context.Context, req wire.BatchWriteRequest) (wire.BatchWriteResponse, error) {
		// every write succeeds at once; only the RPC count is checked
		return wire.BatchWriteResponse{
			WriteResults: make([]wire.WriteResult, len(req.Writes)),
			Status:       statusesOK(len(req.Writes)),
		}, nil
	}
	s := New("db", tr, policy.SetMaxConcurrentBatches(1))

	require.NoError(t, s.Enqueue(newSetOp("docs/1")))
	require.NoError(t, s.Enqueue(newSetOp("docs/2")))
	require.NoError(t, s.Enqueue(newSetOp("docs/3")))

	require.NoError(t, s.Close())
	assert.GreaterOrEqual(t, len(tr.BatchWriteCalls), 2, "three writes with batch size 2 must split across at least two RPCs")
}

func statusesOK(n int) []wire.Status {
	out := make([]wire.Status, n)
	for i := range out {
		out[i] = wire.Status{Code: wire.CodeOK}
	}
	return out
}

func TestSingleFlightPerDocument(t *testing.T) {
	var mu sync.Mutex
	var concurrentDocWrites int
	var maxConcurrentDocWrites int
	seen := make(map[string]bool)

	tr := transporttest.New()
	tr.BatchWriteFunc = func(ctx context.Context, req wire.BatchWriteRequest) (wire.BatchWriteResponse, error) {
		mu.Lock()
		for _, w := range req.Writes {
			if seen[w.DocumentPath] {
				concurrentDocWrites++
			}
			seen[w.DocumentPath] = true
		}
		if concurrentDocWrites > maxConcurrentDocWrites {
			maxConcurrentDocWrites = concurrentDocWrites
		}
		mu.Unlock()
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		for _, w := range req.Writes {
			seen[w.DocumentPath] = false
		}
		mu.Unlock()
		return wire.BatchWriteResponse{
			WriteResults: make([]wire.WriteResult, len(req.Writes)),
			Status:       statusesOK(len(req.Writes)),
		}, nil
	}

	policy := NewPolicy().SetMaxBatchSize(1).SetMaxConcurrentBatches(4)
	s := New("db", tr, policy)

	var ops []*Operation
	for i := 0; i < 8; i++ {
		op := newSetOp("docs/shared")
		ops = append(ops, op)
		require.NoError(t, s.Enqueue(op))
	}
	for _, op := range ops {
		op.Wait()
	}
	assert.Equal(t, 0, concurrentDocWrites, "no two batches touching docs/shared may be in flight at once")
}

func TestFlushWaitsForExistingBatches(t *testing.T) {
	tr := transporttest.New()
	s := New("db", tr, NewPolicy().SetMaxBatchSize(10))

	op1 := newSetOp("docs/1")
	require.NoError(t, s.Enqueue(op1))

	require.NoError(t, s.Flush())
	assert.NoError(t, op1.Wait().Err)
}

func TestCloseRejectsSecondClose(t *testing.T) {
	s := New("db", transporttest.New(), NewPolicy())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Close(), ErrClosed)
	assert.ErrorIs(t, s.Flush(), ErrClosed)
}
