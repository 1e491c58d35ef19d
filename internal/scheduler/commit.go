// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"sync"
	"time"

	ilog "github.com/vaultdocdb/vaultdoc-client-go/internal/log"
	"github.com/vaultdocdb/vaultdoc-client-go/transport"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

func beginTransactionRequest(database string) wire.BeginTransactionRequest {
	return wire.BeginTransactionRequest{Database: database}
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// IdleThreshold is the connection-idle duration past which a commit
// without an explicit transaction id is wrapped in one. It mirrors
// Policy.IdleThresholdMillis's default and exists as a named constant
// for callers that construct a Commit without going through a Policy.
const IdleThreshold = 110 * time.Second

// Commit drives a single Batch to the atomic commit RPC. Unlike
// Scheduler, it owns exactly one batch at a time and never dispatches
// it automatically: the caller decides when to commit.
type Commit struct {
	mu sync.Mutex

	database  string
	transport transport.Transport
	policy    *Policy

	current   *Batch
	committed bool
}

// NewCommit constructs a Commit coordinator with a fresh Open batch.
func NewCommit(database string, t transport.Transport, policy *Policy) *Commit {
	if policy == nil {
		policy = NewPolicy()
	}
	c := &Commit{database: database, transport: t, policy: policy}
	c.current = NewBatch(database, policy.MaxBatchSize())
	return c
}

// Append adds op to the coordinator's current batch. It fails with
// ErrAlreadyCommitted once that batch has left the Open state: it has
// been filled to the policy's batch size, or sent by a prior Commit
// call that has not been Reset. A committed-but-not-yet-sent
// coordinator still accepts appends, since re-entry is permitted
// before the batch transitions to Sent.
func (c *Commit) Append(op *Operation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Append(op)
}

// Committed reports whether Commit has been called at least once
// since construction or the last Reset.
func (c *Commit) Committed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

// Commit marks the coordinator committed, decides transactional vs.
// direct dispatch, serializes and sends the current batch, and blocks
// until results have been distributed. transactionID overrides the
// automatic transactional decision when non-empty.
func (c *Commit) Commit(ctx context.Context, transactionID []byte) error {
	c.mu.Lock()
	c.committed = true
	batch := c.current
	c.mu.Unlock()

	txn := transactionID
	if len(txn) == 0 && c.shouldUseTransaction() {
		resp, err := c.transport.BeginTransaction(ctx, beginTransactionRequest(c.database))
		if err != nil {
			ilog.Errorf("scheduler: beginTransaction failed: %s", err)
			return err
		}
		txn = resp.Transaction
	}
	if len(txn) > 0 {
		batch.SetTransaction(txn)
	}

	batch.MarkReadyToSend()
	batch.Send(ctx, c.transport, ModeCommit)
	<-batch.Completion()
	return nil
}

// shouldUseTransaction wraps the commit in a transaction when the
// transport prefers them and the connection has been idle long enough
// that the hosting environment may have torn it down underneath us.
func (c *Commit) shouldUseTransaction() bool {
	if !c.transport.PreferTransactions() {
		return false
	}
	last, ok := c.transport.LastSuccessfulRequestMillis()
	if !ok {
		return true
	}
	idleMillis := nowMillis() - last
	return idleMillis > c.policy.IdleThresholdMillis()
}

// Reset clears the operation list and committed flag, allowing the
// coordinator's batch to be reused across a higher layer's retry loop.
func (c *Commit) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = NewBatch(c.database, c.policy.MaxBatchSize())
	c.committed = false
}
