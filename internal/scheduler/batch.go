// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import (
	"context"
	"sync"

	ilog "github.com/vaultdocdb/vaultdoc-client-go/internal/log"
	"github.com/vaultdocdb/vaultdoc-client-go/transport"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// State is a batch's position in its one-shot lifecycle. Transitions
// are monotonic: Open -> ReadyToSend -> Sent. There is no reuse.
type State int

const (
	Open State = iota
	ReadyToSend
	Sent
)

func (s State) String() string {
	switch s {
	case Open:
		return "Open"
	case ReadyToSend:
		return "ReadyToSend"
	case Sent:
		return "Sent"
	default:
		return "Unknown"
	}
}

// Mode selects which RPC Batch.Send issues and, correspondingly, how
// its response is distributed.
type Mode int

const (
	// ModeBatchWrite is the non-atomic batchWrite RPC: every
	// operation's result is independent of its siblings.
	ModeBatchWrite Mode = iota
	// ModeCommit is the atomic commit RPC: an RPC-level failure
	// rejects every operation uniformly.
	ModeCommit
)

// Batch is one RPC's worth of operations. It is a one-shot container:
// once Send has transitioned it to Sent, it must never be reused.
type Batch struct {
	mu sync.Mutex

	database string
	maxSize  int

	state      State
	docPaths   map[string]struct{}
	operations []*Operation

	// blockedOn is the set of document paths this batch cannot be
	// dispatched for while non-empty. The dispatcher shrinks it as
	// conflicting, earlier batches complete; see
	// Scheduler.runBatch.
	blockedOn map[string]struct{}

	// transaction is attached to the Commit RPC when a commit
	// coordinator has decided the commit must be transactional.
	// Unused in ModeBatchWrite.
	transaction []byte

	completion chan struct{}
}

// SetTransaction attaches a transaction handle obtained from
// Transport.BeginTransaction to this batch's eventual commit RPC.
func (b *Batch) SetTransaction(txn []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transaction = txn
}

// NewBatch constructs an empty Open batch bounded at maxSize.
func NewBatch(database string, maxSize int) *Batch {
	if maxSize <= 0 {
		maxSize = MaxBatchSize
	}
	return &Batch{
		database:   database,
		maxSize:    maxSize,
		docPaths:   make(map[string]struct{}),
		completion: make(chan struct{}),
	}
}

// State returns the batch's current state.
func (b *Batch) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Len returns the number of operations currently appended.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.operations)
}

// DocPaths returns a snapshot copy of the document paths present in
// this batch.
func (b *Batch) DocPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	paths := make([]string, 0, len(b.docPaths))
	for p := range b.docPaths {
		paths = append(paths, p)
	}
	return paths
}

// Completion returns a channel closed once this batch's results have
// all been distributed.
func (b *Batch) Completion() <-chan struct{} {
	return b.completion
}

// Has reports whether documentPath is already present in this batch.
func (b *Batch) Has(documentPath string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.docPaths[documentPath]
	return ok
}

// Append adds op to the batch, returning ErrAlreadyCommitted if the
// batch is no longer Open, or ErrDuplicateDocument if op's document
// path is already present. It transitions the batch to ReadyToSend
// when it becomes full.
func (b *Batch) Append(op *Operation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Open {
		return ErrAlreadyCommitted
	}
	if _, dup := b.docPaths[op.DocumentPath]; dup {
		return ErrDuplicateDocument
	}
	b.operations = append(b.operations, op)
	b.docPaths[op.DocumentPath] = struct{}{}
	if len(b.operations) >= b.maxSize {
		b.state = ReadyToSend
	}
	return nil
}

// MarkReadyToSend idempotently transitions Open -> ReadyToSend; a
// no-op for any other state.
func (b *Batch) MarkReadyToSend() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open {
		b.state = ReadyToSend
	}
}

// SetBlockedOn replaces the batch's blocked-document set.
func (b *Batch) SetBlockedOn(paths map[string]struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blockedOn = paths
}

// ReleaseBlocked removes path from the blocked-on set, returning
// whether the set is now empty (i.e. the batch has become
// dispatchable, conflict-wise).
func (b *Batch) ReleaseBlocked(path string) (nowUnblocked bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blockedOn, path)
	return len(b.blockedOn) == 0
}

// IsBlocked reports whether the batch currently has any unresolved
// document conflicts.
func (b *Batch) IsBlocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blockedOn) > 0
}

// Send requires state == ReadyToSend, transitions it to Sent,
// serializes every operation (invoking its Payload thunk for the
// first time), issues exactly one RPC via t, distributes results, and
// closes Completion. It must not be called more than once per batch.
func (b *Batch) Send(ctx context.Context, t transport.Transport, mode Mode) {
	b.mu.Lock()
	if b.state != ReadyToSend {
		b.mu.Unlock()
		ilog.Warnf("scheduler: Send called on batch in state %s, ignoring", b.state)
		return
	}
	b.state = Sent
	ops := make([]*Operation, len(b.operations))
	copy(ops, b.operations)
	b.mu.Unlock()

	defer close(b.completion)

	writes := make([]wire.Write, 0, len(ops))
	sentOps := make([]*Operation, 0, len(ops))
	for _, op := range ops {
		w, err := op.Payload()
		if err != nil {
			// A Payload producer failing at send time is this
			// operation's problem alone; it is resolved immediately
			// and never reaches the RPC request, so it cannot apply
			// an unintended blank mutation alongside the writes that
			// did serialize.
			op.resolve(Result{Err: err})
			continue
		}
		writes = append(writes, w)
		sentOps = append(sentOps, op)
	}
	if len(sentOps) == 0 {
		return
	}

	switch mode {
	case ModeBatchWrite:
		b.sendBatchWrite(ctx, t, sentOps, writes)
	case ModeCommit:
		b.sendCommit(ctx, t, sentOps, writes)
	}
}

func (b *Batch) sendBatchWrite(ctx context.Context, t transport.Transport, ops []*Operation, writes []wire.Write) {
	resp, err := t.BatchWrite(ctx, wire.BatchWriteRequest{Database: b.database, Writes: writes})
	if err != nil {
		ilog.Errorf("scheduler: batchWrite RPC failed: %s", err)
		for _, op := range ops {
			if !op.resolved {
				op.resolve(Result{Err: err})
			}
		}
		return
	}
	for i, op := range ops {
		if op.resolved {
			continue
		}
		if i >= len(resp.Status) {
			op.resolve(Result{Err: errMissingStatus})
			continue
		}
		st := resp.Status[i]
		if st.Code == wire.CodeOK && i < len(resp.WriteResults) {
			op.resolve(Result{WriteTime: resp.WriteResults[i].UpdateTime})
		} else {
			op.resolve(Result{Err: &RPCStatusError{Code: st.Code, Message: st.Message}})
		}
	}
}

func (b *Batch) sendCommit(ctx context.Context, t transport.Transport, ops []*Operation, writes []wire.Write) {
	b.mu.Lock()
	txn := b.transaction
	b.mu.Unlock()
	resp, err := t.Commit(ctx, wire.CommitRequest{Database: b.database, Writes: writes, Transaction: txn})
	if err != nil {
		ilog.Errorf("scheduler: commit RPC failed: %s", err)
		for _, op := range ops {
			if !op.resolved {
				op.resolve(Result{Err: err})
			}
		}
		return
	}
	for i, op := range ops {
		if op.resolved {
			continue
		}
		writeTime := resp.CommitTime
		if i < len(resp.WriteResults) && !resp.WriteResults[i].UpdateTime.IsZero() {
			writeTime = resp.WriteResults[i].UpdateTime
		}
		op.resolve(Result{WriteTime: writeTime})
	}
}
