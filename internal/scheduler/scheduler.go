// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package scheduler implements the bulk-write dispatch engine: the
// batching, conflict-tracking and RPC-fanout machinery shared by the
// BulkWriter and CommitCoordinator surfaces in package api. It is the
// single place that mutates batchQueue and inFlightDocs, and therefore
// the single place responsible for the ordering and single-flight
// invariants documented on Scheduler.
package scheduler

import (
	"context"
	"sync"

	ilog "github.com/vaultdocdb/vaultdoc-client-go/internal/log"
	"github.com/vaultdocdb/vaultdoc-client-go/transport"
)

// Scheduler is the BulkWriter dispatch engine. All of its bookkeeping
// — batchQueue, inFlightDocs, batch state transitions — happens under
// a single mutex so enqueue never suspends; RPC dispatch itself runs
// concurrently in goroutines, one per in-flight batch, up to
// Policy.MaxConcurrentBatches.
type Scheduler struct {
	mu sync.Mutex

	database  string
	transport transport.Transport
	policy    *Policy

	queue              *BatchQueue
	inFlight           map[*Batch]struct{}
	inFlightDocs       map[string]int
	inFlightBatchCount int
	closed             bool
}

// New constructs a Scheduler bound to the given database, transport
// and policy. The transport and policy are read-only collaborators;
// the Scheduler owns no goroutines until Enqueue is first called.
func New(database string, t transport.Transport, policy *Policy) *Scheduler {
	if policy == nil {
		policy = NewPolicy()
	}
	return &Scheduler{
		database:     database,
		transport:    t,
		policy:       policy,
		queue:        NewBatchQueue(),
		inFlight:     make(map[*Batch]struct{}),
		inFlightDocs: make(map[string]int),
	}
}

// Enqueue appends op to the current batch, splitting onto a fresh
// batch when it would duplicate a document path already present or
// when the current batch is full, then kicks the dispatcher. It never
// blocks on network I/O: the returned error reflects only synchronous
// validation (closed writer).
func (s *Scheduler) Enqueue(op *Operation) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	current := s.queue.Back()
	if current == nil || current.State() != Open {
		current = NewBatch(s.database, s.policy.MaxBatchSize())
		s.queue.PushBack(current)
	} else if current.Has(op.DocumentPath) {
		// Same-document-in-one-batch is forbidden: force the batch
		// closed and start a fresh one. This is the sole mechanism
		// that preserves per-document ordering across batches.
		current.MarkReadyToSend()
		current = NewBatch(s.database, s.policy.MaxBatchSize())
		s.queue.PushBack(current)
	}

	if err := current.Append(op); err != nil {
		// Cannot happen under the single-mutex model above, but
		// surfacing it is cheaper than asserting it away.
		s.mu.Unlock()
		return err
	}

	if s.inFlightDocs[op.DocumentPath] > 0 {
		blocked := make(map[string]struct{})
		for _, p := range current.DocPaths() {
			if s.inFlightDocs[p] > 0 {
				blocked[p] = struct{}{}
			}
		}
		current.SetBlockedOn(blocked)
	}

	s.mu.Unlock()
	s.dispatch()
	return nil
}

// dispatch pops every ReadyToSend, unblocked batch at the queue head
// it can, up to the concurrency cap, and launches its send in its own
// goroutine. A head batch sharing a document path with a batch already
// in flight waits until that batch completes. It is safe to call
// redundantly; a call that finds nothing dispatchable is a no-op.
func (s *Scheduler) dispatch() {
	for {
		s.mu.Lock()
		if s.inFlightBatchCount >= s.policy.MaxConcurrentBatches() {
			s.mu.Unlock()
			return
		}
		head := s.queue.Front()
		if head == nil || head.State() != ReadyToSend || head.IsBlocked() {
			s.mu.Unlock()
			return
		}
		paths := head.DocPaths()
		for _, p := range paths {
			if s.inFlightDocs[p] > 0 {
				// runBatch re-kicks dispatch once the holder completes.
				s.mu.Unlock()
				return
			}
		}
		s.queue.RemoveIfFront(head)
		s.inFlight[head] = struct{}{}
		s.inFlightBatchCount++
		for _, p := range paths {
			s.inFlightDocs[p]++
		}
		s.mu.Unlock()

		go s.runBatch(head)
	}
}

// runBatch sends one batch to completion and then folds its
// completion back into scheduler state, releasing any batches that
// were blocked on its documents and re-kicking the dispatcher.
func (s *Scheduler) runBatch(b *Batch) {
	b.Send(context.Background(), s.transport, ModeBatchWrite)

	s.mu.Lock()
	delete(s.inFlight, b)
	s.inFlightBatchCount--
	paths := b.DocPaths()
	for _, p := range paths {
		s.inFlightDocs[p]--
		if s.inFlightDocs[p] <= 0 {
			delete(s.inFlightDocs, p)
		}
	}
	s.queue.Each(func(qb *Batch) {
		for _, p := range paths {
			if qb.Has(p) {
				qb.ReleaseBlocked(p)
			}
		}
	})
	s.mu.Unlock()

	s.dispatch()
}

// snapshotCompletions must be called with s.mu held. It promotes
// every still-Open queued batch to ReadyToSend and returns the
// completion channels of every batch that exists at this instant:
// queued and already-dispatched alike. Batches enqueued after this
// call are deliberately excluded.
func (s *Scheduler) snapshotCompletions() []<-chan struct{} {
	var completions []<-chan struct{}
	s.queue.Each(func(b *Batch) {
		if b.State() == Open {
			b.MarkReadyToSend()
		}
		completions = append(completions, b.Completion())
	})
	for b := range s.inFlight {
		completions = append(completions, b.Completion())
	}
	return completions
}

// Flush marks every Open batch ReadyToSend and blocks until every
// batch that existed at the moment of the call has completed. Writes
// enqueued after Flush returns (or concurrently with its in-flight
// wait) are not covered by the returned wait.
func (s *Scheduler) Flush() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	completions := s.snapshotCompletions()
	s.mu.Unlock()

	s.dispatch()
	for _, c := range completions {
		<-c
	}
	return nil
}

// Close is Flush followed by marking the scheduler closed. Subsequent
// Enqueue/Flush/Close calls fail with ErrClosed.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	completions := s.snapshotCompletions()
	s.mu.Unlock()

	s.dispatch()
	for _, c := range completions {
		<-c
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	ilog.Debug("scheduler: writer closed")
	return nil
}

// PendingBatches reports the number of batches currently queued
// (Open or ReadyToSend, not yet dispatched). Exposed for tests that
// assert on the size-split and queue-growth laws.
func (s *Scheduler) PendingBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// InFlightBatches reports the number of batches currently dispatched
// and awaiting a response.
func (s *Scheduler) InFlightBatches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inFlight)
}
