// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package api is the caller-facing surface: BulkWriter for
// best-effort concurrent batching and Commit for the atomic
// all-or-nothing path. Both wrap internal/scheduler, which owns the
// actual batching and dispatch machinery; this package's job is
// translating caller arguments into scheduler.Operation values and
// handing back a result the caller can wait on.
package api

import (
	"time"

	"github.com/pkg/errors"

	ilog "github.com/vaultdocdb/vaultdoc-client-go/internal/log"
	"github.com/vaultdocdb/vaultdoc-client-go/internal/scheduler"
	"github.com/vaultdocdb/vaultdoc-client-go/serializer"
	"github.com/vaultdocdb/vaultdoc-client-go/transport"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// WriteHandle is the single-use promise returned to a caller at
// enqueue time. Wait blocks until the write's containing batch has
// been dispatched and its response distributed.
type WriteHandle struct {
	op *scheduler.Operation
}

// Wait blocks for the operation's result. Calling it more than once,
// or from more than one goroutine, is not supported: like the
// scheduler.Operation it wraps, the result is delivered exactly once.
func (h *WriteHandle) Wait() (time.Time, error) {
	r := h.op.Wait()
	return r.WriteTime, r.Err
}

// BulkWriter is the best-effort, non-atomic dispatch surface. Safe
// for concurrent use by multiple goroutines.
type BulkWriter struct {
	scheduler  *scheduler.Scheduler
	serializer serializer.Serializer
}

// NewBulkWriter constructs a BulkWriter against the given database,
// transport and serializer, with policy controlling batch size and
// concurrency. A nil policy uses scheduler.NewPolicy()'s defaults.
func NewBulkWriter(database string, t transport.Transport, ser serializer.Serializer, policy *scheduler.Policy) *BulkWriter {
	if ser == nil {
		ser = serializer.NewDefault()
	}
	return &BulkWriter{
		scheduler:  scheduler.New(database, t, policy),
		serializer: ser,
	}
}

// Create enqueues a document creation. Fails synchronously if the
// writer is closed; the returned handle's error reflects the RPC
// outcome once resolved, including any ErrAlreadyExists-shaped status
// from a colliding document.
func (w *BulkWriter) Create(documentPath string, data map[string]any) (*WriteHandle, error) {
	return w.enqueue(wire.KindCreate, documentPath, data, nil, serializer.PreconditionInput{})
}

// Set enqueues a document overwrite, or a merge when merge is
// non-nil.
func (w *BulkWriter) Set(documentPath string, data map[string]any, merge *serializer.MergeOption) (*WriteHandle, error) {
	return w.enqueue(wire.KindSet, documentPath, data, merge, serializer.PreconditionInput{})
}

// Update enqueues a partial update. When precond carries no explicit
// assertion, the Serializer attaches an implicit exists=true (see
// serializer.Default.BuildPrecondition).
func (w *BulkWriter) Update(documentPath string, data map[string]any, precond serializer.PreconditionInput) (*WriteHandle, error) {
	return w.enqueue(wire.KindUpdate, documentPath, data, nil, precond)
}

// Delete enqueues a document deletion.
func (w *BulkWriter) Delete(documentPath string, precond serializer.PreconditionInput) (*WriteHandle, error) {
	return w.enqueue(wire.KindDelete, documentPath, nil, nil, precond)
}

// Flush marks every open batch ready and waits for every batch that
// existed at the moment of the call to complete. Writes enqueued
// afterward are not covered.
func (w *BulkWriter) Flush() error {
	return errors.Wrap(w.scheduler.Flush(), "bulkwriter: flush")
}

// Close flushes and then permanently closes the writer. Subsequent
// Create/Set/Update/Delete/Flush/Close calls fail with an error
// wrapping scheduler.ErrClosed.
func (w *BulkWriter) Close() error {
	return errors.Wrap(w.scheduler.Close(), "bulkwriter: close")
}

func (w *BulkWriter) enqueue(kind wire.WriteKind, documentPath string, userData map[string]any, merge *serializer.MergeOption, precond serializer.PreconditionInput) (*WriteHandle, error) {
	ser := w.serializer
	write, err := ser.ValidateAndProject(kind, documentPath, userData, merge)
	if err != nil {
		return nil, errors.Wrap(err, "bulkwriter: enqueue")
	}

	payload := func() (wire.Write, error) {
		pre, err := ser.BuildPrecondition(kind, precond)
		if err != nil {
			return wire.Write{}, err
		}
		write.Precondition = pre
		return write, nil
	}

	op := scheduler.NewOperation(kind, documentPath, payload)
	if err := w.scheduler.Enqueue(op); err != nil {
		return nil, errors.Wrap(err, "bulkwriter: enqueue")
	}
	ilog.Debugf("bulkwriter: enqueued %v for %s", kind, documentPath)
	return &WriteHandle{op: op}, nil
}
