// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import (
	"time"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// Result is the outcome of one WriteOperation: a write timestamp on
// success, or an error.
type Result struct {
	WriteTime time.Time
	Err       error
}

// Payload is the deferred producer captured by an Operation at
// enqueue time. The caller validates and projects user data into a
// wire.Write synchronously, before the Operation is even constructed;
// Payload only finalizes what must wait for send time, such as
// building the precondition. It is invoked at batch-send time, never
// at enqueue time, and retrying a send is cheap (re-invoking Payload
// is safe: it must be pure and idempotent).
type Payload func() (wire.Write, error)

// Operation is the in-memory record of one enqueued mutation. It is
// created on enqueue, never mutated, and resolved exactly once when
// its containing batch receives a response.
type Operation struct {
	Kind         wire.WriteKind
	DocumentPath string
	Payload      Payload

	result   chan Result
	resolved bool
}

// NewOperation constructs an Operation. The returned Operation owns an
// unresolved, single-use result channel; callers read it via Wait.
func NewOperation(kind wire.WriteKind, documentPath string, payload Payload) *Operation {
	return &Operation{
		Kind:         kind,
		DocumentPath: documentPath,
		Payload:      payload,
		result:       make(chan Result, 1),
	}
}

// Wait blocks until the operation's containing batch has distributed
// results, then returns this operation's outcome. Only one call to
// Wait is supported per Operation: the result channel is buffered and
// drained by that first call, so a second call — from the same or a
// different goroutine — blocks forever. Callers that need to fan out
// a single result to multiple readers must do so themselves after
// that one Wait returns.
func (op *Operation) Wait() Result {
	return <-op.result
}

// resolve delivers r to the operation's single-use promise. It must be
// called exactly once per operation, by the batch that owns it.
func (op *Operation) resolve(r Result) {
	if op.resolved {
		return
	}
	op.resolved = true
	op.result <- r
}
