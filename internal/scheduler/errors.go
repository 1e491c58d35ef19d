// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import (
	"errors"
	"fmt"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// Usage errors, raised synchronously at the call site: modify-after-
// commit, modify-after-close.
var (
	// ErrAlreadyCommitted is returned by WriteBatch.Append once the
	// batch has left the Open state.
	ErrAlreadyCommitted = errors.New("scheduler: batch is no longer open for appends")

	// ErrDuplicateDocument is returned by WriteBatch.Append when the
	// batch already contains an operation for the same document path.
	ErrDuplicateDocument = errors.New("scheduler: document already present in this batch")

	// ErrClosed is returned by Scheduler.Enqueue/Flush/Close once the
	// owning BulkWriter has been closed.
	ErrClosed = errors.New("scheduler: writer is closed")

	// errMissingStatus guards against a malformed batchWrite response
	// whose Status slice is shorter than its Writes slice.
	errMissingStatus = errors.New("scheduler: batchWrite response missing a status entry")
)

// RPCStatusError wraps a per-write failure status returned by a
// batchWrite RPC.
type RPCStatusError struct {
	Code    wire.StatusCode
	Message string
}

func (e *RPCStatusError) Error() string {
	return fmt.Sprintf("scheduler: %s: %s", e.Code, e.Message)
}
