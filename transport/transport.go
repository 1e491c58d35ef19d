// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package transport declares the RPC collaborator consumed by the
// scheduler core: three calls (BatchWrite, Commit, BeginTransaction)
// plus two bits of connection-health state the CommitCoordinator reads
// to decide whether a commit needs to be wrapped in a transaction.
//
// Network transport, authentication and deadline management are the
// concern of a Transport implementation, not of the scheduler. See
// transport/httprpc for the shipped default.
package transport

import (
	"context"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// Transport is the RPC collaborator. Implementations must be safe for
// concurrent use: the scheduler may have multiple batches in flight
// (when MaxConcurrentBatches > 1) calling BatchWrite concurrently.
type Transport interface {
	// BatchWrite performs the non-atomic batch write RPC. A non-nil
	// error means the whole request failed at the RPC level; the
	// scheduler will reject every operation in the batch with it.
	BatchWrite(ctx context.Context, req wire.BatchWriteRequest) (wire.BatchWriteResponse, error)

	// Commit performs the atomic commit RPC, optionally scoped to a
	// transaction. A non-nil error means no write in req applied.
	Commit(ctx context.Context, req wire.CommitRequest) (wire.CommitResponse, error)

	// BeginTransaction obtains a new transaction handle.
	BeginTransaction(ctx context.Context, req wire.BeginTransactionRequest) (wire.BeginTransactionResponse, error)

	// PreferTransactions reports the static policy flag: whether this
	// Transport wants long-idle commits wrapped in a transaction.
	PreferTransactions() bool

	// LastSuccessfulRequestMillis reports the monotonic (wall-clock
	// epoch millis) timestamp of the most recent successful RPC, and
	// whether any RPC has ever succeeded yet.
	LastSuccessfulRequestMillis() (millis int64, ok bool)
}
