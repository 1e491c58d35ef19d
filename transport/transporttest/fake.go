// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package transporttest provides an in-memory fake transport.Transport
// for exercising the scheduler without a network, in the spirit of the
// teacher's internal/test.NewTestService helper: a scriptable stand-in
// recording every call it receives.
package transporttest

import (
	"context"
	"sync"
	"time"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// BatchWriteCall records one observed BatchWrite invocation.
type BatchWriteCall struct {
	Request wire.BatchWriteRequest
}

// CommitCall records one observed Commit invocation.
type CommitCall struct {
	Request wire.CommitRequest
}

// Fake is a scriptable in-memory transport.Transport.
//
// BatchWriteFunc/CommitFunc/BeginTransactionFunc, when set, are invoked
// for every call. When unset, BatchWrite synthesizes a WriteResult of
// Now() with CodeOK status for every write, and Commit synthesizes a
// WriteResult per write plus a shared CommitTime.
type Fake struct {
	mu sync.Mutex

	BatchWriteFunc       func(ctx context.Context, req wire.BatchWriteRequest) (wire.BatchWriteResponse, error)
	CommitFunc           func(ctx context.Context, req wire.CommitRequest) (wire.CommitResponse, error)
	BeginTransactionFunc func(ctx context.Context, req wire.BeginTransactionRequest) (wire.BeginTransactionResponse, error)

	PreferTransactionsValue bool
	lastSuccessMillis       int64
	haveLastSuccess         bool

	BatchWriteCalls []BatchWriteCall
	CommitCalls     []CommitCall
	TransactionsBegun int
}

// New returns a Fake with default (always-succeed) behavior.
func New() *Fake {
	return &Fake{}
}

func (f *Fake) BatchWrite(ctx context.Context, req wire.BatchWriteRequest) (wire.BatchWriteResponse, error) {
	f.mu.Lock()
	f.BatchWriteCalls = append(f.BatchWriteCalls, BatchWriteCall{Request: req})
	fn := f.BatchWriteFunc
	f.mu.Unlock()

	if fn != nil {
		resp, err := fn(ctx, req)
		if err == nil {
			f.recordSuccess()
		}
		return resp, err
	}

	resp := wire.BatchWriteResponse{
		WriteResults: make([]wire.WriteResult, len(req.Writes)),
		Status:       make([]wire.Status, len(req.Writes)),
	}
	now := time.Now()
	for i := range req.Writes {
		resp.WriteResults[i] = wire.WriteResult{UpdateTime: now}
		resp.Status[i] = wire.Status{Code: wire.CodeOK}
	}
	f.recordSuccess()
	return resp, nil
}

func (f *Fake) Commit(ctx context.Context, req wire.CommitRequest) (wire.CommitResponse, error) {
	f.mu.Lock()
	f.CommitCalls = append(f.CommitCalls, CommitCall{Request: req})
	fn := f.CommitFunc
	f.mu.Unlock()

	if fn != nil {
		resp, err := fn(ctx, req)
		if err == nil {
			f.recordSuccess()
		}
		return resp, err
	}

	now := time.Now()
	resp := wire.CommitResponse{
		WriteResults: make([]wire.WriteResult, len(req.Writes)),
		CommitTime:   now,
	}
	for i := range req.Writes {
		resp.WriteResults[i] = wire.WriteResult{UpdateTime: now}
	}
	f.recordSuccess()
	return resp, nil
}

func (f *Fake) BeginTransaction(ctx context.Context, req wire.BeginTransactionRequest) (wire.BeginTransactionResponse, error) {
	f.mu.Lock()
	f.TransactionsBegun++
	fn := f.BeginTransactionFunc
	f.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return wire.BeginTransactionResponse{Transaction: []byte("fake-txn")}, nil
}

func (f *Fake) PreferTransactions() bool {
	return f.PreferTransactionsValue
}

func (f *Fake) LastSuccessfulRequestMillis() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSuccessMillis, f.haveLastSuccess
}

// SetLastSuccessfulRequestMillis lets a test simulate an idle
// connection by back-dating the last successful RPC.
func (f *Fake) SetLastSuccessfulRequestMillis(millis int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSuccessMillis = millis
	f.haveLastSuccess = true
}

func (f *Fake) recordSuccess() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSuccessMillis = time.Now().UnixMilli()
	f.haveLastSuccess = true
}
