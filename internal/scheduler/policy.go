// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import "time"

// MaxBatchSize is the default cap on operations per batch.
const MaxBatchSize = 500

// GCFIdleTimeoutMillis is the idle threshold past which a commit
// coordinator wraps a commit in a transaction, because the hosting
// function environment silently tears down idle connections.
const GCFIdleTimeoutMillis int64 = 110_000

// DefaultMaxConcurrentBatches is the default in-flight batch cap. The
// single-flight-per-document invariant is test-observable only when
// this is 1; raising it is supported (see Policy.SetMaxConcurrentBatches)
// but then relies entirely on the blocked-on-conflict check in
// Scheduler.dispatch.
const DefaultMaxConcurrentBatches = 1

// Policy holds the tunables a Scheduler (BulkWriter dispatch engine)
// is constructed with, using a fluent-setter idiom so call sites read
// as NewPolicy().SetMaxBatchSize(10).SetMaxConcurrentBatches(2).
type Policy struct {
	maxBatchSize         int
	maxConcurrentBatches int
	idleThresholdMillis  int64
}

// NewPolicy returns a Policy with the default tunables.
func NewPolicy() *Policy {
	return &Policy{
		maxBatchSize:         MaxBatchSize,
		maxConcurrentBatches: DefaultMaxConcurrentBatches,
		idleThresholdMillis:  GCFIdleTimeoutMillis,
	}
}

// MaxBatchSize returns the configured batch size cap.
func (p *Policy) MaxBatchSize() int { return p.maxBatchSize }

// SetMaxBatchSize overrides the batch size cap. Tests use this to
// exercise the size-split law without constructing 500 operations.
func (p *Policy) SetMaxBatchSize(n int) *Policy {
	if n > 0 {
		p.maxBatchSize = n
	}
	return p
}

// MaxConcurrentBatches returns the configured in-flight batch cap.
func (p *Policy) MaxConcurrentBatches() int { return p.maxConcurrentBatches }

// SetMaxConcurrentBatches overrides the in-flight batch cap.
func (p *Policy) SetMaxConcurrentBatches(n int) *Policy {
	if n > 0 {
		p.maxConcurrentBatches = n
	}
	return p
}

// IdleThresholdMillis returns the configured idle threshold.
func (p *Policy) IdleThresholdMillis() int64 { return p.idleThresholdMillis }

// SetIdleThreshold overrides the idle threshold.
func (p *Policy) SetIdleThreshold(d time.Duration) *Policy {
	p.idleThresholdMillis = d.Milliseconds()
	return p
}
