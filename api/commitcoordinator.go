// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/vaultdocdb/vaultdoc-client-go/internal/scheduler"
	"github.com/vaultdocdb/vaultdoc-client-go/serializer"
	"github.com/vaultdocdb/vaultdoc-client-go/transport"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// CommitResult pairs one committed operation's document path with its
// outcome, in the order it was appended.
type CommitResult struct {
	DocumentPath string
	WriteTime    time.Time
	Err          error
}

// Commit is the atomic, all-or-nothing dispatch surface. A single
// Commit drives at most one in-flight batch at a time; call Reset to
// reuse it for a new round of appends.
type Commit struct {
	coordinator *scheduler.Commit
	serializer  serializer.Serializer

	mu      sync.Mutex
	paths   []string
	handles []*WriteHandle
}

// NewCommit constructs a Commit against the given database, transport
// and serializer, with policy controlling batch size and the
// transactional-idle threshold.
func NewCommit(database string, t transport.Transport, ser serializer.Serializer, policy *scheduler.Policy) *Commit {
	if ser == nil {
		ser = serializer.NewDefault()
	}
	return &Commit{
		coordinator: scheduler.NewCommit(database, t, policy),
		serializer:  ser,
	}
}

// Create appends a document creation to the pending commit.
func (c *Commit) Create(documentPath string, data map[string]any) error {
	return c.append(wire.KindCreate, documentPath, data, nil, serializer.PreconditionInput{})
}

// Set appends a document overwrite, or merge when merge is non-nil.
func (c *Commit) Set(documentPath string, data map[string]any, merge *serializer.MergeOption) error {
	return c.append(wire.KindSet, documentPath, data, merge, serializer.PreconditionInput{})
}

// Update appends a partial update.
func (c *Commit) Update(documentPath string, data map[string]any, precond serializer.PreconditionInput) error {
	return c.append(wire.KindUpdate, documentPath, data, nil, precond)
}

// Delete appends a document deletion.
func (c *Commit) Delete(documentPath string, precond serializer.PreconditionInput) error {
	return c.append(wire.KindDelete, documentPath, nil, nil, precond)
}

func (c *Commit) append(kind wire.WriteKind, documentPath string, userData map[string]any, merge *serializer.MergeOption, precond serializer.PreconditionInput) error {
	ser := c.serializer
	write, err := ser.ValidateAndProject(kind, documentPath, userData, merge)
	if err != nil {
		return errors.Wrap(err, "commit: append")
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
	if err := c.coordinator.Append(op); err != nil {
		return errors.Wrap(err, "commit: append")
	}

	c.mu.Lock()
	c.paths = append(c.paths, documentPath)
	c.handles = append(c.handles, &WriteHandle{op: op})
	c.mu.Unlock()
	return nil
}

// Commit drives every appended operation through the atomic commit
// RPC and returns each operation's result in enqueue order.
// transactionID overrides the automatic transactional decision when
// non-empty; pass nil to let Commit decide.
func (c *Commit) Commit(ctx context.Context, transactionID []byte) ([]CommitResult, error) {
	if err := c.coordinator.Commit(ctx, transactionID); err != nil {
		return nil, errors.Wrap(err, "commit: commit")
	}

	c.mu.Lock()
	paths := make([]string, len(c.paths))
	copy(paths, c.paths)
	handles := make([]*WriteHandle, len(c.handles))
	copy(handles, c.handles)
	c.mu.Unlock()

	results := make([]CommitResult, len(handles))
	for i, h := range handles {
		writeTime, err := h.Wait()
		results[i] = CommitResult{DocumentPath: paths[i], WriteTime: writeTime, Err: err}
	}
	return results, nil
}

// Reset clears the pending operation list and committed flag,
// enabling reuse across a retry loop.
func (c *Commit) Reset() {
	c.coordinator.Reset()
	c.mu.Lock()
	c.paths = nil
	c.handles = nil
	c.mu.Unlock()
}
