// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import "container/list"

// BatchQueue is an unbounded FIFO of *Batch. It never evicts: a
// document-database bulk writer must never silently drop a caller's
// mutation, so this queue grows to hold whatever backlog accumulates
// while batches wait on in-flight document conflicts. Queuing whole
// batches rather than per-document queues keeps enqueue O(1)
// regardless of queue depth.
type BatchQueue struct {
	list *list.List
}

// NewBatchQueue returns an empty queue.
func NewBatchQueue() *BatchQueue {
	return &BatchQueue{list: list.New()}
}

// PushBack appends batch to the tail of the queue.
func (q *BatchQueue) PushBack(batch *Batch) {
	q.list.PushBack(batch)
}

// Front returns the head batch without removing it, or nil if empty.
func (q *BatchQueue) Front() *Batch {
	el := q.list.Front()
	if el == nil {
		return nil
	}
	return el.Value.(*Batch)
}

// Back returns the tail batch without removing it, or nil if empty.
func (q *BatchQueue) Back() *Batch {
	el := q.list.Back()
	if el == nil {
		return nil
	}
	return el.Value.(*Batch)
}

// RemoveIfFront removes batch from the queue only if it is still the
// head; a no-op otherwise. Used by the dispatcher after a head batch
// has been handed off to Send, so a concurrent caller racing to peek
// the same head cannot double-dispatch it.
func (q *BatchQueue) RemoveIfFront(batch *Batch) bool {
	el := q.list.Front()
	if el != nil && el.Value == batch {
		q.list.Remove(el)
		return true
	}
	return false
}

// IsEmpty reports whether the queue holds no batches.
func (q *BatchQueue) IsEmpty() bool {
	return q.list.Len() == 0
}

// Len returns the number of batches currently queued.
func (q *BatchQueue) Len() int {
	return q.list.Len()
}

// Each calls fn for every batch from head to tail. fn must not mutate
// the queue.
func (q *BatchQueue) Each(fn func(*Batch)) {
	for el := q.list.Front(); el != nil; el = el.Next() {
		fn(el.Value.(*Batch))
	}
}
