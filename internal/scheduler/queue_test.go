// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBatchQueue(t *testing.T) {
	q := NewBatchQueue()
	assert.True(t, q.IsEmpty())
	assert.Nil(t, q.Front())
	assert.Nil(t, q.Back())

	b1 := NewBatch("db", 10)
	b2 := NewBatch("db", 10)
	q.PushBack(b1)
	q.PushBack(b2)
	assert.False(t, q.IsEmpty())
	assert.Equal(t, 2, q.Len())
	assert.Same(t, b1, q.Front())
	assert.Same(t, b2, q.Back())

	assert.False(t, q.RemoveIfFront(b2))
	assert.Equal(t, 2, q.Len())

	assert.True(t, q.RemoveIfFront(b1))
	assert.Equal(t, 1, q.Len())
	assert.Same(t, b2, q.Front())

	assert.True(t, q.RemoveIfFront(b2))
	assert.True(t, q.IsEmpty())
}

func TestBatchQueueEach(t *testing.T) {
	q := NewBatchQueue()
	b1 := NewBatch("db", 10)
	b2 := NewBatch("db", 10)
	q.PushBack(b1)
	q.PushBack(b2)

	var seen []*Batch
	q.Each(func(b *Batch) { seen = append(seen, b) })
	assert.Equal(t, []*Batch{b1, b2}, seen)
}
