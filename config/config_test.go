// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
projectId: my-proj
databaseId: "(default)"
serverUrl: https://vaultdoc.example.com
authToken: secret-token
preferTransactions: true
maxBatchSize: 200
maxConcurrentBatches: 2
flushIntervalMillis: 5000
`

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "my-proj", f.ProjectID)
	assert.Equal(t, 200, f.MaxBatchSize)
	assert.True(t, f.PreferTransactions)
}

func TestLoadEmptyDocument(t *testing.T) {
	f, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, File{}, f)
}

func TestOptionsOverride(t *testing.T) {
	f, err := Load(strings.NewReader(sampleYAML))
	require.NoError(t, err)

	opts := NewOptions(f).SetMaxBatchSize(50).SetFlushInterval(2 * time.Second)
	assert.Equal(t, 50, opts.File().MaxBatchSize)
	assert.Equal(t, 2*time.Second, opts.FlushInterval())

	policy := opts.Policy()
	assert.Equal(t, 50, policy.MaxBatchSize())
	assert.Equal(t, 2, policy.MaxConcurrentBatches())
}
