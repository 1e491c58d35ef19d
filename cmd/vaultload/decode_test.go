// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderDefaultsToString(t *testing.T) {
	cols, err := parseHeader([]string{"documentId", "name", "age:long", "active:boolean"})
	require.NoError(t, err)
	require.Len(t, cols, 3)
	assert.Equal(t, "name", cols[0].name)
	assert.Equal(t, "age", cols[1].name)
	assert.Equal(t, "active", cols[2].name)

	v, err := cols[0].convert("42")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

func TestParseHeaderRejectsEmptyFirstColumn(t *testing.T) {
	_, err := parseHeader([]string{""})
	assert.Error(t, err)
}

func TestParseHeaderRejectsUnknownType(t *testing.T) {
	_, err := parseHeader([]string{"documentId", "x:nope"})
	assert.Error(t, err)
}

func TestDecodeRow(t *testing.T) {
	cols, err := parseHeader([]string{"documentId", "name", "age:long", "score:double", "active:boolean"})
	require.NoError(t, err)

	fields, err := decodeRow(cols, []string{"Ada", "37", "9.5", "true"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", fields["name"])
	assert.Equal(t, int64(37), fields["age"])
	assert.Equal(t, 9.5, fields["score"])
	assert.Equal(t, true, fields["active"])
}

func TestDecodeRowLengthMismatch(t *testing.T) {
	cols, err := parseHeader([]string{"documentId", "name"})
	require.NoError(t, err)
	_, err = decodeRow(cols, []string{"a", "b"})
	assert.Error(t, err)
}
