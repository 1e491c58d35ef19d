// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package serializer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

func TestValidateAndProjectSetPlain(t *testing.T) {
	s := NewDefault()
	w, err := s.ValidateAndProject(wire.KindSet, "docs/1", map[string]any{"foo": "bar"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "bar", w.Fields["foo"])
	assert.Nil(t, w.UpdateMask)
}

func TestValidateAndProjectRejectsNonMap(t *testing.T) {
	s := NewDefault()
	_, err := s.ValidateAndProject(wire.KindSet, "docs/1", nil, nil)
	assert.ErrorIs(t, err, ErrNotAPlainObject)
}

func TestValidateAndProjectRejectsConflictingPaths(t *testing.T) {
	s := NewDefault()
	data := map[string]any{
		"a": map[string]any{"b": 1},
	}
	data["a.b.c"] = 2 // simulate an already-flattened path under leaf "a.b"
	_, err := s.ValidateAndProject(wire.KindUpdate, "docs/1", data, nil)
	var conflictErr *ErrConflictingFields
	assert.ErrorAs(t, err, &conflictErr)
}

func TestValidateAndProjectUpdateMaskSorted(t *testing.T) {
	s := NewDefault()
	w, err := s.ValidateAndProject(wire.KindUpdate, "docs/1", map[string]any{"zeta": 1, "alpha": 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, w.UpdateMask)
}

func TestValidateAndProjectCreateRejectsDelete(t *testing.T) {
	s := NewDefault()
	_, err := s.ValidateAndProject(wire.KindCreate, "docs/1", map[string]any{"foo": Delete()}, nil)
	var sentinelErr *ErrSentinelNotAllowed
	assert.ErrorAs(t, err, &sentinelErr)
}

func TestValidateAndProjectTransforms(t *testing.T) {
	s := NewDefault()
	w, err := s.ValidateAndProject(wire.KindSet, "docs/1", map[string]any{
		"updatedAt": ServerTimestamp(),
		"tags":      ArrayUnion("a", "b"),
		"count":     Increment(int64(1)),
	}, nil)
	require.NoError(t, err)
	require.Len(t, w.Transforms, 3)
	assert.Empty(t, w.Fields)
}

func TestBuildPreconditionUpdateDefaultsToExists(t *testing.T) {
	s := NewDefault()
	p, err := s.BuildPrecondition(wire.KindUpdate, PreconditionInput{})
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, wire.PreconditionExists, p.Kind)
	assert.True(t, p.Exists)
}

func TestBuildPreconditionSetHasNoImplicitPrecondition(t *testing.T) {
	s := NewDefault()
	p, err := s.BuildPrecondition(wire.KindSet, PreconditionInput{})
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestBuildPreconditionRejectsBothKinds(t *testing.T) {
	s := NewDefault()
	_, err := s.BuildPrecondition(wire.KindSet, PreconditionInput{ExistsSet: true, Exists: true, HasLastUpdate: true})
	assert.ErrorIs(t, err, ErrBadPrecondition)
}
