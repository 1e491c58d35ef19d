// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package serializer is the validation/projection collaborator
// consumed by the scheduler core: it turns user-supplied data into
// the wire.Write the Transport understands, rejecting malformed
// input synchronously, at the call site, before an Operation is ever
// constructed.
package serializer

import (
	"fmt"
	"sort"
	"time"

	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

// MergeOption controls how Set() user data is combined with an
// existing document. The zero value means "overwrite the document
// entirely" (Firestore-style Set without merge).
type MergeOption struct {
	All    bool     // merge all top-level-and-nested fields present in data
	Fields []string // merge only these explicit field paths
}

// PreconditionInput is the user-facing precondition request: at most
// one of Exists/LastUpdateTime may be set. The zero value means "no
// precondition requested by the caller" (the Serializer may still
// attach one on Update's behalf, see BuildPrecondition).
type PreconditionInput struct {
	ExistsSet      bool
	Exists         bool
	LastUpdateTime time.Time
	HasLastUpdate  bool
}

// ErrConflictingFields is returned when user data specifies both a
// field path and a strict prefix of it, e.g. "a" and "a.b".
type ErrConflictingFields struct {
	Path, ConflictsWith string
}

func (e *ErrConflictingFields) Error() string {
	return fmt.Sprintf("serializer: field path %q conflicts with %q", e.Path, e.ConflictsWith)
}

// ErrNotAPlainObject is returned when user data is not a
// map[string]any (or is nil for a kind that requires fields).
var ErrNotAPlainObject = fmt.Errorf("serializer: user data must be a plain map[string]any")

// ErrSentinelNotAllowed is returned when a sentinel value (Delete,
// ServerTimestamp, ...) appears somewhere it is not permitted.
type ErrSentinelNotAllowed struct {
	Path   string
	Reason string
}

func (e *ErrSentinelNotAllowed) Error() string {
	return fmt.Sprintf("serializer: sentinel at %q not allowed: %s", e.Path, e.Reason)
}

// ErrBadPrecondition is returned when a PreconditionInput specifies
// both Exists and LastUpdateTime.
var ErrBadPrecondition = fmt.Errorf("serializer: precondition must be exactly one of exists or lastUpdateTime")

// Serializer validates and projects user-facing write requests into
// wire messages. Implementations must be pure and safe for concurrent
// use: BuildPrecondition runs inside an Operation's Payload at
// batch-send time, on the dispatching goroutine.
type Serializer interface {
	// ValidateAndProject turns userData (a plain map for Create/Set/
	// Update, nil for Delete) into a wire.Write. merge is only
	// consulted for kind == wire.KindSet.
	ValidateAndProject(kind wire.WriteKind, documentPath string, userData map[string]any, merge *MergeOption) (wire.Write, error)

	// BuildPrecondition turns a user-supplied PreconditionInput into
	// wire form. kind lets the implementation apply kind-specific
	// defaults: Update always gets an implicit exists=true when the
	// caller supplied none.
	BuildPrecondition(kind wire.WriteKind, in PreconditionInput) (*wire.Precondition, error)
}

// Default is the shipped Serializer implementation.
type Default struct{}

// NewDefault returns the shipped Serializer.
func NewDefault() *Default { return &Default{} }

var _ Serializer = (*Default)(nil)

// ValidateAndProject implements Serializer.
func (Default) ValidateAndProject(kind wire.WriteKind, documentPath string, userData map[string]any, merge *MergeOption) (wire.Write, error) {
	if kind == wire.KindDelete {
		return wire.Write{Kind: wire.KindDelete, DocumentPath: documentPath}, nil
	}
	if userData == nil {
		return wire.Write{}, ErrNotAPlainObject
	}

	leaves := make(map[fieldPath]any)
	flatten("", userData, leaves)

	if kind == wire.KindCreate {
		for p, v := range leaves {
			if s, ok := asSentinel(v); ok && s.kind == sentinelDelete {
				return wire.Write{}, &ErrSentinelNotAllowed{Path: string(p), Reason: "Delete() is not valid in Create"}
			}
		}
	}

	if p1, p2, conflict := findConflict(leaves); conflict {
		return wire.Write{}, &ErrConflictingFields{Path: string(p2), ConflictsWith: string(p1)}
	}

	fields := make(map[string]any)
	var transforms []wire.FieldTransform
	var deletedPaths []string
	for p, v := range leaves {
		if s, ok := asSentinel(v); ok {
			switch s.kind {
			case sentinelDelete:
				deletedPaths = append(deletedPaths, string(p))
			case sentinelServerTimestamp:
				transforms = append(transforms, wire.FieldTransform{FieldPath: string(p), Kind: wire.TransformServerTimestamp})
			case sentinelArrayUnion:
				transforms = append(transforms, wire.FieldTransform{FieldPath: string(p), Kind: wire.TransformArrayUnion, Value: s.items})
			case sentinelArrayRemove:
				transforms = append(transforms, wire.FieldTransform{FieldPath: string(p), Kind: wire.TransformArrayRemove, Value: s.items})
			case sentinelIncrement:
				transforms = append(transforms, wire.FieldTransform{FieldPath: string(p), Kind: wire.TransformIncrement, Value: s.items[0]})
			}
			continue
		}
		fields[string(p)] = v
	}
	sort.Strings(deletedPaths)
	sortTransforms(transforms)

	w := wire.Write{
		Kind:         kind,
		DocumentPath: documentPath,
		Fields:       fields,
		Transforms:   transforms,
	}

	switch {
	case kind == wire.KindUpdate:
		// Update always carries an explicit update mask: every leaf
		// field path touched, plus every deleted path, in sorted
		// order so it is stable for tests and for any hash-based
		// dedup a real transport might perform.
		mask := make([]string, 0, len(fields)+len(deletedPaths))
		for p := range fields {
			mask = append(mask, p)
		}
		mask = append(mask, deletedPaths...)
		sort.Strings(mask)
		w.UpdateMask = mask
	case kind == wire.KindSet && merge != nil && (merge.All || len(merge.Fields) > 0):
		var mask []string
		if merge.All {
			for p := range fields {
				mask = append(mask, p)
			}
			mask = append(mask, deletedPaths...)
		} else {
			mask = append(mask, merge.Fields...)
		}
		sort.Strings(mask)
		w.UpdateMask = mask
	}

	return w, nil
}

func sortTransforms(t []wire.FieldTransform) {
	sort.Slice(t, func(i, j int) bool { return t[i].FieldPath < t[j].FieldPath })
}

// BuildPrecondition implements Serializer.
//
// Create/Set/Delete carry no implicit precondition; Update always
// attaches exists=true when the caller supplied no explicit
// precondition, so it cannot silently create-or-no-op against a
// missing document. See DESIGN.md for the rationale.
func (Default) BuildPrecondition(kind wire.WriteKind, in PreconditionInput) (*wire.Precondition, error) {
	if in.ExistsSet && in.HasLastUpdate {
		return nil, ErrBadPrecondition
	}
	switch {
	case in.ExistsSet:
		return &wire.Precondition{Kind: wire.PreconditionExists, Exists: in.Exists}, nil
	case in.HasLastUpdate:
		return &wire.Precondition{Kind: wire.PreconditionLastUpdateTime, LastUpdateTime: in.LastUpdateTime}, nil
	case kind == wire.KindUpdate:
		return &wire.Precondition{Kind: wire.PreconditionExists, Exists: true}, nil
	default:
		return nil, nil
	}
}
