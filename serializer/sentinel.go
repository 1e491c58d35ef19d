// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

package serializer

// sentinel is the internal marker type behind the exported
// constructors below. User data containing a sentinel value at some
// field path is not sent as a literal field value; instead it drives a
// wire.FieldTransform (for ServerTimestamp/ArrayUnion/ArrayRemove/
// Increment) or removes the field from the write entirely and adds it
// to the update mask (for Delete).
type sentinel struct {
	kind  sentinelKind
	items []any // ArrayUnion/ArrayRemove elements, or the Increment delta
}

type sentinelKind int

const (
	sentinelDelete sentinelKind = iota
	sentinelServerTimestamp
	sentinelArrayUnion
	sentinelArrayRemove
	sentinelIncrement
)

// Delete marks a field for removal. Valid in Set-with-merge and
// Update; disallowed in Create.
func Delete() any { return sentinel{kind: sentinelDelete} }

// ServerTimestamp marks a field to be set to the server's commit time.
func ServerTimestamp() any { return sentinel{kind: sentinelServerTimestamp} }

// ArrayUnion marks a field to be unioned with elements, server-side.
func ArrayUnion(elements ...any) any {
	return sentinel{kind: sentinelArrayUnion, items: elements}
}

// ArrayRemove marks a field to have elements removed, server-side.
func ArrayRemove(elements ...any) any {
	return sentinel{kind: sentinelArrayRemove, items: elements}
}

// Increment marks a field to be incremented by delta, server-side.
// delta must be an int64 or float64.
func Increment(delta any) any {
	return sentinel{kind: sentinelIncrement, items: []any{delta}}
}

func asSentinel(v any) (sentinel, bool) {
	s, ok := v.(sentinel)
	return s, ok
}
