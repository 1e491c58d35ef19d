// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package wire defines the request/response message shapes exchanged
// with the Vaultdoc server over the RPCs consumed by
// transport.Transport: BatchWrite, Commit and BeginTransaction. These
// are plain structs rather than generated protobuf types: the
// Serializer and Transport are external collaborators (see the package
// docs of serializer and transport), so this package only needs
// to carry the fields the scheduler and its collaborators agree on.
package wire

import "time"

// PreconditionKind distinguishes the two mutually exclusive precondition
// forms a server-side assertion can take.
type PreconditionKind int

const (
	// NoPrecondition means the write carries no server-side assertion.
	NoPrecondition PreconditionKind = iota
	// PreconditionExists asserts the document must (or must not) exist.
	PreconditionExists
	// PreconditionLastUpdateTime asserts the document's last update
	// time must match exactly (optimistic concurrency).
	PreconditionLastUpdateTime
)

// Precondition is the wire form of a server-side assertion gating a
// mutation: exists xor lastUpdateTime.
type Precondition struct {
	Kind           PreconditionKind
	Exists         bool
	LastUpdateTime time.Time
}

// WriteKind identifies which of the four mutation kinds a Write
// message encodes.
type WriteKind int

const (
	KindCreate WriteKind = iota
	KindSet
	KindUpdate
	KindDelete
)

func (k WriteKind) String() string {
	switch k {
	case KindCreate:
		return "Create"
	case KindSet:
		return "Set"
	case KindUpdate:
		return "Update"
	case KindDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Write is one mutation targeting one document, ready for the wire.
// A Serializer projects its fields at enqueue time; its Precondition
// is attached at batch-send time (see
// internal/scheduler.Operation.Payload).
type Write struct {
	Kind         WriteKind
	DocumentPath string
	Fields       map[string]any
	UpdateMask   []string
	Transforms   []FieldTransform
	Precondition *Precondition
}

// TransformKind identifies a server-computed field mutation.
type TransformKind int

const (
	TransformServerTimestamp TransformKind = iota
	TransformArrayUnion
	TransformArrayRemove
	TransformIncrement
)

// FieldTransform is a server-computed mutation of a single field path,
// applied after the base Write's Fields/UpdateMask have been applied.
type FieldTransform struct {
	FieldPath string
	Kind      TransformKind
	Value     any
}

// Status is the per-write outcome of a BatchWrite RPC, index-aligned
// with the request's Writes.
type Status struct {
	Code    StatusCode
	Message string
}

// StatusCode is a small, transport-agnostic stand-in for the RPC
// status codes a real backend would return (loosely modelled on
// standard gRPC codes, since a Vaultdoc-style backend is gRPC-shaped).
type StatusCode int

const (
	CodeOK StatusCode = iota
	CodeCancelled
	CodeUnknown
	CodeInvalidArgument
	CodeDeadlineExceeded
	CodeNotFound
	CodeAlreadyExists
	CodeFailedPrecondition
	CodeAborted
	CodeUnavailable
	CodeInternal
)

func (c StatusCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeCancelled:
		return "CANCELLED"
	case CodeUnknown:
		return "UNKNOWN"
	case CodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case CodeDeadlineExceeded:
		return "DEADLINE_EXCEEDED"
	case CodeNotFound:
		return "NOT_FOUND"
	case CodeAlreadyExists:
		return "ALREADY_EXISTS"
	case CodeFailedPrecondition:
		return "FAILED_PRECONDITION"
	case CodeAborted:
		return "ABORTED"
	case CodeUnavailable:
		return "UNAVAILABLE"
	case CodeInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// WriteResult is the server's confirmation of a single applied write.
type WriteResult struct {
	UpdateTime time.Time
}

// BatchWriteRequest is the request for the non-atomic batchWrite RPC.
type BatchWriteRequest struct {
	Database string
	Writes   []Write
}

// BatchWriteResponse holds parallel, index-aligned arrays: the i-th
// WriteResults entry and the i-th Status entry both describe
// Writes[i] of the originating request.
type BatchWriteResponse struct {
	WriteResults []WriteResult
	Status       []Status
}

// CommitRequest is the request for the atomic commit RPC, optionally
// scoped to a transaction obtained from BeginTransaction.
type CommitRequest struct {
	Database    string
	Writes      []Write
	Transaction []byte
}

// CommitResponse is the response to an atomic commit: either every
// write applied (one WriteResult per Writes[i], CommitTime shared) or
// the RPC itself failed.
type CommitResponse struct {
	WriteResults []WriteResult
	CommitTime   time.Time
}

// BeginTransactionRequest requests a new transaction handle.
type BeginTransactionRequest struct {
	Database string
}

// BeginTransactionResponse carries the opaque transaction handle to
// attach to a subsequent CommitRequest.
type BeginTransactionResponse struct {
	Transaction []byte
}
