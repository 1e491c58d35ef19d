// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package vaultdoc is the public client bootstrap: it resolves a
// Client from Params, and constructs the two caller-facing writers
// (api.BulkWriter, api.Commit) bound to it. Document-reference parsing
// and path manipulation live here too, since they are needed by any
// caller before it can issue a single write.
package vaultdoc

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"github.com/vaultdocdb/vaultdoc-client-go/api"
	"github.com/vaultdocdb/vaultdoc-client-go/internal/scheduler"
	"github.com/vaultdocdb/vaultdoc-client-go/serializer"
	"github.com/vaultdocdb/vaultdoc-client-go/transport"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/httprpc"
)

// ErrEmptyProjectID is returned by New when Params.ProjectID is empty.
var ErrEmptyProjectID = errors.New("vaultdoc: empty project ID")

// Params configures a Client.
type Params struct {
	// ProjectID names the owning project, e.g. "my-proj". Mandatory.
	ProjectID string
	// DatabaseID names the database within the project. Defaults to
	// "(default)" when empty, matching the hosted default database.
	DatabaseID string
	// ServerURL is the base URL of the Vaultdoc server. Defaults to
	// the production endpoint when empty.
	ServerURL string
	// AuthToken authenticates requests.
	AuthToken string
	// HTTPClient overrides the HTTP client used by the default
	// transport. Ignored if Transport is set.
	HTTPClient *http.Client
	// PreferTransactions is the static policy flag consulted by
	// CommitCoordinator; see httprpc.Params.PreferTransactions.
	PreferTransactions bool
	// Transport overrides the RPC collaborator entirely, bypassing
	// httprpc. Intended for tests; see transport/transporttest.
	Transport transport.Transport
	// Serializer overrides the validation/projection collaborator.
	// Defaults to serializer.NewDefault().
	Serializer serializer.Serializer
}

const defaultServerURL = "https://vaultdoc.googleapis.com"
const defaultDatabaseID = "(default)"

// Client is the root handle callers bootstrap: it resolves document
// paths and constructs BulkWriter/Commit instances bound to the same
// transport and serializer.
type Client struct {
	database   string
	transport  transport.Transport
	serializer serializer.Serializer
}

// New constructs a Client from params.
func New(params Params) (*Client, error) {
	if params.ProjectID == "" {
		return nil, ErrEmptyProjectID
	}
	databaseID := params.DatabaseID
	if databaseID == "" {
		databaseID = defaultDatabaseID
	}
	database := "projects/" + params.ProjectID + "/databases/" + databaseID

	t := params.Transport
	if t == nil {
		serverURL := params.ServerURL
		if serverURL == "" {
			serverURL = defaultServerURL
		}
		hc, err := httprpc.New(httprpc.Params{
			ServerURL:          serverURL,
			Database:           database,
			AuthToken:          params.AuthToken,
			HTTPClient:         params.HTTPClient,
			PreferTransactions: params.PreferTransactions,
		})
		if err != nil {
			return nil, errors.Wrap(err, "vaultdoc: building transport")
		}
		t = hc
	}

	ser := params.Serializer
	if ser == nil {
		ser = serializer.NewDefault()
	}

	return &Client{database: database, transport: t, serializer: ser}, nil
}

// Database returns the fully-qualified database resource name this
// client is bound to, e.g. "projects/my-proj/databases/(default)".
func (c *Client) Database() string {
	return c.database
}

// BulkWriter constructs a best-effort, non-atomic BulkWriter bound to
// this client's transport and serializer. policy may be nil to use
// scheduler.NewPolicy()'s defaults.
func (c *Client) BulkWriter(policy *scheduler.Policy) *api.BulkWriter {
	return api.NewBulkWriter(c.database, c.transport, c.serializer, policy)
}

// Commit constructs an atomic, all-or-nothing commit coordinator bound
// to this client's transport and serializer. policy may be nil.
func (c *Client) Commit(policy *scheduler.Policy) *api.Commit {
	return api.NewCommit(c.database, c.transport, c.serializer, policy)
}

// DocumentRef is a parsed, canonical document path: a collection
// followed by a document ID, optionally nested under a parent
// document (subcollections). Equality of the path string is equality
// of the document, matching the scheduler's use of documentPath as an
// opaque key.
type DocumentRef struct {
	path string
}

// NewDocumentRef builds a DocumentRef from a slash-separated
// collection/document path, relative to the client's database, e.g.
// "users/alice" or "users/alice/orders/42".
func (c *Client) NewDocumentRef(relativePath string) (DocumentRef, error) {
	relativePath = strings.Trim(relativePath, "/")
	segments := strings.Split(relativePath, "/")
	if len(segments) == 0 || len(segments)%2 != 0 {
		return DocumentRef{}, errors.Errorf("vaultdoc: %q is not a valid document path (collection/document pairs required)", relativePath)
	}
	for _, seg := range segments {
		if seg == "" {
			return DocumentRef{}, errors.Errorf("vaultdoc: %q contains an empty path segment", relativePath)
		}
	}
	return DocumentRef{path: c.database + "/documents/" + relativePath}, nil
}

// Path returns the fully-qualified document resource name, suitable
// for use as the documentPath argument to api.BulkWriter/api.Commit
// methods.
func (d DocumentRef) Path() string {
	return d.path
}

// String implements fmt.Stringer.
func (d DocumentRef) String() string {
	return d.path
}

// Collection returns the final collection ID the document belongs to.
func (d DocumentRef) Collection() string {
	segments := strings.Split(d.path, "/")
	if len(segments) < 2 {
		return ""
	}
	return segments[len(segments)-2]
}

// ID returns the document's final path segment.
func (d DocumentRef) ID() string {
	segments := strings.Split(d.path, "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}
