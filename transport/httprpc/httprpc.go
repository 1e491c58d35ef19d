// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package httprpc is the default transport.Transport implementation:
// it speaks JSON-over-HTTP to a Vaultdoc server's batchWrite, commit
// and beginTransaction endpoints. Request construction and error
// decoding follow a fixed shape: build the request, set a User-Agent
// and bearer token, decode a structured error body on non-2xx,
// otherwise hand back the parsed response.
package httprpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/net/http2"

	ilog "github.com/vaultdocdb/vaultdoc-client-go/internal/log"
	"github.com/vaultdocdb/vaultdoc-client-go/transport/wire"
)

const clientVersion = "1.0.0"

var userAgent = fmt.Sprintf("vaultdoc-client-go/%s (%s; %s)", clientVersion, runtime.GOOS, runtime.GOARCH)

// ErrEmptyServerURL is returned by New when Params.ServerURL is empty.
var ErrEmptyServerURL = errors.New("httprpc: empty server URL")

// Params configures a Client.
type Params struct {
	// ServerURL is the base URL of the Vaultdoc server, e.g.
	// https://vaultdoc.example.com. Mandatory.
	ServerURL string
	// Database is the resource name of the target database, e.g.
	// projects/my-proj/databases/(default).
	Database string
	// AuthToken is sent as "Authorization: Bearer <token>".
	AuthToken string
	// HTTPClient is used to make requests. If nil, a client with
	// HTTP/2 support configured is built for the caller.
	HTTPClient *http.Client
	// PreferTransactions is the static policy flag read by the
	// CommitCoordinator: whether idle-connection commits should be
	// wrapped in a transaction. The zero value (false) never wraps;
	// set it to true for a hosting environment (e.g. a serverless
	// function) that tears down idle connections.
	PreferTransactions bool
}

// Client is the default transport.Transport.
type Client struct {
	params        Params
	baseURL       *url.URL
	authorization string

	mu                      sync.Mutex
	lastSuccessfulReqMillis int64
	haveLastSuccessfulReq   bool
}

// New builds a Client from params.
func New(params Params) (*Client, error) {
	if params.ServerURL == "" {
		return nil, ErrEmptyServerURL
	}
	base := params.ServerURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, errors.Wrap(err, "httprpc: parsing server URL")
	}
	c := &Client{params: params, baseURL: u}
	if c.params.AuthToken != "" {
		c.authorization = "Bearer " + c.params.AuthToken
	}
	if c.params.HTTPClient == nil {
		transport := &http.Transport{}
		if err := http2.ConfigureTransport(transport); err != nil {
			ilog.Warnf("httprpc: could not configure HTTP/2, falling back to HTTP/1.1: %s", err)
		}
		c.params.HTTPClient = &http.Client{Transport: transport}
	}
	return c, nil
}

// PreferTransactions implements transport.Transport.
func (c *Client) PreferTransactions() bool {
	return c.params.PreferTransactions
}

// LastSuccessfulRequestMillis implements transport.Transport.
func (c *Client) LastSuccessfulRequestMillis() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSuccessfulReqMillis, c.haveLastSuccessfulReq
}

func (c *Client) recordSuccess(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSuccessfulReqMillis = now.UnixMilli()
	c.haveLastSuccessfulReq = true
}

// BatchWrite implements transport.Transport.
func (c *Client) BatchWrite(ctx context.Context, req wire.BatchWriteRequest) (wire.BatchWriteResponse, error) {
	var resp wire.BatchWriteResponse
	err := c.call(ctx, "batchWrite", req.Database, httpBatchWriteRequest(req), &resp)
	return resp, err
}

// Commit implements transport.Transport.
func (c *Client) Commit(ctx context.Context, req wire.CommitRequest) (wire.CommitResponse, error) {
	var resp wire.CommitResponse
	err := c.call(ctx, "commit", req.Database, httpCommitRequest(req), &resp)
	return resp, err
}

// BeginTransaction implements transport.Transport.
func (c *Client) BeginTransaction(ctx context.Context, req wire.BeginTransactionRequest) (wire.BeginTransactionResponse, error) {
	var resp wire.BeginTransactionResponse
	err := c.call(ctx, "beginTransaction", req.Database, struct{}{}, &resp)
	return resp, err
}

// call issues a single POST to {baseURL}/v1/{database}:{rpc} with body
// JSON-encoded, decodes the JSON response into out, and records
// lastSuccessfulRequestMillis on success.
func (c *Client) call(ctx context.Context, rpc, database string, body any, out any) error {
	reqID := uuid.New().String()
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "httprpc: marshaling request")
	}
	endpoint, err := c.baseURL.Parse(fmt.Sprintf("v1/%s:%s", strings.TrimPrefix(database, "/"), rpc))
	if err != nil {
		return errors.Wrap(err, "httprpc: building endpoint URL")
	}
	ilog.Debugf("httprpc[%s]: POST %s (%d bytes)", reqID, endpoint.String(), len(payload))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "httprpc: building request")
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Request-Id", reqID)
	if c.authorization != "" {
		httpReq.Header.Set("Authorization", c.authorization)
	}

	resp, err := c.params.HTTPClient.Do(httpReq)
	if err != nil {
		return errors.Wrapf(err, "httprpc[%s]: calling %s", reqID, rpc)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(reqID, resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errors.Wrapf(err, "httprpc[%s]: decoding %s response", reqID, rpc)
	}
	c.recordSuccess(time.Now())
	return nil
}

// decodeError parses a non-2xx response into a human readable error.
func decodeError(reqID string, r *http.Response) error {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if r.Header.Get("Content-Type") == "application/json" {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if body.Message == "" {
		data, _ := io.ReadAll(r.Body)
		body.Message = string(data)
	}
	if body.Code == "" {
		body.Code = r.Status
	}
	return errors.Errorf("httprpc[%s]: %s: %s", reqID, body.Code, body.Message)
}

func httpBatchWriteRequest(req wire.BatchWriteRequest) any {
	return req
}

func httpCommitRequest(req wire.CommitRequest) any {
	return req
}
