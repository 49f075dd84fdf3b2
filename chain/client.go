// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain submits authorized transactions to an Empower1 node over
// its HTTP interface.
package chain

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/BigBossBooling/empwallet/tx"
)

var (
	// ErrUnsigned is returned when a transaction without a fixed
	// identifier is handed to SubmitTransaction.  The node only accepts
	// fully authorized transactions, so submitting earlier is always a
	// caller bug.
	ErrUnsigned = errors.New("transaction is not signed")

	// ErrRejected is returned when the node answers a submission with a
	// non-success status.  The wrapped message carries the node's
	// response body.
	ErrRejected = errors.New("node rejected the request")
)

// defaultRequestTimeout bounds every node request that the caller's
// context does not bound tighter.
const defaultRequestTimeout = 10 * time.Second

// Client is an HTTP client for one Empower1 node.
type Client struct {
	nodeURL    string
	httpClient *http.Client
}

// NewClient returns a client for the node at nodeURL.  A URL without a
// scheme gets http prepended, matching how node addresses are usually
// written in configs.
func NewClient(nodeURL string) *Client {
	if !strings.Contains(nodeURL, "://") {
		nodeURL = "http://" + nodeURL
	}
	return &Client{
		nodeURL:    strings.TrimRight(nodeURL, "/"),
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
	}
}

// SubmitTransaction sends a fully authorized transaction to the node's
// /tx/submit endpoint and returns the node's acknowledgement body.
func (c *Client) SubmitTransaction(ctx context.Context, txn *tx.Tx) (string, error) {
	if txn.ID() == "" {
		return "", errors.Wrap(ErrUnsigned, "refusing to submit")
	}

	body, err := txn.MarshalWire()
	if err != nil {
		return "", errors.Wrap(err, "cannot encode submission body")
	}

	log.Debugf("Submitting transaction %v to %s", txn.ID(), c.nodeURL)
	ack, err := c.post(ctx, "/tx/submit", body)
	if err != nil {
		return "", err
	}

	log.Infof("Transaction %v accepted by %s", txn.ID(), c.nodeURL)
	return ack, nil
}

// Status fetches the node's /status endpoint.  It is the cheap way to
// check a configured node URL actually answers before signing anything.
func (c *Client) Status(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.nodeURL+"/status", nil)
	if err != nil {
		return "", errors.Wrap(err, "cannot build status request")
	}
	return c.do(req)
}

// post sends a JSON body to the given endpoint path.
func (c *Client) post(ctx context.Context, path string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.nodeURL+path, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrapf(err, "cannot build request for %s", path)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

// do runs the request and folds the response into (body, error).  Any
// 2xx status is success; everything else wraps ErrRejected with the
// node's response text.
func (c *Client) do(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrapf(err, "cannot reach node at %s", c.nodeURL)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "cannot read node response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", errors.Wrapf(ErrRejected, "%s: %s", resp.Status,
			strings.TrimSpace(string(respBody)))
	}
	return string(respBody), nil
}
