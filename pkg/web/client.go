/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package web implements the HTTP web API transport for miner firmwares.
// It satisfies the same "execute named command, return payload or fail"
// contract as the socket RPC client; the per-vendor command→endpoint layout
// is supplied as data.
package web

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/olegudff/minerharvest/pkg/logger"
)

const defaultTimeout = 10 * time.Second

var (
	ErrUnknownCommand = errors.New("unknown web command")
	ErrRequestFailed  = errors.New("web request failed")
)

// Operation maps a command name to an HTTP endpoint.
type Operation struct {
	Method string
	Path   string
}

// Client executes named commands against a device's embedded web server.
// Stock miner firmwares use HTTP digest auth and self-signed TLS, so the
// client handles the digest handshake itself and skips certificate checks.
type Client struct {
	baseURL    string
	username   string
	password   string
	operations map[string]Operation
	httpClient *http.Client
	logger     logger.Logger
}

// NewClient builds a web client for host using the given operation layout.
func NewClient(host, username, password string, operations map[string]Operation, timeout time.Duration, log logger.Logger) *Client {
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    fmt.Sprintf("http://%s", host),
		username:   username,
		password:   password,
		operations: operations,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: true, //nolint:gosec // G402: miner web UIs present self-signed certificates
				},
			},
		},
		logger: log,
	}
}

// Execute runs a named command. Parameters, when present, are sent as a
// JSON body. The decoded JSON response is returned as-is.
func (c *Client) Execute(ctx context.Context, command string, params map[string]interface{}) ([]byte, error) {
	op, ok := c.operations[command]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	var body []byte

	if params != nil {
		encoded, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode %q parameters: %w", command, err)
		}

		body = encoded
	}

	resp, err := c.do(ctx, op.Method, op.Path, body, "")
	if err != nil {
		return nil, err
	}

	// One digest retry on challenge; the device sends a fresh nonce per 401.
	if resp.StatusCode == http.StatusUnauthorized {
		challenge := resp.Header.Get("WWW-Authenticate")
		drain(resp)

		authorization, err := answerChallenge(challenge, c.username, c.password, op.Method, op.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, command, err)
		}

		resp, err = c.do(ctx, op.Method, op.Path, body, authorization)
		if err != nil {
			return nil, err
		}
	}

	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrRequestFailed, command, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s response: %w", ErrRequestFailed, command, err)
	}

	if !json.Valid(payload) {
		return nil, fmt.Errorf("%w: %s returned undecodable payload", ErrRequestFailed, command)
	}

	c.logger.Debug().
		Str("command", command).
		Str("path", op.Path).
		Int("bytes", len(payload)).
		Msg("web command complete")

	return payload, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, authorization string) (*http.Response, error) {
	var reader io.Reader = http.NoBody

	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", ErrRequestFailed, path, err)
	}

	req.Header.Set("Content-Type", "application/json")

	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRequestFailed, path, err)
	}

	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
