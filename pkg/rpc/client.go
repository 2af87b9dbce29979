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

// Package rpc implements the socket RPC transport spoken by cgminer-derived
// miner firmwares: one TCP connection per call, a UTF-8 JSON command, a
// response read until the peer half-closes, and a trailing NUL sentinel
// stripped before decoding. Retry policy belongs to callers; this layer
// never retries.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/olegudff/minerharvest/pkg/logger"
)

const (
	// DefaultPort is the stock cgminer/bmminer API port.
	DefaultPort = 4028

	defaultTimeout = 10 * time.Second

	// sentinelByte terminates every response. Some firmwares omit it, so
	// stripping is conditional.
	sentinelByte = 0x00
)

// Client is a one-shot socket RPC client for a single device. Connections
// are never reused across calls.
type Client struct {
	addr    string
	timeout time.Duration
	dialer  net.Dialer
	logger  logger.Logger
}

// NewClient builds a client for the device at host:port. A zero timeout
// falls back to the default.
func NewClient(host string, port int, timeout time.Duration, log logger.Logger) *Client {
	if port == 0 {
		port = DefaultPort
	}

	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		addr:    net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		timeout: timeout,
		logger:  log,
	}
}

type request struct {
	Command   string                 `json:"command"`
	Parameter map[string]interface{} `json:"parameter,omitempty"`
}

// Execute sends a single command and returns the decoded response body
// after its STATUS has been validated.
func (c *Client) Execute(ctx context.Context, command string, params map[string]interface{}) ([]byte, error) {
	raw, err := c.roundTrip(ctx, command, params)
	if err != nil {
		return nil, err
	}

	if err := checkStatus(raw, command); err != nil {
		return nil, err
	}

	return raw, nil
}

// Multicommand batches independent commands into one request by joining
// their names with "+", then demultiplexes the response per command and
// validates each sub-command's status independently.
//
// When more than one sub-command fails, the surfaced error carries the
// message of whichever failure is encountered first; the contract makes no
// ordering promise across failures. That matches observed device behavior
// and the consumers built against it.
func (c *Client) Multicommand(ctx context.Context, commands ...string) (map[string]json.RawMessage, error) {
	if len(commands) == 0 {
		return nil, errNoCommands
	}

	raw, err := c.roundTrip(ctx, strings.Join(commands, "+"), nil)
	if err != nil {
		return nil, err
	}

	return demux(raw)
}

// roundTrip performs one connect/send/drain cycle and returns the response
// bytes with the sentinel stripped, decoded no further than JSON validity.
func (c *Client) roundTrip(ctx context.Context, command string, params map[string]interface{}) (json.RawMessage, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dialer.DialContext(callCtx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnection, c.addr, err)
	}

	defer func(conn net.Conn) {
		if err := conn.Close(); err != nil {
			c.logger.Error().Err(err).Str("addr", c.addr).Msg("failed to close connection")
		}
	}(conn)

	if deadline, ok := callCtx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("%w: set deadline: %w", ErrConnection, err)
		}
	}

	payload, err := json.Marshal(request{Command: command, Parameter: params})
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %w", ErrProtocol, err)
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrConnection, c.addr, err)
	}

	// The device signals end of response by closing its side.
	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrConnection, c.addr, err)
	}

	data = stripSentinel(data)

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: undecodable response to %q from %s", ErrProtocol, command, c.addr)
	}

	c.logger.Debug().
		Str("addr", c.addr).
		Str("command", command).
		Int("bytes", len(data)).
		Msg("rpc round trip complete")

	return data, nil
}

// stripSentinel removes the trailing NUL terminator when present.
func stripSentinel(data []byte) []byte {
	if len(data) > 0 && data[len(data)-1] == sentinelByte {
		return data[:len(data)-1]
	}

	return data
}
