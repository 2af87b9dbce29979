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

package rpc

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegudff/minerharvest/pkg/logger"
)

// mockDevice accepts one connection per call, records the request, writes
// the configured response and closes, the way miner firmwares do.
type mockDevice struct {
	listener net.Listener
	response []byte

	mu       sync.Mutex
	requests [][]byte
}

func newMockDevice(t *testing.T, response []byte) *mockDevice {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	d := &mockDevice{listener: listener, response: response}

	go d.serve()

	t.Cleanup(func() { _ = listener.Close() })

	return d
}

func (d *mockDevice) serve() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			return
		}

		go func(conn net.Conn) {
			defer func() { _ = conn.Close() }()

			buf := make([]byte, 4096)

			n, err := conn.Read(buf)
			if err != nil {
				return
			}

			d.mu.Lock()
			d.requests = append(d.requests, append([]byte(nil), buf[:n]...))
			d.mu.Unlock()

			_, _ = conn.Write(d.response)
		}(conn)
	}
}

func (d *mockDevice) hostPort(t *testing.T) (string, int) {
	t.Helper()

	addr, ok := d.listener.Addr().(*net.TCPAddr)
	require.True(t, ok)

	return addr.IP.String(), addr.Port
}

func (d *mockDevice) lastRequest(t *testing.T) map[string]interface{} {
	t.Helper()

	d.mu.Lock()
	defer d.mu.Unlock()

	require.NotEmpty(t, d.requests)

	var req map[string]interface{}

	require.NoError(t, json.Unmarshal(d.requests[len(d.requests)-1], &req))

	return req
}

func newTestClient(t *testing.T, d *mockDevice) *Client {
	t.Helper()

	host, port := d.hostPort(t)

	return NewClient(host, port, 2*time.Second, logger.NewTestLogger())
}

func TestExecuteSingleCommand(t *testing.T) {
	response := append([]byte(`{"STATUS":[{"STATUS":"S","Msg":"Summary"}],"SUMMARY":[{"GHS 5s":"100000.00"}]}`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	payload, err := client.Execute(context.Background(), "summary", nil)
	require.NoError(t, err)

	var decoded struct {
		Summary []map[string]interface{} `json:"SUMMARY"`
	}

	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Len(t, decoded.Summary, 1)

	req := device.lastRequest(t)
	assert.Equal(t, "summary", req["command"])
	assert.NotContains(t, req, "parameter")
}

func TestExecuteSendsParameters(t *testing.T) {
	response := append([]byte(`{"STATUS":[{"STATUS":"S"}]}`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	_, err := client.Execute(context.Background(), "ascset", map[string]interface{}{"value": "0,freq,500"})
	require.NoError(t, err)

	req := device.lastRequest(t)
	assert.Equal(t, "ascset", req["command"])
	assert.Equal(t, map[string]interface{}{"value": "0,freq,500"}, req["parameter"])
}

func TestExecuteInformationalStatus(t *testing.T) {
	response := append([]byte(`{"STATUS":[{"STATUS":"I","Msg":"Invalid command"}],"id":1}`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	_, err := client.Execute(context.Background(), "noop", nil)
	assert.NoError(t, err)
}

func TestExecuteFailingStatus(t *testing.T) {
	response := append([]byte(`{"STATUS":[{"STATUS":"E","Msg":"Missing JSON data"}]}`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	_, err := client.Execute(context.Background(), "stats", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "Missing JSON data")
}

func TestExecuteFailingStatusWithoutMessage(t *testing.T) {
	response := append([]byte(`{"STATUS":[{"STATUS":"E"}]}`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	_, err := client.Execute(context.Background(), "stats", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "stats")
}

func TestExecuteWithoutSentinel(t *testing.T) {
	// Some firmwares omit the trailing NUL; the payload must still parse.
	response := []byte(`{"STATUS":[{"STATUS":"S","Msg":"ok"}]}`)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	_, err := client.Execute(context.Background(), "version", nil)
	assert.NoError(t, err)
}

func TestExecuteUndecodablePayload(t *testing.T) {
	response := append([]byte(`{"STATUS":`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	_, err := client.Execute(context.Background(), "version", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
}

func TestExecuteConnectionRefused(t *testing.T) {
	client := NewClient("127.0.0.1", 1, 500*time.Millisecond, logger.NewTestLogger())

	_, err := client.Execute(context.Background(), "summary", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConnection)
}

func TestMulticommandJoinsNames(t *testing.T) {
	response := append([]byte(`{
		"summary":[{"STATUS":[{"STATUS":"S"}],"SUMMARY":[{}]}],
		"pools":[{"STATUS":[{"STATUS":"S"}],"POOLS":[]}],
		"id":1
	}`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	results, err := client.Multicommand(context.Background(), "summary", "pools")
	require.NoError(t, err)

	req := device.lastRequest(t)
	assert.Equal(t, "summary+pools", req["command"])

	assert.Len(t, results, 2)
	assert.Contains(t, results, "summary")
	assert.Contains(t, results, "pools")
	assert.NotContains(t, results, "id")
}

func TestMulticommandSubCommandFailure(t *testing.T) {
	response := append([]byte(`{
		"cmd1":[{"STATUS":[{"STATUS":"S"}]}],
		"cmd2":[{"STATUS":[{"STATUS":"E","Msg":"bad"}]}],
		"id":1
	}`), 0x00)
	device := newMockDevice(t, response)
	client := newTestClient(t, device)

	_, err := client.Multicommand(context.Background(), "cmd1", "cmd2")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProtocol)
	assert.Contains(t, err.Error(), "bad")
}

func TestMulticommandRequiresCommands(t *testing.T) {
	device := newMockDevice(t, append([]byte(`{}`), 0x00))
	client := newTestClient(t, device)

	_, err := client.Multicommand(context.Background())
	assert.Error(t, err)
}

func TestStripSentinel(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected []byte
	}{
		{
			name:     "sentinel present",
			input:    append([]byte(`{}`), 0x00),
			expected: []byte(`{}`),
		},
		{
			name:     "sentinel absent",
			input:    []byte(`{}`),
			expected: []byte(`{}`),
		},
		{
			name:     "empty response",
			input:    []byte{},
			expected: []byte{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, stripSentinel(tt.input))
		})
	}
}
