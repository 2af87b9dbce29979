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

package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegudff/minerharvest/pkg/logger"
)

func testOperations() map[string]Operation {
	return map[string]Operation{
		CmdGetSystemInfo: {Method: http.MethodGet, Path: "/cgi-bin/get_system_info.cgi"},
		CmdSetMinerConf:  {Method: http.MethodPost, Path: "/cgi-bin/set_miner_conf.cgi"},
	}
}

func newClientFor(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	host := strings.TrimPrefix(server.URL, "http://")

	return NewClient(host, "root", "root", testOperations(), 2*time.Second, logger.NewTestLogger())
}

func TestExecuteGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/cgi-bin/get_system_info.cgi", r.URL.Path)

		_, _ = w.Write([]byte(`{"hostname":"antMiner","macaddr":"AA:BB:CC:DD:EE:FF"}`))
	}))
	defer server.Close()

	client := newClientFor(t, server)

	payload, err := client.Execute(context.Background(), CmdGetSystemInfo, nil)
	require.NoError(t, err)

	var decoded struct {
		Hostname string `json:"hostname"`
	}

	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "antMiner", decoded.Hostname)
}

func TestExecutePostSendsJSONBody(t *testing.T) {
	var received map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_, _ = w.Write([]byte(`{"stats":"success"}`))
	}))
	defer server.Close()

	client := newClientFor(t, server)

	_, err := client.Execute(context.Background(), CmdSetMinerConf, map[string]interface{}{
		"bitmain-work-mode": "1",
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]interface{}{"bitmain-work-mode": "1"}, received)
}

func TestExecuteAnswersDigestChallenge(t *testing.T) {
	const challenge = `Digest realm="antMiner Configuration", nonce="f1acf1f55f2afa36dcd8801e3d5bc212", qop="auth"`

	var authorized string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.Header().Set("WWW-Authenticate", challenge)
			w.WriteHeader(http.StatusUnauthorized)

			return
		}

		authorized = r.Header.Get("Authorization")

		_, _ = w.Write([]byte(`{"hostname":"antMiner"}`))
	}))
	defer server.Close()

	client := newClientFor(t, server)

	_, err := client.Execute(context.Background(), CmdGetSystemInfo, nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(authorized, "Digest "))
	assert.Contains(t, authorized, `username="root"`)
	assert.Contains(t, authorized, `realm="antMiner Configuration"`)
	assert.Contains(t, authorized, `nonce="f1acf1f55f2afa36dcd8801e3d5bc212"`)
	assert.Contains(t, authorized, `uri="/cgi-bin/get_system_info.cgi"`)
	assert.Contains(t, authorized, "qop=auth")
	assert.Contains(t, authorized, "nc=00000001")
	assert.Contains(t, authorized, "response=")
}

func TestExecuteBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Both the bare request and the authorized retry are rejected.
		w.Header().Set("WWW-Authenticate", `Digest realm="antMiner", nonce="abc", qop="auth"`)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newClientFor(t, server)

	_, err := client.Execute(context.Background(), CmdGetSystemInfo, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestExecuteUnknownCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer server.Close()

	client := newClientFor(t, server)

	_, err := client.Execute(context.Background(), "get_wattage", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownCommand)
}

func TestExecuteNonJSONPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>login</html>`))
	}))
	defer server.Close()

	client := newClientFor(t, server)

	_, err := client.Execute(context.Background(), CmdGetSystemInfo, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestAnswerChallenge(t *testing.T) {
	t.Run("with qop", func(t *testing.T) {
		header, err := answerChallenge(
			`Digest realm="test", nonce="xyz", qop="auth"`,
			"root", "root", http.MethodGet, "/cgi-bin/summary.cgi",
		)
		require.NoError(t, err)

		assert.Contains(t, header, `realm="test"`)
		assert.Contains(t, header, `nonce="xyz"`)
		assert.Contains(t, header, "qop=auth")
		assert.Contains(t, header, "cnonce=")
	})

	t.Run("without qop", func(t *testing.T) {
		header, err := answerChallenge(
			`Digest realm="test", nonce="xyz"`,
			"root", "root", http.MethodGet, "/cgi-bin/summary.cgi",
		)
		require.NoError(t, err)

		// RFC 2069 compatibility mode: response = MD5(HA1:nonce:HA2).
		expected := md5Hex(md5Hex("root:test:root") + ":xyz:" + md5Hex("GET:/cgi-bin/summary.cgi"))

		assert.Contains(t, header, `response="`+expected+`"`)
		assert.NotContains(t, header, "qop=")
	})

	t.Run("basic challenge rejected", func(t *testing.T) {
		_, err := answerChallenge(`Basic realm="test"`, "root", "root", http.MethodGet, "/")
		assert.Error(t, err)
	})
}

func TestParseChallenge(t *testing.T) {
	params := parseChallenge(`realm="antMiner Configuration", nonce="abc123", qop="auth", opaque="xyz"`)

	assert.Equal(t, "antMiner Configuration", params["realm"])
	assert.Equal(t, "abc123", params["nonce"])
	assert.Equal(t, "auth", params["qop"])
	assert.Equal(t, "xyz", params["opaque"])
}

func TestAntminerOperationsCoverControlSurface(t *testing.T) {
	ops := AntminerOperations()

	for _, command := range []string{
		CmdGetSystemInfo,
		CmdGetNetworkInfo,
		CmdSummary,
		CmdGetMinerConf,
		CmdSetMinerConf,
		CmdGetBlinkStatus,
		CmdBlink,
		CmdReboot,
		CmdSetNetworkConf,
		CmdUpdatePassword,
	} {
		op, ok := ops[command]
		require.True(t, ok, "missing operation %s", command)
		assert.NotEmpty(t, op.Method)
		assert.True(t, strings.HasPrefix(op.Path, "/cgi-bin/"), "path %q", op.Path)
	}
}
