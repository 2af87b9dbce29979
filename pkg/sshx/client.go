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

// Package sshx implements the SSH command transport. It satisfies the same
// "execute named command, return payload or fail" contract as the other
// transports; the payload is the remote command's combined output.
package sshx

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/olegudff/minerharvest/pkg/logger"
)

const (
	// DefaultPort is the standard SSH port miner firmwares listen on.
	DefaultPort = 22

	defaultTimeout = 10 * time.Second
)

// Client runs remote commands on a single device over SSH. Each Execute
// call opens and tears down its own connection.
type Client struct {
	addr   string
	config *ssh.ClientConfig
	dialer net.Dialer
	logger logger.Logger
}

// NewClient builds an SSH client for the device at host:port.
func NewClient(host string, port int, username, password string, timeout time.Duration, log logger.Logger) *Client {
	if port == 0 {
		port = DefaultPort
	}

	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		addr: net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		config: &ssh.ClientConfig{
			User: username,
			Auth: []ssh.AuthMethod{
				ssh.Password(password),
			},
			// Miner firmwares regenerate host keys on factory reset, so
			// pinning them would strand every reset device.
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // G106
			Timeout:         timeout,
		},
		logger: log,
	}
}

// Execute runs a remote command string and returns its combined output.
// Parameters are appended as "key=value" arguments in sorted key order.
func (c *Client) Execute(ctx context.Context, command string, params map[string]interface{}) ([]byte, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, c.addr, c.config)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ssh handshake with %s: %w", c.addr, err)
	}

	client := ssh.NewClient(sshConn, chans, reqs)

	defer func() {
		if err := client.Close(); err != nil {
			c.logger.Error().Err(err).Str("addr", c.addr).Msg("failed to close ssh connection")
		}
	}()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("ssh session on %s: %w", c.addr, err)
	}
	defer func() { _ = session.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return nil, fmt.Errorf("set deadline on %s: %w", c.addr, err)
		}
	}

	output, err := session.CombinedOutput(buildCommandLine(command, params))
	if err != nil {
		return nil, fmt.Errorf("run %q on %s: %w", command, c.addr, err)
	}

	c.logger.Debug().
		Str("addr", c.addr).
		Str("command", command).
		Int("bytes", len(output)).
		Msg("ssh command complete")

	return output, nil
}
