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

// Package schema defines the declarative mapping from telemetry fields to
// the remote commands that supply them. Schema objects are authored once per
// device family, are immutable, and are shared read-only across harvests.
package schema

import (
	"encoding/json"
	"fmt"
)

// TransportKind selects the channel a command runs over.
type TransportKind string

const (
	TransportRPC TransportKind = "rpc"
	TransportWeb TransportKind = "web"
	TransportSSH TransportKind = "ssh"
)

// Command is the immutable identity of one remote command invocation. Two
// commands are the same invocation iff kind, name and parameters all match;
// that identity is what harvest deduplication keys on.
type Command struct {
	Kind       TransportKind          `json:"kind"`
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// RPC builds a socket RPC command descriptor.
func RPC(name string) Command {
	return Command{Kind: TransportRPC, Name: name}
}

// RPCWithParams builds a socket RPC command descriptor carrying parameters.
func RPCWithParams(name string, params map[string]interface{}) Command {
	return Command{Kind: TransportRPC, Name: name, Parameters: params}
}

// Web builds a web API command descriptor.
func Web(name string) Command {
	return Command{Kind: TransportWeb, Name: name}
}

// SSH builds an SSH command descriptor.
func SSH(name string) Command {
	return Command{Kind: TransportSSH, Name: name}
}

// Alias is the name under which this command's payload is handed to
// extraction functions, e.g. "rpc_stats" or "web_get_system_info".
func (c Command) Alias() string {
	return fmt.Sprintf("%s_%s", c.Kind, c.Name)
}

// Key is the canonical cache/dedup key for this command. encoding/json
// marshals map keys in sorted order, so equal parameter sets produce equal
// keys.
func (c Command) Key() string {
	if len(c.Parameters) == 0 {
		return fmt.Sprintf("%s:%s", c.Kind, c.Name)
	}

	params, err := json.Marshal(c.Parameters)
	if err != nil {
		params = []byte(fmt.Sprintf("%v", c.Parameters))
	}

	return fmt.Sprintf("%s:%s:%s", c.Kind, c.Name, params)
}
