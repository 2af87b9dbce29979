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
	"encoding/json"
	"fmt"
)

const (
	statusSuccess       = "S"
	statusInformational = "I"

	// multicommand responses carry an "id" key alongside the per-command
	// keys; it is not a sub-command result.
	idKey = "id"
)

type statusEntry struct {
	Status string `json:"STATUS"`
	Msg    string `json:"Msg"`
}

type statusEnvelope struct {
	Status []statusEntry `json:"STATUS"`
}

func (e statusEntry) failed() bool {
	return e.Status != statusSuccess && e.Status != statusInformational
}

func (e statusEntry) message(command string) string {
	if e.Msg != "" {
		return e.Msg
	}

	return fmt.Sprintf("command %q reported status %q", command, e.Status)
}

// checkStatus validates a response body. A single-command response carries a
// top-level STATUS array; a multicommand response carries one key per issued
// command, each holding an array whose first element nests its own STATUS.
func checkStatus(raw json.RawMessage, command string) error {
	var top map[string]json.RawMessage

	if err := json.Unmarshal(raw, &top); err != nil {
		return fmt.Errorf("%w: response to %q is not an object: %w", ErrProtocol, command, err)
	}

	if _, single := top["STATUS"]; single {
		return checkSingle(raw, command)
	}

	_, err := splitMulticommand(top)

	return err
}

func checkSingle(raw json.RawMessage, command string) error {
	var envelope statusEnvelope

	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: malformed STATUS in response to %q: %w", ErrProtocol, command, err)
	}

	if len(envelope.Status) == 0 {
		return fmt.Errorf("%w: empty STATUS in response to %q", ErrProtocol, command)
	}

	if entry := envelope.Status[0]; entry.failed() {
		return fmt.Errorf("%w: %s", ErrProtocol, entry.message(command))
	}

	return nil
}

// demux splits a multicommand response into per-command payloads, validating
// each sub-command's status independently. The first failing sub-command's
// message becomes the batch error.
func demux(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var top map[string]json.RawMessage

	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: multicommand response is not an object: %w", ErrProtocol, err)
	}

	return splitMulticommand(top)
}

func splitMulticommand(top map[string]json.RawMessage) (map[string]json.RawMessage, error) {
	results := make(map[string]json.RawMessage, len(top))

	for key, value := range top {
		if key == idKey {
			continue
		}

		var entries []json.RawMessage

		if err := json.Unmarshal(value, &entries); err != nil {
			return nil, fmt.Errorf("%w: sub-command %q is not an array: %w", ErrProtocol, key, err)
		}

		if len(entries) == 0 {
			return nil, fmt.Errorf("%w: sub-command %q returned no result", ErrProtocol, key)
		}

		if err := checkSingle(entries[0], key); err != nil {
			return nil, err
		}

		results[key] = entries[0]
	}

	return results, nil
}
