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

package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/olegudff/minerharvest/pkg/models"
)

// Canonical field names. A device family's table maps a subset of these to
// extraction functions.
const (
	FieldMAC              = "mac"
	FieldAPIVersion       = "api_ver"
	FieldFirmwareVersion  = "fw_ver"
	FieldHostname         = "hostname"
	FieldHashrate         = "hashrate"
	FieldExpectedHashrate = "expected_hashrate"
	FieldFans             = "fans"
	FieldErrors           = "errors"
	FieldFaultLight       = "fault_light"
	FieldHashboards       = "hashboards"
	FieldIsMining         = "is_mining"
	FieldIsSleep          = "is_sleep"
	FieldUptime           = "uptime"
	FieldPools            = "pools"
)

var (
	// ErrNotAvailable is returned by extraction functions when their
	// dependencies are absent or do not contain the data. The engine turns
	// it into an unknown slot; it never escapes a harvest.
	ErrNotAvailable = errors.New("data not available")

	ErrDuplicateField = errors.New("duplicate field in table")
)

// Inputs carries the raw payloads an extraction function depends on, keyed
// by command alias. A dependency whose command failed or was skipped is
// simply absent.
type Inputs map[string][]byte

// Get returns the raw payload for an alias.
func (in Inputs) Get(alias string) ([]byte, bool) {
	payload, ok := in[alias]
	return payload, ok
}

// Decode unmarshals the payload for an alias into dst. It returns
// ErrNotAvailable when the dependency is absent, so extraction functions
// stay total over optional inputs.
func (in Inputs) Decode(alias string, dst interface{}) error {
	payload, ok := in[alias]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAvailable, alias)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("decode %s: %w", alias, err)
	}

	return nil
}

// ExtractFunc turns raw payloads into one Snapshot field. Implementations
// must be total: never assume a dependency is present, return
// ErrNotAvailable (or any error) instead of panicking. Given the same
// inputs an ExtractFunc produces the same result.
type ExtractFunc func(in Inputs, snap *models.Snapshot) error

// FieldDescriptor binds a field name to its extraction function and the
// ordered commands it depends on. The command list must together supply
// every payload Extract needs; it may be empty for fields derived without
// device I/O.
type FieldDescriptor struct {
	Name     string
	Commands []Command
	Extract  ExtractFunc
}

// Table is the per-device-family field schema. It is the sole extension
// point for supporting a new family: author a table, never touch the engine.
type Table struct {
	fields map[string]FieldDescriptor
	names  []string
}

// NewTable builds a table from descriptors. Field names must be unique.
func NewTable(descriptors ...FieldDescriptor) (*Table, error) {
	fields := make(map[string]FieldDescriptor, len(descriptors))
	names := make([]string, 0, len(descriptors))

	for _, d := range descriptors {
		if _, exists := fields[d.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateField, d.Name)
		}

		fields[d.Name] = d
		names = append(names, d.Name)
	}

	sort.Strings(names)

	return &Table{fields: fields, names: names}, nil
}

// MustTable is NewTable for static schema authoring; it panics on a
// malformed table, which is a programmer error caught at init.
func MustTable(descriptors ...FieldDescriptor) *Table {
	t, err := NewTable(descriptors...)
	if err != nil {
		panic(err)
	}

	return t
}

// Field looks up one descriptor.
func (t *Table) Field(name string) (FieldDescriptor, bool) {
	d, ok := t.fields[name]
	return d, ok
}

// FieldNames lists every field the table defines, sorted.
func (t *Table) FieldNames() []string {
	names := make([]string, len(t.names))
	copy(names, t.names)

	return names
}
