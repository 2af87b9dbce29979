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

// Package harvest runs telemetry harvests: it resolves a requested field set
// against a device family's schema table, executes the deduplicated command
// set concurrently, and assembles a Snapshot with graceful per-field
// degradation. A harvest issues read commands only; device writes live in
// pkg/control.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegudff/minerharvest/pkg/logger"
	"github.com/olegudff/minerharvest/pkg/models"
	"github.com/olegudff/minerharvest/pkg/schema"
)

var (
	// ErrUnknownField is the only error Harvest returns: requesting a field
	// the schema table does not define is a programmer error and surfaces
	// immediately instead of degrading to an unknown slot.
	ErrUnknownField = errors.New("unknown field")

	errNoTransport = errors.New("no transport configured")
)

// Transport executes one named remote command and returns its raw payload.
// The RPC, web and SSH clients all satisfy it.
type Transport interface {
	Execute(ctx context.Context, command string, params map[string]interface{}) ([]byte, error)
}

// Engine aggregates telemetry for one device. It holds only read-only
// schema state; every harvest owns its own response cache, so concurrent
// harvests never share mutable state.
type Engine struct {
	ip         string
	table      *schema.Table
	transports map[schema.TransportKind]Transport
	logger     logger.Logger
}

// NewEngine builds an engine for the device at ip using the family's schema
// table and the transports its commands need.
func NewEngine(ip string, table *schema.Table, transports map[schema.TransportKind]Transport, log logger.Logger) *Engine {
	return &Engine{
		ip:         ip,
		table:      table,
		transports: transports,
		logger:     log,
	}
}

// HarvestAll harvests every field the schema table defines.
func (e *Engine) HarvestAll(ctx context.Context) (*models.Snapshot, error) {
	return e.Harvest(ctx, e.table.FieldNames()...)
}

// Harvest gathers the requested fields into one Snapshot.
//
// Transport and extraction failures never escape: a failed command is
// recorded in the harvest cache and only degrades the fields depending on
// it; each such field resolves to unknown. Cancellation of ctx abandons
// unresolved commands the same way, so an expired harvest still returns a
// partial Snapshot. Every requested field receives exactly one slot.
func (e *Engine) Harvest(ctx context.Context, fields ...string) (*models.Snapshot, error) {
	descriptors, err := e.resolveFields(fields)
	if err != nil {
		return nil, err
	}

	harvestID := uuid.New().String()
	started := time.Now()

	// Union of dependency lists, deduplicated by descriptor identity.
	distinct := make(map[string]schema.Command)

	for _, d := range descriptors {
		for _, cmd := range d.Commands {
			distinct[cmd.Key()] = cmd
		}
	}

	e.logger.Debug().
		Str("harvest_id", harvestID).
		Str("ip", e.ip).
		Int("fields", len(descriptors)).
		Int("commands", len(distinct)).
		Msg("starting harvest")

	// All commands settle before any extraction runs; extraction never
	// sees partial state.
	cache := e.executeAll(ctx, harvestID, distinct)

	snap := &models.Snapshot{
		IP:        e.ip,
		Timestamp: started,
		Fields:    make(map[string]models.FieldOutcome, len(descriptors)),
	}

	for _, d := range descriptors {
		snap.Fields[d.Name] = e.extractField(harvestID, d, cache, snap)
	}

	e.logger.Info().
		Str("harvest_id", harvestID).
		Str("ip", e.ip).
		Dur("elapsed", time.Since(started)).
		Int("unknown", countUnknown(snap.Fields)).
		Msg("harvest complete")

	return snap, nil
}

// resolveFields validates the request and returns the descriptors in
// request order, first occurrence winning for duplicates.
func (e *Engine) resolveFields(fields []string) ([]schema.FieldDescriptor, error) {
	descriptors := make([]schema.FieldDescriptor, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, name := range fields {
		if _, dup := seen[name]; dup {
			continue
		}

		seen[name] = struct{}{}

		d, ok := e.table.Field(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}

		descriptors = append(descriptors, d)
	}

	return descriptors, nil
}

type commandResult struct {
	payload []byte
	err     error
}

// executeAll issues every distinct command concurrently, one connection per
// command, and returns the per-harvest cache keyed by descriptor identity.
// Failures are recorded, not raised.
func (e *Engine) executeAll(ctx context.Context, harvestID string, distinct map[string]schema.Command) map[string]commandResult {
	cache := make(map[string]commandResult, len(distinct))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	for key, cmd := range distinct {
		transport, ok := e.transports[cmd.Kind]
		if !ok {
			// Goroutines from earlier iterations may already be writing
			// the cache, so this write needs the lock too.
			mu.Lock()
			cache[key] = commandResult{err: fmt.Errorf("%w for %s", errNoTransport, cmd.Kind)}
			mu.Unlock()

			continue
		}

		wg.Add(1)

		go func(key string, cmd schema.Command, transport Transport) {
			defer wg.Done()

			payload, err := transport.Execute(ctx, cmd.Name, cmd.Parameters)

			if err != nil {
				e.logger.Debug().
					Str("harvest_id", harvestID).
					Str("command", cmd.Key()).
					Err(err).
					Msg("command failed; dependent fields will resolve to unknown")
			}

			mu.Lock()
			cache[key] = commandResult{payload: payload, err: err}
			mu.Unlock()
		}(key, cmd, transport)
	}

	wg.Wait()

	return cache
}

// extractField hands a field's cached dependencies to its extraction
// function. Failed dependencies are passed as absent; an extraction error
// resolves the field to unknown without aborting the harvest.
func (e *Engine) extractField(harvestID string, d schema.FieldDescriptor, cache map[string]commandResult, snap *models.Snapshot) models.FieldOutcome {
	in := make(schema.Inputs, len(d.Commands))

	for _, cmd := range d.Commands {
		if result, ok := cache[cmd.Key()]; ok && result.err == nil {
			in[cmd.Alias()] = result.payload
		}
	}

	if err := d.Extract(in, snap); err != nil {
		e.logger.Debug().
			Str("harvest_id", harvestID).
			Str("field", d.Name).
			Err(err).
			Msg("field unresolved")

		return models.FieldUnknown
	}

	return models.FieldOK
}

func countUnknown(fields map[string]models.FieldOutcome) int {
	n := 0

	for _, outcome := range fields {
		if outcome == models.FieldUnknown {
			n++
		}
	}

	return n
}
