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

// Package profile defines device family profiles. A profile is data, not
// dispatch: it pairs a schema table of plain extraction functions with the
// topology constants of a model. Supporting a new family means authoring a
// profile, never touching the harvest engine.
package profile

import (
	"strconv"

	"github.com/olegudff/minerharvest/pkg/schema"
	"github.com/olegudff/minerharvest/pkg/web"
)

// ModelSpec carries the topology constants of one miner model.
type ModelSpec struct {
	Name       string
	Fans       int
	Hashboards int
	Chips      int
}

// Known model specs.
var (
	S19JPro = ModelSpec{Name: "S19j Pro", Fans: 4, Hashboards: 3, Chips: 126}
	S19     = ModelSpec{Name: "S19", Fans: 4, Hashboards: 3, Chips: 76}
	S9      = ModelSpec{Name: "S9", Fans: 2, Hashboards: 3, Chips: 63}
)

// DeviceProfile is one device family applied to one model.
type DeviceProfile struct {
	Family string
	Model  ModelSpec

	// Table is the field schema the harvest engine runs against.
	Table *schema.Table

	// WebOperations is the command→endpoint layout for the family's web
	// transport.
	WebOperations map[string]web.Operation
}

func ptr[T any](v T) *T {
	return &v
}

// asFloat reads a numeric value out of decoded JSON. Miner firmwares report
// the same counter as a number on one model and a string on the next.
func asFloat(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, false
		}

		return f, true
	default:
		return 0, false
	}
}
