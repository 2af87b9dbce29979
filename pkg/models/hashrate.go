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

package models

import (
	"errors"
	"fmt"
	"strings"
)

// HashRateUnit tags a hashrate value with its magnitude. Conversion between
// units is a pure multiplicative scale.
type HashRateUnit string

const (
	UnitH  HashRateUnit = "H"
	UnitKH HashRateUnit = "KH"
	UnitMH HashRateUnit = "MH"
	UnitGH HashRateUnit = "GH"
	UnitTH HashRateUnit = "TH"
	UnitPH HashRateUnit = "PH"
	UnitEH HashRateUnit = "EH"
)

// DefaultUnit is the canonical unit every Snapshot reports in.
const DefaultUnit = UnitTH

var ErrUnknownHashRateUnit = errors.New("unknown hashrate unit")

var unitScale = map[HashRateUnit]float64{
	UnitH:  1,
	UnitKH: 1e3,
	UnitMH: 1e6,
	UnitGH: 1e9,
	UnitTH: 1e12,
	UnitPH: 1e15,
	UnitEH: 1e18,
}

// ParseHashRateUnit accepts vendor spellings such as "GH", "GHS" or "gh/s".
func ParseHashRateUnit(s string) (HashRateUnit, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.TrimSuffix(normalized, "/S")
	normalized = strings.TrimSuffix(normalized, "S")

	unit := HashRateUnit(normalized)
	if _, ok := unitScale[unit]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownHashRateUnit, s)
	}

	return unit, nil
}

// HashRate is a hashrate value with an explicit unit tag.
type HashRate struct {
	Rate float64      `json:"rate"`
	Unit HashRateUnit `json:"unit"`
}

// Into converts to the given unit.
func (h HashRate) Into(unit HashRateUnit) HashRate {
	from, ok := unitScale[h.Unit]
	if !ok {
		from = 1
	}

	to, ok := unitScale[unit]
	if !ok {
		to = 1
	}

	return HashRate{Rate: h.Rate * from / to, Unit: unit}
}

func (h HashRate) String() string {
	return fmt.Sprintf("%.2f %s/s", h.Rate, h.Unit)
}
