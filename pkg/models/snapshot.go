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

// Package models holds the canonical telemetry record and its component
// types. Nil pointers and nil slices are the explicit "unknown" sentinel:
// a harvest that could not resolve a field leaves its slot nil and marks it
// in Snapshot.Fields.
package models

import "time"

// FieldOutcome records whether a requested field resolved during a harvest.
type FieldOutcome string

const (
	FieldOK      FieldOutcome = "ok"
	FieldUnknown FieldOutcome = "unknown"
)

// Fan is one fan reading. A nil Speed means the reading is unknown; a fan
// that reports literal zero is treated as absent by the extraction layer.
type Fan struct {
	Speed *int `json:"speed"`
}

// HashBoard is one hashboard slot. Boards present in the device topology but
// lacking usable telemetry keep their slot number and are flagged Missing
// rather than being dropped. A board counts as present when it reported any
// telemetry at all (hashrate, chip count, or a temperature); Missing is
// reserved for slots that stayed completely silent.
type HashBoard struct {
	Slot          int       `json:"slot"`
	Hashrate      *HashRate `json:"hashrate,omitempty"`
	Temp          *float64  `json:"temp,omitempty"`
	ChipTemp      *float64  `json:"chip_temp,omitempty"`
	Chips         *int      `json:"chips,omitempty"`
	ExpectedChips *int      `json:"expected_chips,omitempty"`
	SerialNumber  string    `json:"serial_number,omitempty"`
	Missing       bool      `json:"missing"`
}

// MinerError is a device-reported error condition.
type MinerError struct {
	Message string `json:"message"`
}

// Snapshot is one point-in-time telemetry record. It is created fresh per
// harvest and never mutated afterwards. Fields carries exactly one entry per
// requested field name.
type Snapshot struct {
	IP        string    `json:"ip"`
	Timestamp time.Time `json:"timestamp"`

	MAC              *string      `json:"mac"`
	Hostname         *string      `json:"hostname"`
	APIVersion       *string      `json:"api_ver"`
	FirmwareVersion  *string      `json:"fw_ver"`
	Hashrate         *HashRate    `json:"hashrate"`
	ExpectedHashrate *HashRate    `json:"expected_hashrate"`
	Fans             []Fan        `json:"fans"`
	HashBoards       []HashBoard  `json:"hashboards"`
	Pools            []Pool       `json:"pools"`
	Errors           []MinerError `json:"errors"`
	FaultLight       *bool        `json:"fault_light"`
	IsMining         *bool        `json:"is_mining"`
	IsSleep          *bool        `json:"is_sleep"`
	Uptime           *int64       `json:"uptime"`

	Fields map[string]FieldOutcome `json:"fields"`
}
