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

package sshx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCommandLine(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		params   map[string]interface{}
		expected string
	}{
		{
			name:     "bare command",
			command:  "cat /etc/hostname",
			expected: "cat /etc/hostname",
		},
		{
			name:     "empty params",
			command:  "uptime",
			params:   map[string]interface{}{},
			expected: "uptime",
		},
		{
			name:    "params rendered in sorted key order",
			command: "fw_setenv",
			params: map[string]interface{}{
				"zeta":  1,
				"alpha": "on",
			},
			expected: "fw_setenv alpha=on zeta=1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildCommandLine(tt.command, tt.params))
		})
	}
}
