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
	"fmt"
	"sort"
	"strings"
)

// buildCommandLine renders a command name plus parameters into the remote
// command string. Sorted key order keeps the rendered line stable so equal
// descriptors produce equal invocations.
func buildCommandLine(command string, params map[string]interface{}) string {
	if len(params) == 0 {
		return command
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var b strings.Builder

	b.WriteString(command)

	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, params[k])
	}

	return b.String()
}
