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

import "errors"

var (
	// ErrConnection marks the device as unreachable: refused, timed out,
	// or torn down mid-read.
	ErrConnection = errors.New("connection error")

	// ErrProtocol marks a reachable device that answered badly: an
	// undecodable payload or a failing STATUS code. The device-supplied
	// message, when present, is carried in the wrap.
	ErrProtocol = errors.New("protocol error")

	errNoCommands = errors.New("multicommand requires at least one command")
)
