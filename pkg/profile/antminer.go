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

package profile

import (
	"github.com/olegudff/minerharvest/pkg/schema"
	"github.com/olegudff/minerharvest/pkg/web"
)

// AntminerModern is the profile for AntMiners with the modern web interface,
// such as the S19 family.
func AntminerModern(model ModelSpec) *DeviceProfile {
	return &DeviceProfile{
		Family:        "Antminer Modern",
		Model:         model,
		WebOperations: web.AntminerOperations(),
		Table: schema.MustTable(
			schema.FieldDescriptor{
				Name:     schema.FieldMAC,
				Commands: []schema.Command{webSystemInfo, webNetworkInfo},
				Extract:  extractMAC,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldHostname,
				Commands: []schema.Command{webSystemInfo},
				Extract:  extractHostname,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldAPIVersion,
				Commands: []schema.Command{rpcVersion},
				Extract:  extractAPIVersion,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldFirmwareVersion,
				Commands: []schema.Command{rpcVersion},
				Extract:  extractFirmwareVersion,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldHashrate,
				Commands: []schema.Command{rpcSummary},
				Extract:  extractHashrate,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldExpectedHashrate,
				Commands: []schema.Command{rpcStats},
				Extract:  extractExpectedHashrate,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldFans,
				Commands: []schema.Command{rpcStats},
				Extract:  extractFansNumbered(model.Fans),
			},
			schema.FieldDescriptor{
				Name:     schema.FieldHashboards,
				Commands: []schema.Command{rpcStats},
				Extract:  extractHashboardsChain(model.Hashboards, model.Chips),
			},
			schema.FieldDescriptor{
				Name:     schema.FieldErrors,
				Commands: []schema.Command{webSummary},
				Extract:  extractErrors,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldFaultLight,
				Commands: []schema.Command{webBlinkStatus},
				Extract:  extractFaultLight("blink"),
			},
			schema.FieldDescriptor{
				Name:     schema.FieldIsMining,
				Commands: []schema.Command{webMinerConf},
				Extract:  extractIsMining,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldIsSleep,
				Commands: []schema.Command{webMinerConf},
				Extract:  extractIsSleep,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldUptime,
				Commands: []schema.Command{rpcStats},
				Extract:  extractUptime,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldPools,
				Commands: []schema.Command{rpcPools},
				Extract:  extractPools,
			},
		),
	}
}

// AntminerOld is the profile for AntMiners with the old web interface, such
// as the S9 and S17 families. Hashboards come from the numbered-key stats
// layout and the blink flag is spelled differently.
func AntminerOld(model ModelSpec) *DeviceProfile {
	return &DeviceProfile{
		Family:        "Antminer Old",
		Model:         model,
		WebOperations: web.AntminerOperations(),
		Table: schema.MustTable(
			schema.FieldDescriptor{
				Name:     schema.FieldMAC,
				Commands: []schema.Command{webSystemInfo, webNetworkInfo},
				Extract:  extractMAC,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldHostname,
				Commands: []schema.Command{webSystemInfo},
				Extract:  extractHostname,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldAPIVersion,
				Commands: []schema.Command{rpcVersion},
				Extract:  extractAPIVersion,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldFirmwareVersion,
				Commands: []schema.Command{rpcVersion},
				Extract:  extractFirmwareVersion,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldHashrate,
				Commands: []schema.Command{rpcSummary},
				Extract:  extractHashrate,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldFans,
				Commands: []schema.Command{rpcStats},
				Extract:  extractFansNumbered(model.Fans),
			},
			schema.FieldDescriptor{
				Name:     schema.FieldHashboards,
				Commands: []schema.Command{rpcStats},
				Extract:  extractHashboardsNumbered(model.Hashboards, model.Chips),
			},
			schema.FieldDescriptor{
				Name:     schema.FieldFaultLight,
				Commands: []schema.Command{webBlinkStatus},
				Extract:  extractFaultLight("isBlinking"),
			},
			schema.FieldDescriptor{
				Name:     schema.FieldIsMining,
				Commands: []schema.Command{webMinerConf},
				Extract:  extractIsMining,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldIsSleep,
				Commands: []schema.Command{webMinerConf},
				Extract:  extractIsSleep,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldUptime,
				Commands: []schema.Command{rpcStats},
				Extract:  extractUptime,
			},
			schema.FieldDescriptor{
				Name:     schema.FieldPools,
				Commands: []schema.Command{rpcPools},
				Extract:  extractPools,
			},
		),
	}
}
