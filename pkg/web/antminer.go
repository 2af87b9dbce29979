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

package web

import "net/http"

// Command names exposed by Antminer firmwares. The harvest schema and
// control operations refer to these.
const (
	CmdGetSystemInfo  = "get_system_info"
	CmdGetNetworkInfo = "get_network_info"
	CmdSummary        = "summary"
	CmdGetMinerConf   = "get_miner_conf"
	CmdSetMinerConf   = "set_miner_conf"
	CmdGetBlinkStatus = "get_blink_status"
	CmdBlink          = "blink"
	CmdReboot         = "reboot"
	CmdSetNetworkConf = "set_network_conf"
	CmdUpdatePassword = "update_pwd"
)

// AntminerOperations is the endpoint layout of the Antminer stock web
// interface. Old (S17-era) and modern (S19-era) firmwares share the layout;
// only the response shapes differ, which the device profiles absorb.
func AntminerOperations() map[string]Operation {
	return map[string]Operation{
		CmdGetSystemInfo:  {Method: http.MethodGet, Path: "/cgi-bin/get_system_info.cgi"},
		CmdGetNetworkInfo: {Method: http.MethodGet, Path: "/cgi-bin/get_network_info.cgi"},
		CmdSummary:        {Method: http.MethodGet, Path: "/cgi-bin/summary.cgi"},
		CmdGetMinerConf:   {Method: http.MethodGet, Path: "/cgi-bin/get_miner_conf.cgi"},
		CmdSetMinerConf:   {Method: http.MethodPost, Path: "/cgi-bin/set_miner_conf.cgi"},
		CmdGetBlinkStatus: {Method: http.MethodGet, Path: "/cgi-bin/get_blink_status.cgi"},
		CmdBlink:          {Method: http.MethodPost, Path: "/cgi-bin/blink.cgi"},
		CmdReboot:         {Method: http.MethodGet, Path: "/cgi-bin/reboot.cgi"},
		CmdSetNetworkConf: {Method: http.MethodPost, Path: "/cgi-bin/set_network_conf.cgi"},
		CmdUpdatePassword: {Method: http.MethodPost, Path: "/cgi-bin/update_pwd.cgi"},
	}
}
