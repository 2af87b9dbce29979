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
	"fmt"
	"sort"

	"github.com/olegudff/minerharvest/pkg/models"
	"github.com/olegudff/minerharvest/pkg/schema"
	"github.com/olegudff/minerharvest/pkg/web"
)

// Command descriptors shared by the Antminer tables. The table and the
// extraction functions reference the same descriptor, so payloads always
// arrive under the alias the extractor expects.
var (
	rpcVersion = schema.RPC("version")
	rpcSummary = schema.RPC("summary")
	rpcStats   = schema.RPC("stats")
	rpcPools   = schema.RPC("pools")

	webSystemInfo  = schema.Web(web.CmdGetSystemInfo)
	webNetworkInfo = schema.Web(web.CmdGetNetworkInfo)
	webSummary     = schema.Web(web.CmdSummary)
	webMinerConf   = schema.Web(web.CmdGetMinerConf)
	webBlinkStatus = schema.Web(web.CmdGetBlinkStatus)
)

// statsPayload is the cgminer stats shape: STATS[0] describes the device,
// STATS[1] carries the counters, many of them under numbered keys.
type statsPayload struct {
	Stats []map[string]interface{} `json:"STATS"`
}

func (p statsPayload) counters() (map[string]interface{}, error) {
	if len(p.Stats) < 2 {
		return nil, schema.ErrNotAvailable
	}

	return p.Stats[1], nil
}

func extractMAC(in schema.Inputs, snap *models.Snapshot) error {
	var sysInfo struct {
		MACAddr string `json:"macaddr"`
	}

	if err := in.Decode(webSystemInfo.Alias(), &sysInfo); err == nil && sysInfo.MACAddr != "" {
		snap.MAC = ptr(sysInfo.MACAddr)
		return nil
	}

	var netInfo struct {
		MACAddr string `json:"macaddr"`
	}

	if err := in.Decode(webNetworkInfo.Alias(), &netInfo); err == nil && netInfo.MACAddr != "" {
		snap.MAC = ptr(netInfo.MACAddr)
		return nil
	}

	return schema.ErrNotAvailable
}

func extractHostname(in schema.Inputs, snap *models.Snapshot) error {
	var sysInfo struct {
		Hostname string `json:"hostname"`
	}

	if err := in.Decode(webSystemInfo.Alias(), &sysInfo); err != nil {
		return err
	}

	if sysInfo.Hostname == "" {
		return schema.ErrNotAvailable
	}

	snap.Hostname = ptr(sysInfo.Hostname)

	return nil
}

type versionPayload struct {
	Version []struct {
		API         string `json:"API"`
		CompileTime string `json:"CompileTime"`
	} `json:"VERSION"`
}

func extractAPIVersion(in schema.Inputs, snap *models.Snapshot) error {
	var payload versionPayload

	if err := in.Decode(rpcVersion.Alias(), &payload); err != nil {
		return err
	}

	if len(payload.Version) == 0 || payload.Version[0].API == "" {
		return schema.ErrNotAvailable
	}

	snap.APIVersion = ptr(payload.Version[0].API)

	return nil
}

func extractFirmwareVersion(in schema.Inputs, snap *models.Snapshot) error {
	var payload versionPayload

	if err := in.Decode(rpcVersion.Alias(), &payload); err != nil {
		return err
	}

	if len(payload.Version) == 0 || payload.Version[0].CompileTime == "" {
		return schema.ErrNotAvailable
	}

	snap.FirmwareVersion = ptr(payload.Version[0].CompileTime)

	return nil
}

func extractHashrate(in schema.Inputs, snap *models.Snapshot) error {
	var payload struct {
		Summary []map[string]interface{} `json:"SUMMARY"`
	}

	if err := in.Decode(rpcSummary.Alias(), &payload); err != nil {
		return err
	}

	if len(payload.Summary) == 0 {
		return schema.ErrNotAvailable
	}

	rate, ok := asFloat(payload.Summary[0]["GHS 5s"])
	if !ok {
		return schema.ErrNotAvailable
	}

	canonical := models.HashRate{Rate: rate, Unit: models.UnitGH}.Into(models.DefaultUnit)
	snap.Hashrate = &canonical

	return nil
}

func extractExpectedHashrate(in schema.Inputs, snap *models.Snapshot) error {
	var payload statsPayload

	if err := in.Decode(rpcStats.Alias(), &payload); err != nil {
		return err
	}

	counters, err := payload.counters()
	if err != nil {
		return err
	}

	ideal, ok := asFloat(counters["total_rateideal"])
	if !ok {
		return schema.ErrNotAvailable
	}

	unit := models.UnitGH

	if s, ok := counters["rate_unit"].(string); ok {
		if parsed, err := models.ParseHashRateUnit(s); err == nil {
			unit = parsed
		}
	}

	canonical := models.HashRate{Rate: ideal, Unit: unit}.Into(models.DefaultUnit)
	snap.ExpectedHashrate = &canonical

	return nil
}

// extractFansNumbered reads fan speeds from the numbered fan1..fan8 keys,
// locating the populated window with the offset-detection algorithm.
func extractFansNumbered(expectedFans int) schema.ExtractFunc {
	return func(in schema.Inputs, snap *models.Snapshot) error {
		var payload statsPayload

		if err := in.Decode(rpcStats.Alias(), &payload); err != nil {
			return err
		}

		counters, err := payload.counters()
		if err != nil {
			return err
		}

		offset := detectOffset(func(i int) (float64, bool) {
			return asFloat(counters[fmt.Sprintf("fan%d", i)])
		}, 1, 8, 1)

		fans := make([]models.Fan, expectedFans)

		for i := range fans {
			if v, ok := asFloat(counters[fmt.Sprintf("fan%d", offset+i)]); ok && v != 0 {
				fans[i].Speed = ptr(int(v))
			}
		}

		snap.Fans = fans

		return nil
	}
}

func extractUptime(in schema.Inputs, snap *models.Snapshot) error {
	var payload statsPayload

	if err := in.Decode(rpcStats.Alias(), &payload); err != nil {
		return err
	}

	counters, err := payload.counters()
	if err != nil {
		return err
	}

	elapsed, ok := asFloat(counters["Elapsed"])
	if !ok {
		return schema.ErrNotAvailable
	}

	snap.Uptime = ptr(int64(elapsed))

	return nil
}

func extractPools(in schema.Inputs, snap *models.Snapshot) error {
	var payload struct {
		Pools []struct {
			Pool           *int    `json:"POOL"`
			URL            string  `json:"URL"`
			User           *string `json:"User"`
			Status         string  `json:"Status"`
			Accepted       *int64  `json:"Accepted"`
			Rejected       *int64  `json:"Rejected"`
			GetFailures    *int64  `json:"Get Failures"`
			RemoteFailures *int64  `json:"Remote Failures"`
			StratumActive  *bool   `json:"Stratum Active"`
		} `json:"POOLS"`
	}

	if err := in.Decode(rpcPools.Alias(), &payload); err != nil {
		return err
	}

	pools := make([]models.Pool, 0, len(payload.Pools))

	for _, entry := range payload.Pools {
		pool := models.Pool{
			Index:          entry.Pool,
			User:           entry.User,
			Accepted:       entry.Accepted,
			Rejected:       entry.Rejected,
			GetFailures:    entry.GetFailures,
			RemoteFailures: entry.RemoteFailures,
			Active:         entry.StratumActive,
		}

		if entry.URL != "" {
			if parsed, err := models.ParsePoolURL(entry.URL); err == nil {
				pool.URL = parsed
			}
		}

		if entry.Status != "" {
			pool.Alive = ptr(entry.Status == "Alive")
		}

		pools = append(pools, pool)
	}

	snap.Pools = pools

	return nil
}

func extractErrors(in schema.Inputs, snap *models.Snapshot) error {
	var payload struct {
		Summary []struct {
			Status []struct {
				Status string `json:"status"`
				Msg    string `json:"msg"`
			} `json:"status"`
		} `json:"SUMMARY"`
	}

	if err := in.Decode(webSummary.Alias(), &payload); err != nil {
		return err
	}

	if len(payload.Summary) == 0 {
		return schema.ErrNotAvailable
	}

	minerErrors := make([]models.MinerError, 0, len(payload.Summary[0].Status))

	for _, item := range payload.Summary[0].Status {
		if item.Status != "" && item.Status != "s" {
			minerErrors = append(minerErrors, models.MinerError{Message: item.Msg})
		}
	}

	snap.Errors = minerErrors

	return nil
}

// extractFaultLight reads the blink flag; modern firmwares call it "blink",
// old ones "isBlinking".
func extractFaultLight(key string) schema.ExtractFunc {
	return func(in schema.Inputs, snap *models.Snapshot) error {
		var status map[string]interface{}

		if err := in.Decode(webBlinkStatus.Alias(), &status); err != nil {
			return err
		}

		blinking, ok := status[key].(bool)
		if !ok {
			return schema.ErrNotAvailable
		}

		snap.FaultLight = ptr(blinking)

		return nil
	}
}

// workMode reads the bitmain-work-mode out of the miner conf; mode 1 means
// the device is in sleep mode.
func workMode(in schema.Inputs) (sleeping bool, err error) {
	var conf map[string]interface{}

	if err := in.Decode(webMinerConf.Alias(), &conf); err != nil {
		return false, err
	}

	mode, ok := asFloat(conf["bitmain-work-mode"])
	if !ok {
		return false, schema.ErrNotAvailable
	}

	return int(mode) == 1, nil
}

func extractIsMining(in schema.Inputs, snap *models.Snapshot) error {
	sleeping, err := workMode(in)
	if err != nil {
		return err
	}

	snap.IsMining = ptr(!sleeping)

	return nil
}

func extractIsSleep(in schema.Inputs, snap *models.Snapshot) error {
	sleeping, err := workMode(in)
	if err != nil {
		return err
	}

	snap.IsSleep = ptr(sleeping)

	return nil
}

// extractHashboardsChain reads boards from the modern stats layout where
// STATS[0] carries a chain array per board. Boards present in topology but
// lacking usable telemetry are kept as placeholders flagged missing.
func extractHashboardsChain(expectedBoards, expectedChips int) schema.ExtractFunc {
	return func(in schema.Inputs, snap *models.Snapshot) error {
		var payload struct {
			Stats []struct {
				Chain []struct {
					Index    *int      `json:"index"`
					RateReal *float64  `json:"rate_real"`
					AsicNum  *int      `json:"asic_num"`
					TempPCB  []float64 `json:"temp_pcb"`
					TempChip []float64 `json:"temp_chip"`
					SN       string    `json:"sn"`
				} `json:"chain"`
			} `json:"STATS"`
		}

		if err := in.Decode(rpcStats.Alias(), &payload); err != nil {
			return err
		}

		if len(payload.Stats) == 0 {
			return schema.ErrNotAvailable
		}

		seen := make(map[int]struct{})
		boards := make([]models.HashBoard, 0, expectedBoards)

		for _, entry := range payload.Stats[0].Chain {
			if entry.Index == nil {
				continue
			}

			board := models.HashBoard{
				Slot:          *entry.Index,
				ExpectedChips: ptr(expectedChips),
				SerialNumber:  entry.SN,
				Missing:       true,
			}

			if entry.RateReal != nil {
				rate := models.HashRate{Rate: *entry.RateReal, Unit: models.UnitGH}.Into(models.DefaultUnit)
				board.Hashrate = &rate
			}

			if entry.AsicNum != nil {
				board.Chips = entry.AsicNum
			}

			if mean, ok := models.MeanNonZero(entry.TempPCB); ok {
				board.Temp = ptr(mean)
			}

			if mean, ok := models.MeanNonZero(entry.TempChip); ok {
				board.ChipTemp = ptr(mean)
			}

			// A board that reported any telemetry at all is present; only
			// a fully silent slot stays missing.
			if board.Hashrate != nil || board.Chips != nil || board.Temp != nil || board.ChipTemp != nil {
				board.Missing = false
			}

			seen[board.Slot] = struct{}{}
			boards = append(boards, board)
		}

		// Slots the device did not report keep their positional identity.
		for slot := 0; slot < expectedBoards; slot++ {
			if _, ok := seen[slot]; !ok {
				boards = append(boards, models.HashBoard{
					Slot:          slot,
					ExpectedChips: ptr(expectedChips),
					Missing:       true,
				})
			}
		}

		sort.Slice(boards, func(i, j int) bool { return boards[i].Slot < boards[j].Slot })

		snap.HashBoards = boards

		return nil
	}
}

// extractHashboardsNumbered reads boards from the old stats layout with
// numbered keys (chain_acn<i>, chain_rate<i>, temp<i>, temp2_<i>), locating
// the populated window with the offset-detection algorithm.
func extractHashboardsNumbered(expectedBoards, expectedChips int) schema.ExtractFunc {
	return func(in schema.Inputs, snap *models.Snapshot) error {
		var payload statsPayload

		if err := in.Decode(rpcStats.Alias(), &payload); err != nil {
			return err
		}

		counters, err := payload.counters()
		if err != nil {
			return err
		}

		offset := detectOffset(func(i int) (float64, bool) {
			return asFloat(counters[fmt.Sprintf("chain_acn%d", i)])
		}, 1, 16, 1)

		boards := make([]models.HashBoard, 0, expectedBoards)

		for i := offset; i < offset+expectedBoards; i++ {
			board := models.HashBoard{
				Slot:          i - offset,
				ExpectedChips: ptr(expectedChips),
				Missing:       true,
			}

			if v, ok := asFloat(counters[fmt.Sprintf("temp%d", i)]); ok && v != 0 {
				board.ChipTemp = ptr(v)
			}

			if v, ok := asFloat(counters[fmt.Sprintf("temp2_%d", i)]); ok && v != 0 {
				board.Temp = ptr(v)
			}

			if v, ok := asFloat(counters[fmt.Sprintf("chain_rate%d", i)]); ok && v != 0 {
				rate := models.HashRate{Rate: v, Unit: models.UnitGH}.Into(models.DefaultUnit)
				board.Hashrate = &rate
			}

			if v, ok := asFloat(counters[fmt.Sprintf("chain_acn%d", i)]); ok && v > 0 {
				board.Chips = ptr(int(v))
			}

			// Same presence rule as the chain layout: any reading at all
			// marks the slot present.
			if board.Chips != nil || board.Hashrate != nil || board.Temp != nil || board.ChipTemp != nil {
				board.Missing = false
			}

			boards = append(boards, board)
		}

		snap.HashBoards = boards

		return nil
	}
}
