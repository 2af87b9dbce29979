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

// Package control implements explicit device write operations: fault light,
// reboot, mining mode, credentials and network configuration. Harvesting is
// read-only; everything that mutates device state lives here, behind its own
// session so callers cannot blur the two. The embedded web servers these
// talk to drop requests under load, so each call retries with backoff;
// harvest never does.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/codeGROOVE-dev/retry-go"

	"github.com/olegudff/minerharvest/pkg/logger"
	"github.com/olegudff/minerharvest/pkg/web"
)

const (
	maxRetries     = 3
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 5 * time.Second

	// Antminer response codes.
	codeBlinkOn     = "B000"
	codeBlinkOff    = "B100"
	codePasswordOK  = "P000"
	protocolDHCP    = 1
	protocolStaticP = 2

	workModeNormal = "0"
	workModeSleep  = "1"
)

var ErrCommandRejected = errors.New("device rejected command")

// WebTransport is the slice of the web client control operations need.
type WebTransport interface {
	Execute(ctx context.Context, command string, params map[string]interface{}) ([]byte, error)
}

// AntminerSession drives write operations on one Antminer. The blink state
// is transient per-session knowledge, carried here explicitly rather than in
// any process-wide state.
type AntminerSession struct {
	web    WebTransport
	light  bool
	logger logger.Logger
}

// NewAntminerSession opens a control session over an existing web transport.
func NewAntminerSession(webClient WebTransport, log logger.Logger) *AntminerSession {
	return &AntminerSession{web: webClient, logger: log}
}

// FaultLight reports the session's last known blink state.
func (s *AntminerSession) FaultLight() bool {
	return s.light
}

// FaultLightOn starts the locator blink and returns the resulting state.
func (s *AntminerSession) FaultLightOn(ctx context.Context) (bool, error) {
	return s.setFaultLight(ctx, true)
}

// FaultLightOff stops the locator blink and returns the resulting state.
func (s *AntminerSession) FaultLightOff(ctx context.Context) (bool, error) {
	return s.setFaultLight(ctx, false)
}

func (s *AntminerSession) setFaultLight(ctx context.Context, on bool) (bool, error) {
	data, err := s.execute(ctx, web.CmdBlink, map[string]interface{}{"blink": on})
	if err != nil {
		return s.light, err
	}

	var resp struct {
		Code string `json:"code"`
	}

	if err := json.Unmarshal(data, &resp); err != nil {
		return s.light, fmt.Errorf("decode blink response: %w", err)
	}

	switch {
	case on && resp.Code == codeBlinkOn:
		s.light = true
	case !on && resp.Code == codeBlinkOff:
		s.light = false
	default:
		return s.light, fmt.Errorf("%w: blink returned code %q", ErrCommandRejected, resp.Code)
	}

	return s.light, nil
}

// Reboot power-cycles the device.
func (s *AntminerSession) Reboot(ctx context.Context) error {
	_, err := s.execute(ctx, web.CmdReboot, nil)
	return err
}

// StopMining puts the device into sleep mode.
func (s *AntminerSession) StopMining(ctx context.Context) error {
	return s.setWorkMode(ctx, workModeSleep)
}

// ResumeMining returns the device to normal mining.
func (s *AntminerSession) ResumeMining(ctx context.Context) error {
	return s.setWorkMode(ctx, workModeNormal)
}

// setWorkMode rewrites the miner conf with a new work mode, preserving the
// rest of the running configuration.
func (s *AntminerSession) setWorkMode(ctx context.Context, mode string) error {
	data, err := s.execute(ctx, web.CmdGetMinerConf, nil)
	if err != nil {
		return err
	}

	var conf map[string]interface{}

	if err := json.Unmarshal(data, &conf); err != nil {
		return fmt.Errorf("decode miner conf: %w", err)
	}

	conf["bitmain-work-mode"] = mode

	_, err = s.execute(ctx, web.CmdSetMinerConf, conf)

	return err
}

// UpdatePassword changes the web UI password.
func (s *AntminerSession) UpdatePassword(ctx context.Context, current, updated string) error {
	data, err := s.execute(ctx, web.CmdUpdatePassword, map[string]interface{}{
		"curPwd": current,
		"newPwd": updated,
	})
	if err != nil {
		return err
	}

	var resp struct {
		Code string `json:"code"`
	}

	if err := json.Unmarshal(data, &resp); err != nil {
		return fmt.Errorf("decode password response: %w", err)
	}

	if resp.Code != codePasswordOK {
		return fmt.Errorf("%w: update_pwd returned code %q", ErrCommandRejected, resp.Code)
	}

	return nil
}

// SetStaticIP switches the device to a static network configuration.
func (s *AntminerSession) SetStaticIP(ctx context.Context, ip, dns, gateway, subnetMask, hostname string) error {
	if subnetMask == "" {
		subnetMask = "255.255.255.0"
	}

	_, err := s.execute(ctx, web.CmdSetNetworkConf, map[string]interface{}{
		"ipAddress": ip,
		"ipDns":     dns,
		"ipGateway": gateway,
		"ipSub":     subnetMask,
		"ipHost":    hostname,
		"ipPro":     protocolStaticP,
	})

	return err
}

// SetDHCP switches the device to DHCP.
func (s *AntminerSession) SetDHCP(ctx context.Context, hostname string) error {
	_, err := s.execute(ctx, web.CmdSetNetworkConf, map[string]interface{}{
		"ipAddress": "",
		"ipDns":     "",
		"ipGateway": "",
		"ipSub":     "",
		"ipHost":    hostname,
		"ipPro":     protocolDHCP,
	})

	return err
}

// SetHostname rewrites the network conf with a new hostname, keeping the
// current addressing.
func (s *AntminerSession) SetHostname(ctx context.Context, hostname string) error {
	data, err := s.execute(ctx, web.CmdGetNetworkInfo, nil)
	if err != nil {
		return err
	}

	var info struct {
		DNSServers string `json:"conf_dnsservers"`
		Gateway    string `json:"conf_gateway"`
		IPAddress  string `json:"conf_ipaddress"`
		Netmask    string `json:"conf_netmask"`
		NetType    string `json:"conf_nettype"`
	}

	if err := json.Unmarshal(data, &info); err != nil {
		return fmt.Errorf("decode network info: %w", err)
	}

	protocol := protocolStaticP
	if info.NetType == "DHCP" {
		protocol = protocolDHCP
	}

	_, err = s.execute(ctx, web.CmdSetNetworkConf, map[string]interface{}{
		"ipAddress": info.IPAddress,
		"ipDns":     info.DNSServers,
		"ipGateway": info.Gateway,
		"ipSub":     info.Netmask,
		"ipHost":    hostname,
		"ipPro":     protocol,
	})

	return err
}

func (s *AntminerSession) execute(ctx context.Context, command string, params map[string]interface{}) ([]byte, error) {
	data, err := retry.DoWithData(func() ([]byte, error) {
		return s.web.Execute(ctx, command, params)
	}, retry.Attempts(maxRetries), retry.Delay(initialBackoff), retry.MaxDelay(maxBackoff))
	if err != nil {
		s.logger.Error().Err(err).Str("command", command).Msg("control command failed")
		return nil, err
	}

	return data, nil
}
