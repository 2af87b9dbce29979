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

// minerctl harvests telemetry from one ASIC miner and runs control
// operations against it.
//
// Usage:
//
//	minerctl -config miner.json harvest [field ...]
//	minerctl -config miner.json light-on|light-off|reboot|stop|resume
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/olegudff/minerharvest/pkg/config"
	"github.com/olegudff/minerharvest/pkg/control"
	"github.com/olegudff/minerharvest/pkg/harvest"
	"github.com/olegudff/minerharvest/pkg/logger"
	"github.com/olegudff/minerharvest/pkg/profile"
	"github.com/olegudff/minerharvest/pkg/rpc"
	"github.com/olegudff/minerharvest/pkg/schema"
	"github.com/olegudff/minerharvest/pkg/sshx"
	"github.com/olegudff/minerharvest/pkg/web"
)

var (
	errHostRequired   = errors.New("host is required")
	errUnknownProfile = errors.New("unknown profile")
	errUnknownModel   = errors.New("unknown model")
	errUnknownAction  = errors.New("unknown action")
)

// MinerConfig is the minerctl configuration file shape.
type MinerConfig struct {
	Host           string `json:"host"`
	Profile        string `json:"profile"`
	Model          string `json:"model"`
	TimeoutSeconds int    `json:"timeout_seconds"`

	RPC struct {
		Port int `json:"port"`
	} `json:"rpc"`

	Web struct {
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"web"`

	SSH struct {
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
	} `json:"ssh"`

	Logging logger.Config `json:"logging"`
}

// Validate implements config.Validator.
func (c *MinerConfig) Validate() error {
	if c.Host == "" {
		return errHostRequired
	}

	if _, err := buildProfile(c.Profile, c.Model); err != nil {
		return err
	}

	return nil
}

func (c *MinerConfig) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}

	return time.Duration(c.TimeoutSeconds) * time.Second
}

func buildProfile(family, model string) (*profile.DeviceProfile, error) {
	spec, ok := map[string]profile.ModelSpec{
		"s19j_pro": profile.S19JPro,
		"s19":      profile.S19,
		"s9":       profile.S9,
	}[strings.ToLower(model)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownModel, model)
	}

	switch strings.ToLower(family) {
	case "antminer_modern", "":
		return profile.AntminerModern(spec), nil
	case "antminer_old":
		return profile.AntminerOld(spec), nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownProfile, family)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/minerharvest/miner.json", "Path to miner config file")
	flag.Parse()

	ctx := context.Background()

	var cfg MinerConfig

	cfgLoader := config.NewConfig(nil)
	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logInstance, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	deviceProfile, err := buildProfile(cfg.Profile, cfg.Model)
	if err != nil {
		return err
	}

	webClient := web.NewClient(cfg.Host, cfg.Web.Username, cfg.Web.Password,
		deviceProfile.WebOperations, cfg.timeout(), logInstance)

	transports := map[schema.TransportKind]harvest.Transport{
		schema.TransportRPC: rpc.NewClient(cfg.Host, cfg.RPC.Port, cfg.timeout(), logInstance),
		schema.TransportWeb: webClient,
		schema.TransportSSH: sshx.NewClient(cfg.Host, cfg.SSH.Port, cfg.SSH.Username, cfg.SSH.Password,
			cfg.timeout(), logInstance),
	}

	action := "harvest"
	if args := flag.Args(); len(args) > 0 {
		action = args[0]
	}

	harvestCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	if action == "harvest" {
		engine := harvest.NewEngine(cfg.Host, deviceProfile.Table, transports, logInstance)
		return runHarvest(harvestCtx, engine, flag.Args())
	}

	session := control.NewAntminerSession(webClient, logInstance)

	return runControl(harvestCtx, session, action)
}

func runHarvest(ctx context.Context, engine *harvest.Engine, args []string) error {
	var (
		snap interface{}
		err  error
	)

	if len(args) > 1 {
		snap, err = engine.Harvest(ctx, args[1:]...)
	} else {
		snap, err = engine.HarvestAll(ctx)
	}

	if err != nil {
		return err
	}

	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, string(encoded))

	return nil
}

func runControl(ctx context.Context, session *control.AntminerSession, action string) error {
	switch action {
	case "light-on":
		_, err := session.FaultLightOn(ctx)
		return err
	case "light-off":
		_, err := session.FaultLightOff(ctx)
		return err
	case "reboot":
		return session.Reboot(ctx)
	case "stop":
		return session.StopMining(ctx)
	case "resume":
		return session.ResumeMining(ctx)
	default:
		return fmt.Errorf("%w: %q", errUnknownAction, action)
	}
}
