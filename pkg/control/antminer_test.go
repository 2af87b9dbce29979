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

package control

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegudff/minerharvest/pkg/logger"
	"github.com/olegudff/minerharvest/pkg/web"
)

type executedCommand struct {
	command string
	params  map[string]interface{}
}

// fakeWeb replays canned responses and records every executed command.
type fakeWeb struct {
	responses map[string][]byte
	errs      map[string]error
	executed  []executedCommand
}

func newFakeWeb() *fakeWeb {
	return &fakeWeb{
		responses: make(map[string][]byte),
		errs:      make(map[string]error),
	}
}

func (f *fakeWeb) Execute(_ context.Context, command string, params map[string]interface{}) ([]byte, error) {
	f.executed = append(f.executed, executedCommand{command: command, params: params})

	if err, ok := f.errs[command]; ok {
		return nil, err
	}

	if payload, ok := f.responses[command]; ok {
		return payload, nil
	}

	return []byte(`{}`), nil
}

func (f *fakeWeb) lastExecuted(t *testing.T) executedCommand {
	t.Helper()

	require.NotEmpty(t, f.executed)

	return f.executed[len(f.executed)-1]
}

func TestFaultLightOn(t *testing.T) {
	device := newFakeWeb()
	device.responses[web.CmdBlink] = []byte(`{"code":"B000"}`)

	session := NewAntminerSession(device, logger.NewTestLogger())
	require.False(t, session.FaultLight())

	on, err := session.FaultLightOn(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.True(t, session.FaultLight())

	last := device.lastExecuted(t)
	assert.Equal(t, web.CmdBlink, last.command)
	assert.Equal(t, map[string]interface{}{"blink": true}, last.params)
}

func TestFaultLightOff(t *testing.T) {
	device := newFakeWeb()
	device.responses[web.CmdBlink] = []byte(`{"code":"B100"}`)

	session := NewAntminerSession(device, logger.NewTestLogger())

	on, err := session.FaultLightOff(context.Background())
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, session.FaultLight())
}

func TestFaultLightUnexpectedCode(t *testing.T) {
	device := newFakeWeb()
	device.responses[web.CmdBlink] = []byte(`{"code":"B999"}`)

	session := NewAntminerSession(device, logger.NewTestLogger())

	_, err := session.FaultLightOn(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCommandRejected)
	assert.False(t, session.FaultLight())
}

func TestSessionsCarryIndependentBlinkState(t *testing.T) {
	deviceA := newFakeWeb()
	deviceA.responses[web.CmdBlink] = []byte(`{"code":"B000"}`)

	deviceB := newFakeWeb()

	sessionA := NewAntminerSession(deviceA, logger.NewTestLogger())
	sessionB := NewAntminerSession(deviceB, logger.NewTestLogger())

	_, err := sessionA.FaultLightOn(context.Background())
	require.NoError(t, err)

	assert.True(t, sessionA.FaultLight())
	assert.False(t, sessionB.FaultLight())
}

func TestReboot(t *testing.T) {
	device := newFakeWeb()

	session := NewAntminerSession(device, logger.NewTestLogger())

	require.NoError(t, session.Reboot(context.Background()))
	assert.Equal(t, web.CmdReboot, device.lastExecuted(t).command)
}

func TestStopMiningPreservesConf(t *testing.T) {
	device := newFakeWeb()
	device.responses[web.CmdGetMinerConf] = []byte(`{
		"bitmain-work-mode":"0",
		"bitmain-freq":"675",
		"pools":[{"url":"stratum+tcp://stratum.pool.io:3333"}]
	}`)

	session := NewAntminerSession(device, logger.NewTestLogger())

	require.NoError(t, session.StopMining(context.Background()))

	last := device.lastExecuted(t)
	require.Equal(t, web.CmdSetMinerConf, last.command)

	// The rewritten conf flips the work mode and keeps everything else.
	assert.Equal(t, "1", last.params["bitmain-work-mode"])
	assert.Equal(t, "675", last.params["bitmain-freq"])
	assert.Contains(t, last.params, "pools")
}

func TestResumeMining(t *testing.T) {
	device := newFakeWeb()
	device.responses[web.CmdGetMinerConf] = []byte(`{"bitmain-work-mode":"1"}`)

	session := NewAntminerSession(device, logger.NewTestLogger())

	require.NoError(t, session.ResumeMining(context.Background()))

	last := device.lastExecuted(t)
	require.Equal(t, web.CmdSetMinerConf, last.command)
	assert.Equal(t, "0", last.params["bitmain-work-mode"])
}

func TestUpdatePassword(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		device := newFakeWeb()
		device.responses[web.CmdUpdatePassword] = []byte(`{"code":"P000"}`)

		session := NewAntminerSession(device, logger.NewTestLogger())

		require.NoError(t, session.UpdatePassword(context.Background(), "root", "hunter2"))

		last := device.lastExecuted(t)
		assert.Equal(t, web.CmdUpdatePassword, last.command)
		assert.Equal(t, "root", last.params["curPwd"])
		assert.Equal(t, "hunter2", last.params["newPwd"])
	})

	t.Run("rejected", func(t *testing.T) {
		device := newFakeWeb()
		device.responses[web.CmdUpdatePassword] = []byte(`{"code":"P001"}`)

		session := NewAntminerSession(device, logger.NewTestLogger())

		err := session.UpdatePassword(context.Background(), "root", "hunter2")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCommandRejected)
	})
}

func TestSetStaticIP(t *testing.T) {
	device := newFakeWeb()

	session := NewAntminerSession(device, logger.NewTestLogger())

	err := session.SetStaticIP(context.Background(), "10.0.0.20", "8.8.8.8", "10.0.0.1", "", "miner-42")
	require.NoError(t, err)

	last := device.lastExecuted(t)
	require.Equal(t, web.CmdSetNetworkConf, last.command)
	assert.Equal(t, "10.0.0.20", last.params["ipAddress"])
	assert.Equal(t, "255.255.255.0", last.params["ipSub"])
	assert.Equal(t, "miner-42", last.params["ipHost"])
	assert.Equal(t, 2, last.params["ipPro"])
}

func TestSetDHCP(t *testing.T) {
	device := newFakeWeb()

	session := NewAntminerSession(device, logger.NewTestLogger())

	require.NoError(t, session.SetDHCP(context.Background(), "miner-42"))

	last := device.lastExecuted(t)
	require.Equal(t, web.CmdSetNetworkConf, last.command)
	assert.Equal(t, "", last.params["ipAddress"])
	assert.Equal(t, "miner-42", last.params["ipHost"])
	assert.Equal(t, 1, last.params["ipPro"])
}

func TestSetHostnameKeepsAddressing(t *testing.T) {
	device := newFakeWeb()
	device.responses[web.CmdGetNetworkInfo] = []byte(`{
		"conf_nettype":"Static",
		"conf_ipaddress":"10.0.0.20",
		"conf_netmask":"255.255.255.0",
		"conf_gateway":"10.0.0.1",
		"conf_dnsservers":"8.8.8.8"
	}`)

	session := NewAntminerSession(device, logger.NewTestLogger())

	require.NoError(t, session.SetHostname(context.Background(), "rack7-slot3"))

	last := device.lastExecuted(t)
	require.Equal(t, web.CmdSetNetworkConf, last.command)
	assert.Equal(t, "rack7-slot3", last.params["ipHost"])
	assert.Equal(t, "10.0.0.20", last.params["ipAddress"])
	assert.Equal(t, "255.255.255.0", last.params["ipSub"])
	assert.Equal(t, 2, last.params["ipPro"])
}

func TestExecuteRetriesTransientFailure(t *testing.T) {
	device := &flakyWeb{failures: 2, payload: []byte(`{"code":"B000"}`)}

	session := NewAntminerSession(device, logger.NewTestLogger())

	on, err := session.FaultLightOn(context.Background())
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, 3, device.calls)
}

// flakyWeb fails the first n calls, then succeeds.
type flakyWeb struct {
	failures int
	payload  []byte
	calls    int
}

func (f *flakyWeb) Execute(context.Context, string, map[string]interface{}) ([]byte, error) {
	f.calls++

	if f.calls <= f.failures {
		return nil, errors.New("connection reset")
	}

	return f.payload, nil
}
