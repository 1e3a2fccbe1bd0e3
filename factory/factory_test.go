// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
info:
  version: 1.0.0
  description: gNB NGAP configuration
configuration:
  gnbInformation:
    gnbId: 411
    gnbIdLength: 22
    name: gnb-1
    plmnId:
      mcc: "208"
      mnc: "93"
    tac: "000001"
    cellId: 6733
    sliceSupportList:
      - snssai:
          sst: 1
          sd: "010203"
  amfSctpAddress:
    ipList:
      - 10.0.0.5
    port: 38412
  localSctpAddress: 10.0.0.1
  ngSetupTimeout: 3s
  amfReconnectPeriod: 15s
  numUeStreams: 4
  errorIndicationRate: 5
  metrics:
    enable: true
    bindAddress: 0.0.0.0:9089
logger:
  GNBNGAP:
    debugLevel: debug
  NGAP:
    debugLevel: info
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gnbngapcfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitConfigFactory(t *testing.T) {
	require.NoError(t, InitConfigFactory(writeConfig(t, sampleConfig)))
	require.NoError(t, CheckConfigVersion())

	cfg := GnbConfig.Configuration
	require.NotNil(t, cfg)
	assert.Equal(t, uint32(411), cfg.GnbInfo.GnbId)
	assert.Equal(t, uint8(22), cfg.GnbInfo.GnbIdLength)
	assert.Equal(t, "gnb-1", cfg.GnbInfo.RanNodeName)
	assert.Equal(t, "208", cfg.GnbInfo.PlmnId.Mcc)
	assert.Equal(t, "93", cfg.GnbInfo.PlmnId.Mnc)
	assert.Equal(t, uint64(6733), cfg.GnbInfo.CellId)
	require.Len(t, cfg.GnbInfo.SliceSupportList, 1)
	assert.Equal(t, "010203", cfg.GnbInfo.SliceSupportList[0].Snssai.Sd)
	assert.Equal(t, []string{"10.0.0.5"}, cfg.AmfSctpAddress.IpAddresses)
	assert.Equal(t, 3*time.Second, cfg.NgSetupTimeout)
	assert.Equal(t, 15*time.Second, cfg.AmfReconnectPeriod)
	assert.Equal(t, uint16(4), cfg.NumUeStreams)
	assert.True(t, cfg.Metrics.Enable)

	require.NotNil(t, GnbConfig.Logger)
	require.NotNil(t, GnbConfig.Logger.GNBNGAP)
	assert.Equal(t, "debug", GnbConfig.Logger.GNBNGAP.DebugLevel)
	assert.Nil(t, GnbConfig.Logger.Aper)
}

func TestCheckConfigVersionMismatch(t *testing.T) {
	content := "info:\n  version: 0.9.0\n"
	require.NoError(t, InitConfigFactory(writeConfig(t, content)))
	assert.Error(t, CheckConfigVersion())
}

func TestInitConfigFactoryMissingFile(t *testing.T) {
	assert.Error(t, InitConfigFactory(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestInitConfigFactoryMalformed(t *testing.T) {
	assert.Error(t, InitConfigFactory(writeConfig(t, "configuration: [unterminated")))
}

func TestMetricsAddressDefault(t *testing.T) {
	assert.Equal(t, GNBNGAP_DEFAULT_METRICS_ADDRESS, Metrics{Enable: true}.Address())
	assert.Equal(t, "127.0.0.1:9100", Metrics{BindAddress: "127.0.0.1:9100"}.Address())
}
