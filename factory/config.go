// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"time"

	"github.com/omec-project/gnbngap/context"
	utilLogger "github.com/omec-project/util/logger"
)

const (
	GNBNGAP_EXPECTED_CONFIG_VERSION = "1.0.0"
	GNBNGAP_DEFAULT_METRICS_ADDRESS = "0.0.0.0:9089"
)

type Config struct {
	Info          *Info          `yaml:"info"`
	Configuration *Configuration `yaml:"configuration"`
	Logger        *Logger        `yaml:"logger"`
}

type Info struct {
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type Configuration struct {
	GnbInfo             context.GnbNfInfo        `yaml:"gnbInformation"`
	AmfSctpAddress      context.AmfSctpAddresses `yaml:"amfSctpAddress"`
	LocalSctpAddress    string                   `yaml:"localSctpAddress,omitempty"`
	NgSetupTimeout      time.Duration            `yaml:"ngSetupTimeout,omitempty"`
	AmfReconnectPeriod  time.Duration            `yaml:"amfReconnectPeriod,omitempty"`
	NumUeStreams        uint16                   `yaml:"numUeStreams,omitempty"`
	ErrorIndicationRate float64                  `yaml:"errorIndicationRate,omitempty"` // per second, 0 disables the limit
	Metrics             Metrics                  `yaml:"metrics"`
}

type Metrics struct {
	Enable      bool   `yaml:"enable"`
	BindAddress string `yaml:"bindAddress,omitempty"` // e.g. 0.0.0.0:9089
}

type Logger struct {
	GNBNGAP *utilLogger.LogSetting `yaml:"GNBNGAP,omitempty"`
	NGAP    *utilLogger.LogSetting `yaml:"NGAP,omitempty"`
	Aper    *utilLogger.LogSetting `yaml:"Aper,omitempty"`
	Util    *utilLogger.LogSetting `yaml:"Util,omitempty"`
}

// Address falls back to the default exporter address when none is configured
func (m Metrics) Address() string {
	if m.BindAddress == "" {
		return GNBNGAP_DEFAULT_METRICS_ADDRESS
	}
	return m.BindAddress
}

func (c *Config) getVersion() string {
	if c.Info != nil && c.Info.Version != "" {
		return c.Info.Version
	}
	return ""
}
