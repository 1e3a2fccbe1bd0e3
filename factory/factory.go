// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"fmt"
	"os"

	"github.com/omec-project/gnbngap/logger"
	"gopkg.in/yaml.v2"
)

var GnbConfig Config

func InitConfigFactory(f string) error {
	content, err := os.ReadFile(f)
	if err != nil {
		return err
	}

	GnbConfig = Config{}
	if err = yaml.Unmarshal(content, &GnbConfig); err != nil {
		return fmt.Errorf("parse config %s: %w", f, err)
	}

	return nil
}

func CheckConfigVersion() error {
	currentVersion := GnbConfig.getVersion()

	if currentVersion != GNBNGAP_EXPECTED_CONFIG_VERSION {
		return fmt.Errorf("config version is [%s], but expected is [%s]",
			currentVersion, GNBNGAP_EXPECTED_CONFIG_VERSION)
	}

	logger.CfgLog.Infof("config version [%s]", currentVersion)

	return nil
}
