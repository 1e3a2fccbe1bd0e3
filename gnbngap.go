// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/gnbngap/service"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var GNBNGAP = &service.GNBNGAP{}

var appLog *zap.SugaredLogger

func init() {
	appLog = logger.AppLog
}

func main() {
	app := &cli.Command{
		Name:   "gnbngap",
		Usage:  "--cfg gnb-ngap configuration file",
		Action: action,
		Flags:  GNBNGAP.GetCliCmd(),
	}
	appLog.Infoln(app.Name)
	if err := app.Run(context.Background(), os.Args); err != nil {
		appLog.Errorf("gNB NGAP run Error: %v", err)
	}
}

func action(ctx context.Context, c *cli.Command) error {
	if err := GNBNGAP.Initialize(c); err != nil {
		logger.CfgLog.Errorf("%+v", err)
		return fmt.Errorf("failed to initialize")
	}

	GNBNGAP.Start()

	return nil
}
