// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	aperLogger "github.com/omec-project/aper/logger"
	gnbContext "github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/factory"
	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/gnbngap/metrics"
	ngapService "github.com/omec-project/gnbngap/ngap/service"
	"github.com/omec-project/gnbngap/util"
	ngapLogger "github.com/omec-project/ngap/logger"
	utilLogger "github.com/omec-project/util/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const shutdownGracePeriod = 2 * time.Second

// GNBNGAP main struct. Rrc is the radio layer fed by the NGAP engine, a
// logging stand-in is used when it is left nil.
type GNBNGAP struct {
	Rrc gnbContext.RrcInterface
}

// Config holds configuration file path
type Config struct {
	cfg string
}

var config Config

var gnbNgapCli = []cli.Flag{
	&cli.StringFlag{
		Name:     "cfg",
		Usage:    "gnb-ngap config file",
		Required: true,
	},
}

func (*GNBNGAP) GetCliCmd() (flags []cli.Flag) {
	return gnbNgapCli
}

// Initialize loads config and sets log levels
func (g *GNBNGAP) Initialize(c *cli.Command) error {
	config = Config{cfg: c.String("cfg")}
	absPath, err := filepath.Abs(config.cfg)
	if err != nil {
		logger.CfgLog.Errorln(err)
		return err
	}
	if err := factory.InitConfigFactory(absPath); err != nil {
		return err
	}
	if err := factory.CheckConfigVersion(); err != nil {
		return err
	}
	g.setLogLevel()
	return nil
}

// setLogLevel configures log levels for all modules
func (g *GNBNGAP) setLogLevel() {
	cfgLogger := factory.GnbConfig.Logger
	if cfgLogger == nil {
		logger.InitLog.Warnln("gNB NGAP config without log level setting")
		return
	}
	setModuleLogLevel(cfgLogger.GNBNGAP, logger.InitLog, logger.SetLogLevel, "GNBNGAP")
	setModuleLogLevel(cfgLogger.NGAP, ngapLogger.NgapLog, ngapLogger.SetLogLevel, "NGAP")
	setModuleLogLevel(cfgLogger.Aper, aperLogger.AperLog, aperLogger.SetLogLevel, "Aper")
	setModuleLogLevel(cfgLogger.Util, utilLogger.UtilLog, utilLogger.SetLogLevel, "Util")
}

// setModuleLogLevel is a helper to reduce repetition in log level setup
func setModuleLogLevel(moduleCfg *utilLogger.LogSetting, logObj *zap.SugaredLogger, setLevel func(zapcore.Level), moduleName string) {
	if moduleCfg == nil || moduleCfg.DebugLevel == "" {
		logObj.Warnf("%s Log level not set. Default set to [info] level", moduleName)
		setLevel(zap.InfoLevel)
		return
	}
	level, err := zapcore.ParseLevel(moduleCfg.DebugLevel)
	if err != nil {
		logObj.Warnf("%s Log level [%s] is invalid, set to [info] level", moduleName, moduleCfg.DebugLevel)
		setLevel(zap.InfoLevel)
		return
	}
	logObj.Infof("%s Log level is set to [%s] level", moduleName, level)
	setLevel(level)
}

// Start brings up the NGAP engine and blocks until SIGINT or SIGTERM
func (g *GNBNGAP) Start() {
	logger.InitLog.Infoln("server started")
	var cancel context.CancelFunc
	gnb := gnbContext.GnbSelf()
	gnb.Ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	cfg := factory.GnbConfig.Configuration
	if !util.InitGnbContext(gnb, cfg) {
		logger.InitLog.Errorln("initializing context failed")
		return
	}

	registry := prometheus.NewRegistry()
	gnb.Metrics = metrics.NewMetricsWithRegistry(registry)
	if cfg.Metrics.Enable {
		metrics.NewServer(cfg.Metrics.Address(), registry).Run(gnb.Ctx, &gnb.Wg)
	}

	gnb.Rrc = g.Rrc
	if gnb.Rrc == nil {
		gnb.Rrc = loggingRrc{}
	}

	if err := ngapService.Run(gnb); err != nil {
		logger.InitLog.Errorf("start NGAP service failed: %+v", err)
		return
	}
	logger.InitLog.Infoln("NGAP service running")

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
	<-signalChannel
	// the NGAP event loop closes the AMF association on cancellation
	logger.InitLog.Infoln("stopping services")
	cancel()
	g.WaitRoutineStopped(gnb)
}

// WaitRoutineStopped waits for all goroutines and terminates
func (g *GNBNGAP) WaitRoutineStopped(gnb *gnbContext.GnbContext) {
	done := make(chan struct{})
	go func() {
		gnb.Wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownGracePeriod):
		logger.InitLog.Warnln("shutdown grace period elapsed")
	}
	os.Exit(0)
}

type loggingRrc struct{}

func (loggingRrc) WriteDlInfo(rnti uint16, nasPdu []byte) {
	logger.AppLog.Infof("downlink NAS for RNTI 0x%x, %d bytes", rnti, len(nasPdu))
}

func (loggingRrc) ReleaseUe(rnti uint16) {
	logger.AppLog.Infof("release RRC connection of RNTI 0x%x", rnti)
}
