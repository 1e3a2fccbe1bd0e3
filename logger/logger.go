// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log         *zap.Logger
	AppLog      *zap.SugaredLogger
	InitLog     *zap.SugaredLogger
	CfgLog      *zap.SugaredLogger
	CtxLog      *zap.SugaredLogger
	NgapLog     *zap.SugaredLogger
	SctpLog     *zap.SugaredLogger
	ProcLog     *zap.SugaredLogger
	MetricsLog  *zap.SugaredLogger
	UtilLog     *zap.SugaredLogger
	atomicLevel zap.AtomicLevel
)

func init() {
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	encCfg := &config.EncoderConfig
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.LevelKey = "level"
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = "caller"
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.MessageKey = "message"
	encCfg.StacktraceKey = ""

	var err error
	log, err = config.Build()
	if err != nil {
		panic(err)
	}

	AppLog = log.Sugar().With("component", "GNB-NGAP", "category", "App")
	InitLog = log.Sugar().With("component", "GNB-NGAP", "category", "Init")
	CfgLog = log.Sugar().With("component", "GNB-NGAP", "category", "CFG")
	CtxLog = log.Sugar().With("component", "GNB-NGAP", "category", "Context")
	NgapLog = log.Sugar().With("component", "GNB-NGAP", "category", "NGAP")
	SctpLog = log.Sugar().With("component", "GNB-NGAP", "category", "SCTP")
	ProcLog = log.Sugar().With("component", "GNB-NGAP", "category", "Proc")
	MetricsLog = log.Sugar().With("component", "GNB-NGAP", "category", "Metrics")
	UtilLog = log.Sugar().With("component", "GNB-NGAP", "category", "Util")
}

// SetLogLevel sets the log level (panic|fatal|error|warn|info|debug)
func SetLogLevel(level zapcore.Level) {
	InitLog.Infoln("set log level:", level)
	atomicLevel.SetLevel(level)
}
