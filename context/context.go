// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"
	"sync"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/gnbngap/metrics"
	"github.com/omec-project/gnbngap/ngap/procedure"
	"github.com/omec-project/ngap/ngapType"
	"golang.org/x/time/rate"
)

const (
	DefaultNgSetupTimeout     = 5 * time.Second
	DefaultAmfReconnectPeriod = 10 * time.Second
	DefaultNumUeStreams       = 1
)

var gnbContext = GnbContext{}

// GnbContext is the state of the NGAP engine. Apart from the RRC entry
// points below, it is only touched from the NGAP event loop.
type GnbContext struct {
	NfInfo           GnbNfInfo
	LocalSctpAddress string

	NgSetupTimeout     time.Duration
	AmfReconnectPeriod time.Duration

	// IEs derived from NfInfo once at start up
	GlobalRANNodeID ngapType.GlobalRANNodeID
	SupportedTAList ngapType.SupportedTAList
	Tai             ngapType.TAI
	NrCgi           ngapType.NRCGI

	Amf         *AmfAssociation
	UePool      *UserList
	NgSetupProc *procedure.Proc[NgSetupResult]

	NgapServer *NgapServer
	Codec      Codec
	Dialer     Dialer
	Scheduler  Scheduler
	Rrc        RrcInterface
	Metrics    *metrics.Metrics

	// nil means Error Indications are never suppressed
	ErrIndLimiter *rate.Limiter

	Ctx context.Context
	Wg  sync.WaitGroup
}

// NgSetupFailureCause explains why an AMF connection attempt ended badly
type NgSetupFailureCause int

const (
	NgSetupCauseNone NgSetupFailureCause = iota
	NgSetupCauseTimeout
	NgSetupCauseFailure
	NgSetupCauseTransport
	NgSetupCauseProtocol
)

func (c NgSetupFailureCause) String() string {
	switch c {
	case NgSetupCauseNone:
		return "none"
	case NgSetupCauseTimeout:
		return "timeout"
	case NgSetupCauseFailure:
		return "NG Setup Failure"
	case NgSetupCauseTransport:
		return "transport"
	case NgSetupCauseProtocol:
		return "protocol error"
	default:
		return "unknown"
	}
}

// NgSetupResult is the event consumed by the NG Setup procedure. Conn is
// set only when the SCTP dial has just succeeded.
type NgSetupResult struct {
	Success bool
	Cause   NgSetupFailureCause
	Conn    NgapConn
}

// GnbSelf returns the process wide context
func GnbSelf() *GnbContext {
	return &gnbContext
}

// IsAmfConnected may be called from any goroutine
func (gnb *GnbContext) IsAmfConnected() bool {
	return gnb.Amf != nil && gnb.Amf.SetupComplete()
}

// SendEvent queues evt for the NGAP event loop
func (gnb *GnbContext) SendEvent(evt NgapEvt) bool {
	if gnb.NgapServer == nil {
		logger.CtxLog.Warnf("NGAP server not running, drop %s event", evt.Type())
		return false
	}
	ctx := gnb.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case gnb.NgapServer.RcvEventCh <- evt:
		return true
	case <-ctx.Done():
		return false
	}
}

// InitialUE hands the first NAS message of a new RRC connection to NGAP
func (gnb *GnbContext) InitialUE(rnti uint16, gnbCcIdx uint32, cause aper.Enumerated, nasPdu []byte,
	fiveGSTmsi *FiveGSTmsi,
) bool {
	return gnb.SendEvent(NewInitialUEEvt(rnti, gnbCcIdx, cause, nasPdu, fiveGSTmsi))
}

func (gnb *GnbContext) WriteUplink(rnti uint16, nasPdu []byte) bool {
	return gnb.SendEvent(NewWriteUplinkNasEvt(rnti, nasPdu))
}

// UserRelease asks the AMF to release the UE context. It reports false
// when there is no AMF to ask.
func (gnb *GnbContext) UserRelease(rnti uint16, cause aper.Enumerated) bool {
	if !gnb.IsAmfConnected() {
		return false
	}
	return gnb.SendEvent(NewUserReleaseEvt(rnti, cause))
}

func (gnb *GnbContext) UeCtxtSetupComplete(rnti uint16) bool {
	return gnb.SendEvent(NewUeCtxtSetupCompleteEvt(rnti))
}

func (gnb *GnbContext) UserMod(oldRnti, newRnti uint16) bool {
	return gnb.SendEvent(NewUserModEvt(oldRnti, newRnti))
}

// UserExists blocks until the event loop has looked up rnti
func (gnb *GnbContext) UserExists(rnti uint16) bool {
	evt := NewUserExistsEvt(rnti)
	if !gnb.SendEvent(evt) {
		return false
	}
	ctx := gnb.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case exists := <-evt.Reply:
		return exists
	case <-ctx.Done():
		return false
	}
}
