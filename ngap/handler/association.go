// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/logger"
	ngap_message "github.com/omec-project/gnbngap/ngap/message"
	"github.com/omec-project/gnbngap/ngap/procedure"
	"github.com/omec-project/gnbngap/util"
)

// ngSetupProc connects to the AMF and runs NG Setup.
// A failed run tears the association down and arms the reconnect timer.
type ngSetupProc struct {
	gnb   *context.GnbContext
	cause context.NgSetupFailureCause
}

func (p *ngSetupProc) Name() string {
	return "NG Setup"
}

func (p *ngSetupProc) Init() procedure.Outcome {
	gnb := p.gnb
	amf := gnb.Amf
	p.cause = context.NgSetupCauseNone

	if amf.SetupComplete() {
		logger.NgapLog.Infoln("NG Setup already completed")
		return procedure.Success
	}

	if err := amf.Transition(context.AssociationConnecting); err != nil {
		logger.NgapLog.Errorf("cannot start AMF connection: %+v", err)
		p.cause = context.NgSetupCauseProtocol
		return procedure.Error
	}
	gnb.Metrics.SetAssociationState(int(amf.State()))

	logger.NgapLog.Infof("connecting to AMF %s", amf.AmfAddress)
	gnb.Wg.Add(1)
	go dialAmf(gnb, gnb.Dialer, amf.AmfAddress, gnb.NgSetupProc.Instance())
	return procedure.Yield
}

func (p *ngSetupProc) React(result context.NgSetupResult) procedure.Outcome {
	if result.Conn != nil {
		return p.sendNgSetupRequest(result.Conn)
	}
	p.gnb.Amf.StopNgSetupTimer()
	if result.Success {
		return procedure.Success
	}
	p.cause = result.Cause
	return procedure.Error
}

// sendNgSetupRequest takes over the freshly dialled association
func (p *ngSetupProc) sendNgSetupRequest(conn context.NgapConn) procedure.Outcome {
	gnb := p.gnb
	amf := gnb.Amf

	if amf.State() != context.AssociationConnecting {
		logger.NgapLog.Warnf("SCTP association ready in state %s, dropped", amf.State())
		if err := conn.Close(); err != nil {
			logger.NgapLog.Warnf("close SCTP connection: %+v", err)
		}
		p.cause = context.NgSetupCauseProtocol
		return procedure.Error
	}
	amf.Conn = conn
	logger.NgapLog.Infof("SCTP association with AMF %s established", conn.RemoteAddr())

	if err := ngap_message.SendNGSetupRequest(gnb); err != nil {
		p.cause = context.NgSetupCauseTransport
		return procedure.Error
	}

	amf.NgSetupTimer = gnb.Scheduler.After(gnb.NgSetupTimeout,
		context.NewNgSetupTimeoutEvt(gnb.NgSetupProc.Instance()))

	if err := amf.Transition(context.AssociationAwaitingSetupResponse); err != nil {
		logger.NgapLog.Errorf("NG Setup: %+v", err)
		p.cause = context.NgSetupCauseProtocol
		return procedure.Error
	}
	gnb.Metrics.SetAssociationState(int(amf.State()))
	return procedure.Yield
}

func (p *ngSetupProc) Then(result procedure.Outcome) {
	gnb := p.gnb
	amf := gnb.Amf

	if result == procedure.Success {
		if !amf.SetupComplete() {
			if err := amf.Transition(context.AssociationConnected); err != nil {
				logger.NgapLog.Errorf("NG Setup: %+v", err)
				return
			}
		}
		amf.TimeToWait = 0
		gnb.Metrics.SetAssociationState(int(amf.State()))
		gnb.Metrics.RecordNgSetup("success")
		logger.NgapLog.Infof("NG Setup with AMF %s[%s] completed", amf.AmfAddress, amf.Name())
		return
	}

	logger.NgapLog.Warnf("NG Setup with AMF %s failed: %s", amf.AmfAddress, p.cause)
	gnb.Metrics.RecordNgSetup(p.cause.String())
	Teardown(gnb, p.cause.String())
	scheduleReconnect(gnb)
}

// InitAssociation creates the NG Setup procedure. It must run before the event loop starts.
func InitAssociation(gnb *context.GnbContext) {
	gnb.NgSetupProc = procedure.New[context.NgSetupResult](&ngSetupProc{gnb: gnb})
}

// StartAmfConnection launches NG Setup unless a run is already in progress
func StartAmfConnection(gnb *context.GnbContext) bool {
	gnb.Amf.StopAmfConnectTimer()
	if gnb.NgSetupProc.IsBusy() {
		logger.NgapLog.Warnln("NG Setup already in progress")
		return false
	}
	return gnb.NgSetupProc.Launch()
}

func scheduleReconnect(gnb *context.GnbContext) {
	amf := gnb.Amf
	wait := gnb.AmfReconnectPeriod
	if amf.TimeToWait > 0 {
		wait = amf.TimeToWait
		amf.TimeToWait = 0
	}
	logger.NgapLog.Infof("reconnect to AMF %s in %s", amf.AmfAddress, wait)
	amf.StopAmfConnectTimer()
	amf.AmfConnectTimer = gnb.Scheduler.After(wait, context.NewAmfConnectTimerEvt())
}

// Teardown closes the AMF transport and releases every UE context.
// The RRC layer sees each UE go away as if the AMF had released it.
func Teardown(gnb *context.GnbContext, reason string) {
	amf := gnb.Amf
	logger.NgapLog.Warnf("tear down AMF association %s: %s", amf.AmfAddress, reason)

	amf.StopTimers()
	if amf.Conn != nil {
		if err := amf.Conn.Close(); err != nil {
			logger.NgapLog.Warnf("close SCTP connection: %+v", err)
		}
		amf.Conn = nil
	}

	for _, ranUe := range gnb.UePool.Ues() {
		releaseUeContext(gnb, ranUe)
	}
	gnb.UePool.Clear()
	gnb.Metrics.SetUeContexts(0)

	if amf.State() != context.AssociationDisconnected {
		if err := amf.Transition(context.AssociationDisconnected); err != nil {
			logger.NgapLog.Errorf("teardown: %+v", err)
		}
	}
	amf.ResetPeerInfo()
	gnb.Metrics.SetAssociationState(int(amf.State()))
}

// releaseUeContext notifies RRC and marks the UE released, the caller erases it
func releaseUeContext(gnb *context.GnbContext, ranUe *context.RanUe) {
	if ranUe.State != context.UeStateReleased {
		if err := ranUe.Transition(context.UeStateReleased); err != nil {
			logger.NgapLog.Debugf("release: %+v", err)
		}
	}
	if gnb.Rrc != nil {
		gnb.Rrc.ReleaseUe(ranUe.Rnti)
	}
}

// HandleSctpConnLost reacts to the loss of the AMF association
func HandleSctpConnLost(gnb *context.GnbContext, conn context.NgapConn, err error) {
	amf := gnb.Amf
	if conn != nil && amf.Conn != conn {
		logger.NgapLog.Debugln("connection lost on a stale SCTP association, ignored")
		return
	}
	logger.NgapLog.Errorf("SCTP association with AMF %s lost: %+v", amf.AmfAddress, err)

	if gnb.NgSetupProc.IsBusy() {
		gnb.NgSetupProc.Trigger(context.NgSetupResult{Cause: context.NgSetupCauseTransport})
		return
	}
	if amf.State() == context.AssociationDisconnected && amf.Conn == nil {
		return
	}
	Teardown(gnb, "SCTP connection lost")
	scheduleReconnect(gnb)
}

// dialAmf runs outside the event loop, the result is queued as an event
func dialAmf(gnb *context.GnbContext, dialer context.Dialer, remote context.AmfSctpAddresses, instance uint64) {
	defer util.RecoverWithLog(logger.NgapLog)
	defer gnb.Wg.Done()

	conn, err := dialer.Dial(remote)
	if gnb.SendEvent(context.NewAmfConnectResultEvt(instance, conn, err)) {
		return
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// handleAmfConnectResult feeds the dial outcome to the NG Setup run that asked for it
func handleAmfConnectResult(gnb *context.GnbContext, evt *context.AmfConnectResultEvt) {
	result := context.NgSetupResult{Conn: evt.Conn}
	if evt.Err != nil || evt.Conn == nil {
		logger.NgapLog.Errorf("connect to AMF %s failed: %+v", gnb.Amf.AmfAddress, evt.Err)
		result = context.NgSetupResult{Cause: context.NgSetupCauseTransport}
	}
	if gnb.NgSetupProc.TriggerInstance(evt.Instance, result) {
		return
	}
	if evt.Conn != nil {
		logger.NgapLog.Debugf("close SCTP association of stale NG Setup run %d", evt.Instance)
		if err := evt.Conn.Close(); err != nil {
			logger.NgapLog.Warnf("close SCTP connection: %+v", err)
		}
	}
}

func handleNgSetupTimeout(gnb *context.GnbContext, instance uint64) {
	logger.NgapLog.Debugf("NG Setup timer expired for instance %d", instance)
	gnb.NgSetupProc.TriggerInstance(instance, context.NgSetupResult{Cause: context.NgSetupCauseTimeout})
}
