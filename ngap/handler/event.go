// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/logger"
	ngap_message "github.com/omec-project/gnbngap/ngap/message"
	"github.com/omec-project/ngap/ngapType"
)

func HandleEvent(gnb *context.GnbContext, ngapEvent context.NgapEvt) {
	logger.NgapLog.Debugf("NGAP event handle: %s", ngapEvent.Type())

	switch evt := ngapEvent.(type) {
	case *context.StartAmfConnectionEvt:
		StartAmfConnection(gnb)
	case *context.AmfConnectTimerEvt:
		gnb.Amf.AmfConnectTimer = nil
		StartAmfConnection(gnb)
	case *context.AmfConnectResultEvt:
		handleAmfConnectResult(gnb, evt)
	case *context.NgSetupTimeoutEvt:
		handleNgSetupTimeout(gnb, evt.Instance)
	case *context.SctpConnLostEvt:
		HandleSctpConnLost(gnb, evt.Conn, evt.Err)
	case *context.InitialUEEvt:
		HandleInitialUE(gnb, evt)
	case *context.WriteUplinkNasEvt:
		HandleWriteUplinkNas(gnb, evt)
	case *context.UserReleaseEvt:
		HandleUserRelease(gnb, evt)
	case *context.UeCtxtSetupCompleteEvt:
		HandleUeCtxtSetupComplete(gnb, evt)
	case *context.UserModEvt:
		HandleUserMod(gnb, evt)
	case *context.UserExistsEvt:
		_, ok := gnb.UePool.FindByRnti(evt.Rnti)
		evt.Reply <- ok
	default:
		logger.NgapLog.Errorf("undefined NGAP event type %s", ngapEvent.Type())
	}
}

func HandleInitialUE(gnb *context.GnbContext, evt *context.InitialUEEvt) {
	logger.NgapLog.Debugf("handle InitialUE Event for RNTI 0x%x", evt.Rnti)

	if !gnb.IsAmfConnected() {
		logger.NgapLog.Warnf("RNTI 0x%x: %+v", evt.Rnti, context.ErrAssociationDown)
		return
	}

	ranUe, err := gnb.UePool.Register(evt.Rnti, evt.GnbCcIdx)
	if err != nil {
		logger.NgapLog.Errorf("register RNTI 0x%x: %+v", evt.Rnti, err)
		return
	}
	ranUe.RrcEstablishmentCause = evt.Cause
	ranUe.SetFiveGSTmsi(evt.FiveGSTmsi)
	gnb.Metrics.SetUeContexts(gnb.UePool.Len())

	if err := ngap_message.SendInitialUEMessage(gnb, ranUe, evt.NasPdu); err != nil {
		logger.NgapLog.Errorf("send Initial UE Message for %s: %+v", ranUe, err)
		eraseUe(gnb, ranUe)
		return
	}
	if err := ranUe.Transition(context.UeStateAwaitingPeerId); err != nil {
		logger.NgapLog.Errorf("%+v", err)
	}
}

func HandleWriteUplinkNas(gnb *context.GnbContext, evt *context.WriteUplinkNasEvt) {
	logger.NgapLog.Debugf("handle WriteUplinkNas Event for RNTI 0x%x", evt.Rnti)

	ranUe, ok := gnb.UePool.FindByRnti(evt.Rnti)
	if !ok {
		logger.NgapLog.Warnf("no UE context for RNTI 0x%x", evt.Rnti)
		return
	}
	if ranUe.State != context.UeStateActive {
		logger.NgapLog.Warnf("%s not active, drop uplink NAS", ranUe)
		return
	}

	if err := ngap_message.SendUplinkNASTransport(gnb, ranUe, evt.NasPdu); err != nil {
		logger.NgapLog.Errorf("send Uplink NAS Transport for %s: %+v", ranUe, err)
	}
}

func HandleUserRelease(gnb *context.GnbContext, evt *context.UserReleaseEvt) {
	logger.NgapLog.Debugf("handle UserRelease Event for RNTI 0x%x", evt.Rnti)

	ranUe, ok := gnb.UePool.FindByRnti(evt.Rnti)
	if !ok {
		logger.NgapLog.Warnf("no UE context for RNTI 0x%x", evt.Rnti)
		return
	}
	if ranUe.ReleaseRequested() {
		logger.NgapLog.Debugf("release of %s already requested", ranUe)
		return
	}

	// without an AMF UE NGAP ID the AMF cannot be asked, the context is dropped here
	if !ranUe.HasAmfUeNgapId() {
		logger.NgapLog.Infof("%s has no AMF UE NGAP ID, release locally", ranUe)
		releaseUeContext(gnb, ranUe)
		eraseUe(gnb, ranUe)
		return
	}

	cause := ngap_message.BuildCause(ngapType.CausePresentRadioNetwork, evt.Cause)
	if err := ngap_message.SendUEContextReleaseRequest(gnb, ranUe, *cause); err != nil {
		logger.NgapLog.Errorf("send UE Context Release Request for %s: %+v", ranUe, err)
		return
	}
	ranUe.ReleaseCause = cause
	if err := ranUe.Transition(context.UeStateReleaseRequested); err != nil {
		logger.NgapLog.Errorf("%+v", err)
	}
}

func HandleUeCtxtSetupComplete(gnb *context.GnbContext, evt *context.UeCtxtSetupCompleteEvt) {
	logger.NgapLog.Debugf("handle UeCtxtSetupComplete Event for RNTI 0x%x", evt.Rnti)

	ranUe, ok := gnb.UePool.FindByRnti(evt.Rnti)
	if !ok {
		logger.NgapLog.Warnf("no UE context for RNTI 0x%x", evt.Rnti)
		return
	}
	if !ranUe.CtxtSetupPending {
		logger.NgapLog.Warnf("%s has no pending Initial Context Setup", ranUe)
		return
	}
	if ranUe.ReleaseRequested() {
		logger.NgapLog.Debugf("%s is being released, skip Initial Context Setup Response", ranUe)
		return
	}

	if err := ngap_message.SendInitialContextSetupResponse(gnb, ranUe); err != nil {
		logger.NgapLog.Errorf("send Initial Context Setup Response for %s: %+v", ranUe, err)
		return
	}
	ranUe.CtxtSetupPending = false
	ranUe.CtxtSetupComplete = true
}

func HandleUserMod(gnb *context.GnbContext, evt *context.UserModEvt) {
	logger.NgapLog.Debugf("handle UserMod Event RNTI 0x%x -> 0x%x", evt.OldRnti, evt.NewRnti)

	if err := gnb.UePool.ChangeRnti(evt.OldRnti, evt.NewRnti); err != nil {
		logger.NgapLog.Warnf("change RNTI: %+v", err)
	}
}
