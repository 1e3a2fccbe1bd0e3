// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package ngap

import (
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/gnbngap/ngap/handler"
	ngap_message "github.com/omec-project/gnbngap/ngap/message"
	"github.com/omec-project/gnbngap/util"
	"github.com/omec-project/ngap/ngapType"
)

// Dispatch decodes one packet received from the AMF and hands it to its handler
func Dispatch(gnb *context.GnbContext, pkt context.NgapReceivePacket) {
	defer util.RecoverWithLog(logger.NgapLog)

	if pkt.Conn != nil && gnb.Amf.Conn != pkt.Conn {
		logger.NgapLog.Warnf("drop packet from stale SCTP association %s", pkt.Conn.RemoteAddr())
		return
	}

	pdu, err := gnb.Codec.Decode(pkt.Buf)
	if err != nil {
		logger.NgapLog.Errorf("NGAP decode error: %+v", err)
		gnb.Metrics.RecordDecodeError()
		return
	}

	name := ngap_message.MessageName(pdu)
	logger.NgapLog.Debugf("received %s on stream %d", name, pkt.StreamId)
	gnb.Metrics.RecordMessageReceived(name)

	if !gnb.IsAmfConnected() && !allowedBeforeSetup(pdu) {
		logger.NgapLog.Warnf("AMF association is %s, discard %s", gnb.Amf.State(), name)
		return
	}

	switch pdu.Present {
	case ngapType.NGAPPDUPresentInitiatingMessage:
		initiatingMessage := pdu.InitiatingMessage
		if initiatingMessage == nil {
			logger.NgapLog.Errorln("InitiatingMessage is nil")
			return
		}

		switch initiatingMessage.ProcedureCode.Value {
		case ngapType.ProcedureCodeNGReset:
			handler.HandleNGReset(gnb, pdu)
		case ngapType.ProcedureCodeInitialContextSetup:
			handler.HandleInitialContextSetupRequest(gnb, pdu)
		case ngapType.ProcedureCodeUEContextRelease:
			handler.HandleUEContextReleaseCommand(gnb, pdu)
		case ngapType.ProcedureCodeDownlinkNASTransport:
			handler.HandleDownlinkNASTransport(gnb, pdu)
		case ngapType.ProcedureCodeErrorIndication:
			handler.HandleErrorIndication(gnb, pdu)
		default:
			logger.NgapLog.Warnf("not implemented NGAP message (initiatingMessage), procedureCode:%d]",
				initiatingMessage.ProcedureCode.Value)
		}
	case ngapType.NGAPPDUPresentSuccessfulOutcome:
		successfulOutcome := pdu.SuccessfulOutcome
		if successfulOutcome == nil {
			logger.NgapLog.Errorln("successful Outcome is nil")
			return
		}

		switch successfulOutcome.ProcedureCode.Value {
		case ngapType.ProcedureCodeNGSetup:
			handler.HandleNGSetupResponse(gnb, pdu)
		case ngapType.ProcedureCodeNGReset:
			handler.HandleNGResetAcknowledge(gnb, pdu)
		default:
			logger.NgapLog.Warnf("not implemented NGAP message (successfulOutcome), procedureCode:%d]",
				successfulOutcome.ProcedureCode.Value)
		}
	case ngapType.NGAPPDUPresentUnsuccessfulOutcome:
		unsuccessfulOutcome := pdu.UnsuccessfulOutcome
		if unsuccessfulOutcome == nil {
			logger.NgapLog.Errorln("unsuccessful Outcome is nil")
			return
		}

		switch unsuccessfulOutcome.ProcedureCode.Value {
		case ngapType.ProcedureCodeNGSetup:
			handler.HandleNGSetupFailure(gnb, pdu)
		default:
			logger.NgapLog.Warnf("not implemented NGAP message (unsuccessfulOutcome), procedureCode:%d]",
				unsuccessfulOutcome.ProcedureCode.Value)
		}
	default:
		logger.NgapLog.Warnf("invalid NGAP PDU present %d", pdu.Present)
	}
}

// allowedBeforeSetup lists what the AMF may send while NG Setup is not complete
func allowedBeforeSetup(pdu *ngapType.NGAPPDU) bool {
	switch pdu.Present {
	case ngapType.NGAPPDUPresentInitiatingMessage:
		if pdu.InitiatingMessage == nil {
			return false
		}
		code := pdu.InitiatingMessage.ProcedureCode.Value
		return code == ngapType.ProcedureCodeNGReset || code == ngapType.ProcedureCodeErrorIndication
	case ngapType.NGAPPDUPresentSuccessfulOutcome:
		return pdu.SuccessfulOutcome != nil && pdu.SuccessfulOutcome.ProcedureCode.Value == ngapType.ProcedureCodeNGSetup
	case ngapType.NGAPPDUPresentUnsuccessfulOutcome:
		return pdu.UnsuccessfulOutcome != nil &&
			pdu.UnsuccessfulOutcome.ProcedureCode.Value == ngapType.ProcedureCodeNGSetup
	}
	return false
}
