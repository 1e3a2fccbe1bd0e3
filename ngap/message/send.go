// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"fmt"

	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/ngap/ngapType"
)

// SendToAmf encodes pdu and writes it on the given SCTP stream of the AMF association
func SendToAmf(gnb *context.GnbContext, pdu *ngapType.NGAPPDU, streamId uint16) error {
	amf := gnb.Amf
	if amf == nil || amf.Conn == nil {
		logger.NgapLog.Errorln("AMF association has no transport")
		return context.ErrAssociationDown
	}

	name := MessageName(pdu)
	pkt, err := gnb.Codec.Encode(pdu)
	if err != nil {
		logger.NgapLog.Errorf("encode %s failed: %+v", name, err)
		return fmt.Errorf("encode %s: %w", name, err)
	}

	if err := amf.Conn.Send(pkt, streamId); err != nil {
		logger.NgapLog.Errorf("write %s to SCTP socket failed: %+v", name, err)
		return err
	}
	logger.NgapLog.Debugf("wrote %s (%d bytes) on stream %d", name, len(pkt), streamId)
	gnb.Metrics.RecordMessageSent(name)
	return nil
}

// sendUeAssociated refuses to send while NG Setup has not completed
func sendUeAssociated(gnb *context.GnbContext, ranUe *context.RanUe, pdu *ngapType.NGAPPDU) error {
	if !gnb.IsAmfConnected() {
		logger.NgapLog.Warnf("drop %s for %s: AMF association is not up", MessageName(pdu), ranUe)
		return context.ErrAssociationDown
	}
	return SendToAmf(gnb, pdu, ranUe.StreamId)
}

func SendNGSetupRequest(gnb *context.GnbContext) error {
	logger.NgapLog.Infoln("send NG Setup Request")
	return SendToAmf(gnb, BuildNGSetupRequest(gnb), context.NonUeStreamId)
}

func SendNGResetAcknowledge(
	gnb *context.GnbContext,
	partOfNGInterface *ngapType.UEAssociatedLogicalNGConnectionList,
) error {
	logger.NgapLog.Infoln("send NG Reset Acknowledge")
	return SendToAmf(gnb, BuildNGResetAcknowledge(partOfNGInterface), context.NonUeStreamId)
}

func SendInitialUEMessage(gnb *context.GnbContext, ranUe *context.RanUe, nasPdu []byte) error {
	logger.NgapLog.Infof("send Initial UE Message for %s", ranUe)
	return sendUeAssociated(gnb, ranUe, BuildInitialUEMessage(gnb, ranUe, nasPdu))
}

func SendUplinkNASTransport(gnb *context.GnbContext, ranUe *context.RanUe, nasPdu []byte) error {
	logger.NgapLog.Infof("send Uplink NAS Transport for %s", ranUe)
	if len(nasPdu) == 0 {
		return fmt.Errorf("empty NAS PDU for %s", ranUe)
	}
	return sendUeAssociated(gnb, ranUe, BuildUplinkNASTransport(gnb, ranUe, nasPdu))
}

func SendInitialContextSetupResponse(gnb *context.GnbContext, ranUe *context.RanUe) error {
	logger.NgapLog.Infof("send Initial Context Setup Response for %s", ranUe)
	return sendUeAssociated(gnb, ranUe, BuildInitialContextSetupResponse(ranUe))
}

func SendUEContextReleaseRequest(gnb *context.GnbContext, ranUe *context.RanUe, cause ngapType.Cause) error {
	logger.NgapLog.Infof("send UE Context Release Request for %s", ranUe)
	return sendUeAssociated(gnb, ranUe, BuildUEContextReleaseRequest(ranUe, cause))
}

func SendUEContextReleaseComplete(gnb *context.GnbContext, ranUe *context.RanUe) error {
	logger.NgapLog.Infof("send UE Context Release Complete for %s", ranUe)
	return sendUeAssociated(gnb, ranUe, BuildUEContextReleaseComplete(gnb, ranUe))
}

// SendErrorIndication is rate limited when an ErrIndLimiter is configured.
// It goes on the UE stream when a RAN UE NGAP ID is known, otherwise on the non-UE stream.
func SendErrorIndication(
	gnb *context.GnbContext,
	amfUeNgapId *int64,
	ranUeNgapId *int64,
	cause *ngapType.Cause,
	criticalityDiagnostics *ngapType.CriticalityDiagnostics,
) error {
	if gnb.ErrIndLimiter != nil && !gnb.ErrIndLimiter.Allow() {
		logger.NgapLog.Warnln("error indication suppressed by rate limit")
		gnb.Metrics.RecordErrorIndicationSuppressed()
		return nil
	}

	if cause == nil && criticalityDiagnostics == nil {
		logger.NgapLog.Errorln("both cause and criticality is nil. This message shall contain at least one of them")
	}
	logger.NgapLog.Infoln("send Error Indication")

	streamId := context.NonUeStreamId
	if ranUeNgapId != nil && gnb.UePool != nil {
		if ranUe, ok := gnb.UePool.FindByRanUeNgapId(*ranUeNgapId); ok {
			streamId = ranUe.StreamId
		}
	}
	return SendToAmf(gnb, BuildErrorIndication(amfUeNgapId, ranUeNgapId, cause, criticalityDiagnostics), streamId)
}
