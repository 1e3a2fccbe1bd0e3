// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/logger"
	ngap_message "github.com/omec-project/gnbngap/ngap/message"
	"github.com/omec-project/gnbngap/util"
	"github.com/omec-project/ngap/ngapConvert"
	"github.com/omec-project/ngap/ngapType"
)

func HandleNGSetupResponse(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle NG Setup Response")

	var amfName *ngapType.AMFName
	var servedGUAMIList *ngapType.ServedGUAMIList
	var relativeAMFCapacity *ngapType.RelativeAMFCapacity
	var plmnSupportList *ngapType.PLMNSupportList
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	successfulOutcome := message.SuccessfulOutcome
	if successfulOutcome == nil {
		logger.NgapLog.Errorln("successful Outcome is nil")
		return
	}

	ngSetupResponse := successfulOutcome.Value.NGSetupResponse
	if ngSetupResponse == nil {
		logger.NgapLog.Errorln("ngSetupResponse is nil")
		return
	}

	if !gnb.NgSetupProc.IsBusy() {
		logger.NgapLog.Warnln("unexpected NG Setup Response, no NG Setup in progress")
		return
	}

	for _, ie := range ngSetupResponse.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFName:
			logger.NgapLog.Debugln("decode IE AMFName")
			amfName = ie.Value.AMFName
		case ngapType.ProtocolIEIDServedGUAMIList:
			logger.NgapLog.Debugln("decode IE ServedGUAMIList")
			servedGUAMIList = ie.Value.ServedGUAMIList
		case ngapType.ProtocolIEIDRelativeAMFCapacity:
			logger.NgapLog.Debugln("decode IE RelativeAMFCapacity")
			relativeAMFCapacity = ie.Value.RelativeAMFCapacity
		case ngapType.ProtocolIEIDPLMNSupportList:
			logger.NgapLog.Debugln("decode IE PLMNSupportList")
			plmnSupportList = ie.Value.PLMNSupportList
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if amfName == nil {
		logger.NgapLog.Errorln("AMFName is missing")
		iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, buildCriticalityDiagnosticsIEItem(
			ngapType.CriticalityPresentReject, ngapType.ProtocolIEIDAMFName, ngapType.TypeOfErrorPresentMissing))
	}
	if servedGUAMIList == nil {
		logger.NgapLog.Errorln("ServedGUAMIList is missing")
		iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, buildCriticalityDiagnosticsIEItem(
			ngapType.CriticalityPresentReject, ngapType.ProtocolIEIDServedGUAMIList, ngapType.TypeOfErrorPresentMissing))
	}
	if plmnSupportList == nil {
		logger.NgapLog.Errorln("PLMNSupportList is missing")
		iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, buildCriticalityDiagnosticsIEItem(
			ngapType.CriticalityPresentReject, ngapType.ProtocolIEIDPLMNSupportList, ngapType.TypeOfErrorPresentMissing))
	}

	if len(iesCriticalityDiagnostics.List) != 0 {
		logger.NgapLog.Debugln("sending error indication to AMF, because some mandatory IEs were not included")
		sendMissingIEsErrorIndication(gnb, ngapType.ProcedureCodeNGSetup,
			ngapType.TriggeringMessagePresentSuccessfulOutcome, &iesCriticalityDiagnostics, nil, nil)
		gnb.NgSetupProc.Trigger(context.NgSetupResult{Cause: context.NgSetupCauseProtocol})
		return
	}

	amf := gnb.Amf
	amf.AMFName = amfName
	amf.ServedGUAMIList = servedGUAMIList
	amf.RelativeAMFCapacity = relativeAMFCapacity
	amf.PLMNSupportList = plmnSupportList

	if relativeAMFCapacity != nil {
		logger.NgapLog.Debugf("AMF relative capacity %d", relativeAMFCapacity.Value)
	}
	for _, item := range plmnSupportList.List {
		plmnId := ngapConvert.PlmnIdToModels(item.PLMNIdentity)
		logger.NgapLog.Infof("AMF supports PLMN %s-%s with %d slice(s)", plmnId.Mcc, plmnId.Mnc,
			len(item.SliceSupportList.List))
	}
	if !amf.SupportsPLMN(&gnb.Tai.PLMNIdentity) {
		logger.NgapLog.Warnf("AMF %s does not list the serving PLMN", amf.Name())
	}
	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}

	gnb.NgSetupProc.Trigger(context.NgSetupResult{Success: true})
}

func HandleNGSetupFailure(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle NG Setup Failure")

	var cause *ngapType.Cause
	var timeToWait *ngapType.TimeToWait
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	unsuccessfulOutcome := message.UnsuccessfulOutcome
	if unsuccessfulOutcome == nil {
		logger.NgapLog.Errorln("unsuccessful Message is nil")
		return
	}

	ngSetupFailure := unsuccessfulOutcome.Value.NGSetupFailure
	if ngSetupFailure == nil {
		logger.NgapLog.Errorln("NGSetupFailure is nil")
		return
	}

	if !gnb.NgSetupProc.IsBusy() {
		logger.NgapLog.Warnln("unexpected NG Setup Failure, no NG Setup in progress")
		return
	}

	for _, ie := range ngSetupFailure.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
		case ngapType.ProtocolIEIDTimeToWait:
			logger.NgapLog.Debugln("decode IE TimeToWait")
			timeToWait = ie.Value.TimeToWait
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if cause != nil {
		printAndGetCause(cause)
	} else {
		logger.NgapLog.Errorln("cause is missing")
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}

	if timeToWait != nil {
		if waitingTime := timeToWaitDuration(timeToWait.Value); waitingTime != 0 {
			logger.NgapLog.Infof("wait at least %s to reinitialize with AMF %s", waitingTime, gnb.Amf.AmfAddress)
			gnb.Amf.TimeToWait = waitingTime
		}
	}

	gnb.NgSetupProc.Trigger(context.NgSetupResult{Cause: context.NgSetupCauseFailure})
}

func timeToWaitDuration(value aper.Enumerated) time.Duration {
	var waitingTime int
	switch value {
	case ngapType.TimeToWaitPresentV1s:
		waitingTime = 1
	case ngapType.TimeToWaitPresentV2s:
		waitingTime = 2
	case ngapType.TimeToWaitPresentV5s:
		waitingTime = 5
	case ngapType.TimeToWaitPresentV10s:
		waitingTime = 10
	case ngapType.TimeToWaitPresentV20s:
		waitingTime = 20
	case ngapType.TimeToWaitPresentV60s:
		waitingTime = 60
	}
	return time.Duration(waitingTime) * time.Second
}

func HandleNGReset(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle NG Reset")

	var cause *ngapType.Cause
	var resetType *ngapType.ResetType

	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("InitiatingMessage is nil")
		return
	}

	nGReset := initiatingMessage.Value.NGReset
	if nGReset == nil {
		logger.NgapLog.Errorln("nGReset is nil")
		return
	}

	for _, ie := range nGReset.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
		case ngapType.ProtocolIEIDResetType:
			logger.NgapLog.Debugln("decode IE ResetType")
			resetType = ie.Value.ResetType
		}
	}

	if resetType == nil {
		logger.NgapLog.Errorln("ResetType is missing")
		iesCriticalityDiagnostics.List = append(iesCriticalityDiagnostics.List, buildCriticalityDiagnosticsIEItem(
			ngapType.CriticalityPresentReject, ngapType.ProtocolIEIDResetType, ngapType.TypeOfErrorPresentMissing))
	}

	if len(iesCriticalityDiagnostics.List) > 0 {
		sendMissingIEsErrorIndication(gnb, ngapType.ProcedureCodeNGReset,
			ngapType.TriggeringMessagePresentInitiatingMessage, &iesCriticalityDiagnostics, nil, nil)
		return
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	switch resetType.Present {
	case ngapType.ResetTypePresentNGInterface:
		logger.NgapLog.Debugln("ResetType Present: NG Interface")
		for _, ranUe := range gnb.UePool.Ues() {
			releaseUeContext(gnb, ranUe)
		}
		gnb.UePool.Clear()
		gnb.Metrics.SetUeContexts(0)
		if err := ngap_message.SendNGResetAcknowledge(gnb, nil); err != nil {
			logger.NgapLog.Errorf("send NG Reset Acknowledge: %+v", err)
		}
	case ngapType.ResetTypePresentPartOfNGInterface:
		logger.NgapLog.Debugln("ResetType Present: Part of NG Interface")

		partOfNGInterface := resetType.PartOfNGInterface
		if partOfNGInterface == nil {
			logger.NgapLog.Errorln("PartOfNGInterface is nil")
			return
		}

		for _, item := range partOfNGInterface.List {
			var ranUe *context.RanUe
			var ok bool
			if item.RANUENGAPID != nil {
				logger.NgapLog.Debugf("RanUeNgapID[%d]", item.RANUENGAPID.Value)
				ranUe, ok = gnb.UePool.FindByRanUeNgapId(item.RANUENGAPID.Value)
			}
			if !ok && item.AMFUENGAPID != nil {
				logger.NgapLog.Debugf("AmfUeNgapID[%d]", item.AMFUENGAPID.Value)
				ranUe, ok = gnb.UePool.FindByAmfUeNgapId(item.AMFUENGAPID.Value)
			}

			if !ok {
				logger.NgapLog.Warnln("cannot not find RanUE Context")
				continue
			}
			releaseUeContext(gnb, ranUe)
			if err := gnb.UePool.Erase(ranUe.RanUeNgapId); err != nil {
				logger.NgapLog.Errorf("remove RanUE context error: %+v", err)
			}
		}
		gnb.Metrics.SetUeContexts(gnb.UePool.Len())
		if err := ngap_message.SendNGResetAcknowledge(gnb, partOfNGInterface); err != nil {
			logger.NgapLog.Errorf("send NG Reset Acknowledge: %+v", err)
		}
	default:
		logger.NgapLog.Warnf("invalid ResetType[%d]", resetType.Present)
	}
}

func HandleNGResetAcknowledge(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle NG Reset Acknowledge")

	var uEAssociatedLogicalNGConnectionList *ngapType.UEAssociatedLogicalNGConnectionList
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	successfulOutcome := message.SuccessfulOutcome
	if successfulOutcome == nil {
		logger.NgapLog.Errorln("successfulOutcome is nil")
		return
	}

	nGResetAcknowledge := successfulOutcome.Value.NGResetAcknowledge
	if nGResetAcknowledge == nil {
		logger.NgapLog.Errorln("nGResetAcknowledge is nil")
		return
	}

	for _, ie := range nGResetAcknowledge.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDUEAssociatedLogicalNGConnectionList:
			logger.NgapLog.Debugln("decode IE UEAssociatedLogicalNGConnectionList")
			uEAssociatedLogicalNGConnectionList = ie.Value.UEAssociatedLogicalNGConnectionList
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
		}
	}

	if uEAssociatedLogicalNGConnectionList != nil {
		logger.NgapLog.Debugf("%d RanUE association(s) has been reset", len(uEAssociatedLogicalNGConnectionList.List))
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}
}

func HandleDownlinkNASTransport(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Downlink NAS Transport")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var oldAMF *ngapType.AMFName
	var nasPDU *ngapType.NASPDU
	var ueAggregateMaximumBitRate *ngapType.UEAggregateMaximumBitRate
	var allowedNSSAI *ngapType.AllowedNSSAI
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("initiating Message is nil")
		return
	}

	downlinkNASTransport := initiatingMessage.Value.DownlinkNASTransport
	if downlinkNASTransport == nil {
		logger.NgapLog.Errorln("DownlinkNASTransport is nil")
		return
	}

	for _, ie := range downlinkNASTransport.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
		case ngapType.ProtocolIEIDOldAMF:
			logger.NgapLog.Debugln("decode IE OldAMF")
			oldAMF = ie.Value.OldAMF
		case ngapType.ProtocolIEIDNASPDU:
			logger.NgapLog.Debugln("decode IE NASPDU")
			nasPDU = ie.Value.NASPDU
		case ngapType.ProtocolIEIDUEAggregateMaximumBitRate:
			logger.NgapLog.Debugln("decode IE UEAggregateMaximumBitRate")
			ueAggregateMaximumBitRate = ie.Value.UEAggregateMaximumBitRate
		case ngapType.ProtocolIEIDAllowedNSSAI:
			logger.NgapLog.Debugln("decode IE AllowedNSSAI")
			allowedNSSAI = ie.Value.AllowedNSSAI
		}
	}

	checkMandatoryIE(&iesCriticalityDiagnostics, amfUeNgapID != nil, ngapType.ProtocolIEIDAMFUENGAPID)
	checkMandatoryIE(&iesCriticalityDiagnostics, ranUeNgapID != nil, ngapType.ProtocolIEIDRANUENGAPID)
	checkMandatoryIE(&iesCriticalityDiagnostics, nasPDU != nil, ngapType.ProtocolIEIDNASPDU)

	if len(iesCriticalityDiagnostics.List) > 0 {
		sendMissingIEsErrorIndication(gnb, ngapType.ProcedureCodeDownlinkNASTransport,
			ngapType.TriggeringMessagePresentInitiatingMessage, &iesCriticalityDiagnostics, amfUeNgapID, ranUeNgapID)
		return
	}

	ranUe, ok := resolveUe(gnb, amfUeNgapID, ranUeNgapID)
	if !ok {
		return
	}

	if ranUe.ReleaseRequested() {
		logger.NgapLog.Warnf("%s is being released, drop downlink NAS", ranUe)
		return
	}

	if !bindAmfUeNgapId(gnb, ranUe, amfUeNgapID.Value) {
		return
	}

	if oldAMF != nil {
		logger.NgapLog.Debugf("old AMF: %s", oldAMF.Value)
	}

	// without an Initial Context Setup the serving AMF is the one we set up with
	if !ranUe.HasAmfHint {
		if guami := gnb.Amf.PrimaryGUAMI(); guami != nil {
			ranUe.SetAmfHint(util.AmfHintFromGUAMI(guami))
		}
	}

	if ueAggregateMaximumBitRate != nil {
		ranUe.Ambr = ueAggregateMaximumBitRate
	}

	if allowedNSSAI != nil {
		ranUe.AllowedNssai = allowedNSSAI
	}

	if gnb.Rrc != nil {
		gnb.Rrc.WriteDlInfo(ranUe.Rnti, nasPDU.Value)
	}
}

func HandleInitialContextSetupRequest(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Initial Context Setup Request")

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	var oldAMF *ngapType.AMFName
	var ueAggregateMaximumBitRate *ngapType.UEAggregateMaximumBitRate
	var guami *ngapType.GUAMI
	var allowedNSSAI *ngapType.AllowedNSSAI
	var ueSecurityCapabilities *ngapType.UESecurityCapabilities
	var securityKey *ngapType.SecurityKey
	var nasPDU *ngapType.NASPDU
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("Initiating Message is nil")
		return
	}

	initialContextSetupRequest := initiatingMessage.Value.InitialContextSetupRequest
	if initialContextSetupRequest == nil {
		logger.NgapLog.Errorln("InitialContextSetupRequest is nil")
		return
	}

	for _, ie := range initialContextSetupRequest.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			logger.NgapLog.Debugln("decode IE AMFUENGAPID")
			amfUeNgapID = ie.Value.AMFUENGAPID
		case ngapType.ProtocolIEIDRANUENGAPID:
			logger.NgapLog.Debugln("decode IE RANUENGAPID")
			ranUeNgapID = ie.Value.RANUENGAPID
		case ngapType.ProtocolIEIDOldAMF:
			logger.NgapLog.Debugln("decode IE OldAMF")
			oldAMF = ie.Value.OldAMF
		case ngapType.ProtocolIEIDUEAggregateMaximumBitRate:
			logger.NgapLog.Debugln("decode IE UEAggregateMaximumBitRate")
			ueAggregateMaximumBitRate = ie.Value.UEAggregateMaximumBitRate
		case ngapType.ProtocolIEIDGUAMI:
			logger.NgapLog.Debugln("decode IE GUAMI")
			guami = ie.Value.GUAMI
		case ngapType.ProtocolIEIDAllowedNSSAI:
			logger.NgapLog.Debugln("decode IE AllowedNSSAI")
			allowedNSSAI = ie.Value.AllowedNSSAI
		case ngapType.ProtocolIEIDUESecurityCapabilities:
			logger.NgapLog.Debugln("decode IE UESecurityCapabilities")
			ueSecurityCapabilities = ie.Value.UESecurityCapabilities
		case ngapType.ProtocolIEIDSecurityKey:
			logger.NgapLog.Debugln("decode IE SecurityKey")
			securityKey = ie.Value.SecurityKey
		case ngapType.ProtocolIEIDNASPDU:
			logger.NgapLog.Debugln("decode IE NAS PDU")
			nasPDU = ie.Value.NASPDU
		case ngapType.ProtocolIEIDPDUSessionResourceSetupListCxtReq:
			logger.NgapLog.Warnln("not Supported IE [PDUSessionResourceSetupListCxtReq]")
		case ngapType.ProtocolIEIDTraceActivation:
			logger.NgapLog.Warnln("not Supported IE [TraceActivation]")
		}
	}

	checkMandatoryIE(&iesCriticalityDiagnostics, amfUeNgapID != nil, ngapType.ProtocolIEIDAMFUENGAPID)
	checkMandatoryIE(&iesCriticalityDiagnostics, ranUeNgapID != nil, ngapType.ProtocolIEIDRANUENGAPID)
	checkMandatoryIE(&iesCriticalityDiagnostics, guami != nil, ngapType.ProtocolIEIDGUAMI)
	checkMandatoryIE(&iesCriticalityDiagnostics, allowedNSSAI != nil, ngapType.ProtocolIEIDAllowedNSSAI)
	checkMandatoryIE(&iesCriticalityDiagnostics, ueSecurityCapabilities != nil,
		ngapType.ProtocolIEIDUESecurityCapabilities)
	checkMandatoryIE(&iesCriticalityDiagnostics, securityKey != nil, ngapType.ProtocolIEIDSecurityKey)

	if len(iesCriticalityDiagnostics.List) > 0 {
		logger.NgapLog.Debugln("sending error indication to AMF, because some mandatory IEs were not included")
		sendMissingIEsErrorIndication(gnb, ngapType.ProcedureCodeInitialContextSetup,
			ngapType.TriggeringMessagePresentInitiatingMessage, &iesCriticalityDiagnostics, amfUeNgapID, ranUeNgapID)
		return
	}

	ranUe, ok := resolveUe(gnb, amfUeNgapID, ranUeNgapID)
	if !ok {
		return
	}

	if ranUe.ReleaseRequested() {
		logger.NgapLog.Warnf("%s is being released, ignore Initial Context Setup Request", ranUe)
		return
	}

	if !bindAmfUeNgapId(gnb, ranUe, amfUeNgapID.Value) {
		return
	}

	if oldAMF != nil {
		logger.NgapLog.Debugf("old AMF: %s", oldAMF.Value)
	}

	ranUe.Guami = guami
	ranUe.AllowedNssai = allowedNSSAI
	ranUe.SecurityCapabilities = ueSecurityCapabilities
	ranUe.SecurityKey = securityKey
	if ueAggregateMaximumBitRate != nil {
		ranUe.Ambr = ueAggregateMaximumBitRate
	}

	if !gnb.Amf.ServesGUAMI(guami) {
		logger.NgapLog.Warnf("GUAMI of %s is not one served by AMF %s", ranUe, gnb.Amf.Name())
	}
	ranUe.SetAmfHint(util.AmfHintFromGUAMI(guami))

	ranUe.CtxtSetupPending = true
	if nasPDU != nil && gnb.Rrc != nil {
		gnb.Rrc.WriteDlInfo(ranUe.Rnti, nasPDU.Value)
	}
}

func HandleUEContextReleaseCommand(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle UE Context Release Command")

	var ueNgapIDs *ngapType.UENGAPIDs
	var cause *ngapType.Cause
	var iesCriticalityDiagnostics ngapType.CriticalityDiagnosticsIEList

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}

	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("initiating Message is nil")
		return
	}

	ueContextReleaseCommand := initiatingMessage.Value.UEContextReleaseCommand
	if ueContextReleaseCommand == nil {
		logger.NgapLog.Errorln("UEContextReleaseCommand is nil")
		return
	}

	for _, ie := range ueContextReleaseCommand.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDUENGAPIDs:
			logger.NgapLog.Debugln("decode IE UENGAPIDs")
			ueNgapIDs = ie.Value.UENGAPIDs
		case ngapType.ProtocolIEIDCause:
			logger.NgapLog.Debugln("decode IE Cause")
			cause = ie.Value.Cause
		}
	}

	checkMandatoryIE(&iesCriticalityDiagnostics, ueNgapIDs != nil, ngapType.ProtocolIEIDUENGAPIDs)

	if len(iesCriticalityDiagnostics.List) > 0 {
		sendMissingIEsErrorIndication(gnb, ngapType.ProcedureCodeUEContextRelease,
			ngapType.TriggeringMessagePresentInitiatingMessage, &iesCriticalityDiagnostics, nil, nil)
		return
	}

	var amfUeNgapID *ngapType.AMFUENGAPID
	var ranUeNgapID *ngapType.RANUENGAPID
	switch ueNgapIDs.Present {
	case ngapType.UENGAPIDsPresentUENGAPIDPair:
		if ueNgapIDs.UENGAPIDPair == nil {
			logger.NgapLog.Errorln("UENGAPIDPair is nil")
			return
		}
		amfUeNgapID = &ueNgapIDs.UENGAPIDPair.AMFUENGAPID
		ranUeNgapID = &ueNgapIDs.UENGAPIDPair.RANUENGAPID
	case ngapType.UENGAPIDsPresentAMFUENGAPID:
		amfUeNgapID = ueNgapIDs.AMFUENGAPID
	default:
		logger.NgapLog.Errorf("invalid UENGAPIDs[%d]", ueNgapIDs.Present)
		return
	}

	ranUe, ok := resolveUe(gnb, amfUeNgapID, ranUeNgapID)
	if !ok {
		return
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	// the command may come before any downlink bound the AMF UE NGAP ID,
	// the Release Complete still has to carry it
	if !ranUe.HasAmfUeNgapId() {
		if err := gnb.UePool.BindAmfUeNgapId(ranUe.RanUeNgapId, amfUeNgapID.Value); err != nil {
			logger.NgapLog.Warnf("release command for %s: %+v", ranUe, err)
		}
	}

	if ranUe.State != context.UeStateReleaseRequested {
		if err := ranUe.Transition(context.UeStateReleaseRequested); err != nil {
			logger.NgapLog.Debugf("release command: %+v", err)
		}
	}
	if gnb.Rrc != nil {
		gnb.Rrc.ReleaseUe(ranUe.Rnti)
	}

	if err := ngap_message.SendUEContextReleaseComplete(gnb, ranUe); err != nil {
		logger.NgapLog.Errorf("send UE Context Release Complete for %s: %+v", ranUe, err)
	}

	if err := ranUe.Transition(context.UeStateReleased); err != nil {
		logger.NgapLog.Debugf("release command: %+v", err)
	}
	eraseUe(gnb, ranUe)
}

func HandleErrorIndication(gnb *context.GnbContext, message *ngapType.NGAPPDU) {
	logger.NgapLog.Infoln("handle Error Indication")

	var aMFUENGAPID *ngapType.AMFUENGAPID
	var rANUENGAPID *ngapType.RANUENGAPID
	var cause *ngapType.Cause
	var criticalityDiagnostics *ngapType.CriticalityDiagnostics

	if message == nil {
		logger.NgapLog.Errorln("NGAP Message is nil")
		return
	}
	initiatingMessage := message.InitiatingMessage
	if initiatingMessage == nil {
		logger.NgapLog.Errorln("InitiatingMessage is nil")
		return
	}
	errorIndication := initiatingMessage.Value.ErrorIndication
	if errorIndication == nil {
		logger.NgapLog.Errorln("ErrorIndication is nil")
		return
	}

	for _, ie := range errorIndication.ProtocolIEs.List {
		switch ie.Id.Value {
		case ngapType.ProtocolIEIDAMFUENGAPID:
			aMFUENGAPID = ie.Value.AMFUENGAPID
			logger.NgapLog.Debugln("decode IE AmfUeNgapID")
		case ngapType.ProtocolIEIDRANUENGAPID:
			rANUENGAPID = ie.Value.RANUENGAPID
			logger.NgapLog.Debugln("decode IE RanUeNgapID")
		case ngapType.ProtocolIEIDCause:
			cause = ie.Value.Cause
			logger.NgapLog.Debugln("decode IE Cause")
		case ngapType.ProtocolIEIDCriticalityDiagnostics:
			criticalityDiagnostics = ie.Value.CriticalityDiagnostics
			logger.NgapLog.Debugln("decode IE CriticalityDiagnostics")
		}
	}

	if cause == nil && criticalityDiagnostics == nil {
		logger.NgapLog.Errorln("both Cause IE and CriticalityDiagnostics IE are nil, should have at least one")
		return
	}

	if aMFUENGAPID != nil {
		logger.NgapLog.Warnf("AMF UE NGAP ID is defined, value = %d", aMFUENGAPID.Value)
	}
	if rANUENGAPID != nil {
		logger.NgapLog.Warnf("RAN UE NGAP ID is defined, value = %d", rANUENGAPID.Value)
	}

	if cause != nil {
		printAndGetCause(cause)
	}

	if criticalityDiagnostics != nil {
		printCriticalityDiagnostics(criticalityDiagnostics)
	}
}

// resolveUe finds the UE addressed by a received message. When it cannot,
// an Error Indication carrying the received ids is sent back.
func resolveUe(gnb *context.GnbContext, amfUeNgapID *ngapType.AMFUENGAPID, ranUeNgapID *ngapType.RANUENGAPID) (
	*context.RanUe, bool,
) {
	var amfId, ranId *int64
	if amfUeNgapID != nil {
		amfId = &amfUeNgapID.Value
	}
	if ranUeNgapID != nil {
		ranId = &ranUeNgapID.Value
	}

	ranUe, err := gnb.UePool.ResolveUe(ranId, amfId)
	if err == nil {
		return ranUe, true
	}

	logger.NgapLog.Warnf("cannot resolve UE context: %+v", err)
	causeValue := ngapType.CauseRadioNetworkPresentUnknownLocalUENGAPID
	if !errors.Is(err, context.ErrUeNotFound) {
		causeValue = ngapType.CauseRadioNetworkPresentInconsistentRemoteUENGAPID
	}
	cause := ngap_message.BuildCause(ngapType.CausePresentRadioNetwork, causeValue)
	if err := ngap_message.SendErrorIndication(gnb, amfId, ranId, cause, nil); err != nil {
		logger.NgapLog.Errorf("send Error Indication: %+v", err)
	}
	return nil, false
}

// bindAmfUeNgapId records the AMF UE NGAP ID on its first appearance and
// makes the UE active
func bindAmfUeNgapId(gnb *context.GnbContext, ranUe *context.RanUe, amfUeNgapId int64) bool {
	if !ranUe.HasAmfUeNgapId() {
		logger.NgapLog.Debugf("create new logical UE-associated NG-connection for %s", ranUe)
	}
	if err := gnb.UePool.BindAmfUeNgapId(ranUe.RanUeNgapId, amfUeNgapId); err != nil {
		logger.NgapLog.Warnf("bind AMF UE NGAP ID: %+v", err)
		cause := ngap_message.BuildCause(ngapType.CausePresentRadioNetwork,
			ngapType.CauseRadioNetworkPresentInconsistentRemoteUENGAPID)
		if err := ngap_message.SendErrorIndication(gnb, &amfUeNgapId, &ranUe.RanUeNgapId, cause, nil); err != nil {
			logger.NgapLog.Errorf("send Error Indication: %+v", err)
		}
		return false
	}
	if ranUe.State == context.UeStateAwaitingPeerId {
		if err := ranUe.Transition(context.UeStateActive); err != nil {
			logger.NgapLog.Errorf("%+v", err)
			return false
		}
		logger.NgapLog.Infof("%s is active", ranUe)
	}
	return true
}

func eraseUe(gnb *context.GnbContext, ranUe *context.RanUe) {
	if err := gnb.UePool.Erase(ranUe.RanUeNgapId); err != nil {
		logger.NgapLog.Warnf("erase %s: %+v", ranUe, err)
	}
	gnb.Metrics.SetUeContexts(gnb.UePool.Len())
}

func checkMandatoryIE(list *ngapType.CriticalityDiagnosticsIEList, present bool, ieID int64) {
	if present {
		return
	}
	logger.NgapLog.Errorf("mandatory IE %d is missing", ieID)
	list.List = append(list.List, buildCriticalityDiagnosticsIEItem(
		ngapType.CriticalityPresentReject, ieID, ngapType.TypeOfErrorPresentMissing))
}

func sendMissingIEsErrorIndication(
	gnb *context.GnbContext,
	procedureCode int64,
	triggeringMessage aper.Enumerated,
	iesCriticalityDiagnostics *ngapType.CriticalityDiagnosticsIEList,
	amfUeNgapID *ngapType.AMFUENGAPID,
	ranUeNgapID *ngapType.RANUENGAPID,
) {
	var amfId, ranId *int64
	if amfUeNgapID != nil {
		amfId = &amfUeNgapID.Value
	}
	if ranUeNgapID != nil {
		ranId = &ranUeNgapID.Value
	}

	cause := ngap_message.BuildCause(ngapType.CausePresentProtocol, ngapType.CauseProtocolPresentAbstractSyntaxErrorReject)
	procedureCriticality := ngapType.CriticalityPresentReject
	criticalityDiagnostics := buildCriticalityDiagnostics(
		&procedureCode, &triggeringMessage, &procedureCriticality, iesCriticalityDiagnostics)

	if err := ngap_message.SendErrorIndication(gnb, amfId, ranId, cause, &criticalityDiagnostics); err != nil {
		logger.NgapLog.Errorf("send Error Indication: %+v", err)
	}
}

func buildCriticalityDiagnostics(
	procedureCode *int64,
	triggeringMessage *aper.Enumerated,
	procedureCriticality *aper.Enumerated,
	iesCriticalityDiagnostics *ngapType.CriticalityDiagnosticsIEList) (
	criticalityDiagnostics ngapType.CriticalityDiagnostics,
) {
	if procedureCode != nil {
		criticalityDiagnostics.ProcedureCode = new(ngapType.ProcedureCode)
		criticalityDiagnostics.ProcedureCode.Value = *procedureCode
	}

	if triggeringMessage != nil {
		criticalityDiagnostics.TriggeringMessage = new(ngapType.TriggeringMessage)
		criticalityDiagnostics.TriggeringMessage.Value = *triggeringMessage
	}

	if procedureCriticality != nil {
		criticalityDiagnostics.ProcedureCriticality = new(ngapType.Criticality)
		criticalityDiagnostics.ProcedureCriticality.Value = *procedureCriticality
	}

	if iesCriticalityDiagnostics != nil {
		criticalityDiagnostics.IEsCriticalityDiagnostics = iesCriticalityDiagnostics
	}

	return criticalityDiagnostics
}

func buildCriticalityDiagnosticsIEItem(ieCriticality aper.Enumerated, ieID int64, typeOfErr aper.Enumerated) (
	item ngapType.CriticalityDiagnosticsIEItem,
) {
	item = ngapType.CriticalityDiagnosticsIEItem{
		IECriticality: ngapType.Criticality{
			Value: ieCriticality,
		},
		IEID: ngapType.ProtocolIEID{
			Value: ieID,
		},
		TypeOfError: ngapType.TypeOfError{
			Value: typeOfErr,
		},
	}

	return item
}

func printAndGetCause(cause *ngapType.Cause) (present int, value aper.Enumerated) {
	present = cause.Present
	switch cause.Present {
	case ngapType.CausePresentRadioNetwork:
		logger.NgapLog.Warnf("cause RadioNetwork[%d]", cause.RadioNetwork.Value)
		value = cause.RadioNetwork.Value
	case ngapType.CausePresentTransport:
		logger.NgapLog.Warnf("cause Transport[%d]", cause.Transport.Value)
		value = cause.Transport.Value
	case ngapType.CausePresentProtocol:
		logger.NgapLog.Warnf("cause Protocol[%d]", cause.Protocol.Value)
		value = cause.Protocol.Value
	case ngapType.CausePresentNas:
		logger.NgapLog.Warnf("cause Nas[%d]", cause.Nas.Value)
		value = cause.Nas.Value
	case ngapType.CausePresentMisc:
		logger.NgapLog.Warnf("cause Misc[%d]", cause.Misc.Value)
		value = cause.Misc.Value
	default:
		logger.NgapLog.Errorf("invalid Cause group[%d]", cause.Present)
	}
	return
}

func printCriticalityDiagnostics(criticalityDiagnostics *ngapType.CriticalityDiagnostics) {
	if criticalityDiagnostics == nil {
		return
	}
	iesCriticalityDiagnostics := criticalityDiagnostics.IEsCriticalityDiagnostics
	if iesCriticalityDiagnostics == nil {
		logger.NgapLog.Warnln("IEsCriticalityDiagnostics is nil")
		return
	}
	for index, item := range iesCriticalityDiagnostics.List {
		logger.NgapLog.Warnf("criticality IE item %d:", index+1)
		logger.NgapLog.Warnf("IE ID: %d", item.IEID.Value)

		switch item.IECriticality.Value {
		case ngapType.CriticalityPresentReject:
			logger.NgapLog.Warnln("IE Criticality: Reject")
		case ngapType.CriticalityPresentIgnore:
			logger.NgapLog.Warnln("IE Criticality: Ignore")
		case ngapType.CriticalityPresentNotify:
			logger.NgapLog.Warnln("IE Criticality: Notify")
		}

		switch item.TypeOfError.Value {
		case ngapType.TypeOfErrorPresentNotUnderstood:
			logger.NgapLog.Warnln("type of error: Not Understood")
		case ngapType.TypeOfErrorPresentMissing:
			logger.NgapLog.Warnln("type of error: Missing")
		}
	}
}
