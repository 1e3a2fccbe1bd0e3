// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"strings"

	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/factory"
	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/ngap/ngapType"
	"golang.org/x/time/rate"
)

const (
	ngap_sctp_port    int    = 38412
	requiredTacLength int    = 6
	requiredSdLength  int    = 6
	minGnbIdLength    uint8  = 22
	maxGnbIdLength    uint8  = 32
	maxNrCellId       uint64 = 1<<36 - 1
	errIndBurst       int    = 5
)

// InitGnbContext fills gnb from the configuration. The NG Setup procedure
// and the runtime collaborators (codec, dialer, scheduler) are wired by the
// NGAP service.
func InitGnbContext(gnb *context.GnbContext, gnbCfg *factory.Configuration) bool {
	if gnbCfg == nil {
		logger.CtxLog.Errorln("no gNB configuration found")
		return false
	}

	// gNB NF information
	gnb.NfInfo = gnbCfg.GnbInfo
	if !formatGnbInfo(&gnb.NfInfo) {
		return false
	}
	if !buildNgapIEs(gnb) {
		return false
	}

	// AMF SCTP address
	amfAddress := gnbCfg.AmfSctpAddress
	if len(amfAddress.IpAddresses) == 0 {
		logger.CtxLog.Errorln("no AMF specified")
		return false
	}
	if amfAddress.Port == 0 {
		amfAddress.Port = ngap_sctp_port
	}
	gnb.Amf = context.NewAmfAssociation(amfAddress)
	gnb.LocalSctpAddress = gnbCfg.LocalSctpAddress

	// Timers
	gnb.NgSetupTimeout = gnbCfg.NgSetupTimeout
	if gnb.NgSetupTimeout <= 0 {
		gnb.NgSetupTimeout = context.DefaultNgSetupTimeout
		logger.CtxLog.Infof("NG Setup timeout not set, use %s", gnb.NgSetupTimeout)
	}
	gnb.AmfReconnectPeriod = gnbCfg.AmfReconnectPeriod
	if gnb.AmfReconnectPeriod <= 0 {
		gnb.AmfReconnectPeriod = context.DefaultAmfReconnectPeriod
		logger.CtxLog.Infof("AMF reconnect period not set, use %s", gnb.AmfReconnectPeriod)
	}

	numUeStreams := gnbCfg.NumUeStreams
	if numUeStreams == 0 {
		numUeStreams = context.DefaultNumUeStreams
	}
	gnb.UePool = context.NewUserList(numUeStreams)

	if gnbCfg.ErrorIndicationRate > 0 {
		gnb.ErrIndLimiter = rate.NewLimiter(rate.Limit(gnbCfg.ErrorIndicationRate), errIndBurst)
	}

	return true
}

func formatGnbInfo(info *context.GnbNfInfo) bool {
	if info.GnbIdLength < minGnbIdLength || info.GnbIdLength > maxGnbIdLength {
		logger.CtxLog.Errorf("gNB ID length %d not in [%d, %d]", info.GnbIdLength, minGnbIdLength, maxGnbIdLength)
		return false
	}
	if info.GnbIdLength < 32 && uint64(info.GnbId) >= 1<<info.GnbIdLength {
		logger.CtxLog.Errorf("gNB ID %d does not fit in %d bits", info.GnbId, info.GnbIdLength)
		return false
	}
	if info.CellId > maxNrCellId {
		logger.CtxLog.Errorf("NR cell identity %d does not fit in 36 bits", info.CellId)
		return false
	}

	// Checking Tac
	tacLength := len(info.Tac)
	if tacLength == 0 {
		logger.CtxLog.Errorln("tac is mandatory")
		return false
	}
	switch {
	case tacLength < requiredTacLength:
		logger.CtxLog.Debugf("detected configuration Tac length < %d", requiredTacLength)
		info.Tac = strings.Repeat("0", requiredTacLength-tacLength) + info.Tac
		logger.CtxLog.Debugf("changed to %s", info.Tac)
	case tacLength > requiredTacLength:
		logger.CtxLog.Errorf("detected configuration Tac length > %d", requiredTacLength)
		return false
	}

	// Checking Sst and Sd
	for sliceListIndex := range info.SliceSupportList {
		sliceSupportItem := &info.SliceSupportList[sliceListIndex]
		if sliceSupportItem.Snssai.Sst == 0 {
			logger.CtxLog.Errorln("sst is mandatory")
			return false
		}

		sdLength := len(sliceSupportItem.Snssai.Sd)
		if sdLength == 0 {
			logger.CtxLog.Infoln("Snssai does not include sd")
			continue
		}
		if sdLength > requiredSdLength {
			logger.CtxLog.Errorf("detected configuration sd length > %d", requiredSdLength)
			return false
		}
		if sdLength < requiredSdLength {
			logger.CtxLog.Debugf("detected configuration sd length < %d", requiredSdLength)
			sliceSupportItem.Snssai.Sd = strings.Repeat("0", requiredSdLength-sdLength) + sliceSupportItem.Snssai.Sd
			logger.CtxLog.Debugf("change to %s", sliceSupportItem.Snssai.Sd)
		}
	}

	return true
}

// buildNgapIEs derives the static IEs carried by NG Setup and UE messages
func buildNgapIEs(gnb *context.GnbContext) bool {
	info := &gnb.NfInfo
	plmnId := PlmnIdToNgap(info.PlmnId)
	if len(plmnId.Value) != 3 {
		logger.CtxLog.Errorf("invalid PLMN ID %+v", info.PlmnId)
		return false
	}

	gnb.GlobalRANNodeID = ngapType.GlobalRANNodeID{
		Present: ngapType.GlobalRANNodeIDPresentGlobalGNBID,
		GlobalGNBID: &ngapType.GlobalGNBID{
			PLMNIdentity: plmnId,
			GNBID: ngapType.GNBID{
				Present: ngapType.GNBIDPresentGNBID,
				GNBID:   GnbIdToNgap(info.GnbId, info.GnbIdLength),
			},
		},
	}

	tac, err := TacToNgap(info.Tac)
	if err != nil {
		logger.CtxLog.Errorf("invalid TAC: %+v", err)
		return false
	}

	broadcastPlmn := ngapType.BroadcastPLMNItem{PLMNIdentity: plmnId}
	for _, item := range info.SliceSupportList {
		snssai, err := SnssaiToNgap(item.Snssai)
		if err != nil {
			logger.CtxLog.Errorf("invalid S-NSSAI: %+v", err)
			return false
		}
		broadcastPlmn.TAISliceSupportList.List = append(broadcastPlmn.TAISliceSupportList.List,
			ngapType.SliceSupportItem{SNSSAI: snssai})
	}
	if len(broadcastPlmn.TAISliceSupportList.List) == 0 {
		logger.CtxLog.Errorln("at least one supported slice is required")
		return false
	}

	gnb.SupportedTAList = ngapType.SupportedTAList{
		List: []ngapType.SupportedTAItem{{
			TAC: tac,
			BroadcastPLMNList: ngapType.BroadcastPLMNList{
				List: []ngapType.BroadcastPLMNItem{broadcastPlmn},
			},
		}},
	}
	gnb.Tai = ngapType.TAI{PLMNIdentity: plmnId, TAC: tac}
	gnb.NrCgi = ngapType.NRCGI{PLMNIdentity: plmnId, NRCellIdentity: NrCellIdentityToNgap(info.CellId)}
	return true
}
