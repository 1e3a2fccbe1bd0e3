// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"fmt"

	"github.com/omec-project/aper"
	"github.com/omec-project/ngap/ngapType"
)

// RRC establishment cause values, TS 38.413 9.3.1.111
const (
	EstablishmentCauseEmergency          aper.Enumerated = 0
	EstablishmentCauseHighPriorityAccess aper.Enumerated = 1
	EstablishmentCauseMT_Access          aper.Enumerated = 2
	EstablishmentCauseMO_Signalling      aper.Enumerated = 3
	EstablishmentCauseMO_Data            aper.Enumerated = 4
	EstablishmentCauseMO_VoiceCall       aper.Enumerated = 5
	EstablishmentCauseMO_VideoCall       aper.Enumerated = 6
	EstablishmentCauseMO_SMS             aper.Enumerated = 7
	EstablishmentCauseMPS_PriorityAccess aper.Enumerated = 8
	EstablishmentCauseMCS_PriorityAccess aper.Enumerated = 9
	EstablishmentCauseNotAvailable       aper.Enumerated = 10
)

var procedureNames = map[int64]string{
	ngapType.ProcedureCodeNGSetup:                  "NGSetup",
	ngapType.ProcedureCodeNGReset:                  "NGReset",
	ngapType.ProcedureCodeErrorIndication:          "ErrorIndication",
	ngapType.ProcedureCodeInitialUEMessage:         "InitialUEMessage",
	ngapType.ProcedureCodeUplinkNASTransport:       "UplinkNASTransport",
	ngapType.ProcedureCodeDownlinkNASTransport:     "DownlinkNASTransport",
	ngapType.ProcedureCodeInitialContextSetup:      "InitialContextSetup",
	ngapType.ProcedureCodeUEContextRelease:         "UEContextRelease",
	ngapType.ProcedureCodeUEContextReleaseRequest:  "UEContextReleaseRequest",
	ngapType.ProcedureCodeUEContextModification:    "UEContextModification",
	ngapType.ProcedureCodePaging:                   "Paging",
	ngapType.ProcedureCodeAMFConfigurationUpdate:   "AMFConfigurationUpdate",
	ngapType.ProcedureCodeAMFStatusIndication:      "AMFStatusIndication",
	ngapType.ProcedureCodeRANConfigurationUpdate:   "RANConfigurationUpdate",
	ngapType.ProcedureCodeNASNonDeliveryIndication: "NASNonDeliveryIndication",
	ngapType.ProcedureCodeRerouteNASRequest:        "RerouteNASRequest",
}

// ProcedureName names an NGAP procedure code for logs and metrics
func ProcedureName(code int64) string {
	if name, ok := procedureNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Procedure(%d)", code)
}

// MessageName names a PDU by procedure and message class, e.g. NGSetupResponse
func MessageName(pdu *ngapType.NGAPPDU) string {
	if pdu == nil {
		return "Unknown"
	}
	switch pdu.Present {
	case ngapType.NGAPPDUPresentInitiatingMessage:
		if pdu.InitiatingMessage == nil {
			return "Unknown"
		}
		return initiatingName(pdu.InitiatingMessage.ProcedureCode.Value)
	case ngapType.NGAPPDUPresentSuccessfulOutcome:
		if pdu.SuccessfulOutcome == nil {
			return "Unknown"
		}
		return outcomeName(pdu.SuccessfulOutcome.ProcedureCode.Value, true)
	case ngapType.NGAPPDUPresentUnsuccessfulOutcome:
		if pdu.UnsuccessfulOutcome == nil {
			return "Unknown"
		}
		return outcomeName(pdu.UnsuccessfulOutcome.ProcedureCode.Value, false)
	default:
		return "Unknown"
	}
}

func initiatingName(code int64) string {
	switch code {
	case ngapType.ProcedureCodeNGSetup, ngapType.ProcedureCodeInitialContextSetup,
		ngapType.ProcedureCodeUEContextModification, ngapType.ProcedureCodeAMFConfigurationUpdate,
		ngapType.ProcedureCodeRANConfigurationUpdate:
		return ProcedureName(code) + "Request"
	case ngapType.ProcedureCodeUEContextRelease:
		return "UEContextReleaseCommand"
	default:
		return ProcedureName(code)
	}
}

func outcomeName(code int64, successful bool) string {
	switch code {
	case ngapType.ProcedureCodeNGReset:
		return "NGResetAcknowledge"
	case ngapType.ProcedureCodeUEContextRelease:
		return "UEContextReleaseComplete"
	case ngapType.ProcedureCodeAMFConfigurationUpdate, ngapType.ProcedureCodeRANConfigurationUpdate:
		if successful {
			return ProcedureName(code) + "Acknowledge"
		}
		return ProcedureName(code) + "Failure"
	}
	if successful {
		return ProcedureName(code) + "Response"
	}
	return ProcedureName(code) + "Failure"
}
