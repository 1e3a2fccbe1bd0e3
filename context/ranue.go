// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2021 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"fmt"
	"slices"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/ngap/ngapType"
)

const AmfUeNgapIdUnspecified int64 = -1

// UeState tracks a UE context from registration until it is erased
type UeState int

const (
	UeStateInit UeState = iota
	UeStateAwaitingPeerId
	UeStateActive
	UeStateReleaseRequested
	UeStateReleased
)

func (s UeState) String() string {
	switch s {
	case UeStateInit:
		return "Init"
	case UeStateAwaitingPeerId:
		return "AwaitingPeerId"
	case UeStateActive:
		return "Active"
	case UeStateReleaseRequested:
		return "ReleaseRequested"
	case UeStateReleased:
		return "Released"
	default:
		return fmt.Sprintf("UeState(%d)", int(s))
	}
}

var ueTransitions = map[UeState][]UeState{
	UeStateInit:             {UeStateAwaitingPeerId, UeStateReleased},
	UeStateAwaitingPeerId:   {UeStateActive, UeStateReleaseRequested, UeStateReleased},
	UeStateActive:           {UeStateReleaseRequested, UeStateReleased},
	UeStateReleaseRequested: {UeStateReleased},
}

// RanUe is the per-UE NGAP context, keyed by RNTI, RAN UE NGAP ID and,
// once the AMF answers, AMF UE NGAP ID
type RanUe struct {
	// UE identity
	Rnti        uint16
	RanUeNgapId int64
	AmfUeNgapId int64

	GnbCcIdx      uint32
	InitTimestamp time.Time
	StreamId      uint16

	// AMF hint, learnt from the S-TMSI or from the AMF itself
	HasAmfHint  bool
	AmfRegionId uint8
	AmfSetId    uint16
	AmfPointer  uint8

	RrcEstablishmentCause aper.Enumerated
	FiveGSTmsi            *FiveGSTmsi

	State             UeState
	CtxtSetupComplete bool
	// Initial Context Setup Request applied, response waits for the radio layer
	CtxtSetupPending bool
	ReleaseCause     *ngapType.Cause

	// Initial context received from the AMF
	Guami                *ngapType.GUAMI
	Ambr                 *ngapType.UEAggregateMaximumBitRate
	AllowedNssai         *ngapType.AllowedNSSAI
	SecurityCapabilities *ngapType.UESecurityCapabilities
	SecurityKey          *ngapType.SecurityKey
}

func newRanUe(rnti uint16, ranUeNgapId int64, gnbCcIdx uint32, streamId uint16) *RanUe {
	return &RanUe{
		Rnti:          rnti,
		RanUeNgapId:   ranUeNgapId,
		AmfUeNgapId:   AmfUeNgapIdUnspecified,
		GnbCcIdx:      gnbCcIdx,
		InitTimestamp: time.Now(),
		StreamId:      streamId,
		State:         UeStateInit,
	}
}

// Transition moves the UE to the given state if the edge is legal
func (ranUe *RanUe) Transition(to UeState) error {
	if !slices.Contains(ueTransitions[ranUe.State], to) {
		return fmt.Errorf("UE[%d] %s -> %s: %w", ranUe.RanUeNgapId, ranUe.State, to, ErrInvalidTransition)
	}
	ranUe.State = to
	return nil
}

func (ranUe *RanUe) HasAmfUeNgapId() bool {
	return ranUe.AmfUeNgapId != AmfUeNgapIdUnspecified
}

// ReleaseRequested reports whether the UE is on its way out
func (ranUe *RanUe) ReleaseRequested() bool {
	return ranUe.State == UeStateReleaseRequested || ranUe.State == UeStateReleased
}

// SetAmfHint records the AMF that serves this UE
func (ranUe *RanUe) SetAmfHint(regionId uint8, setId uint16, pointer uint8) {
	ranUe.HasAmfHint = true
	ranUe.AmfRegionId = regionId
	ranUe.AmfSetId = setId
	ranUe.AmfPointer = pointer
}

// SetFiveGSTmsi keeps the S-TMSI and derives a partial AMF hint from it
func (ranUe *RanUe) SetFiveGSTmsi(sTmsi *FiveGSTmsi) {
	if sTmsi == nil {
		return
	}
	ranUe.FiveGSTmsi = sTmsi
	ranUe.HasAmfHint = true
	ranUe.AmfSetId = sTmsi.AmfSetId
	ranUe.AmfPointer = sTmsi.AmfPointer
}

func (ranUe *RanUe) String() string {
	return fmt.Sprintf("UE[rnti=0x%x ranUeNgapId=%d amfUeNgapId=%d state=%s]",
		ranUe.Rnti, ranUe.RanUeNgapId, ranUe.AmfUeNgapId, ranUe.State)
}
