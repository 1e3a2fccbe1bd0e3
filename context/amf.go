// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"bytes"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/ngap/ngapType"
)

// AssociationState is the lifecycle of the NG-C association with the AMF
type AssociationState int32

const (
	AssociationDisconnected AssociationState = iota
	AssociationConnecting
	AssociationAwaitingSetupResponse
	AssociationConnected
)

func (s AssociationState) String() string {
	switch s {
	case AssociationDisconnected:
		return "Disconnected"
	case AssociationConnecting:
		return "Connecting"
	case AssociationAwaitingSetupResponse:
		return "AwaitingSetupResponse"
	case AssociationConnected:
		return "Connected"
	default:
		return fmt.Sprintf("AssociationState(%d)", int32(s))
	}
}

var associationTransitions = map[AssociationState][]AssociationState{
	AssociationDisconnected:          {AssociationConnecting},
	AssociationConnecting:            {AssociationAwaitingSetupResponse, AssociationDisconnected},
	AssociationAwaitingSetupResponse: {AssociationConnected, AssociationDisconnected},
	AssociationConnected:             {AssociationDisconnected},
}

// AmfAssociation holds the SCTP association, the AMF information learnt in
// NG Setup and the timers guarding the connection procedure
type AmfAssociation struct {
	AmfAddress AmfSctpAddresses
	Conn       NgapConn

	// state is written by the event loop only, the atomic lets the radio
	// layer poll IsAmfConnected from its own goroutine
	state atomic.Int32

	AMFName             *ngapType.AMFName
	ServedGUAMIList     *ngapType.ServedGUAMIList
	RelativeAMFCapacity *ngapType.RelativeAMFCapacity
	PLMNSupportList     *ngapType.PLMNSupportList

	// TimeToWait from the last NG Setup Failure, zero if none was given
	TimeToWait time.Duration

	NgSetupTimer    Timer
	AmfConnectTimer Timer
}

func NewAmfAssociation(addr AmfSctpAddresses) *AmfAssociation {
	return &AmfAssociation{AmfAddress: addr}
}

func (amf *AmfAssociation) State() AssociationState {
	return AssociationState(amf.state.Load())
}

// Transition moves the association to the given state if the edge is legal
func (amf *AmfAssociation) Transition(to AssociationState) error {
	from := amf.State()
	if !slices.Contains(associationTransitions[from], to) {
		return fmt.Errorf("association %s -> %s: %w", from, to, ErrInvalidTransition)
	}
	amf.state.Store(int32(to))
	return nil
}

// SetupComplete is true exactly while the association is Connected
func (amf *AmfAssociation) SetupComplete() bool {
	return amf.State() == AssociationConnected
}

func (amf *AmfAssociation) StopNgSetupTimer() {
	if amf.NgSetupTimer != nil {
		amf.NgSetupTimer.Stop()
		amf.NgSetupTimer = nil
	}
}

func (amf *AmfAssociation) StopAmfConnectTimer() {
	if amf.AmfConnectTimer != nil {
		amf.AmfConnectTimer.Stop()
		amf.AmfConnectTimer = nil
	}
}

func (amf *AmfAssociation) StopTimers() {
	amf.StopNgSetupTimer()
	amf.StopAmfConnectTimer()
}

// ResetPeerInfo forgets everything learnt from the last NG Setup Response
func (amf *AmfAssociation) ResetPeerInfo() {
	amf.AMFName = nil
	amf.ServedGUAMIList = nil
	amf.RelativeAMFCapacity = nil
	amf.PLMNSupportList = nil
}

func (amf *AmfAssociation) Name() string {
	if amf.AMFName == nil {
		return ""
	}
	return amf.AMFName.Value
}

// PrimaryGUAMI returns the first GUAMI served by the AMF
func (amf *AmfAssociation) PrimaryGUAMI() *ngapType.GUAMI {
	if amf.ServedGUAMIList == nil || len(amf.ServedGUAMIList.List) == 0 {
		return nil
	}
	return &amf.ServedGUAMIList.List[0].GUAMI
}

// ServesGUAMI compares the given GUAMI with the ones the AMF announced
func (amf *AmfAssociation) ServesGUAMI(guami *ngapType.GUAMI) bool {
	if amf.ServedGUAMIList == nil || guami == nil {
		return false
	}
	coded, err := aper.MarshalWithParams(guami, "valueExt")
	if err != nil {
		return false
	}
	for _, served := range amf.ServedGUAMIList.List {
		codedServed, err := aper.MarshalWithParams(&served.GUAMI, "valueExt")
		if err != nil {
			return false
		}
		if bytes.Equal(codedServed, coded) {
			return true
		}
	}
	return false
}

// SupportsPLMN reports whether the AMF listed plmnId in its PLMN support list
func (amf *AmfAssociation) SupportsPLMN(plmnId *ngapType.PLMNIdentity) bool {
	if amf.PLMNSupportList == nil || plmnId == nil {
		return false
	}
	for _, item := range amf.PLMNSupportList.List {
		if bytes.Equal(item.PLMNIdentity.Value, plmnId.Value) {
			return true
		}
	}
	return false
}
