// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"github.com/omec-project/aper"
	"github.com/omec-project/ngap/ngapType"
)

// NgapServer carries the two queues drained by the NGAP event loop
type NgapServer struct {
	RcvNgapPktCh chan NgapReceivePacket
	RcvEventCh   chan NgapEvt
}

func NewNgapServer(queueLen int) *NgapServer {
	return &NgapServer{
		RcvNgapPktCh: make(chan NgapReceivePacket, queueLen),
		RcvEventCh:   make(chan NgapEvt, queueLen),
	}
}

// NgapReceivePacket represents a received NGAP packet
type NgapReceivePacket struct {
	Conn     NgapConn
	Buf      []byte
	StreamId uint16
}

// Codec turns NGAP PDUs into bytes and back
type Codec interface {
	Encode(pdu *ngapType.NGAPPDU) ([]byte, error)
	Decode(buf []byte) (*ngapType.NGAPPDU, error)
}

// NgapConn is an established SCTP association with the AMF
type NgapConn interface {
	Send(pkt []byte, streamId uint16) error
	Close() error
	RemoteAddr() string
}

// Dialer opens the SCTP association. Received packets and connection loss
// are reported through the NgapServer queues.
type Dialer interface {
	Dial(remote AmfSctpAddresses) (NgapConn, error)
}

// RrcInterface is the radio layer side consumed by the NGAP engine
type RrcInterface interface {
	WriteDlInfo(rnti uint16, nasPdu []byte)
	ReleaseUe(rnti uint16)
}

// NgapEventType enumerates NGAP event types
type NgapEventType int64

const (
	StartAmfConnection NgapEventType = iota
	AmfConnectTimerExpired
	NgSetupTimeout
	AmfConnectResult
	SctpConnectionLost
	InitialUE
	WriteUplinkNas
	UserRelease
	UeCtxtSetupComplete
	UserMod
	UserExistsQuery
)

func (t NgapEventType) String() string {
	switch t {
	case StartAmfConnection:
		return "StartAmfConnection"
	case AmfConnectTimerExpired:
		return "AmfConnectTimerExpired"
	case NgSetupTimeout:
		return "NgSetupTimeout"
	case AmfConnectResult:
		return "AmfConnectResult"
	case SctpConnectionLost:
		return "SctpConnectionLost"
	case InitialUE:
		return "InitialUE"
	case WriteUplinkNas:
		return "WriteUplinkNas"
	case UserRelease:
		return "UserRelease"
	case UeCtxtSetupComplete:
		return "UeCtxtSetupComplete"
	case UserMod:
		return "UserMod"
	case UserExistsQuery:
		return "UserExistsQuery"
	default:
		return "Unknown"
	}
}

// NgapEvt is the interface for all NGAP events
type NgapEvt interface {
	Type() NgapEventType
}

// StartAmfConnectionEvt launches the AMF connection procedure
type StartAmfConnectionEvt struct{}

func (e *StartAmfConnectionEvt) Type() NgapEventType { return StartAmfConnection }

func NewStartAmfConnectionEvt() *StartAmfConnectionEvt {
	return &StartAmfConnectionEvt{}
}

// AmfConnectTimerEvt fires when the reconnect period has elapsed
type AmfConnectTimerEvt struct{}

func (e *AmfConnectTimerEvt) Type() NgapEventType { return AmfConnectTimerExpired }

func NewAmfConnectTimerEvt() *AmfConnectTimerEvt {
	return &AmfConnectTimerEvt{}
}

// NgSetupTimeoutEvt is bound to the procedure instance that armed it
type NgSetupTimeoutEvt struct {
	Instance uint64
}

func (e *NgSetupTimeoutEvt) Type() NgapEventType { return NgSetupTimeout }

func NewNgSetupTimeoutEvt(instance uint64) *NgSetupTimeoutEvt {
	return &NgSetupTimeoutEvt{Instance: instance}
}

// AmfConnectResultEvt carries the outcome of the SCTP dial started by NG Setup
// run Instance
type AmfConnectResultEvt struct {
	Instance uint64
	Conn     NgapConn
	Err      error
}

func (e *AmfConnectResultEvt) Type() NgapEventType { return AmfConnectResult }

func NewAmfConnectResultEvt(instance uint64, conn NgapConn, err error) *AmfConnectResultEvt {
	return &AmfConnectResultEvt{Instance: instance, Conn: conn, Err: err}
}

// SctpConnLostEvt reports that the read side of Conn has failed or shut down
type SctpConnLostEvt struct {
	Conn NgapConn
	Err  error
}

func (e *SctpConnLostEvt) Type() NgapEventType { return SctpConnectionLost }

func NewSctpConnLostEvt(conn NgapConn, err error) *SctpConnLostEvt {
	return &SctpConnLostEvt{Conn: conn, Err: err}
}

// InitialUEEvt carries the first NAS message of a new radio connection
type InitialUEEvt struct {
	Rnti       uint16
	GnbCcIdx   uint32
	Cause      aper.Enumerated // RRC establishment cause
	NasPdu     []byte
	FiveGSTmsi *FiveGSTmsi
}

func (e *InitialUEEvt) Type() NgapEventType { return InitialUE }

func NewInitialUEEvt(rnti uint16, gnbCcIdx uint32, cause aper.Enumerated, nasPdu []byte,
	fiveGSTmsi *FiveGSTmsi,
) *InitialUEEvt {
	return &InitialUEEvt{Rnti: rnti, GnbCcIdx: gnbCcIdx, Cause: cause, NasPdu: nasPdu, FiveGSTmsi: fiveGSTmsi}
}

// WriteUplinkNasEvt carries an uplink NAS PDU of an existing UE
type WriteUplinkNasEvt struct {
	Rnti   uint16
	NasPdu []byte
}

func (e *WriteUplinkNasEvt) Type() NgapEventType { return WriteUplinkNas }

func NewWriteUplinkNasEvt(rnti uint16, nasPdu []byte) *WriteUplinkNasEvt {
	return &WriteUplinkNasEvt{Rnti: rnti, NasPdu: nasPdu}
}

// UserReleaseEvt asks the AMF to release the UE context
type UserReleaseEvt struct {
	Rnti  uint16
	Cause aper.Enumerated // radio network cause
}

func (e *UserReleaseEvt) Type() NgapEventType { return UserRelease }

func NewUserReleaseEvt(rnti uint16, cause aper.Enumerated) *UserReleaseEvt {
	return &UserReleaseEvt{Rnti: rnti, Cause: cause}
}

// UeCtxtSetupCompleteEvt reports that the radio layer applied the initial context
type UeCtxtSetupCompleteEvt struct {
	Rnti uint16
}

func (e *UeCtxtSetupCompleteEvt) Type() NgapEventType { return UeCtxtSetupComplete }

func NewUeCtxtSetupCompleteEvt(rnti uint16) *UeCtxtSetupCompleteEvt {
	return &UeCtxtSetupCompleteEvt{Rnti: rnti}
}

// UserModEvt moves a UE context to a new RNTI
type UserModEvt struct {
	OldRnti uint16
	NewRnti uint16
}

func (e *UserModEvt) Type() NgapEventType { return UserMod }

func NewUserModEvt(oldRnti, newRnti uint16) *UserModEvt {
	return &UserModEvt{OldRnti: oldRnti, NewRnti: newRnti}
}

// UserExistsEvt asks the event loop whether a UE context exists for Rnti
type UserExistsEvt struct {
	Rnti  uint16
	Reply chan bool
}

func (e *UserExistsEvt) Type() NgapEventType { return UserExistsQuery }

func NewUserExistsEvt(rnti uint16) *UserExistsEvt {
	return &UserExistsEvt{Rnti: rnti, Reply: make(chan bool, 1)}
}
