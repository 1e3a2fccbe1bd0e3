// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/factory"
	"github.com/omec-project/gnbngap/metrics"
	ngap_message "github.com/omec-project/gnbngap/ngap/message"
	"github.com/omec-project/gnbngap/util"
	"github.com/omec-project/ngap/ngapType"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type sentPdu struct {
	pdu      *ngapType.NGAPPDU
	streamId uint16
}

type fakeConn struct {
	sent   []sentPdu
	closed bool
}

func (c *fakeConn) Send(pkt []byte, streamId uint16) error {
	pdu, err := ngap_message.NgapCodec{}.Decode(pkt)
	if err != nil {
		return err
	}
	c.sent = append(c.sent, sentPdu{pdu: pdu, streamId: streamId})
	return nil
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func (c *fakeConn) RemoteAddr() string { return "10.0.0.5:38412" }

// names lists the sent messages in order
func (c *fakeConn) names() []string {
	names := make([]string, 0, len(c.sent))
	for _, s := range c.sent {
		names = append(names, ngap_message.MessageName(s.pdu))
	}
	return names
}

func (c *fakeConn) last() *ngapType.NGAPPDU {
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent[len(c.sent)-1].pdu
}

type fakeDialer struct {
	conns []*fakeConn
	err   error
}

func (d *fakeDialer) Dial(remote context.AmfSctpAddresses) (context.NgapConn, error) {
	if d.err != nil {
		return nil, d.err
	}
	conn := &fakeConn{}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) current() *fakeConn {
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

type armedTimer struct {
	d       time.Duration
	evt     context.NgapEvt
	stopped bool
}

func (a *armedTimer) Stop() bool {
	wasRunning := !a.stopped
	a.stopped = true
	return wasRunning
}

type fakeScheduler struct {
	armed []*armedTimer
}

func (s *fakeScheduler) After(d time.Duration, evt context.NgapEvt) context.Timer {
	timer := &armedTimer{d: d, evt: evt}
	s.armed = append(s.armed, timer)
	return timer
}

func (s *fakeScheduler) last() *armedTimer {
	if len(s.armed) == 0 {
		return nil
	}
	return s.armed[len(s.armed)-1]
}

type dlInfo struct {
	rnti   uint16
	nasPdu []byte
}

type fakeRrc struct {
	dl       []dlInfo
	released []uint16
}

func (r *fakeRrc) WriteDlInfo(rnti uint16, nasPdu []byte) {
	r.dl = append(r.dl, dlInfo{rnti: rnti, nasPdu: nasPdu})
}

func (r *fakeRrc) ReleaseUe(rnti uint16) {
	r.released = append(r.released, rnti)
}

type testEnv struct {
	gnb       *context.GnbContext
	dialer    *fakeDialer
	scheduler *fakeScheduler
	rrc       *fakeRrc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := &factory.Configuration{
		GnbInfo: context.GnbNfInfo{
			GnbId:       411,
			GnbIdLength: 22,
			RanNodeName: "gnb-1",
			PlmnId:      context.PlmnId{Mcc: "208", Mnc: "93"},
			Tac:         "1",
			CellId:      6733,
			SliceSupportList: []context.SliceSupportItem{
				{Snssai: context.SnssaiItem{Sst: 1, Sd: "010203"}},
			},
		},
		AmfSctpAddress: context.AmfSctpAddresses{IpAddresses: []string{"10.0.0.5"}},
		NumUeStreams:   2,
	}

	env := &testEnv{
		gnb:       &context.GnbContext{},
		dialer:    &fakeDialer{},
		scheduler: &fakeScheduler{},
		rrc:       &fakeRrc{},
	}
	require.True(t, util.InitGnbContext(env.gnb, cfg))
	env.gnb.Codec = ngap_message.NgapCodec{}
	env.gnb.Dialer = env.dialer
	env.gnb.Scheduler = env.scheduler
	env.gnb.Rrc = env.rrc
	env.gnb.Metrics = metrics.NewMetricsWithRegistry(prometheus.NewRegistry())
	env.gnb.NgapServer = context.NewNgapServer(16)
	InitAssociation(env.gnb)
	return env
}

func (env *testEnv) conn() *fakeConn {
	return env.dialer.current()
}

// pump hands the next queued event, such as a dial result, to the handlers
func (env *testEnv) pump(t *testing.T) {
	t.Helper()
	select {
	case evt := <-env.gnb.NgapServer.RcvEventCh:
		HandleEvent(env.gnb, evt)
	case <-time.After(time.Second):
		require.FailNow(t, "no event queued")
	}
}

// start launches NG Setup and waits for the SCTP dial to report back
func (env *testEnv) start(t *testing.T) {
	t.Helper()
	require.True(t, StartAmfConnection(env.gnb))
	env.pump(t)
}

// connect runs NG Setup to completion
func (env *testEnv) connect(t *testing.T) {
	t.Helper()
	env.start(t)
	HandleNGSetupResponse(env.gnb, roundTrip(t, buildNGSetupResponse(env.gnb, "amf-1")))
	require.True(t, env.gnb.IsAmfConnected())
}

// attach registers a UE and binds its AMF UE NGAP ID through a downlink
func (env *testEnv) attach(t *testing.T, rnti uint16, amfUeNgapId int64) *context.RanUe {
	t.Helper()
	HandleEvent(env.gnb, context.NewInitialUEEvt(rnti, 0, ngap_message.EstablishmentCauseMO_Signalling,
		[]byte{0x7e, 0x00, 0x41}, nil))
	ranUe, ok := env.gnb.UePool.FindByRnti(rnti)
	require.True(t, ok)
	HandleDownlinkNASTransport(env.gnb, roundTrip(t,
		buildDownlinkNASTransport(amfUeNgapId, ranUe.RanUeNgapId, []byte{0x7e, 0x00, 0x56})))
	require.Equal(t, context.UeStateActive, ranUe.State)
	return ranUe
}

func roundTrip(t *testing.T, pdu *ngapType.NGAPPDU) *ngapType.NGAPPDU {
	t.Helper()
	b, err := ngap_message.NgapCodec{}.Encode(pdu)
	require.NoError(t, err)
	decoded, err := ngap_message.NgapCodec{}.Decode(b)
	require.NoError(t, err)
	return decoded
}

func testGuami(gnb *context.GnbContext) ngapType.GUAMI {
	return ngapType.GUAMI{
		PLMNIdentity: gnb.Tai.PLMNIdentity,
		AMFRegionID:  ngapType.AMFRegionID{Value: util.Uint64ToBitString(0xca, 8)},
		AMFSetID:     ngapType.AMFSetID{Value: util.Uint64ToBitString(0x3f8, 10)},
		AMFPointer:   ngapType.AMFPointer{Value: util.Uint64ToBitString(1, 6)},
	}
}

func testSnssai(gnb *context.GnbContext) ngapType.SNSSAI {
	return gnb.SupportedTAList.List[0].BroadcastPLMNList.List[0].TAISliceSupportList.List[0].SNSSAI
}

func buildNGSetupResponse(gnb *context.GnbContext, amfName string) *ngapType.NGAPPDU {
	pdu := &ngapType.NGAPPDU{Present: ngapType.NGAPPDUPresentSuccessfulOutcome}
	pdu.SuccessfulOutcome = new(ngapType.SuccessfulOutcome)
	successfulOutcome := pdu.SuccessfulOutcome
	successfulOutcome.ProcedureCode.Value = ngapType.ProcedureCodeNGSetup
	successfulOutcome.Criticality.Value = ngapType.CriticalityPresentReject
	successfulOutcome.Value.Present = ngapType.SuccessfulOutcomePresentNGSetupResponse
	successfulOutcome.Value.NGSetupResponse = new(ngapType.NGSetupResponse)
	ies := &successfulOutcome.Value.NGSetupResponse.ProtocolIEs

	ie := ngapType.NGSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFName
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGSetupResponseIEsPresentAMFName
	ie.Value.AMFName = &ngapType.AMFName{Value: amfName}
	ies.List = append(ies.List, ie)

	ie = ngapType.NGSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDServedGUAMIList
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGSetupResponseIEsPresentServedGUAMIList
	ie.Value.ServedGUAMIList = &ngapType.ServedGUAMIList{
		List: []ngapType.ServedGUAMIItem{{GUAMI: testGuami(gnb)}},
	}
	ies.List = append(ies.List, ie)

	ie = ngapType.NGSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRelativeAMFCapacity
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.NGSetupResponseIEsPresentRelativeAMFCapacity
	ie.Value.RelativeAMFCapacity = &ngapType.RelativeAMFCapacity{Value: 255}
	ies.List = append(ies.List, ie)

	ie = ngapType.NGSetupResponseIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDPLMNSupportList
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGSetupResponseIEsPresentPLMNSupportList
	ie.Value.PLMNSupportList = &ngapType.PLMNSupportList{
		List: []ngapType.PLMNSupportItem{{
			PLMNIdentity: gnb.Tai.PLMNIdentity,
			SliceSupportList: ngapType.SliceSupportList{
				List: []ngapType.SliceSupportItem{{SNSSAI: testSnssai(gnb)}},
			},
		}},
	}
	ies.List = append(ies.List, ie)

	return pdu
}

func buildNGSetupFailure(timeToWait *aper.Enumerated) *ngapType.NGAPPDU {
	pdu := &ngapType.NGAPPDU{Present: ngapType.NGAPPDUPresentUnsuccessfulOutcome}
	pdu.UnsuccessfulOutcome = new(ngapType.UnsuccessfulOutcome)
	unsuccessfulOutcome := pdu.UnsuccessfulOutcome
	unsuccessfulOutcome.ProcedureCode.Value = ngapType.ProcedureCodeNGSetup
	unsuccessfulOutcome.Criticality.Value = ngapType.CriticalityPresentReject
	unsuccessfulOutcome.Value.Present = ngapType.UnsuccessfulOutcomePresentNGSetupFailure
	unsuccessfulOutcome.Value.NGSetupFailure = new(ngapType.NGSetupFailure)
	ies := &unsuccessfulOutcome.Value.NGSetupFailure.ProtocolIEs

	ie := ngapType.NGSetupFailureIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.NGSetupFailureIEsPresentCause
	ie.Value.Cause = ngap_message.BuildCause(ngapType.CausePresentMisc, ngapType.CauseMiscPresentUnspecified)
	ies.List = append(ies.List, ie)

	if timeToWait != nil {
		ie = ngapType.NGSetupFailureIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDTimeToWait
		ie.Criticality.Value = ngapType.CriticalityPresentIgnore
		ie.Value.Present = ngapType.NGSetupFailureIEsPresentTimeToWait
		ie.Value.TimeToWait = &ngapType.TimeToWait{Value: *timeToWait}
		ies.List = append(ies.List, ie)
	}

	return pdu
}

func newAmfInitiatingMessage(procedureCode int64, present int) *ngapType.NGAPPDU {
	pdu := &ngapType.NGAPPDU{Present: ngapType.NGAPPDUPresentInitiatingMessage}
	pdu.InitiatingMessage = new(ngapType.InitiatingMessage)
	pdu.InitiatingMessage.ProcedureCode.Value = procedureCode
	pdu.InitiatingMessage.Criticality.Value = ngapType.CriticalityPresentIgnore
	pdu.InitiatingMessage.Value.Present = present
	return pdu
}

func buildDownlinkNASTransport(amfUeNgapId, ranUeNgapId int64, nasPdu []byte) *ngapType.NGAPPDU {
	pdu := newAmfInitiatingMessage(ngapType.ProcedureCodeDownlinkNASTransport,
		ngapType.InitiatingMessagePresentDownlinkNASTransport)
	pdu.InitiatingMessage.Value.DownlinkNASTransport = new(ngapType.DownlinkNASTransport)
	ies := &pdu.InitiatingMessage.Value.DownlinkNASTransport.ProtocolIEs

	ie := ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfUeNgapId}
	ies.List = append(ies.List, ie)

	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranUeNgapId}
	ies.List = append(ies.List, ie)

	ie = ngapType.DownlinkNASTransportIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDNASPDU
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.DownlinkNASTransportIEsPresentNASPDU
	ie.Value.NASPDU = &ngapType.NASPDU{Value: nasPdu}
	ies.List = append(ies.List, ie)

	return pdu
}

func buildInitialContextSetupRequest(gnb *context.GnbContext, amfUeNgapId, ranUeNgapId int64,
	nasPdu []byte,
) *ngapType.NGAPPDU {
	pdu := newAmfInitiatingMessage(ngapType.ProcedureCodeInitialContextSetup,
		ngapType.InitiatingMessagePresentInitialContextSetupRequest)
	pdu.InitiatingMessage.Criticality.Value = ngapType.CriticalityPresentReject
	pdu.InitiatingMessage.Value.InitialContextSetupRequest = new(ngapType.InitialContextSetupRequest)
	ies := &pdu.InitiatingMessage.Value.InitialContextSetupRequest.ProtocolIEs

	ie := ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAMFUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentAMFUENGAPID
	ie.Value.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfUeNgapId}
	ies.List = append(ies.List, ie)

	ie = ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDRANUENGAPID
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentRANUENGAPID
	ie.Value.RANUENGAPID = &ngapType.RANUENGAPID{Value: ranUeNgapId}
	ies.List = append(ies.List, ie)

	guami := testGuami(gnb)
	ie = ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDGUAMI
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentGUAMI
	ie.Value.GUAMI = &guami
	ies.List = append(ies.List, ie)

	ie = ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDAllowedNSSAI
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentAllowedNSSAI
	ie.Value.AllowedNSSAI = &ngapType.AllowedNSSAI{
		List: []ngapType.AllowedNSSAIItem{{SNSSAI: testSnssai(gnb)}},
	}
	ies.List = append(ies.List, ie)

	algorithms := aper.BitString{Bytes: []byte{0xe0, 0x00}, BitLength: 16}
	ie = ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUESecurityCapabilities
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentUESecurityCapabilities
	ie.Value.UESecurityCapabilities = &ngapType.UESecurityCapabilities{
		NRencryptionAlgorithms:             ngapType.NRencryptionAlgorithms{Value: algorithms},
		NRintegrityProtectionAlgorithms:    ngapType.NRintegrityProtectionAlgorithms{Value: algorithms},
		EUTRAencryptionAlgorithms:          ngapType.EUTRAencryptionAlgorithms{Value: algorithms},
		EUTRAintegrityProtectionAlgorithms: ngapType.EUTRAintegrityProtectionAlgorithms{Value: algorithms},
	}
	ies.List = append(ies.List, ie)

	ie = ngapType.InitialContextSetupRequestIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDSecurityKey
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentSecurityKey
	ie.Value.SecurityKey = &ngapType.SecurityKey{Value: aper.BitString{Bytes: make([]byte, 32), BitLength: 256}}
	ies.List = append(ies.List, ie)

	if nasPdu != nil {
		ie = ngapType.InitialContextSetupRequestIEs{}
		ie.Id.Value = ngapType.ProtocolIEIDNASPDU
		ie.Criticality.Value = ngapType.CriticalityPresentIgnore
		ie.Value.Present = ngapType.InitialContextSetupRequestIEsPresentNASPDU
		ie.Value.NASPDU = &ngapType.NASPDU{Value: nasPdu}
		ies.List = append(ies.List, ie)
	}

	return pdu
}

func buildUEContextReleaseCommand(amfUeNgapId int64, ranUeNgapId *int64) *ngapType.NGAPPDU {
	pdu := newAmfInitiatingMessage(ngapType.ProcedureCodeUEContextRelease,
		ngapType.InitiatingMessagePresentUEContextReleaseCommand)
	pdu.InitiatingMessage.Criticality.Value = ngapType.CriticalityPresentReject
	pdu.InitiatingMessage.Value.UEContextReleaseCommand = new(ngapType.UEContextReleaseCommand)
	ies := &pdu.InitiatingMessage.Value.UEContextReleaseCommand.ProtocolIEs

	ie := ngapType.UEContextReleaseCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDUENGAPIDs
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.UEContextReleaseCommandIEsPresentUENGAPIDs
	ueNgapIds := new(ngapType.UENGAPIDs)
	if ranUeNgapId != nil {
		ueNgapIds.Present = ngapType.UENGAPIDsPresentUENGAPIDPair
		ueNgapIds.UENGAPIDPair = &ngapType.UENGAPIDPair{
			AMFUENGAPID: ngapType.AMFUENGAPID{Value: amfUeNgapId},
			RANUENGAPID: ngapType.RANUENGAPID{Value: *ranUeNgapId},
		}
	} else {
		ueNgapIds.Present = ngapType.UENGAPIDsPresentAMFUENGAPID
		ueNgapIds.AMFUENGAPID = &ngapType.AMFUENGAPID{Value: amfUeNgapId}
	}
	ie.Value.UENGAPIDs = ueNgapIds
	ies.List = append(ies.List, ie)

	ie = ngapType.UEContextReleaseCommandIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.UEContextReleaseCommandIEsPresentCause
	ie.Value.Cause = ngap_message.BuildCause(ngapType.CausePresentNas, ngapType.CauseNasPresentNormalRelease)
	ies.List = append(ies.List, ie)

	return pdu
}

func buildNGReset(partOfNGInterface *ngapType.UEAssociatedLogicalNGConnectionList) *ngapType.NGAPPDU {
	pdu := newAmfInitiatingMessage(ngapType.ProcedureCodeNGReset, ngapType.InitiatingMessagePresentNGReset)
	pdu.InitiatingMessage.Criticality.Value = ngapType.CriticalityPresentReject
	pdu.InitiatingMessage.Value.NGReset = new(ngapType.NGReset)
	ies := &pdu.InitiatingMessage.Value.NGReset.ProtocolIEs

	ie := ngapType.NGResetIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDCause
	ie.Criticality.Value = ngapType.CriticalityPresentIgnore
	ie.Value.Present = ngapType.NGResetIEsPresentCause
	ie.Value.Cause = ngap_message.BuildCause(ngapType.CausePresentMisc, ngapType.CauseMiscPresentUnspecified)
	ies.List = append(ies.List, ie)

	resetType := new(ngapType.ResetType)
	if partOfNGInterface == nil {
		resetType.Present = ngapType.ResetTypePresentNGInterface
		resetType.NGInterface = &ngapType.ResetAll{Value: ngapType.ResetAllPresentResetAll}
	} else {
		resetType.Present = ngapType.ResetTypePresentPartOfNGInterface
		resetType.PartOfNGInterface = partOfNGInterface
	}
	ie = ngapType.NGResetIEs{}
	ie.Id.Value = ngapType.ProtocolIEIDResetType
	ie.Criticality.Value = ngapType.CriticalityPresentReject
	ie.Value.Present = ngapType.NGResetIEsPresentResetType
	ie.Value.ResetType = resetType
	ies.List = append(ies.List, ie)

	return pdu
}

// errorIndicationCause returns the radio network cause of an Error Indication
func errorIndicationCause(t *testing.T, pdu *ngapType.NGAPPDU) aper.Enumerated {
	t.Helper()
	require.NotNil(t, pdu)
	require.NotNil(t, pdu.InitiatingMessage)
	errorIndication := pdu.InitiatingMessage.Value.ErrorIndication
	require.NotNil(t, errorIndication)
	for _, ie := range errorIndication.ProtocolIEs.List {
		if ie.Id.Value == ngapType.ProtocolIEIDCause {
			require.Equal(t, ngapType.CausePresentRadioNetwork, ie.Value.Cause.Present)
			return ie.Value.Cause.RadioNetwork.Value
		}
	}
	require.Fail(t, "Error Indication without cause")
	return 0
}

var errDialRefused = errors.New("connection refused")
