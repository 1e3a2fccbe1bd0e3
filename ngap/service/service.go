// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
	"net"
	"sync"

	"github.com/ishidawataru/sctp"
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/gnbngap/ngap"
	"github.com/omec-project/gnbngap/ngap/handler"
	"github.com/omec-project/gnbngap/ngap/message"
	"github.com/omec-project/gnbngap/util"
	libNgap "github.com/omec-project/ngap"
)

const (
	RECEIVE_NGAP_CHANNEL_LEN = 512
	MAX_BUF_MSG_LEN          = 65535
	SCTP_MAX_INIT_ATTEMPTS   = 3
)

// Run starts the NGAP event loop and kicks off the AMF connection. The
// SCTP dial runs in its own goroutine and reports back to the loop.
func Run(gnb *context.GnbContext) error {
	if gnb.Ctx == nil {
		return errors.New("gNB context has no lifetime context")
	}

	gnb.NgapServer = context.NewNgapServer(RECEIVE_NGAP_CHANNEL_LEN)
	gnb.Codec = message.NgapCodec{}
	gnb.Scheduler = context.NewEventScheduler(gnb.Ctx, gnb.NgapServer.RcvEventCh)
	if gnb.Dialer == nil {
		localAddr, err := resolveLocalAddr(gnb.LocalSctpAddress)
		if err != nil {
			return err
		}
		gnb.Dialer = &sctpDialer{gnb: gnb, localAddr: localAddr, numUeStreams: gnb.UePool.NumUeStreams()}
	}
	handler.InitAssociation(gnb)

	gnb.Wg.Add(1)
	go runNgapEventHandler(gnb)

	if !gnb.SendEvent(context.NewStartAmfConnectionEvt()) {
		return errors.New("NGAP event loop is not accepting events")
	}
	return nil
}

// runNgapEventHandler is the only goroutine that touches the gNB context.
// Cancelling gnb.Ctx tears the AMF association down from here.
func runNgapEventHandler(gnb *context.GnbContext) {
	defer util.RecoverWithLog(logger.NgapLog)
	defer func() {
		logger.NgapLog.Infoln("NGAP server stopped")
		gnb.Wg.Done()
	}()

	ngapServer := gnb.NgapServer
	for {
		select {
		case <-gnb.Ctx.Done():
			util.RunGuarded(logger.NgapLog, "shutdown", func() {
				handler.Teardown(gnb, "NGAP service stopped")
			})
			return
		case rcvPkt := <-ngapServer.RcvNgapPktCh:
			util.RunGuarded(logger.NgapLog, "NGAP packet", func() {
				ngap.Dispatch(gnb, rcvPkt)
			})
		case rcvEvt := <-ngapServer.RcvEventCh:
			util.RunGuarded(logger.NgapLog, rcvEvt.Type().String(), func() {
				handler.HandleEvent(gnb, rcvEvt)
			})
		}
	}
}

func resolveLocalAddr(localAddr string) (*sctp.SCTPAddr, error) {
	if localAddr == "" {
		return nil, nil
	}
	ipAddr, err := net.ResolveIPAddr("ip", localAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve local IP address for N2 failed: %w", err)
	}
	return &sctp.SCTPAddr{IPAddrs: []net.IPAddr{*ipAddr}}, nil
}

func resolveAmfAddr(remote context.AmfSctpAddresses) (*sctp.SCTPAddr, error) {
	amfSCTPAddr := new(sctp.SCTPAddr)
	for _, ipAddrStr := range remote.IpAddresses {
		ipAddr, err := net.ResolveIPAddr("ip", ipAddrStr)
		if err != nil {
			return nil, fmt.Errorf("resolve AMF IP address failed: %w", err)
		}
		amfSCTPAddr.IPAddrs = append(amfSCTPAddr.IPAddrs, *ipAddr)
	}
	amfSCTPAddr.Port = remote.Port
	return amfSCTPAddr, nil
}

type sctpDialer struct {
	gnb          *context.GnbContext
	localAddr    *sctp.SCTPAddr
	numUeStreams uint16
}

// Dial opens one association per call and starts its reader. It blocks for
// the SCTP handshake and is called off the event loop. A failed attempt is
// reported to the caller, retries are driven by the reconnect timer.
func (d *sctpDialer) Dial(remote context.AmfSctpAddresses) (context.NgapConn, error) {
	remoteAddr, err := resolveAmfAddr(remote)
	if err != nil {
		return nil, err
	}

	initMsg := sctp.InitMsg{
		NumOstreams:  d.numUeStreams + 1,
		MaxInstreams: d.numUeStreams + 1,
		MaxAttempts:  SCTP_MAX_INIT_ATTEMPTS,
	}
	logger.SctpLog.Debugf("dial SCTP %s with %d outbound streams", remote, initMsg.NumOstreams)
	conn, err := sctp.DialSCTPExt("sctp", d.localAddr, remoteAddr, initMsg)
	if err != nil {
		return nil, fmt.Errorf("dial SCTP %s: %w", remote, err)
	}

	// Subscribe receiver SCTP information
	if err = conn.SubscribeEvents(sctp.SCTP_EVENT_DATA_IO); err != nil {
		if errConn := conn.Close(); errConn != nil {
			logger.SctpLog.Errorf("conn close error: %+v", errConn)
		}
		return nil, fmt.Errorf("SubscribeEvents(): %w", err)
	}

	c := &sctpConn{conn: conn}
	d.gnb.Wg.Add(1)
	go readLoop(d.gnb, c)
	return c, nil
}

type sctpConn struct {
	conn      *sctp.SCTPConn
	closeOnce sync.Once
	closeErr  error
}

func (c *sctpConn) Send(pkt []byte, streamId uint16) error {
	// The SCTP library expects the PPID in host byte order
	info := &sctp.SndRcvInfo{
		Stream: streamId,
		PPID:   bits.ReverseBytes32(libNgap.PPID),
	}
	n, err := c.conn.SCTPWrite(pkt, info)
	if err != nil {
		return err
	}
	if n != len(pkt) {
		return fmt.Errorf("short SCTP write: %d of %d bytes", n, len(pkt))
	}
	return nil
}

func (c *sctpConn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

func (c *sctpConn) RemoteAddr() string {
	if addr := c.conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return ""
}

// readLoop forwards NGAP packets to the event loop until the association fails
func readLoop(gnb *context.GnbContext, c *sctpConn) {
	defer util.RecoverWithLog(logger.SctpLog)
	defer func() {
		logger.SctpLog.Infoln("NGAP receiver stopped")
		gnb.Wg.Done()
	}()

	data := make([]byte, MAX_BUF_MSG_LEN)
	for {
		n, info, err := c.conn.SCTPRead(data)
		if err != nil {
			logger.SctpLog.Debugf("AMF SCTP address: %s", c.RemoteAddr())
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				logger.SctpLog.Warnln("close connection")
			} else {
				logger.SctpLog.Errorf("read from SCTP connection failed: %+v", err)
			}
			_ = c.Close()
			gnb.SendEvent(context.NewSctpConnLostEvt(c, err))
			return
		}
		logger.SctpLog.Debugf("successfully read %d bytes", n)

		if info == nil || bits.ReverseBytes32(info.PPID) != libNgap.PPID {
			logger.SctpLog.Warn("received SCTP PPID != 60")
			continue
		}

		forwardData := make([]byte, n)
		copy(forwardData, data[:n])

		select {
		case gnb.NgapServer.RcvNgapPktCh <- context.NgapReceivePacket{
			Conn:     c,
			Buf:      forwardData,
			StreamId: info.Stream,
		}:
		case <-gnb.Ctx.Done():
			return
		}
	}
}
