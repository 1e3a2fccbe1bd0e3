// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"fmt"
	"strings"
)

type GnbNfInfo struct {
	GnbId            uint32             `yaml:"gnbId"`
	GnbIdLength      uint8              `yaml:"gnbIdLength"` // 22..32 bits
	RanNodeName      string             `yaml:"name,omitempty"`
	PlmnId           PlmnId             `yaml:"plmnId"`
	Tac              string             `yaml:"tac"`    // 3 bytes as hex string, e.g. 000001
	CellId           uint64             `yaml:"cellId"` // 36 bits NR cell identity
	SliceSupportList []SliceSupportItem `yaml:"sliceSupportList"`
}

type PlmnId struct {
	Mcc string `yaml:"mcc"`
	Mnc string `yaml:"mnc"`
}

type SliceSupportItem struct {
	Snssai SnssaiItem `yaml:"snssai"`
}

type SnssaiItem struct {
	Sst uint8  `yaml:"sst"`
	Sd  string `yaml:"sd,omitempty"`
}

type AmfSctpAddresses struct {
	IpAddresses []string `yaml:"ipList"`
	Port        int      `yaml:"port,omitempty"`
}

func (a AmfSctpAddresses) String() string {
	return fmt.Sprintf("%s:%d", strings.Join(a.IpAddresses, "/"), a.Port)
}

// FiveGSTmsi is the 5G-S-TMSI reported by the UE in its RRC setup, used as AMF hint
type FiveGSTmsi struct {
	AmfSetId   uint16 // 10 bits
	AmfPointer uint8  // 6 bits
	Tmsi       uint32
}
