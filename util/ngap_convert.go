// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/ngap/ngapType"
)

func PlmnIdToNgap(plmnId context.PlmnId) (ngapPlmnId ngapType.PLMNIdentity) {
	var hexString string
	mcc := strings.Split(plmnId.Mcc, "")
	mnc := strings.Split(plmnId.Mnc, "")
	if len(mcc) != 3 || (len(mnc) != 2 && len(mnc) != 3) {
		logger.UtilLog.Errorf("malformed PLMN ID %s-%s", plmnId.Mcc, plmnId.Mnc)
		return
	}
	if len(plmnId.Mnc) == 2 {
		hexString = mcc[1] + mcc[0] + "f" + mcc[2] + mnc[1] + mnc[0]
	} else {
		hexString = mcc[1] + mcc[0] + mnc[0] + mcc[2] + mnc[2] + mnc[1]
	}
	var err error
	ngapPlmnId.Value, err = hex.DecodeString(hexString)
	if err != nil {
		logger.UtilLog.Errorf("decode string error: %+v", err)
	}
	return
}

// Uint64ToBitString left aligns the low bitLength bits of value
func Uint64ToBitString(value uint64, bitLength uint64) aper.BitString {
	byteLen := (bitLength + 7) / 8
	shifted := value << (byteLen*8 - bitLength)
	bytes := make([]byte, byteLen)
	for i := uint64(0); i < byteLen; i++ {
		bytes[byteLen-1-i] = byte(shifted >> (8 * i))
	}
	return aper.BitString{Bytes: bytes, BitLength: bitLength}
}

// BitStringToUint64 is the inverse of Uint64ToBitString
func BitStringToUint64(bs aper.BitString) uint64 {
	var value uint64
	for _, b := range bs.Bytes {
		value = value<<8 | uint64(b)
	}
	unused := uint64(len(bs.Bytes))*8 - bs.BitLength
	return value >> unused
}

func GnbIdToNgap(gnbId uint32, bitLength uint8) *aper.BitString {
	bs := Uint64ToBitString(uint64(gnbId), uint64(bitLength))
	return &bs
}

func NrCellIdentityToNgap(cellId uint64) ngapType.NRCellIdentity {
	return ngapType.NRCellIdentity{Value: Uint64ToBitString(cellId, 36)}
}

func TacToNgap(tac string) (ngapType.TAC, error) {
	value, err := hex.DecodeString(tac)
	if err != nil {
		return ngapType.TAC{}, fmt.Errorf("decode TAC %q: %w", tac, err)
	}
	if len(value) != 3 {
		return ngapType.TAC{}, fmt.Errorf("TAC %q is not 3 bytes", tac)
	}
	return ngapType.TAC{Value: value}, nil
}

func SnssaiToNgap(snssai context.SnssaiItem) (ngapType.SNSSAI, error) {
	ngapSnssai := ngapType.SNSSAI{
		SST: ngapType.SST{Value: aper.OctetString{snssai.Sst}},
	}
	if snssai.Sd != "" {
		sd, err := hex.DecodeString(snssai.Sd)
		if err != nil {
			return ngapSnssai, fmt.Errorf("decode SD %q: %w", snssai.Sd, err)
		}
		if len(sd) != 3 {
			return ngapSnssai, fmt.Errorf("SD %q is not 3 bytes", snssai.Sd)
		}
		ngapSnssai.SD = &ngapType.SD{Value: sd}
	}
	return ngapSnssai, nil
}

func FiveGSTmsiToNgap(sTmsi *context.FiveGSTmsi) ngapType.FiveGSTMSI {
	tmsi := make([]byte, 4)
	binary.BigEndian.PutUint32(tmsi, sTmsi.Tmsi)
	return ngapType.FiveGSTMSI{
		AMFSetID:   ngapType.AMFSetID{Value: Uint64ToBitString(uint64(sTmsi.AmfSetId), 10)},
		AMFPointer: ngapType.AMFPointer{Value: Uint64ToBitString(uint64(sTmsi.AmfPointer), 6)},
		FiveGTMSI:  ngapType.FiveGTMSI{Value: tmsi},
	}
}

// AmfHintFromGUAMI extracts the AMF region, set and pointer of a GUAMI
func AmfHintFromGUAMI(guami *ngapType.GUAMI) (regionId uint8, setId uint16, pointer uint8) {
	regionId = uint8(BitStringToUint64(guami.AMFRegionID.Value))
	setId = uint16(BitStringToUint64(guami.AMFSetID.Value))
	pointer = uint8(BitStringToUint64(guami.AMFPointer.Value))
	return
}
