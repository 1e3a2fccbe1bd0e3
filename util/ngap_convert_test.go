// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package util

import (
	"testing"

	"github.com/omec-project/aper"
	"github.com/omec-project/gnbngap/context"
	"github.com/omec-project/ngap/ngapType"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlmnIdToNgap(t *testing.T) {
	testCases := []struct {
		name string
		plmn context.PlmnId
		want []byte
	}{
		{"two digit mnc", context.PlmnId{Mcc: "208", Mnc: "93"}, []byte{0x02, 0xf8, 0x39}},
		{"three digit mnc", context.PlmnId{Mcc: "310", Mnc: "410"}, []byte{0x13, 0x40, 0x01}},
		{"malformed", context.PlmnId{Mcc: "20", Mnc: "93"}, nil},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, aper.OctetString(tc.want), PlmnIdToNgap(tc.plmn).Value)
		})
	}
}

func TestBitStringConversion(t *testing.T) {
	bs := Uint64ToBitString(0x1, 22)
	assert.Equal(t, uint64(22), bs.BitLength)
	assert.Equal(t, []byte{0x00, 0x00, 0x04}, bs.Bytes)
	assert.Equal(t, uint64(1), BitStringToUint64(bs))

	cell := NrCellIdentityToNgap(0x123456789)
	assert.Equal(t, uint64(36), cell.Value.BitLength)
	assert.Len(t, cell.Value.Bytes, 5)
	assert.Equal(t, uint64(0x123456789), BitStringToUint64(cell.Value))

	gnbId := GnbIdToNgap(0xffffffff, 32)
	assert.Equal(t, []byte{0xff, 0xff, 0xff, 0xff}, gnbId.Bytes)
}

func TestTacAndSnssai(t *testing.T) {
	tac, err := TacToNgap("000102")
	require.NoError(t, err)
	assert.Equal(t, aper.OctetString{0x00, 0x01, 0x02}, tac.Value)

	_, err = TacToNgap("0102")
	assert.Error(t, err)
	_, err = TacToNgap("zz0102")
	assert.Error(t, err)

	snssai, err := SnssaiToNgap(context.SnssaiItem{Sst: 1, Sd: "010203"})
	require.NoError(t, err)
	assert.Equal(t, aper.OctetString{0x01}, snssai.SST.Value)
	require.NotNil(t, snssai.SD)
	assert.Equal(t, aper.OctetString{0x01, 0x02, 0x03}, snssai.SD.Value)

	snssai, err = SnssaiToNgap(context.SnssaiItem{Sst: 2})
	require.NoError(t, err)
	assert.Nil(t, snssai.SD)
}

func TestAmfHintFromGUAMI(t *testing.T) {
	sTmsi := FiveGSTmsiToNgap(&context.FiveGSTmsi{AmfSetId: 0x3f8, AmfPointer: 0x21, Tmsi: 0x01020304})
	assert.Equal(t, aper.OctetString{0x01, 0x02, 0x03, 0x04}, sTmsi.FiveGTMSI.Value)

	guami := &ngapType.GUAMI{
		AMFRegionID: ngapType.AMFRegionID{Value: Uint64ToBitString(0xca, 8)},
		AMFSetID:    sTmsi.AMFSetID,
		AMFPointer:  sTmsi.AMFPointer,
	}
	region, set, pointer := AmfHintFromGUAMI(guami)
	assert.Equal(t, uint8(0xca), region)
	assert.Equal(t, uint16(0x3f8), set)
	assert.Equal(t, uint8(0x21), pointer)
}
