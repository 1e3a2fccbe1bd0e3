// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package message

import (
	"github.com/omec-project/ngap"
	"github.com/omec-project/ngap/ngapType"
)

// NgapCodec is the APER codec used on the wire
type NgapCodec struct{}

func (NgapCodec) Encode(pdu *ngapType.NGAPPDU) ([]byte, error) {
	return ngap.Encoder(*pdu)
}

func (NgapCodec) Decode(b []byte) (*ngapType.NGAPPDU, error) {
	return ngap.Decoder(b)
}
