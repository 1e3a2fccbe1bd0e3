// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import "errors"

var (
	ErrUeNotFound            = errors.New("UE context not found")
	ErrDuplicateRnti         = errors.New("RNTI already registered")
	ErrAmfUeNgapIdMismatch   = errors.New("UE already bound to a different AMF UE NGAP ID")
	ErrAmfUeNgapIdInUse      = errors.New("AMF UE NGAP ID bound to another UE")
	ErrAmfUeNgapIdOutOfRange = errors.New("AMF UE NGAP ID out of range")
	ErrInconsistentUeNgapIds = errors.New("RAN and AMF UE NGAP IDs refer to different UEs")
	ErrIdExhausted           = errors.New("RAN UE NGAP ID space exhausted")
	ErrAssociationDown       = errors.New("AMF association not set up")
	ErrInvalidTransition     = errors.New("invalid state transition")
)
