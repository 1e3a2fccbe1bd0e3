// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"fmt"
	"maps"
	"slices"

	"github.com/omec-project/gnbngap/logger"
	"github.com/omec-project/util/idgenerator"
)

const (
	minRanUeNgapId int64 = 1
	maxRanUeNgapId int64 = MaxValueOfRanUeNgapID - 1
	// stream 0 carries non UE-associated signalling
	NonUeStreamId uint16 = 0
)

// UserList owns every RanUe. The RAN UE NGAP ID map is authoritative, the
// RNTI and AMF UE NGAP ID maps are views onto it and are only changed
// through UserList methods.
type UserList struct {
	users   map[int64]*RanUe
	byRnti  map[uint16]int64
	byAmfId map[int64]int64

	idGenerator  *idgenerator.IDGenerator
	numUeStreams uint16
}

func NewUserList(numUeStreams uint16) *UserList {
	if numUeStreams == 0 {
		numUeStreams = 1
	}
	l := &UserList{numUeStreams: numUeStreams}
	l.reset()
	return l
}

func (l *UserList) reset() {
	l.users = make(map[int64]*RanUe)
	l.byRnti = make(map[uint16]int64)
	l.byAmfId = make(map[int64]int64)
	l.idGenerator = idgenerator.NewGenerator(minRanUeNgapId, maxRanUeNgapId)
}

// NumUeStreams is the number of SCTP streams reserved for UE-associated signalling
func (l *UserList) NumUeStreams() uint16 {
	return l.numUeStreams
}

// streamFor spreads UEs over the UE-associated streams 1..numUeStreams
func (l *UserList) streamFor(ranUeNgapId int64) uint16 {
	return uint16(1 + (ranUeNgapId-minRanUeNgapId)%int64(l.numUeStreams))
}

// Register allocates a fresh RAN UE NGAP ID and stores a new UE context
func (l *UserList) Register(rnti uint16, gnbCcIdx uint32) (*RanUe, error) {
	if ranUeNgapId, ok := l.byRnti[rnti]; ok {
		return nil, fmt.Errorf("rnti 0x%x held by RAN UE NGAP ID %d: %w", rnti, ranUeNgapId, ErrDuplicateRnti)
	}
	ranUeNgapId, err := l.idGenerator.Allocate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdExhausted, err)
	}
	ranUe := newRanUe(rnti, ranUeNgapId, gnbCcIdx, l.streamFor(ranUeNgapId))
	l.users[ranUeNgapId] = ranUe
	l.byRnti[rnti] = ranUeNgapId
	logger.CtxLog.Debugf("registered %s", ranUe)
	return ranUe, nil
}

func (l *UserList) FindByRanUeNgapId(ranUeNgapId int64) (*RanUe, bool) {
	ranUe, ok := l.users[ranUeNgapId]
	return ranUe, ok
}

func (l *UserList) FindByRnti(rnti uint16) (*RanUe, bool) {
	ranUeNgapId, ok := l.byRnti[rnti]
	if !ok {
		return nil, false
	}
	return l.FindByRanUeNgapId(ranUeNgapId)
}

func (l *UserList) FindByAmfUeNgapId(amfUeNgapId int64) (*RanUe, bool) {
	ranUeNgapId, ok := l.byAmfId[amfUeNgapId]
	if !ok {
		return nil, false
	}
	return l.FindByRanUeNgapId(ranUeNgapId)
}

// BindAmfUeNgapId records the AMF side identifier of a UE. Binding the
// same value twice is a no-op, a different value is rejected.
func (l *UserList) BindAmfUeNgapId(ranUeNgapId, amfUeNgapId int64) error {
	if amfUeNgapId < 0 || amfUeNgapId > MaxValueOfAmfUeNgapID {
		return fmt.Errorf("AMF UE NGAP ID %d: %w", amfUeNgapId, ErrAmfUeNgapIdOutOfRange)
	}
	ranUe, ok := l.users[ranUeNgapId]
	if !ok {
		return fmt.Errorf("RAN UE NGAP ID %d: %w", ranUeNgapId, ErrUeNotFound)
	}
	if ranUe.AmfUeNgapId == amfUeNgapId {
		return nil
	}
	if ranUe.HasAmfUeNgapId() {
		return fmt.Errorf("RAN UE NGAP ID %d bound to %d, got %d: %w",
			ranUeNgapId, ranUe.AmfUeNgapId, amfUeNgapId, ErrAmfUeNgapIdMismatch)
	}
	if owner, ok := l.byAmfId[amfUeNgapId]; ok {
		return fmt.Errorf("AMF UE NGAP ID %d bound to RAN UE NGAP ID %d: %w",
			amfUeNgapId, owner, ErrAmfUeNgapIdInUse)
	}
	ranUe.AmfUeNgapId = amfUeNgapId
	l.byAmfId[amfUeNgapId] = ranUeNgapId
	return nil
}

// ChangeRnti re-keys a UE after the radio layer moved it to a new RNTI
func (l *UserList) ChangeRnti(oldRnti, newRnti uint16) error {
	ranUeNgapId, ok := l.byRnti[oldRnti]
	if !ok {
		return fmt.Errorf("rnti 0x%x: %w", oldRnti, ErrUeNotFound)
	}
	if oldRnti == newRnti {
		return nil
	}
	if _, ok := l.byRnti[newRnti]; ok {
		return fmt.Errorf("rnti 0x%x: %w", newRnti, ErrDuplicateRnti)
	}
	delete(l.byRnti, oldRnti)
	l.byRnti[newRnti] = ranUeNgapId
	l.users[ranUeNgapId].Rnti = newRnti
	return nil
}

// Erase removes the UE from every key and frees its RAN UE NGAP ID
func (l *UserList) Erase(ranUeNgapId int64) error {
	ranUe, ok := l.users[ranUeNgapId]
	if !ok {
		return fmt.Errorf("RAN UE NGAP ID %d: %w", ranUeNgapId, ErrUeNotFound)
	}
	delete(l.users, ranUeNgapId)
	if l.byRnti[ranUe.Rnti] == ranUeNgapId {
		delete(l.byRnti, ranUe.Rnti)
	}
	if ranUe.HasAmfUeNgapId() && l.byAmfId[ranUe.AmfUeNgapId] == ranUeNgapId {
		delete(l.byAmfId, ranUe.AmfUeNgapId)
	}
	l.idGenerator.FreeID(ranUeNgapId)
	logger.CtxLog.Debugf("erased %s", ranUe)
	return nil
}

// ResolveUe finds the UE addressed by an inbound message. At least one of
// the identifiers must be given. When both are, they must agree.
func (l *UserList) ResolveUe(ranUeNgapId, amfUeNgapId *int64) (*RanUe, error) {
	switch {
	case ranUeNgapId == nil && amfUeNgapId == nil:
		return nil, fmt.Errorf("no UE NGAP ID given: %w", ErrUeNotFound)
	case ranUeNgapId == nil:
		ranUe, ok := l.FindByAmfUeNgapId(*amfUeNgapId)
		if !ok {
			return nil, fmt.Errorf("AMF UE NGAP ID %d: %w", *amfUeNgapId, ErrUeNotFound)
		}
		return ranUe, nil
	}

	ranUe, ok := l.FindByRanUeNgapId(*ranUeNgapId)
	if !ok {
		return nil, fmt.Errorf("RAN UE NGAP ID %d: %w", *ranUeNgapId, ErrUeNotFound)
	}
	if amfUeNgapId == nil {
		return ranUe, nil
	}
	if other, ok := l.FindByAmfUeNgapId(*amfUeNgapId); ok && other != ranUe {
		return nil, fmt.Errorf("RAN UE NGAP ID %d, AMF UE NGAP ID %d: %w",
			*ranUeNgapId, *amfUeNgapId, ErrInconsistentUeNgapIds)
	}
	if ranUe.HasAmfUeNgapId() && ranUe.AmfUeNgapId != *amfUeNgapId {
		return nil, fmt.Errorf("RAN UE NGAP ID %d bound to %d, got %d: %w",
			*ranUeNgapId, ranUe.AmfUeNgapId, *amfUeNgapId, ErrAmfUeNgapIdMismatch)
	}
	return ranUe, nil
}

func (l *UserList) Len() int {
	return len(l.users)
}

// Ues returns a snapshot of all UE contexts ordered by RAN UE NGAP ID
func (l *UserList) Ues() []*RanUe {
	ues := make([]*RanUe, 0, len(l.users))
	for _, id := range slices.Sorted(maps.Keys(l.users)) {
		ues = append(ues, l.users[id])
	}
	return ues
}

// Clear drops every UE and restarts RAN UE NGAP ID allocation
func (l *UserList) Clear() {
	l.reset()
}
