// SPDX-FileCopyrightText: 2026 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"
	"sync/atomic"
	"time"
)

// Timer is a handle to an armed one-shot timer
type Timer interface {
	// Stop reports whether the timer was stopped before it fired
	Stop() bool
}

// Scheduler arms timers whose expiry is delivered as an event
type Scheduler interface {
	After(d time.Duration, evt NgapEvt) Timer
}

// OneShotTimer wraps a cancellation context around a single expiry.
type OneShotTimer struct {
	cancel context.CancelFunc
	done   atomic.Bool
}

// NewOneShotTimer runs expire once after d unless the timer is stopped or
// parent is cancelled first.
func NewOneShotTimer(parent context.Context, d time.Duration, expire func()) *OneShotTimer {
	ctx, cancel := context.WithCancel(parent)
	t := &OneShotTimer{cancel: cancel}

	go func() {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if t.done.CompareAndSwap(false, true) {
				expire()
			}
		}
	}()

	return t
}

// Stop cancels the timer and cleans up resources.
func (t *OneShotTimer) Stop() bool {
	stopped := t.done.CompareAndSwap(false, true)
	t.cancel()
	return stopped
}

type eventScheduler struct {
	ctx context.Context
	ch  chan<- NgapEvt
}

// NewEventScheduler posts timer expiries to ch, the NGAP event queue
func NewEventScheduler(ctx context.Context, ch chan<- NgapEvt) Scheduler {
	return &eventScheduler{ctx: ctx, ch: ch}
}

func (s *eventScheduler) After(d time.Duration, evt NgapEvt) Timer {
	return NewOneShotTimer(s.ctx, d, func() {
		select {
		case s.ch <- evt:
		case <-s.ctx.Done():
		}
	})
}
