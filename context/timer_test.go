// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventSchedulerDeliversEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan NgapEvt, 1)
	s := NewEventScheduler(ctx, ch)

	s.After(10*time.Millisecond, NewNgSetupTimeoutEvt(3))

	select {
	case evt := <-ch:
		require.Equal(t, NgSetupTimeout, evt.Type())
		assert.Equal(t, uint64(3), evt.(*NgSetupTimeoutEvt).Instance)
	case <-time.After(2 * time.Second):
		t.Fatal("timer event not delivered")
	}
}

func TestEventSchedulerStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := make(chan NgapEvt, 1)
	s := NewEventScheduler(ctx, ch)

	timer := s.After(50*time.Millisecond, NewAmfConnectTimerEvt())
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event %s", evt.Type())
	case <-time.After(150 * time.Millisecond):
	}
}

func TestOneShotTimerStopAfterExpiry(t *testing.T) {
	fired := make(chan struct{})
	timer := NewOneShotTimer(context.Background(), time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}
	assert.False(t, timer.Stop())
}
