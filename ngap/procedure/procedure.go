// SPDX-FileCopyrightText: 2026 Intel Corporation
//
// SPDX-License-Identifier: Apache-2.0

// Package procedure runs multi-step signalling procedures on the NGAP event
// loop. A procedure is started once, fed events until it reaches a final
// outcome, and may then be started again. Every start bumps an instance
// counter so that events bound to an older run can be recognised and dropped.
package procedure

import (
	"fmt"

	"github.com/omec-project/gnbngap/logger"
)

// Outcome is the result of one procedure step
type Outcome int

const (
	Yield Outcome = iota
	Success
	Error
)

func (o Outcome) String() string {
	switch o {
	case Yield:
		return "yield"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

type phase int

const (
	phaseIdle phase = iota
	phaseRunning
	phaseCompleted
)

// Impl is the procedure specific behaviour. Init runs on launch, React on
// every event while running, Then once with the final outcome.
type Impl[E any] interface {
	Init() Outcome
	React(event E) Outcome
	Then(result Outcome)
	Name() string
}

// Proc drives an Impl. It is not safe for concurrent use.
type Proc[E any] struct {
	impl     Impl[E]
	phase    phase
	instance uint64
	result   Outcome
}

func New[E any](impl Impl[E]) *Proc[E] {
	return &Proc[E]{impl: impl}
}

// Launch starts a new run. It is refused while a run is in progress.
func (p *Proc[E]) Launch() bool {
	if p.phase == phaseRunning {
		logger.ProcLog.Warnf("procedure %s[%d] already running", p.impl.Name(), p.instance)
		return false
	}
	p.instance++
	p.phase = phaseRunning
	logger.ProcLog.Debugf("launch procedure %s[%d]", p.impl.Name(), p.instance)
	p.complete(p.impl.Init())
	return true
}

// Trigger feeds an event to the running instance
func (p *Proc[E]) Trigger(event E) bool {
	if p.phase != phaseRunning {
		logger.ProcLog.Debugf("procedure %s not running, event ignored", p.impl.Name())
		return false
	}
	p.complete(p.impl.React(event))
	return true
}

// TriggerInstance feeds the event only if instance is the current run
func (p *Proc[E]) TriggerInstance(instance uint64, event E) bool {
	if instance != p.instance {
		logger.ProcLog.Debugf("procedure %s: stale event for instance %d, current is %d",
			p.impl.Name(), instance, p.instance)
		return false
	}
	return p.Trigger(event)
}

func (p *Proc[E]) complete(o Outcome) {
	if o == Yield {
		return
	}
	// Then may relaunch, so the run is closed before calling it
	p.phase = phaseCompleted
	p.result = o
	logger.ProcLog.Debugf("procedure %s[%d] finished: %s", p.impl.Name(), p.instance, o)
	p.impl.Then(o)
}

func (p *Proc[E]) IsBusy() bool {
	return p.phase == phaseRunning
}

func (p *Proc[E]) IsIdle() bool {
	return p.phase != phaseRunning
}

// Instance identifies the current or most recent run, 0 before the first launch
func (p *Proc[E]) Instance() uint64 {
	return p.instance
}

// Result returns the final outcome of the last completed run
func (p *Proc[E]) Result() (Outcome, bool) {
	if p.phase != phaseCompleted {
		return Yield, false
	}
	return p.result, true
}
