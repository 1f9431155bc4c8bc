// Copyright 2026 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the lifecycle of one agent in the ring.
//
// An [Agent] repeatedly thinks, acquires its two resources, eats, and
// releases them, for a fixed number of cycles. Deadlock freedom rests
// on a single rule the agent never bends: the lower-numbered resource
// is always acquired before the higher-numbered one, and construction
// panics if the resources are presented in any other order.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/ringalloc/notify"
	"github.com/cockroachdb/ringalloc/resource"
	"github.com/cockroachdb/ringalloc/stopper"
)

// A Delay describes a randomized pause drawn uniformly from the
// half-open interval [Min, Max). A Delay whose Max is at or below Min
// always yields Min.
type Delay struct {
	Min time.Duration
	Max time.Duration
}

func (d Delay) pick(rng *rand.Rand) time.Duration {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + time.Duration(rng.Int63n(int64(d.Max-d.Min)))
}

// An AcquireTimeoutError is returned from [Agent.Run] when a bounded
// acquisition waits longer than its limit. It is a fatal outcome for
// the run; the agent does not retry the acquisition.
type AcquireTimeoutError struct {
	Agent    int
	Resource int
	Timeout  time.Duration
}

func (e *AcquireTimeoutError) Error() string {
	return fmt.Sprintf("agent %d timed out after %s waiting for resource %d",
		e.Agent, e.Timeout, e.Resource)
}

// Config describes one agent.
type Config struct {
	// Seat is the agent's position in the ring and its identity when
	// acquiring resources.
	Seat int
	// Cycles is the number of times the agent will eat before exiting.
	Cycles int
	// Low and High are the agent's two resources in ascending id
	// order. [New] panics if the order is violated.
	Low  *resource.Resource
	High *resource.Resource
	// Think and Eat bound the randomized pauses of each cycle.
	Think Delay
	Eat   Delay
	// Timeout bounds each individual resource acquisition. Zero or
	// negative waits without bound.
	Timeout time.Duration
	// Seed feeds the agent's private random source.
	Seed int64
	// Log receives per-transition debug output. Defaults to
	// [slog.Default].
	Log *slog.Logger
}

// An Agent cycles through thinking, acquiring, and eating until its
// cycle budget is spent. Create one with [New] and drive it with
// [Agent.Run], typically on a goroutine of its own.
type Agent struct {
	seat    int
	cycles  int
	low     *resource.Resource
	high    *resource.Resource
	think   Delay
	eat     Delay
	timeout time.Duration
	log     *slog.Logger
	rng     *rand.Rand // used only from Run
	phase   *notify.Var[Phase]
	meals   atomic.Int64
}

// New constructs an idle Agent in [PhaseThinking]. It panics if the
// configuration is unusable: nil resources, resources out of ascending
// id order, or a negative cycle count. Validating user input is the
// caller's job; by the time an Agent is built the numbers must be
// sound.
func New(cfg Config) *Agent {
	if cfg.Low == nil || cfg.High == nil {
		panic(fmt.Sprintf("agent %d resources must not be nil", cfg.Seat))
	}
	if cfg.Low.ID() >= cfg.High.ID() {
		panic(fmt.Sprintf("agent %d resources out of order: %d is not below %d",
			cfg.Seat, cfg.Low.ID(), cfg.High.ID()))
	}
	if cfg.Cycles < 0 {
		panic(fmt.Sprintf("agent %d cycle count %d must not be negative", cfg.Seat, cfg.Cycles))
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		seat:    cfg.Seat,
		cycles:  cfg.Cycles,
		low:     cfg.Low,
		high:    cfg.High,
		think:   cfg.Think,
		eat:     cfg.Eat,
		timeout: cfg.Timeout,
		log:     log,
		rng:     rand.New(rand.NewSource(cfg.Seed)),
		phase:   notify.VarOf(PhaseThinking),
	}
}

// Seat returns the agent's position in the ring.
func (a *Agent) Seat() int { return a.seat }

// Phase returns a variable that tracks the agent's progression through
// its cycle.
func (a *Agent) Phase() *notify.Var[Phase] { return a.phase }

// Meals returns the number of cycles the agent has completed so far.
// It is safe to call while the agent is running.
func (a *Agent) Meals() int { return int(a.meals.Load()) }

// Run executes the agent's cycles and returns once the agent holds no
// resources. A clean exit, including one cut short by a stop request,
// returns nil and leaves the agent in [PhaseDone]. Context
// cancellation and acquisition timeouts abort the run with an error
// after releasing anything held; the phase then remains wherever the
// agent was when it failed.
//
// Stop requests are honored only between cycles. An agent that has
// started acquiring finishes its meal and releases both resources
// before it looks again, so a stopped run never strands a resource.
func (a *Agent) Run(ctx *stopper.Context) error {
	for cycle := 1; cycle <= a.cycles; cycle++ {
		if ctx.IsStopping() {
			a.log.Debug("stopping early", "agent", a.seat, "cycle", cycle, "of", a.cycles)
			a.phase.Set(PhaseDone)
			return nil
		}
		if err := a.cycle(ctx, cycle); err != nil {
			return err
		}
	}
	a.log.Debug("all cycles complete", "agent", a.seat, "meals", a.Meals())
	a.phase.Set(PhaseDone)
	return nil
}

func (a *Agent) cycle(ctx *stopper.Context, cycle int) error {
	a.phase.Set(PhaseThinking)
	a.log.Debug("thinking", "agent", a.seat, "cycle", cycle)
	if err := sleepFor(ctx, a.think.pick(a.rng)); err != nil {
		return err
	}

	a.phase.Set(PhaseHungry)
	a.log.Debug("hungry", "agent", a.seat, "cycle", cycle)
	if err := a.acquire(ctx, a.low); err != nil {
		return err
	}
	if err := a.acquire(ctx, a.high); err != nil {
		a.low.Release(a.seat)
		return err
	}

	a.phase.Set(PhaseEating)
	a.log.Debug("eating", "agent", a.seat, "cycle", cycle)
	if err := sleepFor(ctx, a.eat.pick(a.rng)); err != nil {
		a.high.Release(a.seat)
		a.low.Release(a.seat)
		return err
	}
	a.meals.Add(1)

	a.high.Release(a.seat)
	a.low.Release(a.seat)
	a.log.Debug("released", "agent", a.seat, "cycle", cycle)
	return nil
}

func (a *Agent) acquire(ctx context.Context, res *resource.Resource) error {
	if a.timeout <= 0 {
		return res.Acquire(ctx, a.seat)
	}
	ok, err := res.TryAcquire(ctx, a.seat, a.timeout)
	if err != nil {
		return err
	}
	if !ok {
		return &AcquireTimeoutError{Agent: a.seat, Resource: res.ID(), Timeout: a.timeout}
	}
	return nil
}

func sleepFor(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
