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

// Package sim coordinates a ring of agents contending for shared
// resources and accounts for the work they complete.
//
// A [Simulation] owns one [resource.Table] and one [agent.Agent] per
// seat. [Simulation.Run] starts every agent through a [Runner], waits
// for all of them to exit, and reconciles the per-agent meal counts
// against the configured total. Observers may follow the run through
// [Simulation.Outcome] without disturbing it.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/ringalloc/agent"
	"github.com/cockroachdb/ringalloc/resource"
	"github.com/cockroachdb/ringalloc/ring"
	"github.com/cockroachdb/ringalloc/stopper"
	"github.com/cockroachdb/ringalloc/workgroup"
)

// Defaults for [Config], matching the classic five-seat table.
const (
	DefaultAgents   = 5
	DefaultCycles   = 5
	DefaultThinkMax = 100 * time.Millisecond
	DefaultEatMax   = 50 * time.Millisecond
)

// DefaultConfig returns the classic configuration: five agents eating
// five meals each, with barging hand-off.
func DefaultConfig() Config {
	return Config{
		Agents: DefaultAgents,
		Cycles: DefaultCycles,
		Think:  agent.Delay{Max: DefaultThinkMax},
		Eat:    agent.Delay{Max: DefaultEatMax},
		Mode:   resource.ModeBarge,
	}
}

// Config describes a simulation.
type Config struct {
	// Agents is the number of seats in the ring. There are exactly as
	// many resources as agents.
	Agents int
	// Cycles is the number of meals each agent must complete. Zero is
	// a valid, if quiet, simulation.
	Cycles int
	// Think and Eat bound the randomized pauses of each agent cycle.
	Think agent.Delay
	Eat   agent.Delay
	// Mode selects the hand-off discipline of the shared resources.
	Mode resource.Mode
	// Seed makes runs reproducible. Zero draws a seed from the clock;
	// the effective value is reported in [Result.Seed].
	Seed int64
	// Timeout bounds each individual resource acquisition. Zero waits
	// without bound. A timed-out acquisition is fatal to the run.
	Timeout time.Duration
	// Workers caps the number of goroutines running agents. Zero runs
	// every agent on its own goroutine. Agents that are waiting for a
	// worker hold no resources, so a small worker pool cannot
	// introduce a deadlock.
	Workers int
	// Log receives progress output. Defaults to [slog.Default].
	Log *slog.Logger
}

// Validate returns an error wrapping [ErrInvalidConfig] if the
// configuration cannot produce a runnable simulation.
func (c *Config) Validate() error {
	if c.Agents < 2 {
		return invalidf("agents must be at least 2, got %d", c.Agents)
	}
	if c.Cycles < 0 {
		return invalidf("cycles must not be negative, got %d", c.Cycles)
	}
	if c.Think.Min < 0 || c.Think.Max < 0 {
		return invalidf("think delay must not be negative, got [%s, %s)", c.Think.Min, c.Think.Max)
	}
	if c.Eat.Min < 0 || c.Eat.Max < 0 {
		return invalidf("eat delay must not be negative, got [%s, %s)", c.Eat.Min, c.Eat.Max)
	}
	if c.Mode != resource.ModeFair && c.Mode != resource.ModeBarge {
		return invalidf("unknown resource mode %d", int(c.Mode))
	}
	if c.Timeout < 0 {
		return invalidf("acquisition timeout must not be negative, got %s", c.Timeout)
	}
	if c.Workers < 0 {
		return invalidf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// A Result summarizes a completed run.
type Result struct {
	// Meals holds the number of completed cycles per seat.
	Meals []int
	// Total is the sum over Meals; Expected is Agents times Cycles.
	Total    int
	Expected int
	// Cycles echoes the configured per-agent cycle count.
	Cycles int
	// Seed is the effective random seed; rerunning with it reproduces
	// the schedule of delays.
	Seed int64
	// Mode echoes the configured hand-off discipline.
	Mode resource.Mode
	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration
	// Stopped is true if a stop request ended the run before every
	// cycle completed. A stopped result is not reconciled against
	// Expected.
	Stopped bool
}

// A Simulation owns the agents and resources of one run. Create one
// with [New].
type Simulation struct {
	cfg     Config
	seed    int64
	table   *resource.Table
	agents  []*agent.Agent
	runner  Runner
	outcome Outcome
	started atomic.Bool
}

// New validates the configuration and constructs an idle Simulation.
// Agent seats are numbered 0 through Agents-1; the agent in seat i
// shares resource i with one neighbor and resource (i+1) mod Agents
// with the other.
func New(cfg Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	table := resource.NewTable(cfg.Agents, cfg.Mode)
	agents := make([]*agent.Agent, cfg.Agents)
	for seat := range agents {
		low, high := ring.PairFor(seat, cfg.Agents).Ordered()
		agents[seat] = agent.New(agent.Config{
			Seat:    seat,
			Cycles:  cfg.Cycles,
			Low:     table.Get(low),
			High:    table.Get(high),
			Think:   cfg.Think,
			Eat:     cfg.Eat,
			Timeout: cfg.Timeout,
			Seed:    seed + int64(seat),
			Log:     cfg.Log,
		})
	}
	return &Simulation{
		cfg:     cfg,
		seed:    seed,
		table:   table,
		agents:  agents,
		outcome: NewOutcome(),
	}, nil
}

// Agents returns the simulation's agents in seat order. Callers must
// not modify the slice.
func (s *Simulation) Agents() []*agent.Agent { return s.agents }

// Outcome returns a variable that tracks the simulation's lifecycle.
func (s *Simulation) Outcome() Outcome { return s.outcome }

// SetEvents sets an optional callback instance on every resource. It
// must be called before [Simulation.Run].
func (s *Simulation) SetEvents(events *resource.Events) { s.table.SetEvents(events) }

// SetRunner overrides how agent goroutines are started. It must be
// called before [Simulation.Run]. The default runner is chosen from
// the configuration: a [workgroup.Group] when Workers is set,
// otherwise [GoRunner].
func (s *Simulation) SetRunner(runner Runner) { s.runner = runner }

// Run starts every agent, waits for all of them to exit, and returns
// the reconciled result. It panics if called more than once.
//
// A clean, complete run returns a Result whose Total equals Expected.
// A run ended early by a stop request returns a Result with Stopped
// set and a nil error. If any agent fails, the first failure in seat
// order is returned. A completed run whose ledger does not add up
// returns the Result alongside a [MismatchError].
//
// A graceful [stopper.Context.Stop] only waits for the stopper's own
// tasks, so callers that want the stop to let agents finish their
// cycle should execute Run through [stopper.Context.Go].
func (s *Simulation) Run(ctx *stopper.Context) (*Result, error) {
	if !s.started.CompareAndSwap(false, true) {
		panic("simulation already ran")
	}
	log := s.cfg.Log
	log.Info("starting simulation",
		"agents", s.cfg.Agents,
		"cycles", s.cfg.Cycles,
		"mode", s.cfg.Mode,
		"seed", s.seed,
	)
	s.outcome.Set(running)
	start := time.Now()

	runner := s.runner
	if runner == nil {
		if s.cfg.Workers > 0 {
			// The queue is deep enough for every agent, so Go below
			// can only fail for a custom runner.
			runner = workgroup.WithSize(ctx, s.cfg.Workers, len(s.agents))
		} else {
			runner = GoRunner(ctx)
		}
	}

	errs := make([]error, len(s.agents))
	var wg sync.WaitGroup
	for i, a := range s.agents {
		i, a := i, a
		wg.Add(1)
		err := runner.Go(func(runCtx context.Context) {
			defer wg.Done()
			sc := stopper.From(runCtx)
			if sc == nil {
				sc = ctx
			}
			errs[i] = a.Run(sc)
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("spawning agent %d: %w", i, err)
		}
	}
	wg.Wait()

	res := &Result{
		Meals:    make([]int, len(s.agents)),
		Expected: s.cfg.Agents * s.cfg.Cycles,
		Cycles:   s.cfg.Cycles,
		Seed:     s.seed,
		Mode:     s.cfg.Mode,
		Elapsed:  time.Since(start),
	}
	for i, a := range s.agents {
		res.Meals[i] = a.Meals()
		res.Total += res.Meals[i]
	}

	for _, err := range errs {
		if err != nil {
			log.Error("simulation failed", "error", err, "elapsed", res.Elapsed)
			s.outcome.Set(StatusFor(err))
			return nil, err
		}
	}

	if ctx.IsStopping() && res.Total != res.Expected {
		res.Stopped = true
		log.Info("simulation stopped early",
			"total", res.Total,
			"expected", res.Expected,
			"elapsed", res.Elapsed,
		)
		s.outcome.Set(stopped)
		return res, nil
	}

	if res.Total != res.Expected {
		err := &MismatchError{Total: res.Total, Expected: res.Expected}
		log.Error("simulation failed", "error", err, "elapsed", res.Elapsed)
		s.outcome.Set(StatusFor(err))
		return res, err
	}

	log.Info("simulation complete", "total", res.Total, "elapsed", res.Elapsed)
	s.outcome.Set(success)
	return res, nil
}
