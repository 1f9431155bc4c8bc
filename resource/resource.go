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

// Package resource provides exclusively-held resources with
// cancellable, optionally bounded acquisition.
//
// A [Resource] is held by at most one agent at a time. Waiters block
// until the resource is handed to them or their context is done. The
// discipline used to pick the next holder is selected by a [Mode] at
// construction time.
//
// The package reports ownership transitions through an optional
// [Events] instance to support tracing and invariant checking.
package resource

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Mode selects the discipline used to choose the next holder of a
// contended resource.
type Mode int

const (
	// ModeBarge marks a released resource as free and wakes all
	// waiters. The first agent to reacquire the internal lock wins,
	// and an agent that was never waiting may take the resource ahead
	// of the queue. Throughput is higher, but waiting is unbounded.
	// This is the default.
	ModeBarge Mode = iota
	// ModeFair hands a released resource directly to the waiter that
	// has been waiting the longest. Waiting is bounded: an agent ahead
	// of another in the queue acquires first, and new arrivals cannot
	// overtake the queue.
	ModeFair
)

// String is for debugging use only.
func (m Mode) String() string {
	switch m {
	case ModeFair:
		return "fair"
	case ModeBarge:
		return "barge"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// noHolder is the holder id of a free resource.
const noHolder = -1

// A waiter represents one agent blocked in [Resource.Acquire]. The
// granted flag is set under the resource lock when ownership is
// transferred, so a waiter that stops waiting can tell whether the
// grant raced with its departure.
type waiter struct {
	agent   int
	since   time.Time
	ready   chan struct{}
	granted bool
}

// A Resource is held by at most one agent at a time. The zero value is
// not useful; use [New].
//
// A Resource is internally synchronized and is safe for concurrent
// use, with the exception of [Resource.SetEvents].
type Resource struct {
	id     int
	mode   Mode
	events *Events

	mu struct {
		sync.Mutex
		holder    int
		heldSince time.Time
		waiters   []*waiter     // ModeFair hand-off queue
		freed     chan struct{} // ModeBarge wakeup, re-armed lazily
	}
}

// New constructs a free Resource with the given id.
func New(id int, mode Mode) *Resource {
	r := &Resource{id: id, mode: mode}
	r.mu.holder = noHolder
	return r
}

// ID returns the resource's numeric id. Ids impose the global order in
// which agents holding one resource may wait for another.
func (r *Resource) ID() int { return r.id }

// SetEvents sets an optional callback instance. It must be called
// before the Resource is shared between goroutines.
func (r *Resource) SetEvents(events *Events) { r.events = events }

// Holder returns the agent currently holding the resource. The second
// return value is false if the resource is free. The answer may be
// stale by the time the caller observes it.
func (r *Resource) Holder() (agent int, held bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mu.holder, r.mu.holder != noHolder
}

// Acquire blocks until the resource is held by the given agent or the
// context is done. It panics if the agent already holds the resource.
func (r *Resource) Acquire(ctx context.Context, agent int) error {
	start := time.Now()
	for {
		w, freed := r.join(agent, start)
		switch {
		case w == nil && freed == nil:
			return nil
		case w != nil:
			select {
			case <-w.ready:
				return nil
			case <-ctx.Done():
				r.abandon(w, agent)
				return ctx.Err()
			}
		default:
			select {
			case <-freed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// TryAcquire is [Resource.Acquire] with a bound on the wait. It
// returns false with a nil error if the timeout elapsed before the
// resource could be acquired; an error is returned only if the context
// was cancelled.
func (r *Resource) TryAcquire(ctx context.Context, agent int, timeout time.Duration) (bool, error) {
	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		w, freed := r.join(agent, start)
		switch {
		case w == nil && freed == nil:
			return true, nil
		case w != nil:
			select {
			case <-w.ready:
				return true, nil
			case <-timer.C:
				r.abandon(w, agent)
				return false, nil
			case <-ctx.Done():
				r.abandon(w, agent)
				return false, ctx.Err()
			}
		default:
			select {
			case <-freed:
			case <-timer.C:
				return false, nil
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}
	}
}

// Release makes the resource available to other agents. It panics if
// the given agent does not hold the resource.
func (r *Resource) Release(agent int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.mu.holder {
	case agent:
	case noHolder:
		panic(fmt.Sprintf("agent %d cannot release resource %d: not held", agent, r.id))
	default:
		panic(fmt.Sprintf("agent %d cannot release resource %d held by agent %d",
			agent, r.id, r.mu.holder))
	}
	r.events.doRelease(r.id, agent, time.Since(r.mu.heldSince))
	if r.mode == ModeBarge {
		r.mu.holder = noHolder
		if r.mu.freed != nil {
			close(r.mu.freed)
			r.mu.freed = nil
		}
		return
	}
	r.grantNextLocked()
}

// join attempts an immediate acquisition. On contention it returns, in
// ModeFair, a queued waiter whose ready channel will be closed when
// ownership transfers, or, in ModeBarge, the channel closed by the
// next release. Both are nil when the acquisition succeeded. The barge
// channel is captured under the same critical section that observed
// the holder, so a release cannot slip in between the check and the
// caller's wait.
func (r *Resource) join(agent int, start time.Time) (*waiter, <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mu.holder == agent {
		panic(fmt.Sprintf("agent %d already holds resource %d", agent, r.id))
	}
	if r.mu.holder == noHolder && len(r.mu.waiters) == 0 {
		now := time.Now()
		r.mu.holder = agent
		r.mu.heldSince = now
		r.events.doAcquire(r.id, agent, now.Sub(start))
		return nil, nil
	}
	if r.mode == ModeBarge {
		if r.mu.freed == nil {
			r.mu.freed = make(chan struct{})
		}
		return nil, r.mu.freed
	}
	w := &waiter{agent: agent, since: start, ready: make(chan struct{})}
	r.mu.waiters = append(r.mu.waiters, w)
	return w, nil
}

// grantNextLocked transfers ownership to the longest waiter, or marks
// the resource free if nobody is waiting. Ownership changes hands
// here, before the waiter wakes, so the acquisition event fires now.
func (r *Resource) grantNextLocked() {
	if len(r.mu.waiters) == 0 {
		r.mu.holder = noHolder
		return
	}
	now := time.Now()
	next := r.mu.waiters[0]
	r.mu.waiters = r.mu.waiters[1:]
	next.granted = true
	r.mu.holder = next.agent
	r.mu.heldSince = now
	r.events.doAcquire(r.id, next.agent, now.Sub(next.since))
	close(next.ready)
}

// abandon removes a waiter that has stopped waiting. If the grant
// raced with the departure, ownership has already transferred to the
// agent, so the resource is released again to keep it moving.
func (r *Resource) abandon(w *waiter, agent int) {
	r.mu.Lock()
	if w.granted {
		r.mu.Unlock()
		r.Release(agent)
		return
	}
	for i, other := range r.mu.waiters {
		if other == w {
			r.mu.waiters = append(r.mu.waiters[:i], r.mu.waiters[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
}
