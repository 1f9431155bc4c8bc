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

// Package workgroup contains a minimal worker pool with a bounded
// backlog. It exists to put an upper bound on the number of
// concurrently-executing tasks without requiring callers to manage
// goroutine lifecycles.
package workgroup

import (
	"context"
	"fmt"
	"sync"
)

// A Group executes callbacks using a bounded number of goroutines and
// a bounded backlog of queued callbacks.
//
// A Group is internally synchronized and is safe for concurrent use.
type Group struct {
	ctx  context.Context
	size int

	mu struct {
		sync.Mutex
		queue   chan func(context.Context)
		workers int
	}
}

// WithSize constructs a [Group] that runs callbacks on at most size
// goroutines, queueing at most queueDepth callbacks beyond that. A
// size below one is treated as one.
func WithSize(ctx context.Context, size, queueDepth int) *Group {
	if size < 1 {
		size = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	g := &Group{ctx: ctx, size: size}
	g.mu.queue = make(chan func(context.Context), queueDepth)
	return g
}

// Go executes the callback in a non-blocking fashion. The callback
// receives the context the Group was constructed with. If all workers
// are busy and the backlog is full, the callback is rejected.
func (g *Group) Go(fn func(context.Context)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.mu.workers < g.size {
		g.mu.workers++
		go g.worker(fn)
		return nil
	}
	select {
	case g.mu.queue <- fn:
		return nil
	default:
		return fmt.Errorf("queue depth %d exceeded", cap(g.mu.queue))
	}
}

// Len returns the number of callbacks that are executing or waiting to
// execute.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mu.workers + len(g.mu.queue)
}

// worker runs the given callback and then drains the backlog. The
// exit decision is made under the same lock that [Group.Go] enqueues
// under, so a queued callback is never stranded without a worker.
func (g *Group) worker(fn func(context.Context)) {
	for {
		fn(g.ctx)
		g.mu.Lock()
		select {
		case next := <-g.mu.queue:
			g.mu.Unlock()
			fn = next
		default:
			g.mu.workers--
			g.mu.Unlock()
			return
		}
	}
}
