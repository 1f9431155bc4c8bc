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

// Package stopper provides a context.Context that distinguishes a soft
// stop request from hard cancellation.
//
// A soft stop, requested via [Context.Stop], closes the channel
// returned by [Context.Stopping]. Tasks are expected to notice the
// request at a safe point (for this module: between allocation cycles,
// never while holding a resource) and return voluntarily. The
// underlying context is canceled only once all tasks have exited or
// the grace period has elapsed, whichever comes first.
package stopper

import (
	"context"
	"sync"
	"time"
)

type contextKey struct{}

// Context is a context.Context that also tracks a set of tasks and a
// soft-stop request. It is created by [WithContext].
//
// A Context is internally synchronized and is safe for concurrent use.
type Context struct {
	context.Context
	cancel   context.CancelFunc
	stopping chan struct{}
	tasks    sync.WaitGroup

	mu struct {
		sync.Mutex
		stopped bool
		err     error
	}
}

// WithContext wraps the parent context in a new stopper [Context].
// Cancellation of the parent propagates as a stop request, so tasks
// observing only [Context.Stopping] still terminate.
func WithContext(parent context.Context) *Context {
	s := &Context{stopping: make(chan struct{})}
	inner, cancel := context.WithCancel(context.WithValue(parent, contextKey{}, s))
	s.Context = inner
	s.cancel = cancel
	go func() {
		<-inner.Done()
		s.Stop(0)
	}()
	return s
}

// From returns the enclosing [Context], or nil if ctx was not derived
// from one.
func From(ctx context.Context) *Context {
	s, _ := ctx.Value(contextKey{}).(*Context)
	return s
}

// Go starts a tracked task. It returns false without starting the task
// if a stop has already been requested. The error returned by the task
// is retained and reported by [Context.Wait]; only the first non-nil
// error is kept.
func (s *Context) Go(fn func(ctx *Context) error) bool {
	if s.IsStopping() {
		return false
	}
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		if err := fn(s); err != nil {
			s.mu.Lock()
			if s.mu.err == nil {
				s.mu.err = err
			}
			s.mu.Unlock()
		}
	}()
	return true
}

// IsStopping returns true once a stop has been requested.
func (s *Context) IsStopping() bool {
	select {
	case <-s.stopping:
		return true
	default:
		return false
	}
}

// Stop requests a soft stop. The channel returned by
// [Context.Stopping] is closed immediately. With a positive
// gracePeriod, the underlying context is canceled once every task
// started by [Context.Go] has returned, or once the grace period
// elapses with tasks still running, whichever comes first. A zero or
// negative gracePeriod cancels the context immediately.
//
// Calling Stop again with a zero gracePeriod escalates a pending soft
// stop to a hard cancellation. Other repeated calls have no effect.
func (s *Context) Stop(gracePeriod time.Duration) {
	s.mu.Lock()
	already := s.mu.stopped
	s.mu.stopped = true
	s.mu.Unlock()
	if already {
		if gracePeriod <= 0 {
			s.cancel()
		}
		return
	}
	close(s.stopping)

	if gracePeriod <= 0 {
		s.cancel()
		return
	}
	go func() {
		finished := make(chan struct{})
		go func() {
			s.tasks.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(gracePeriod):
		case <-s.Context.Done():
		}
		s.cancel()
	}()
}

// Stopping returns a channel that is closed when a stop has been
// requested. Unlike [context.Context.Done], a closed channel does not
// imply that blocking operations should abort; it tells a task not to
// begin new work.
func (s *Context) Stopping() <-chan struct{} {
	return s.stopping
}

// Wait blocks until all tasks started by [Context.Go] have returned
// and reports the first error any of them produced. Wait should be
// called after the initial set of tasks has been started.
func (s *Context) Wait() error {
	s.tasks.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.err
}
