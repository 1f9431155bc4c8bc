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

// Package notify contains a utility for observing changes to a
// variable. It is the substrate for awaiting agent phase transitions
// and run outcomes without polling.
package notify

import "sync"

// A Var holds a value and allows callers to wait for updates to it.
// The zero value of a Var holds the zero value of T.
//
// A Var is internally synchronized and is safe for concurrent use. A
// Var should not be copied after it has been created.
type Var[T any] struct {
	mu struct {
		sync.Mutex
		changed chan struct{}
		value   T
	}
}

// VarOf constructs a [Var] holding the given value.
func VarOf[T any](value T) *Var[T] {
	v := &Var[T]{}
	v.mu.value = value
	return v
}

// Get returns the current value and a channel that will be closed the
// next time [Var.Set] is called.
func (v *Var[T]) Get() (T, <-chan struct{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.mu.changed == nil {
		v.mu.changed = make(chan struct{})
	}
	return v.mu.value, v.mu.changed
}

// Peek returns the current value without arming a change notification.
func (v *Var[T]) Peek() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.mu.value
}

// Set replaces the value and wakes any callers blocked on a channel
// previously returned from [Var.Get].
func (v *Var[T]) Set(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.mu.value = value
	if v.mu.changed != nil {
		close(v.mu.changed)
		v.mu.changed = nil
	}
}
