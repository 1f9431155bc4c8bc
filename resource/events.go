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

package resource

import "time"

// Events provides a [Resource] with optional callbacks to observe
// ownership transitions.
//
// Callbacks fire at the exact moment ownership changes hands, while an
// internal lock is held. OnAcquire fires after an agent has become the
// holder, carrying the time the agent spent waiting; OnRelease fires
// before the holder gives the resource up, carrying the time it was
// held. Between an agent's OnAcquire and its OnRelease no other
// agent's callbacks can fire for the same resource. Callbacks must be
// brief and must not call back into this package.
//
// See [Resource.SetEvents] and [Table.SetEvents].
type Events struct {
	OnAcquire func(resource, agent int, wait time.Duration)
	OnRelease func(resource, agent int, held time.Duration)
}

func (e *Events) doAcquire(resource, agent int, wait time.Duration) {
	if e != nil && e.OnAcquire != nil {
		e.OnAcquire(resource, agent, wait)
	}
}

func (e *Events) doRelease(resource, agent int, held time.Duration) {
	if e != nil && e.OnRelease != nil {
		e.OnRelease(resource, agent, held)
	}
}
