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

package sim

import (
	"context"
	"fmt"

	"github.com/cockroachdb/ringalloc/notify"
)

// Outcome is a convenience type alias.
type Outcome = *notify.Var[*Status]

// NewOutcome is a convenience method to allocate an Outcome.
func NewOutcome() Outcome {
	return notify.VarOf(pending)
}

// Status describes the lifecycle of a [Simulation]. Observers receive
// it through [Simulation.Outcome].
type Status struct {
	err error
}

// StatusFor constructs a successful status if err is nil. Otherwise,
// it returns a new Status object that returns the error.
func StatusFor(err error) *Status {
	if err == nil {
		return success
	}
	return &Status{err: err}
}

// Sentinel instances of Status.
var (
	pending = &Status{}
	running = &Status{}
	stopped = &Status{}
	success = &Status{}
)

// Completed returns true once the simulation has reached a terminal
// state. See also [Status.Success].
func (s *Status) Completed() bool {
	return s == success || s == stopped || s.err != nil
}

// Err returns the error that ended the simulation, if any.
func (s *Status) Err() error {
	return s.err
}

// Running returns true while agents are executing.
func (s *Status) Running() bool {
	return s == running
}

// Stopped returns true if the simulation exited cleanly before all
// cycles completed because a stop was requested.
func (s *Status) Stopped() bool {
	return s == stopped
}

// Success returns true if every agent completed every cycle and the
// ledger added up.
func (s *Status) Success() bool {
	return s == success
}

func (s *Status) String() string {
	switch s {
	case pending:
		return "pending"
	case running:
		return "running"
	case stopped:
		return "stopped"
	case success:
		return "success"
	default:
		return fmt.Sprintf("error: %v", s.err)
	}
}

// Wait blocks until every outcome reaches a terminal state or the
// context is done. It returns the first error carried by any outcome.
func Wait(ctx context.Context, outcomes []Outcome) error {
outcome:
	for _, o := range outcomes {
		for {
			status, changed := o.Get()
			if err := status.Err(); err != nil {
				return err
			}
			if status.Completed() {
				continue outcome
			}
			select {
			case <-changed:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return nil
}
