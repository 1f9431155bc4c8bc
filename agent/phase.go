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

package agent

import "fmt"

// A Phase describes where an agent is in its cycle. Observers can
// follow transitions through the variable returned by [Agent.Phase].
type Phase int

const (
	// PhaseThinking indicates the agent holds no resources and is
	// pausing before its next attempt to eat. Agents start here.
	PhaseThinking Phase = iota
	// PhaseHungry indicates the agent is acquiring its resources. It
	// may be blocked waiting for one of them.
	PhaseHungry
	// PhaseEating indicates the agent holds both resources.
	PhaseEating
	// PhaseDone indicates the agent exited cleanly, either after
	// completing all of its cycles or after an early stop request.
	PhaseDone
)

// String is for debugging use only.
func (p Phase) String() string {
	switch p {
	case PhaseThinking:
		return "thinking"
	case PhaseHungry:
		return "hungry"
	case PhaseEating:
		return "eating"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}
