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
	"errors"
	"fmt"

	"github.com/cockroachdb/ringalloc/agent"
)

// ErrInvalidConfig tags every error returned by [Config.Validate].
// Configuration problems are detected before any agent starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// An InvalidConfigError describes the first problem found in a
// [Config]. It matches [ErrInvalidConfig] under [errors.Is].
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

func invalidf(format string, args ...any) error {
	return &InvalidConfigError{Reason: fmt.Sprintf(format, args...)}
}

// An AcquireTimeoutError is returned by [Simulation.Run] when an agent
// gave up waiting for a resource. It ends the run; the acquisition is
// never retried.
type AcquireTimeoutError = agent.AcquireTimeoutError

// A MismatchError reports a run in which every agent exited cleanly
// but the completed cycles do not add up to the expected total. It
// indicates lost or duplicated work and is never returned for a run
// that was stopped early.
type MismatchError struct {
	Total    int
	Expected int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("completed %d total cycles, expected %d", e.Total, e.Expected)
}
