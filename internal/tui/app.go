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

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/cockroachdb/ringalloc/sim"
	"github.com/cockroachdb/ringalloc/stopper"
)

// App wraps the Bubbletea program around a simulation.
type App struct {
	model   Model
	program *tea.Program
}

// New creates the live view for a simulation that has not started yet.
func New(simulation *sim.Simulation, cfg sim.Config) *App {
	return &App{model: newModel(simulation, cfg)}
}

// Run drives the simulation under the given stopper while rendering
// the view, and returns the simulation's result once both are done.
func (a *App) Run(s *stopper.Context) (*sim.Result, error) {
	a.model.stop = s
	a.program = tea.NewProgram(a.model, tea.WithAltScreen())

	// A tracked task makes the graceful stop behind the first q press
	// wait for the agents instead of cancelling them immediately.
	done := make(chan simDoneMsg, 1)
	if !s.Go(func(s *stopper.Context) error {
		res, err := a.model.sim.Run(s)
		msg := simDoneMsg{res: res, err: err}
		done <- msg
		a.program.Send(msg)
		return nil
	}) {
		// Stopped before the run began; there is nothing to show.
		return nil, nil
	}

	_, tuiErr := a.program.Run()

	// The view can exit while agents are still running, either because
	// the user cancelled or because the terminal failed. Cancel the run
	// and wait for it to hand back its result.
	var msg simDoneMsg
	select {
	case msg = <-done:
	default:
		s.Stop(0)
		msg = <-done
	}
	if tuiErr != nil {
		return msg.res, fmt.Errorf("running view: %w", tuiErr)
	}
	return msg.res, msg.err
}
