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

// Package tui renders a live view of a running simulation.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cockroachdb/ringalloc/agent"
	"github.com/cockroachdb/ringalloc/sim"
	"github.com/cockroachdb/ringalloc/stopper"
)

const (
	// tickInterval is how often the view polls agent state.
	tickInterval = 100 * time.Millisecond
	// stopGrace bounds how long a first quit keypress waits for agents
	// to finish their current cycle.
	stopGrace = 10 * time.Second
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	thinkingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	hungryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	eatingStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	doneStyle     = lipgloss.NewStyle().Faint(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	stopStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// tickMsg is sent periodically to refresh the view with agent state.
type tickMsg time.Time

// simDoneMsg carries the result of the simulation goroutine.
type simDoneMsg struct {
	res *sim.Result
	err error
}

// tick returns a command that sends a tickMsg after a short delay.
func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model is the Bubbletea model for the live ring view.
type Model struct {
	sim    *sim.Simulation
	stop   *stopper.Context
	cycles int
	mode   string

	spin   spinner.Model
	bar    progress.Model
	phases []agent.Phase
	meals  []int

	width    int
	stopping bool
	done     *simDoneMsg
}

func newModel(simulation *sim.Simulation, cfg sim.Config) Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(eatingStyle),
	)
	bar := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)
	n := len(simulation.Agents())
	return Model{
		sim:    simulation,
		cycles: cfg.Cycles,
		mode:   cfg.Mode.String(),
		spin:   sp,
		bar:    bar,
		phases: make([]agent.Phase, n),
		meals:  make([]int, n),
	}
}

// Init starts the spinner and the poll loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, tick())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			// The first press lets agents finish their cycle; the
			// second cancels outright and closes the view.
			if !m.stopping {
				m.stopping = true
				m.stop.Stop(stopGrace)
				return m, nil
			}
			m.stop.Stop(0)
			return m, tea.Quit
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = barWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tickMsg:
		m.poll()
		if m.stop.IsStopping() {
			m.stopping = true
		}
		return m, tick()

	case simDoneMsg:
		m.done = &msg
		// Refresh once more so the final frame shows the end state.
		m.poll()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) poll() {
	for i, a := range m.sim.Agents() {
		m.phases[i] = a.Phase().Peek()
		m.meals[i] = a.Meals()
	}
}

// View renders one row per agent with its phase and progress.
func (m Model) View() string {
	var b strings.Builder

	title := fmt.Sprintf("ring of %d agents, %d cycles each, %s hand-off",
		len(m.phases), m.cycles, m.mode)
	b.WriteString(m.spin.View() + titleStyle.Render(title) + "\n\n")

	for i, phase := range m.phases {
		pct := 1.0
		if m.cycles > 0 {
			pct = float64(m.meals[i]) / float64(m.cycles)
		}
		b.WriteString(fmt.Sprintf("  %3d  %s %s %d/%d\n",
			i,
			phaseStyle(phase).Render(fmt.Sprintf("%-8s", phase)),
			m.bar.ViewAs(pct),
			m.meals[i], m.cycles))
	}

	b.WriteString("\n")
	switch {
	case m.done != nil:
		// Final frame; the summary is printed after the view closes.
	case m.stopping:
		b.WriteString(stopStyle.Render("stopping: agents are finishing their cycle, press q again to cancel") + "\n")
	default:
		b.WriteString(helpStyle.Render("press q to stop") + "\n")
	}
	return b.String()
}

func phaseStyle(p agent.Phase) lipgloss.Style {
	switch p {
	case agent.PhaseHungry:
		return hungryStyle
	case agent.PhaseEating:
		return eatingStyle
	case agent.PhaseDone:
		return doneStyle
	default:
		return thinkingStyle
	}
}

// barWidth keeps the progress bars inside the terminal while leaving
// room for the seat, phase, and meal columns.
func barWidth(total int) int {
	w := total - 30
	if w < 10 {
		w = 10
	}
	if w > 40 {
		w = 40
	}
	return w
}
