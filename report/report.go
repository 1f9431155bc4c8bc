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

// Package report formats simulation results for people.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cockroachdb/ringalloc/sim"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	passStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	stoppedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// Verdict classifies a result as PASS, FAIL, or STOPPED. A stopped run
// is never a failure; it simply did less work than configured.
func Verdict(res *sim.Result) string {
	switch {
	case res.Stopped:
		return "STOPPED"
	case res.Total == res.Expected:
		return "PASS"
	default:
		return "FAIL"
	}
}

// Render formats a result as a small, aligned table followed by a
// verdict line. With color enabled, the header and verdict are styled;
// the layout is identical either way.
func Render(res *sim.Result, color bool) string {
	style := func(s lipgloss.Style, text string) string {
		if !color {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	b.WriteString(style(headerStyle, "ring allocation summary"))
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  mode: %s  seed: %d  elapsed: %s\n\n",
		res.Mode, res.Seed, res.Elapsed.Round(time.Millisecond))

	fmt.Fprintf(&b, "  %5s  %5s\n", "agent", "meals")
	for seat, meals := range res.Meals {
		fmt.Fprintf(&b, "  %5d  %5d", seat, meals)
		if meals != res.Cycles {
			fmt.Fprintf(&b, " of %d", res.Cycles)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %5s  %5d of %d expected\n\n", "total", res.Total, res.Expected)

	switch Verdict(res) {
	case "PASS":
		b.WriteString(style(passStyle,
			fmt.Sprintf("PASS: all %d agents completed %d cycles", len(res.Meals), res.Cycles)))
	case "STOPPED":
		b.WriteString(style(stoppedStyle,
			fmt.Sprintf("STOPPED: %d of %d cycles completed before shutdown", res.Total, res.Expected)))
	default:
		b.WriteString(style(failStyle,
			fmt.Sprintf("FAIL: completed %d of %d expected cycles", res.Total, res.Expected)))
	}
	b.WriteByte('\n')
	return b.String()
}
