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

// Package cmd wires the allocator into a command-line tool.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cockroachdb/ringalloc/internal/config"
	"github.com/cockroachdb/ringalloc/internal/logging"
	"github.com/cockroachdb/ringalloc/internal/tui"
	"github.com/cockroachdb/ringalloc/report"
	"github.com/cockroachdb/ringalloc/resource"
	"github.com/cockroachdb/ringalloc/sim"
	"github.com/cockroachdb/ringalloc/stopper"
)

// stopGrace bounds how long a first interrupt waits for agents to
// finish their current cycle before the run is cancelled outright.
const stopGrace = 10 * time.Second

var rootCmd = &cobra.Command{
	Use:   "ringalloc",
	Short: "Deadlock-free allocation of shared resources around a ring",
	Long: `Ringalloc seats a number of agents around a ring of shared resources.
Each agent alternates between thinking and eating, and must hold the two
resources adjacent to its seat to eat. Acquisitions always take the
lower-numbered resource first, so no cycle of waiting agents can form.

The run ends when every agent has eaten the configured number of cycles,
and a summary reports the totals. A first interrupt lets agents finish
their current cycle; a second cancels immediately.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := config.Default()

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/ringalloc/ringalloc.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))

	flags := rootCmd.PersistentFlags()
	flags.IntP("agents", "n", defaults.Agents, "number of seats in the ring")
	flags.IntP("cycles", "k", defaults.Cycles, "cycles each agent must complete")
	flags.Int("think-min-ms", defaults.Think.MinMs, "minimum think pause in milliseconds")
	flags.Int("think-max-ms", defaults.Think.MaxMs, "exclusive maximum think pause in milliseconds")
	flags.Int("eat-min-ms", defaults.Eat.MinMs, "minimum eat pause in milliseconds")
	flags.Int("eat-max-ms", defaults.Eat.MaxMs, "exclusive maximum eat pause in milliseconds")
	flags.String("mode", defaults.Mode, "resource hand-off discipline: barge or fair")
	flags.Int64("seed", defaults.Seed, "random seed; 0 draws from the clock")
	flags.Int("acquire-timeout-ms", defaults.AcquireTimeoutMs, "per-acquisition timeout in milliseconds; 0 waits forever")
	flags.Int("workers", defaults.Workers, "cap on goroutines running agents; 0 means one per agent")
	flags.BoolP("watch", "w", defaults.Watch, "render a live view of the ring")
	flags.Bool("color", defaults.Color, "style the final summary")
	flags.String("log-level", defaults.Logging.Level, fmt.Sprintf("log level: %s", strings.Join(logging.ValidLevels(), ", ")))
	flags.String("log-format", defaults.Logging.Format, "log format: text or json")

	for key, flag := range map[string]string{
		"agents":             "agents",
		"cycles":             "cycles",
		"think.min_ms":       "think-min-ms",
		"think.max_ms":       "think-max-ms",
		"eat.min_ms":         "eat-min-ms",
		"eat.max_ms":         "eat-max-ms",
		"mode":               "mode",
		"seed":               "seed",
		"acquire_timeout_ms": "acquire-timeout-ms",
		"workers":            "workers",
		"watch":              "watch",
		"color":              "color",
		"logging.level":      "log-level",
		"logging.format":     "log-format",
	} {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	// Set defaults first so they're available even without a config file.
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("ringalloc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("RINGALLOC")
	// Nested keys map to underscored env vars, e.g. RINGALLOC_THINK_MAX_MS
	// for think.max_ms.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found).
	_ = viper.ReadInConfig()
}

func runRoot(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	simCfg, err := cfg.Sim(log)
	if err != nil {
		return err
	}
	simulation, err := sim.New(simCfg)
	if err != nil {
		return err
	}
	if !cfg.Watch {
		// Progress lines from the ownership callbacks; visible with
		// --log-level debug.
		simulation.SetEvents(&resource.Events{
			OnAcquire: func(res, ag int, wait time.Duration) {
				log.Debug("picked up resource", "agent", ag, "resource", res, "wait", wait)
			},
			OnRelease: func(res, ag int, held time.Duration) {
				log.Debug("put down resource", "agent", ag, "resource", res, "held", held)
			},
		})
	}

	s := stopper.WithContext(cmd.Context())
	defer s.Stop(0)

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		log.Info("shutdown requested, letting agents finish their cycle")
		s.Stop(stopGrace)
		<-sigCh
		log.Warn("second interrupt, cancelling now")
		s.Stop(0)
	}()

	var (
		res    *sim.Result
		runErr error
	)
	if cfg.Watch {
		res, runErr = tui.New(simulation, simCfg).Run(s)
	} else if s.Go(func(s *stopper.Context) error {
		// A tracked task makes the graceful stop wait for the agents
		// to finish their cycle before the context is cancelled.
		var err error
		res, err = simulation.Run(s)
		return err
	}) {
		runErr = s.Wait()
	}
	if res != nil {
		fmt.Fprint(cmd.OutOrStdout(), report.Render(res, cfg.Color))
	}
	return runErr
}
