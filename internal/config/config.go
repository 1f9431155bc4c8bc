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

// Package config loads the command-line configuration from flags,
// environment variables, and an optional YAML file, in that order of
// precedence. Values belong to viper; [Load] turns them into a typed
// Config and [Config.Sim] into a runnable simulation description.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cockroachdb/ringalloc/agent"
	"github.com/cockroachdb/ringalloc/resource"
	"github.com/cockroachdb/ringalloc/sim"
)

// Config mirrors the configuration file layout.
type Config struct {
	// Agents is the number of seats in the ring (default: 5)
	Agents int `mapstructure:"agents"`
	// Cycles is the number of meals each agent eats (default: 5)
	Cycles int `mapstructure:"cycles"`
	// Think bounds the pause before each acquisition attempt
	Think DelayConfig `mapstructure:"think"`
	// Eat bounds the pause while both resources are held
	Eat DelayConfig `mapstructure:"eat"`
	// Mode selects the resource hand-off discipline: "barge" or
	// "fair" (default: "barge")
	Mode string `mapstructure:"mode"`
	// Seed makes runs reproducible; 0 draws from the clock
	Seed int64 `mapstructure:"seed"`
	// AcquireTimeoutMs bounds each resource acquisition in
	// milliseconds; 0 waits forever (default: 0)
	AcquireTimeoutMs int `mapstructure:"acquire_timeout_ms"`
	// Workers caps the goroutines running agents; 0 means one per
	// agent (default: 0)
	Workers int `mapstructure:"workers"`
	// Watch renders a live view of the ring instead of log lines
	Watch bool `mapstructure:"watch"`
	// Color styles the final summary (default: true)
	Color bool `mapstructure:"color"`
	// Logging controls diagnostic output
	Logging LoggingConfig `mapstructure:"logging"`
}

// DelayConfig is a randomized pause range in milliseconds.
type DelayConfig struct {
	// MinMs is the inclusive lower bound
	MinMs int `mapstructure:"min_ms"`
	// MaxMs is the exclusive upper bound; at or below MinMs the pause
	// is constant
	MaxMs int `mapstructure:"max_ms"`
}

// Delay converts the range to the agent representation.
func (d *DelayConfig) Delay() agent.Delay {
	return agent.Delay{
		Min: time.Duration(d.MinMs) * time.Millisecond,
		Max: time.Duration(d.MaxMs) * time.Millisecond,
	}
}

// LoggingConfig controls diagnostic output.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Format is "text" or "json" (default: "text")
	Format string `mapstructure:"format"`
}

// Default returns a Config with the classic five-by-five table.
func Default() *Config {
	return &Config{
		Agents: sim.DefaultAgents,
		Cycles: sim.DefaultCycles,
		Think:  DelayConfig{MinMs: 0, MaxMs: 100},
		Eat:    DelayConfig{MinMs: 0, MaxMs: 50},
		Mode:   "barge",
		Color:  true,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("agents", defaults.Agents)
	viper.SetDefault("cycles", defaults.Cycles)
	viper.SetDefault("think.min_ms", defaults.Think.MinMs)
	viper.SetDefault("think.max_ms", defaults.Think.MaxMs)
	viper.SetDefault("eat.min_ms", defaults.Eat.MinMs)
	viper.SetDefault("eat.max_ms", defaults.Eat.MaxMs)
	viper.SetDefault("mode", defaults.Mode)
	viper.SetDefault("seed", defaults.Seed)
	viper.SetDefault("acquire_timeout_ms", defaults.AcquireTimeoutMs)
	viper.SetDefault("workers", defaults.Workers)
	viper.SetDefault("watch", defaults.Watch)
	viper.SetDefault("color", defaults.Color)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)
}

// Load reads the configuration from viper into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	return &cfg, nil
}

// Sim converts the file-level configuration into a simulation
// description. Numeric bounds are checked by [sim.Config.Validate]
// when the simulation is constructed; only the enumerations are
// resolved here.
func (c *Config) Sim(log *slog.Logger) (sim.Config, error) {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Agents:  c.Agents,
		Cycles:  c.Cycles,
		Think:   c.Think.Delay(),
		Eat:     c.Eat.Delay(),
		Mode:    mode,
		Seed:    c.Seed,
		Timeout: time.Duration(c.AcquireTimeoutMs) * time.Millisecond,
		Workers: c.Workers,
		Log:     log,
	}, nil
}

// ParseMode resolves a mode name from the configuration.
func ParseMode(name string) (resource.Mode, error) {
	switch strings.ToLower(name) {
	case "barge":
		return resource.ModeBarge, nil
	case "fair":
		return resource.ModeFair, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want barge or fair)", name)
	}
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "ringalloc")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ringalloc"
	}
	return filepath.Join(home, ".config", "ringalloc")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "ringalloc.yaml")
}
