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

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cockroachdb/ringalloc/resource"
	"github.com/cockroachdb/ringalloc/stopper"
)

// waitFor polls until the condition holds or the context is done.
func waitFor(ctx context.Context, t *testing.T, cond func() bool) {
	t.Helper()
	for !cond() {
		select {
		case <-ctx.Done():
			t.Fatal("condition never held")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestRunCompletesAllCycles(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s := stopper.WithContext(ctx)

	tbl := resource.NewTable(2, resource.ModeFair)
	a := New(Config{
		Seat:   0,
		Cycles: 3,
		Low:    tbl.Get(0),
		High:   tbl.Get(1),
	})
	r.Equal(0, a.Seat())
	r.Equal(PhaseThinking, a.Phase().Peek())

	r.NoError(a.Run(s))
	r.Equal(3, a.Meals())
	r.Equal(PhaseDone, a.Phase().Peek())

	// Nothing may be left held.
	_, held := tbl.Get(0).Holder()
	r.False(held)
	_, held = tbl.Get(1).Holder()
	r.False(held)
}

func TestZeroCycles(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s := stopper.WithContext(ctx)

	tbl := resource.NewTable(2, resource.ModeFair)
	a := New(Config{Seat: 0, Cycles: 0, Low: tbl.Get(0), High: tbl.Get(1)})
	r.NoError(a.Run(s))
	r.Zero(a.Meals())
	r.Equal(PhaseDone, a.Phase().Peek())
}

// TestAcquiresInOrder records the ownership transitions of a full run
// and checks that every cycle takes the low resource before the high
// one and gives them back in the reverse order.
func TestAcquiresInOrder(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s := stopper.WithContext(ctx)

	const cycles = 4
	tbl := resource.NewTable(2, resource.ModeFair)
	var mu sync.Mutex
	var trace []int // resource id, negated for releases
	tbl.SetEvents(&resource.Events{
		OnAcquire: func(res, _ int, _ time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			trace = append(trace, res+1)
		},
		OnRelease: func(res, _ int, _ time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			trace = append(trace, -(res + 1))
		},
	})

	a := New(Config{Seat: 0, Cycles: cycles, Low: tbl.Get(0), High: tbl.Get(1)})
	r.NoError(a.Run(s))

	mu.Lock()
	defer mu.Unlock()
	r.Len(trace, 4*cycles)
	for i := 0; i < len(trace); i += 4 {
		r.Equal([]int{1, 2, -2, -1}, trace[i:i+4])
	}
}

func TestNewPanics(t *testing.T) {
	r := require.New(t)
	tbl := resource.NewTable(2, resource.ModeFair)

	r.PanicsWithValue("agent 0 resources must not be nil", func() {
		New(Config{Seat: 0, Low: tbl.Get(0)})
	})
	r.PanicsWithValue("agent 3 resources out of order: 1 is not below 0", func() {
		New(Config{Seat: 3, Low: tbl.Get(1), High: tbl.Get(0)})
	})
	r.PanicsWithValue("agent 0 resources out of order: 1 is not below 1", func() {
		New(Config{Seat: 0, Low: tbl.Get(1), High: tbl.Get(1)})
	})
	r.PanicsWithValue("agent 1 cycle count -5 must not be negative", func() {
		New(Config{Seat: 1, Cycles: -5, Low: tbl.Get(0), High: tbl.Get(1)})
	})
}

func TestStopBetweenCycles(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s := stopper.WithContext(ctx)

	tbl := resource.NewTable(2, resource.ModeFair)
	a := New(Config{
		Seat:   0,
		Cycles: 100_000,
		Low:    tbl.Get(0),
		High:   tbl.Get(1),
		Think:  Delay{Min: time.Millisecond, Max: time.Millisecond},
	})

	r.True(s.Go(func(s *stopper.Context) error {
		return a.Run(s)
	}))

	time.Sleep(20 * time.Millisecond)
	s.Stop(10 * time.Second)
	r.NoError(s.Wait())

	r.Equal(PhaseDone, a.Phase().Peek())
	r.Less(a.Meals(), 100_000)
	_, held := tbl.Get(0).Holder()
	r.False(held)
	_, held = tbl.Get(1).Holder()
	r.False(held)
}

// TestHardCancelReleasesHeld cancels an agent mid-meal and checks that
// it gives back both resources on the way out.
func TestHardCancelReleasesHeld(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	s := stopper.WithContext(runCtx)

	tbl := resource.NewTable(2, resource.ModeFair)
	a := New(Config{
		Seat:   0,
		Cycles: 1,
		Low:    tbl.Get(0),
		High:   tbl.Get(1),
		Eat:    Delay{Min: time.Hour, Max: time.Hour},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(s)
	}()
	waitFor(ctx, t, func() bool { return a.Phase().Peek() == PhaseEating })

	cancelRun()
	r.ErrorIs(<-errCh, context.Canceled)

	r.Zero(a.Meals())
	_, held := tbl.Get(0).Holder()
	r.False(held)
	_, held = tbl.Get(1).Holder()
	r.False(held)
}

func TestAcquireTimeout(t *testing.T) {
	t.Run("low", func(t *testing.T) {
		r := require.New(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s := stopper.WithContext(ctx)

		tbl := resource.NewTable(2, resource.ModeFair)
		r.NoError(tbl.Get(0).Acquire(ctx, 99))

		a := New(Config{
			Seat:    0,
			Cycles:  1,
			Low:     tbl.Get(0),
			High:    tbl.Get(1),
			Timeout: 20 * time.Millisecond,
		})
		err := a.Run(s)
		timeout := &AcquireTimeoutError{}
		r.ErrorAs(err, &timeout)
		r.Equal(0, timeout.Agent)
		r.Equal(0, timeout.Resource)
		r.Equal(20*time.Millisecond, timeout.Timeout)
		r.Equal(PhaseHungry, a.Phase().Peek())
	})

	t.Run("high releases low", func(t *testing.T) {
		r := require.New(t)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		s := stopper.WithContext(ctx)

		tbl := resource.NewTable(2, resource.ModeFair)
		r.NoError(tbl.Get(1).Acquire(ctx, 99))

		a := New(Config{
			Seat:    0,
			Cycles:  1,
			Low:     tbl.Get(0),
			High:    tbl.Get(1),
			Timeout: 20 * time.Millisecond,
		})
		err := a.Run(s)
		timeout := &AcquireTimeoutError{}
		r.ErrorAs(err, &timeout)
		r.Equal(1, timeout.Resource)

		// The low resource must not be stranded.
		_, held := tbl.Get(0).Holder()
		r.False(held)
	})
}

func TestTimeoutErrorMessage(t *testing.T) {
	err := &AcquireTimeoutError{Agent: 2, Resource: 3, Timeout: 250 * time.Millisecond}
	assert.Equal(t, "agent 2 timed out after 250ms waiting for resource 3", err.Error())
}

func TestDelayPick(t *testing.T) {
	r := require.New(t)
	rng := rand.New(rand.NewSource(1))

	r.Zero(Delay{}.pick(rng))
	r.Equal(5*time.Millisecond, Delay{Min: 5 * time.Millisecond, Max: 5 * time.Millisecond}.pick(rng))
	r.Equal(5*time.Millisecond, Delay{Min: 5 * time.Millisecond, Max: time.Millisecond}.pick(rng))

	d := Delay{Min: 10 * time.Millisecond, Max: 20 * time.Millisecond}
	for i := 0; i < 1000; i++ {
		picked := d.pick(rng)
		r.GreaterOrEqual(picked, d.Min)
		r.Less(picked, d.Max)
	}
}
