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

package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestZeroValue(t *testing.T) {
	r := require.New(t)

	var v Var[int]
	value, changed := v.Get()
	r.Zero(value)

	select {
	case <-changed:
		r.Fail("channel closed before any Set")
	default:
	}
}

func TestSetWakesWaiter(t *testing.T) {
	r := require.New(t)

	v := VarOf("initial")
	value, changed := v.Get()
	r.Equal("initial", value)

	done := make(chan string, 1)
	go func() {
		<-changed
		done <- v.Peek()
	}()

	v.Set("updated")
	select {
	case got := <-done:
		r.Equal("updated", got)
	case <-time.After(10 * time.Second):
		r.Fail("waiter never woke")
	}
}

func TestEachGetSeesFreshChannel(t *testing.T) {
	r := require.New(t)

	v := VarOf(0)
	_, first := v.Get()
	v.Set(1)

	select {
	case <-first:
	default:
		r.Fail("first channel should be closed after Set")
	}

	value, second := v.Get()
	r.Equal(1, value)
	select {
	case <-second:
		r.Fail("second channel must not be closed yet")
	default:
	}
}

func TestSetWithoutWaiters(t *testing.T) {
	v := VarOf(1)
	// No Get has armed a channel; Set must not panic or leak.
	v.Set(2)
	v.Set(3)
	require.Equal(t, 3, v.Peek())
}
