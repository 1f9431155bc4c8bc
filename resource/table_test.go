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

package resource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	r := require.New(t)

	tbl := NewTable(5, ModeFair)
	r.Equal(5, tbl.Len())
	for i := 0; i < 5; i++ {
		r.Equal(i, tbl.Get(i).ID())
	}

	r.PanicsWithValue("table size 1 must be at least 2", func() {
		NewTable(1, ModeFair)
	})
	r.PanicsWithValue("resource id 5 out of range for table of 5", func() {
		tbl.Get(5)
	})
	r.PanicsWithValue("resource id -1 out of range for table of 5", func() {
		tbl.Get(-1)
	})
}

func TestTableSetEvents(t *testing.T) {
	r := require.New(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tbl := NewTable(3, ModeFair)
	var mu sync.Mutex
	seen := make(map[int]int)
	tbl.SetEvents(&Events{
		OnAcquire: func(resource, _ int, _ time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			seen[resource]++
		},
	})

	for i := 0; i < tbl.Len(); i++ {
		r.NoError(tbl.Get(i).Acquire(ctx, 0))
		tbl.Get(i).Release(0)
	}

	mu.Lock()
	defer mu.Unlock()
	r.Equal(map[int]int{0: 1, 1: 1, 2: 1}, seen)
}
