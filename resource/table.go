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

import "fmt"

// A Table owns the resources of one ring, ids 0 through Len()-1. All
// resources in a table share the same [Mode].
type Table struct {
	resources []*Resource
}

// NewTable constructs a table of size free resources. It panics if
// size is less than two, since a ring needs at least two distinct
// resources.
func NewTable(size int, mode Mode) *Table {
	if size < 2 {
		panic(fmt.Sprintf("table size %d must be at least 2", size))
	}
	t := &Table{resources: make([]*Resource, size)}
	for i := range t.resources {
		t.resources[i] = New(i, mode)
	}
	return t
}

// Get returns the resource with the given id. It panics if id is out
// of range.
func (t *Table) Get(id int) *Resource {
	if id < 0 || id >= len(t.resources) {
		panic(fmt.Sprintf("resource id %d out of range for table of %d", id, len(t.resources)))
	}
	return t.resources[id]
}

// Len returns the number of resources in the table.
func (t *Table) Len() int { return len(t.resources) }

// SetEvents sets an optional callback instance on every resource in
// the table. It must be called before the Table is shared between
// goroutines.
func (t *Table) SetEvents(events *Events) {
	for _, r := range t.resources {
		r.SetEvents(events)
	}
}
