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

// Package ring maps agents onto the resources of a ring topology.
//
// Agents are seated in a ring of N resources. The agent in seat i
// shares resource i with its left neighbor and resource (i+1) mod N
// with its right neighbor. If every agent grabbed its left resource
// and then waited for its right one, the waits would form a cycle and
// no agent could proceed. Acquiring the two resources in ascending
// numeric order instead makes a cycle impossible: the agent holding
// the highest-numbered resource anywhere in the ring is never waiting
// on a lower-numbered one, so at least one agent can always finish.
package ring

import "fmt"

// A Pair names the two resources assigned to one seat of the ring.
// Left and Right describe the seat's view of the table, not the order
// in which the resources may be acquired; see [Pair.Ordered].
type Pair struct {
	Left  int
	Right int
}

// PairFor returns the resource pair for the given seat in a ring of
// size resources. It panics if size is less than two or seat is out of
// range, since such a ring cannot be constructed.
func PairFor(seat, size int) Pair {
	if size < 2 {
		panic(fmt.Sprintf("ring size %d must be at least 2", size))
	}
	if seat < 0 || seat >= size {
		panic(fmt.Sprintf("seat %d out of range for ring of %d", seat, size))
	}
	return Pair{Left: seat, Right: (seat + 1) % size}
}

// Ordered returns the pair's resources in ascending numeric order.
// This is the order in which they must be acquired.
func (p Pair) Ordered() (low, high int) {
	return Order(p.Left, p.Right)
}

// String is for debugging use only.
func (p Pair) String() string {
	return fmt.Sprintf("(%d,%d)", p.Left, p.Right)
}

// Order returns the two resource ids in ascending order.
func Order(a, b int) (low, high int) {
	if a <= b {
		return a, b
	}
	return b, a
}
