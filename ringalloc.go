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

// Ringalloc simulates agents seated around a ring who must each hold
// the two resources adjacent to their seat at once. Every acquisition
// takes the lower-numbered resource before the higher-numbered one, so
// a cycle of agents each waiting on the next cannot form and the ring
// always drains.
//
// The simulation core is importable without the command-line front
// end; see the sim package. The agent, resource, ring, notify,
// stopper, and workgroup packages are usable on their own.
package main
