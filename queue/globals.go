// Copyright 2026 The Vela Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package queue

import "github.com/modern-go/concurrent"

// Well-known, process-wide queue names. A continuation attached without
// an explicit target queue uses Default.
const (
	NameMain       = "main"
	NameBackground = "background"
	NameDefault    = "default"
)

// registry holds every named queue known to the process, including the
// three well-known ones. It's a concurrent.Map rather than a
// sync.Mutex-guarded map literal: the accessors below still take a lock
// (concurrent.Map guards every operation internally), but the lock
// itself is the pack's, not a hand-rolled one.
var registry = concurrent.NewMap()

func init() {
	registry.Store(NameMain, New(100))
	registry.Store(NameBackground, New(-100))
	registry.Store(NameDefault, New(0))
}

// Main returns the process-wide "main" queue.
func Main() *Queue { return lookup(NameMain) }

// Background returns the process-wide "background" queue.
func Background() *Queue { return lookup(NameBackground) }

// Default returns the process-wide "default" queue, used whenever a
// then/fail/finally/done call is made without an explicit target queue.
func Default() *Queue { return lookup(NameDefault) }

// SetMain swaps the process-wide "main" queue.
func SetMain(q *Queue) { registry.Store(NameMain, q) }

// SetBackground swaps the process-wide "background" queue.
func SetBackground(q *Queue) { registry.Store(NameBackground, q) }

// SetDefault swaps the process-wide "default" queue.
func SetDefault(q *Queue) { registry.Store(NameDefault, q) }

// Register makes q reachable by name through Lookup. It's meant for
// reconfiguration at startup, alongside the well-known queues.
func Register(name string, q *Queue) { registry.Store(name, q) }

// Lookup returns the named queue, if one was registered.
func Lookup(name string) (*Queue, bool) {
	v, ok := registry.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*Queue), true
}

func lookup(name string) *Queue {
	v, ok := registry.Load(name)
	if !ok {
		// should be unreachable: the well-known names are seeded in init.
		panic("promise/queue: well-known queue " + name + " not registered")
	}
	return v.(*Queue)
}
