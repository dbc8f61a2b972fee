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

package worker

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vela-run/promise"
)

// Run starts a dedicated goroutine named name, invokes fn on it, and
// returns a Promise that resolves with fn's outcome. name is metadata
// only: it's attached to log lines through slog, but never affects
// scheduling, matching spec §1's treatment of thread-naming as an
// external collaborator. This is the Go realization of spec §6's
// run(name, fn, args...) -> Thread<Ret>.
func Run[T any](name string, fn func() (T, error)) promise.Promise[T] {
	d := promise.Defer[T]()
	id := uuid.NewString()

	go func() {
		log := slog.Default().With("thread", name, "thread_id", id)
		log.Debug("thread started")
		defer log.Debug("thread finished")

		defer func() {
			if v := recover(); v != nil {
				d.SetException(fmt.Errorf("promise/worker: thread %q panicked: %v", name, v))
			}
		}()

		v, err := fn()
		if err != nil {
			d.SetException(err)
			return
		}
		d.SetValue(v)
	}()

	p, _ := d.GetPromise()
	return p
}
