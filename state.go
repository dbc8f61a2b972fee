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

package promise

import (
	"sync"

	"github.com/google/uuid"

	"github.com/vela-run/promise/queue"
)

// slot is the two-state cell described by spec §4.3: a promise state
// transitions exactly once, from pending to ready.
type slot uint8

const (
	slotPending slot = iota
	slotReady
)

// waiter is a continuation attached to a state, along with the queue it
// should be scheduled on once the state becomes ready.
type waiter[T any] struct {
	queue *queue.Queue
	run   func(Expect[T])
}

// state is the rendezvous cell shared by a Deferred and every Promise or
// SharedPromise handle derived from it. A single mutex guards both slot
// and waiters, per spec §4.3 and §5.
type state[T any] struct {
	id string

	mu      sync.Mutex
	sl      slot
	result  Expect[T]
	waiters []waiter[T]

	shared   bool // shared states allow any number of attach calls
	consumed bool // unique states allow exactly one
}

func newState[T any](shared bool) *state[T] {
	return &state[T]{id: uuid.NewString(), shared: shared}
}

// attach registers fn to run, on q, once the state is ready. If the
// state is already ready, fn is scheduled immediately. In unique mode, a
// second attach call fails with ErrPromiseAlreadyConsumed.
func (s *state[T]) attach(q *queue.Queue, fn func(Expect[T])) error {
	if q == nil {
		q = queue.Default()
	}

	s.mu.Lock()
	if !s.shared {
		if s.consumed {
			s.mu.Unlock()
			return ErrPromiseAlreadyConsumed
		}
		s.consumed = true
	}

	if s.sl == slotReady {
		res := s.result
		s.mu.Unlock()
		traceDebug(s.id, eventAttachImmediate)
		q.Push(func() { fn(res) })
		return nil
	}

	s.waiters = append(s.waiters, waiter[T]{queue: q, run: fn})
	s.mu.Unlock()
	traceDebug(s.id, eventAttachPending)
	return nil
}

// resolve transitions the state from pending to ready exactly once,
// scheduling every pending waiter on its target queue. A second call
// returns ErrPromiseAlreadyResolved and has no other effect.
func (s *state[T]) resolve(res Expect[T]) error {
	s.mu.Lock()
	if s.sl == slotReady {
		s.mu.Unlock()
		return ErrPromiseAlreadyResolved
	}
	s.result = res
	s.sl = slotReady
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()

	if res.HasException() {
		traceDebug(s.id, eventResolveException)
	} else {
		traceDebug(s.id, eventResolveFulfilled)
	}

	for _, w := range waiters {
		w := w
		traceDebug(s.id, eventScheduled)
		w.queue.Push(func() { w.run(res) })
	}
	return nil
}

// seal flips the state into shared mode. Used by Promise.Share; once
// sealed, attach no longer enforces the single-continuation rule.
func (s *state[T]) seal() {
	s.mu.Lock()
	s.shared = true
	s.mu.Unlock()
}

// snapshot returns the current result and whether the state is ready,
// without attaching a waiter.
func (s *state[T]) snapshot() (Expect[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.sl == slotReady
}
