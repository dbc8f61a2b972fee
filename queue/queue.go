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

// Package queue implements the FIFO work queue that sits between promise
// resolution and the worker pool: the only internal synchronization
// boundary between producers (resolving promises) and consumers (worker
// goroutines).
package queue

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrQueueEmpty is returned by Pop when the queue has no pending task.
var ErrQueueEmpty = errors.New("queue: empty")

// Task is a unit of work pushed to a Queue. It is run to completion by
// whichever worker pops it; there is no preemption.
type Task func()

// Queue is an ordered FIFO of Tasks, tagged with a priority used by a
// worker pool to decide which of several queues to service first, and
// an optional consumer callback fired, outside the queue's lock,
// whenever a Task is pushed.
type Queue struct {
	id       string
	priority int

	mu       sync.Mutex
	items    []Task
	consumer func(backlog int)
}

// New creates a Queue with the given priority. Higher values are
// serviced first by a worker pool that watches multiple queues.
func New(priority int) *Queue {
	return &Queue{
		id:       uuid.NewString(),
		priority: priority,
	}
}

// ID returns this queue's unique identifier.
func (q *Queue) ID() string { return q.id }

// Priority returns this queue's priority tag.
func (q *Queue) Priority() int { return q.priority }

// Push appends t to the queue and, if a consumer callback is set, calls
// it with the post-push backlog size. The append happens under the
// queue's lock; the callback runs after the lock is released, so it
// must never block the caller on its own work.
func (q *Queue) Push(t Task) {
	q.mu.Lock()
	q.items = append(q.items, t)
	n := len(q.items)
	cb := q.consumer
	q.mu.Unlock()

	if cb != nil {
		cb(n)
	}
}

// Pop removes and returns the front Task. It returns ErrQueueEmpty if
// the queue has nothing pending. Callers are expected to only call Pop
// after being notified through the consumer callback, or while scanning
// multiple queues for work.
func (q *Queue) Pop() (Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, ErrQueueEmpty
	}
	t := q.items[0]
	q.items = q.items[1:]
	return t, nil
}

// Empty reports whether the queue currently has no pending task.
func (q *Queue) Empty() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) == 0
}

// SetConsumer replaces the consumer callback and returns the backlog
// size at the time of replacement, so a newly attached consumer can
// immediately drain whatever was already queued.
func (q *Queue) SetConsumer(cb func(backlog int)) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.consumer = cb
	return len(q.items)
}
