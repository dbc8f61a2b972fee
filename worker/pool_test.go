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
	"os"
	"sync"
	"testing"
	"time"

	"github.com/vela-run/promise"
	"github.com/vela-run/promise/queue"
)

// TestMain starts a pool on queue.Default(), where awaitTerminate's
// continuations are scheduled; the pools the tests build only watch
// their own queues.
func TestMain(m *testing.M) {
	p := NewPool()
	p.AddQueue(queue.Default())
	p.Scale(1)
	os.Exit(m.Run())
}

func TestPoolRunsPushedTasks(t *testing.T) {
	q := queue.New(0)
	p := NewPool()
	p.AddQueue(q)
	p.Scale(2)
	defer awaitTerminate(t, p)

	var wg sync.WaitGroup
	wg.Add(5)
	for i := 0; i < 5; i++ {
		q.Push(func() { wg.Done() })
	}

	waitOrTimeout(t, &wg)
}

func TestPoolAddQueueWakesWorkersForExistingBacklog(t *testing.T) {
	q := queue.New(0)

	var wg sync.WaitGroup
	wg.Add(3)
	for i := 0; i < 3; i++ {
		q.Push(func() { wg.Done() })
	}

	p := NewPool()
	p.Scale(3)
	defer awaitTerminate(t, p)

	// The tasks above were pushed before AddQueue installed a consumer on
	// q, so nothing ever broadcast while they were pending. AddQueue must
	// notice the backlog SetConsumer reports and wake the already-parked
	// workers itself.
	p.AddQueue(q)

	waitOrTimeout(t, &wg)
}

func TestPoolServicesHigherPriorityQueueFirst(t *testing.T) {
	low := queue.New(0)
	high := queue.New(10)
	p := NewPool()
	p.AddQueue(low)
	p.AddQueue(high)

	var mu sync.Mutex
	var order []string

	// Queue both before starting any worker, so a single worker's first
	// scan sees both queues populated and must pick the higher-priority
	// one first.
	low.Push(func() {
		mu.Lock()
		order = append(order, "low")
		mu.Unlock()
	})
	done := make(chan struct{})
	high.Push(func() {
		mu.Lock()
		order = append(order, "high")
		mu.Unlock()
		close(done)
	})

	p.Scale(1)
	defer awaitTerminate(t, p)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("high priority task never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) == 0 || order[0] != "high" {
		t.Fatalf("expected the higher priority queue to be serviced first, got %v", order)
	}
}

func TestPoolTerminateStopsAcceptingNewWork(t *testing.T) {
	q := queue.New(0)
	p := NewPool()
	p.AddQueue(q)
	p.Scale(1)

	awaitTerminate(t, p)

	var ran bool
	q.Push(func() { ran = true })

	time.Sleep(20 * time.Millisecond)
	if ran {
		t.Fatalf("task pushed after Terminate must not run")
	}
}

func waitOrTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tasks to run")
	}
}

func awaitTerminate(t *testing.T, p *Pool) {
	t.Helper()
	term := p.Terminate()
	done := make(chan struct{})
	notified := promise.Then[struct{}, struct{}](term, func(struct{}) struct{} {
		close(done)
		return struct{}{}
	})
	promise.Done[struct{}](notified)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool failed to terminate in time")
	}
}
