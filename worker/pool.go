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

// Package worker implements the scheduler described in spec §4.2: a set
// of worker goroutines, each repeatedly pulling work from a set of
// priority-ordered queues, woken by any queue's consumer callback.
package worker

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/vela-run/promise"
	"github.com/vela-run/promise/queue"
)

// Option configures a Pool at construction time.
type Option func(*Pool)

// WithLogger overrides the *slog.Logger used for worker lifecycle and
// panic-recovery logging. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// WithMaxConcurrentSpinUp bounds how many worker goroutines Scale may
// start at once, mirroring the teacher's GroupConfig.Size goroutine
// budget, but enforced with golang.org/x/sync/semaphore rather than a
// hand-rolled buffered channel.
func WithMaxConcurrentSpinUp(n int64) Option {
	return func(p *Pool) { p.spinUpSem = semaphore.NewWeighted(n) }
}

// Pool is a set of worker goroutines servicing a set of priority-ordered
// queues. Workers are woken by any watched queue's consumer callback and
// scan queues in descending priority order before popping a task.
type Pool struct {
	id string

	mu          sync.Mutex
	cond        *sync.Cond
	queues      []*queue.Queue
	terminating bool

	spinUpSem *semaphore.Weighted
	eg        errgroup.Group

	logger *slog.Logger
}

// NewPool creates an empty Pool. Call AddQueue to watch a queue, and
// Scale to start worker goroutines.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		id:     uuid.NewString(),
		logger: slog.Default(),
	}
	p.cond = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	if p.spinUpSem == nil {
		p.spinUpSem = semaphore.NewWeighted(1 << 30)
	}
	return p
}

// AddQueue makes q one of the queues this Pool's workers service, and
// installs a consumer callback on q that wakes idle workers. Queues are
// kept sorted by descending priority so workers always check the
// highest-priority queue first.
func (p *Pool) AddQueue(q *queue.Queue) {
	p.mu.Lock()
	p.queues = append(p.queues, q)
	sort.SliceStable(p.queues, func(i, j int) bool {
		return p.queues[i].Priority() > p.queues[j].Priority()
	})
	p.mu.Unlock()

	backlog := q.SetConsumer(func(int) {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	})
	if backlog > 0 {
		p.mu.Lock()
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

// Scale starts n additional worker goroutines.
func (p *Pool) Scale(n int) {
	for i := 0; i < n; i++ {
		id := uuid.NewString()
		if err := p.spinUpSem.Acquire(context.Background(), 1); err != nil {
			return
		}
		p.eg.Go(func() error {
			p.spinUpSem.Release(1)
			p.runWorker(id)
			return nil
		})
	}
}

func (p *Pool) runWorker(id string) {
	log := p.logger.With("pool", p.id, "worker", id)
	log.Debug("worker started")
	defer log.Debug("worker stopped")

	for {
		task := p.waitForTask()
		if task == nil {
			return
		}
		p.runTask(log, task)
	}
}

// waitForTask blocks until a task is available on one of the watched
// queues, or the pool is terminating, in which case it returns nil.
func (p *Pool) waitForTask() queue.Task {
	p.mu.Lock()
	defer p.mu.Unlock()

	for {
		if t := p.popLocked(); t != nil {
			return t
		}
		if p.terminating {
			return nil
		}
		p.cond.Wait()
	}
}

func (p *Pool) popLocked() queue.Task {
	for _, q := range p.queues {
		if t, err := q.Pop(); err == nil {
			return t
		}
	}
	return nil
}

func (p *Pool) runTask(log *slog.Logger, t queue.Task) {
	defer func() {
		if v := recover(); v != nil {
			log.Error("panic recovered while running task", "panic", v)
		}
	}()
	t()
}

// Terminate flips the pool into a terminating state: workers stop
// waiting for new pushes, but each keeps popping tasks already pending on
// the watched queues until it finds them all empty, then returns. No
// running task is interrupted. It returns a Promise that resolves once
// every worker started by Scale has returned, implemented with
// golang.org/x/sync/errgroup rather than a hand-rolled WaitGroup, which
// also surfaces the first worker error (there currently is none, since
// runWorker never returns one, but the shape matches spec §4.2's
// "returns a promise that resolves when every worker has joined").
func (p *Pool) Terminate() promise.Promise[struct{}] {
	p.mu.Lock()
	p.terminating = true
	p.cond.Broadcast()
	p.mu.Unlock()

	d := promise.Defer[struct{}]()
	go func() {
		if err := p.eg.Wait(); err != nil {
			d.SetException(err)
			return
		}
		d.SetValue(struct{}{})
	}()

	pr, _ := d.GetPromise()
	return pr
}
