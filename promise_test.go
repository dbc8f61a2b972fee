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
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/vela-run/promise/queue"
)

// TestMain services queue.Default() for every test in this package:
// continuations attached without an explicit queue are pushed there, and
// nothing in this package starts a worker to pop them (worker.Pool lives
// in a package that imports this one). Each push starts a goroutine that
// pops and runs one task, so every pushed task runs exactly once.
func TestMain(m *testing.M) {
	q := queue.Default()
	q.SetConsumer(func(int) {
		go func() {
			if task, err := q.Pop(); err == nil {
				task()
			}
		}()
	})
	os.Exit(m.Run())
}

// await blocks the calling goroutine until p settles, by attaching a
// continuation that signals a channel. It's test-only plumbing; library
// code never needs to block like this.
func await[T any](t *testing.T, p Promise[T]) Expect[T] {
	t.Helper()
	done := make(chan Expect[T], 1)
	if err := p.attach(nil, func(exp Expect[T]) { done <- exp }); err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	select {
	case exp := <-done:
		return exp
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for promise to settle")
		panic("unreachable")
	}
}

func TestWithThenChain(t *testing.T) {
	p := With(42)
	p2 := Then[int, int](p, func(x int) int { return x + 1 })
	p3 := Then[int, int](p2, func(x int) int { return x * 2 })

	exp := await(t, p3)
	v, ok := exp.Consume()
	if !ok || v != 86 {
		t.Fatalf("expected 86, got %d (ok=%v)", v, ok)
	}
}

func TestThenSkipsOnException(t *testing.T) {
	boom := errors.New("boom")
	p := Failed[int](boom)

	var ranThen bool
	p2 := Then[int, int](p, func(x int) int {
		ranThen = true
		return x
	})

	exp := await(t, p2)
	if ranThen {
		t.Fatalf("then callback must not run when upstream failed")
	}
	if !exp.HasException() || !errors.Is(exp.Exception(), boom) {
		t.Fatalf("expected exception to be forwarded, got %+v", exp)
	}
}

func TestFailCatchAllHeals(t *testing.T) {
	type myErr struct{ error }
	e := myErr{errors.New("E")}

	p := Failed[int](e)
	healed := Fail[int](p, func(err error) int { return 99 })
	next := Then[int, int](healed, func(x int) int { return x + 1 })

	exp := await(t, next)
	v, ok := exp.Consume()
	if !ok || v != 100 {
		t.Fatalf("expected healed chain to reach 100, got %d (ok=%v)", v, ok)
	}
}

type notFoundError struct{ msg string }

func (e *notFoundError) Error() string { return e.msg }

type timeoutError struct{ msg string }

func (e *timeoutError) Error() string { return e.msg }

func TestFailSelectiveCatchMatches(t *testing.T) {
	p := Failed[int](&notFoundError{msg: "missing"})

	var ranWrongHandler bool
	step1 := Fail[int](p, func(err *timeoutError) int {
		ranWrongHandler = true
		return -1
	})
	step2 := Fail[int](step1, func(err *notFoundError) int { return 7 })

	exp := await(t, step2)
	v, ok := exp.Consume()
	if ranWrongHandler {
		t.Fatalf("mismatched typed handler must not run")
	}
	if !ok || v != 7 {
		t.Fatalf("expected matching typed handler to heal to 7, got %d (ok=%v)", v, ok)
	}
}

func TestFailSelectiveCatchPropagatesWhenNoneMatch(t *testing.T) {
	orig := &notFoundError{msg: "missing"}
	p := Failed[int](orig)

	step1 := Fail[int](p, func(err *timeoutError) int { return -1 })
	exp := await(t, step1)

	if !exp.HasException() {
		t.Fatalf("expected exception to survive an unmatched typed handler")
	}
	var nf *notFoundError
	if !errors.As(exp.Exception(), &nf) || nf != orig {
		t.Fatalf("expected original exception to be forwarded unchanged, got %v", exp.Exception())
	}
}

func TestFailSelectiveCatchWithErrorReturnHeals(t *testing.T) {
	p := Failed[int](&notFoundError{msg: "missing"})
	healed := Fail[int](p, func(err *notFoundError) (int, error) { return 9, nil })

	exp := await(t, healed)
	v, ok := exp.Consume()
	if !ok || v != 9 {
		t.Fatalf("expected (T, error) typed handler to heal to 9, got %d (ok=%v)", v, ok)
	}
}

func TestFailSelectiveCatchWithErrorReturnRejects(t *testing.T) {
	boom := errors.New("still broken")
	p := Failed[int](&notFoundError{msg: "missing"})
	healed := Fail[int](p, func(err *notFoundError) (int, error) { return 0, boom })

	exp := await(t, healed)
	if !exp.HasException() || !errors.Is(exp.Exception(), boom) {
		t.Fatalf("expected (T, error) typed handler's error to reject, got %+v", exp)
	}
}

func TestFinallyRunsOnceOnSuccessAndFailure(t *testing.T) {
	var count int
	var mu sync.Mutex
	bump := func() {
		mu.Lock()
		count++
		mu.Unlock()
	}

	ok := With(1)
	fin1 := Finally[int](ok, bump)
	await(t, fin1)

	bad := Failed[int](errors.New("fail"))
	fin2 := Finally[int](bad, bump)
	exp := await(t, fin2)

	mu.Lock()
	defer mu.Unlock()
	if count != 2 {
		t.Fatalf("expected finally to run exactly twice, ran %d times", count)
	}
	if !exp.HasException() {
		t.Fatalf("finally must preserve a failing upstream outcome")
	}
}

func TestFinallyReplacesOutcomeOnPanic(t *testing.T) {
	ok := With(1)
	fin := Finally[int](ok, func() { panic("kaboom") })
	exp := await(t, fin)
	if !exp.HasException() {
		t.Fatalf("a panicking finally callback must reject the successor")
	}
}

func TestFlattenedThen(t *testing.T) {
	p := With(1)
	chained := Then[int, int](p, func(x int) Promise[int] {
		return With(x + 10)
	})
	exp := await(t, chained)
	v, ok := exp.Consume()
	if !ok || v != 11 {
		t.Fatalf("expected flattened promise to resolve to 11, got %d (ok=%v)", v, ok)
	}
}

func TestPositionalBindingOverAggregate(t *testing.T) {
	p := With(Pair[int, string]{First: 1, Second: "a"})
	got := Then[Pair[int, string], string](p, func(i int, s string) string {
		return s + "!"
	})
	exp := await(t, got)
	v, ok := exp.Consume()
	if !ok || v != "a!" {
		t.Fatalf("expected positional binding to produce \"a!\", got %q (ok=%v)", v, ok)
	}
}

func TestTupleRoundTrip(t *testing.T) {
	p := With("round-trip")
	identity := Then[string, string](p, func(s string) string { return s })
	exp := await(t, identity)
	v, ok := exp.Consume()
	if !ok || v != "round-trip" {
		t.Fatalf("expected round trip to preserve the value, got %q (ok=%v)", v, ok)
	}
}

func TestDeferredSingleResolution(t *testing.T) {
	d := Defer[int]()
	if err := d.SetValue(1); err != nil {
		t.Fatalf("first SetValue should succeed: %v", err)
	}
	if err := d.SetValue(2); !errors.Is(err, ErrPromiseAlreadyResolved) {
		t.Fatalf("second SetValue should fail with ErrPromiseAlreadyResolved, got %v", err)
	}
	if err := d.SetException(errors.New("x")); !errors.Is(err, ErrPromiseAlreadyResolved) {
		t.Fatalf("SetException after resolution should fail with ErrPromiseAlreadyResolved, got %v", err)
	}
}

func TestDeferredAlreadyTaken(t *testing.T) {
	d := Defer[int]()
	if _, err := d.GetPromise(); err != nil {
		t.Fatalf("first GetPromise should succeed: %v", err)
	}
	if _, err := d.GetPromise(); !errors.Is(err, ErrDeferredAlreadyTaken) {
		t.Fatalf("second GetPromise should fail with ErrDeferredAlreadyTaken, got %v", err)
	}
}

func TestUniquePromiseSecondAttachFails(t *testing.T) {
	d := Defer[int]()
	p, _ := d.GetPromise()
	d.SetValue(1)

	if err := p.attach(nil, func(Expect[int]) {}); err != nil {
		t.Fatalf("first attach should succeed: %v", err)
	}
	if err := p.attach(nil, func(Expect[int]) {}); !errors.Is(err, ErrPromiseAlreadyConsumed) {
		t.Fatalf("second attach on a unique promise should fail, got %v", err)
	}
}

func TestSharedPromiseAllowsManyAttaches(t *testing.T) {
	d := Defer[int]()
	p, _ := d.GetPromise()
	shared := p.Share()
	d.SetValue(5)

	var wg sync.WaitGroup
	results := make([]int, 3)
	for i := 0; i < 3; i++ {
		i := i
		wg.Add(1)
		shared.attach(nil, func(exp Expect[int]) {
			v, _ := exp.Consume()
			results[i] = v
			wg.Done()
		})
	}
	wg.Wait()

	for i, v := range results {
		if v != 5 {
			t.Fatalf("expected attach %d to see 5, got %d", i, v)
		}
	}
}

func TestAttachAfterResolveRunsExactlyOnce(t *testing.T) {
	p := With(7)
	var calls int32
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)
	p.attach(nil, func(Expect[int]) {
		mu.Lock()
		calls++
		mu.Unlock()
		wg.Done()
	})
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected exactly one call, got %d", calls)
	}
}

func TestAttachBeforeResolveRunsExactlyOnce(t *testing.T) {
	d := Defer[int]()
	p, _ := d.GetPromise()

	done := make(chan struct{})
	p.attach(nil, func(Expect[int]) { close(done) })
	d.SetValue(1)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("pre-attached waiter was never scheduled")
	}
}
