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
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// All2 combines two heterogeneously typed promises into one, per spec
// §4.8's variadic form. The result resolves once both inputs have
// resolved; if either fails, the aggregate fails with the
// first-observed exception and the other outcome is discarded. All3
// through All5 are built on top of it, following spec §9's suggestion
// that the variadic form "collapses to a recursive binary all2".
func All2[A, B any](pa Promise[A], pb Promise[B]) Promise[Pair[A, B]] {
	next := Defer[Pair[A, B]]()

	var (
		mu       sync.Mutex
		a        A
		b        B
		firstErr error
	)
	remaining := int32(2)

	settle := func() {
		if atomic.AddInt32(&remaining, -1) != 0 {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if firstErr != nil {
			next.SetException(firstErr)
			return
		}
		next.SetValue(Pair[A, B]{First: a, Second: b})
	}

	pa.attach(nil, func(exp Expect[A]) {
		mu.Lock()
		if v, ok := exp.Consume(); ok {
			a = v
		} else if firstErr == nil {
			firstErr = exp.Exception()
		}
		mu.Unlock()
		settle()
	})
	pb.attach(nil, func(exp Expect[B]) {
		mu.Lock()
		if v, ok := exp.Consume(); ok {
			b = v
		} else if firstErr == nil {
			firstErr = exp.Exception()
		}
		mu.Unlock()
		settle()
	})

	pr, _ := next.GetPromise()
	return pr
}

// All3 combines three heterogeneously typed promises, per spec §4.8. It
// settles once every input has settled, failing with the first-observed
// exception if any input failed.
func All3[A, B, C any](pa Promise[A], pb Promise[B], pc Promise[C]) Promise[Tuple3[A, B, C]] {
	return Then[Pair[Pair[A, B], C], Tuple3[A, B, C]](
		All2(All2(pa, pb), pc),
		func(v Pair[Pair[A, B], C]) Tuple3[A, B, C] {
			return Tuple3[A, B, C]{First: v.First.First, Second: v.First.Second, Third: v.Second}
		},
	)
}

// All4 combines four heterogeneously typed promises, per spec §4.8. It
// settles once every input has settled, failing with the first-observed
// exception if any input failed.
func All4[A, B, C, D any](pa Promise[A], pb Promise[B], pc Promise[C], pd Promise[D]) Promise[Tuple4[A, B, C, D]] {
	return Then[Pair[Tuple3[A, B, C], D], Tuple4[A, B, C, D]](
		All2(All3(pa, pb, pc), pd),
		func(v Pair[Tuple3[A, B, C], D]) Tuple4[A, B, C, D] {
			return Tuple4[A, B, C, D]{
				First: v.First.First, Second: v.First.Second, Third: v.First.Third, Fourth: v.Second,
			}
		},
	)
}

// All5 combines five heterogeneously typed promises, per spec §4.8. It
// settles once every input has settled, failing with the first-observed
// exception if any input failed.
func All5[A, B, C, D, E any](pa Promise[A], pb Promise[B], pc Promise[C], pd Promise[D], pe Promise[E]) Promise[Tuple5[A, B, C, D, E]] {
	return Then[Pair[Tuple4[A, B, C, D], E], Tuple5[A, B, C, D, E]](
		All2(All4(pa, pb, pc, pd), pe),
		func(v Pair[Tuple4[A, B, C, D], E]) Tuple5[A, B, C, D, E] {
			return Tuple5[A, B, C, D, E]{
				First: v.First.First, Second: v.First.Second, Third: v.First.Third,
				Fourth: v.First.Fourth, Fifth: v.Second,
			}
		},
	)
}

// CombinedPromiseException is the aggregate failure reported by AllList
// when at least one input failed. Expects carries every input's
// outcome, successes and failures alike, in input order, per spec §4.8
// and §7.
type CombinedPromiseException[E any] struct {
	Expects []Expect[E]
}

func (e *CombinedPromiseException[E]) Error() string {
	var b strings.Builder
	b.WriteString("promise: combined promise failed: ")
	failed := 0
	for _, exp := range e.Expects {
		if exp.HasException() {
			failed++
		}
	}
	fmt.Fprintf(&b, "%d of %d inputs failed", failed, len(e.Expects))
	return b.String()
}

// AllList combines a dynamically sized slice of same-typed promises, per
// spec §4.8's homogeneous form. Unlike All2..All5, it waits for every
// input to settle regardless of individual outcome, and preserves input
// order in its result.
//
// The counter mechanics mirror spec §4.8 exactly: a shared atomic
// counter, initialized to len(ps) and decremented with sequentially
// consistent ordering by each input's completion; a shared atomic flag
// set on any failure before the counter decrement; the decrementer that
// observes the counter reach zero reads the flag and the result slice
// and resolves the output. No lock guards the result slice itself —
// each index is written by exactly one producer, then published by the
// counter's last decrement.
func AllList[E any](ps []Promise[E]) Promise[[]E] {
	next := Defer[[]E]()

	n := len(ps)
	if n == 0 {
		next.SetValue([]E{})
		pr, _ := next.GetPromise()
		return pr
	}

	results := make([]Expect[E], n)
	var anyFailed atomic.Bool
	remaining := int32(n)

	for i, p := range ps {
		i, p := i, p
		p.attach(nil, func(exp Expect[E]) {
			results[i] = exp
			if exp.HasException() {
				anyFailed.Store(true)
			}
			if atomic.AddInt32(&remaining, -1) != 0 {
				return
			}
			if anyFailed.Load() {
				next.SetException(&CombinedPromiseException[E]{Expects: results})
				return
			}
			vals := make([]E, n)
			for j, r := range results {
				vals[j], _ = r.Consume()
			}
			next.SetValue(vals)
		})
	}

	pr, _ := next.GetPromise()
	return pr
}
