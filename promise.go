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
	"github.com/vela-run/promise/queue"
)

// Promise is the unique, move-like read end of a promise state: at most
// one of Then, Fail, Finally or Done may ever be called on it, because
// attaching consumes its single waiter slot. Call Share to obtain a
// SharedPromise that lifts that restriction.
type Promise[T any] struct {
	st *state[T]
}

// waitable is implemented by both Promise and SharedPromise so Then,
// Fail, Finally and Done can accept either.
type waitable[T any] interface {
	attach(q *queue.Queue, fn func(Expect[T])) error
}

func (p Promise[T]) attach(q *queue.Queue, fn func(Expect[T])) error {
	return p.st.attach(q, fn)
}

// With returns a Promise already resolved to the fulfilled value v. It
// is the "immediately resolved" factory named in spec §6.
func With[T any](v T) Promise[T] {
	st := newState[T](false)
	st.resolve(Value(v))
	return Promise[T]{st: st}
}

// Failed returns a Promise already resolved to the exception err.
func Failed[T any](err error) Promise[T] {
	st := newState[T](false)
	st.resolve(Exception[T](err))
	return Promise[T]{st: st}
}

// Share converts this unique Promise into a SharedPromise, sealing the
// underlying state so any number of continuations may attach to it.
// After Share, the original Promise value must not be used again.
func (p Promise[T]) Share() SharedPromise[T] {
	p.st.seal()
	return SharedPromise[T]{st: p.st}
}

// pickQueue returns the first queue in qs, or nil (meaning "use
// queue.Default() when scheduling") if none was given.
func pickQueue(qs []*queue.Queue) *queue.Queue {
	if len(qs) == 0 {
		return nil
	}
	return qs[0]
}

// Then attaches fn as a continuation of p, per spec §4.5. fn may be any
// of:
//
//	func(T) R
//	func(T) (R, error)
//	func(T) Promise[R]
//	func() R / func() (R, error) / func() Promise[R]   (T is the empty struct{})
//
// or, if T implements tupler, a function taking one argument per field
// of T (positional binding, case 1/3), instead of the aggregate T (case
// 2/4). If p is already resolved to an exception, fn is never called and
// that exception is forwarded to the successor unchanged.
func Then[T, R any](p waitable[T], fn any, qs ...*queue.Queue) Promise[R] {
	next := Defer[R]()
	q := pickQueue(qs)

	err := p.attach(q, func(exp Expect[T]) {
		if exp.HasException() {
			next.SetException(exp.Exception())
			return
		}
		runThen[T, R](next, fn, exp)
	})
	if err != nil {
		next.SetException(err)
	}

	pr, _ := next.GetPromise()
	return pr
}

func runThen[T, R any](next *Deferred[R], fn any, exp Expect[T]) {
	defer func() {
		if r := recover(); r != nil {
			next.SetException(recoverAsError(r))
		}
	}()

	val, _ := exp.Consume()

	switch f := fn.(type) {
	case func(T) R:
		next.SetValue(f(val))
		return
	case func(T) (R, error):
		r, err := f(val)
		if err != nil {
			next.SetException(err)
			return
		}
		next.SetValue(r)
		return
	case func(T) Promise[R]:
		flatten(next, f(val))
		return
	case func() R:
		next.SetValue(f())
		return
	case func() (R, error):
		r, err := f()
		if err != nil {
			next.SetException(err)
			return
		}
		next.SetValue(r)
		return
	case func() Promise[R]:
		flatten(next, f())
		return
	}

	invokePositionalThen[T, R](next, fn, val)
}

// flatten waits for inner to settle and forwards its outcome to next:
// the outer promise's resolution waits for the inner one, per spec
// §4.5 cases 3/4 and the glossary's "Flattening" entry.
func flatten[R any](next *Deferred[R], inner Promise[R]) {
	inner.attach(nil, func(exp Expect[R]) {
		next.SetExpect(exp)
	})
}

// Fail attaches fn as an exception handler on p, per spec §4.6. fn may
// be:
//
//	func(error)                 // catch-all, heals to the zero value of T
//	func(error) T               // catch-all, heals to the returned value
//	func(error) Promise[T]      // catch-all recovery/retry flow
//	func(E) / func(E) T / func(E) Promise[T]   // selective, E implementing error
//
// For the selective form, fn is invoked only if the active exception's
// concrete type matches E (checked with errors.As, the idiomatic Go
// analogue of the source's rethrow-and-typecheck); otherwise the
// exception is forwarded unchanged for the next Fail in the chain to
// see. If p resolved to a value, that value is forwarded unchanged and
// fn is never called.
func Fail[T any](p waitable[T], fn any, qs ...*queue.Queue) Promise[T] {
	next := Defer[T]()
	q := pickQueue(qs)

	err := p.attach(q, func(exp Expect[T]) {
		if !exp.HasException() {
			next.SetExpect(exp)
			return
		}
		runFail[T](next, fn, exp.Exception())
	})
	if err != nil {
		next.SetException(err)
	}

	pr, _ := next.GetPromise()
	return pr
}

func runFail[T any](next *Deferred[T], fn any, excErr error) {
	defer func() {
		if r := recover(); r != nil {
			next.SetException(recoverAsError(r))
		}
	}()

	switch f := fn.(type) {
	case func(error):
		f(excErr)
		var zero T
		next.SetValue(zero)
		return
	case func(error) T:
		next.SetValue(f(excErr))
		return
	case func(error) (T, error):
		v, err := f(excErr)
		if err != nil {
			next.SetException(err)
			return
		}
		next.SetValue(v)
		return
	case func(error) Promise[T]:
		flatten(next, f(excErr))
		return
	}

	if invokeTypedFail[T](next, fn, excErr) {
		return
	}

	// fn's parameter type didn't match the active exception: re-propagate
	// unchanged so the next Fail in the chain gets a chance.
	next.SetException(excErr)
}

// Finally attaches fn to run regardless of p's outcome, per spec §4.7.
// The upstream Expect is forwarded to the successor verbatim, unless fn
// itself panics, in which case the forwarded outcome is replaced by that
// panic's exception.
func Finally[T any](p waitable[T], fn func(), qs ...*queue.Queue) Promise[T] {
	next := Defer[T]()
	q := pickQueue(qs)

	err := p.attach(q, func(exp Expect[T]) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					exp = Exception[T](recoverAsError(r))
				}
			}()
			fn()
		}()
		next.SetExpect(exp)
	})
	if err != nil {
		next.SetException(err)
	}

	pr, _ := next.GetPromise()
	return pr
}

// Done terminates the chain, per spec §4.7. If p resolves to an
// exception, the process-wide uncaught-exception hook is invoked.
func Done[T any](p waitable[T], qs ...*queue.Queue) {
	q := pickQueue(qs)
	p.attach(q, func(exp Expect[T]) {
		if exp.HasException() {
			uncaughtHook(exp.Exception())
		}
	})
}
