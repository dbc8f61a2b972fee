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
	"runtime"
	"sync"
)

// Deferred is the write side of exactly one promise state. It guarantees
// single resolution: the first of SetValue, SetException, SetExpect or
// SetByFunc to run wins, and every later call returns
// ErrPromiseAlreadyResolved.
type Deferred[T any] struct {
	st *state[T]

	mu    sync.Mutex
	taken bool
}

// Defer creates a Deferred[T] whose promise hasn't been resolved or
// handed out yet.
func Defer[T any]() *Deferred[T] {
	d := &Deferred[T]{st: newState[T](false)}

	// Go has no destructors; a finalizer is the closest idiomatic stand-in
	// for spec §3's "destruction of a deferred without fulfilling it must
	// set the state to Exception(BrokenPromise)". Its firing time is
	// GC-dependent, so it's a best-effort backstop, not a guarantee that
	// waiters observe a broken promise promptly.
	runtime.SetFinalizer(d, func(d *Deferred[T]) {
		d.st.resolve(Exception[T](&BrokenPromise{}))
	})

	return d
}

// GetPromise hands out this Deferred's promise. A second call returns
// ErrDeferredAlreadyTaken.
func (d *Deferred[T]) GetPromise() (Promise[T], error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.taken {
		return Promise[T]{}, ErrDeferredAlreadyTaken
	}
	d.taken = true
	return Promise[T]{st: d.st}, nil
}

// SetValue resolves the promise to the fulfilled value v.
func (d *Deferred[T]) SetValue(v T) error {
	return d.st.resolve(Value(v))
}

// SetException resolves the promise to err.
func (d *Deferred[T]) SetException(err error) error {
	return d.st.resolve(Exception[T](err))
}

// SetExpect resolves the promise to whichever side of exp is set.
func (d *Deferred[T]) SetExpect(exp Expect[T]) error {
	return d.st.resolve(exp)
}

// SetByFunc invokes fn synchronously: a returned error resolves the
// promise to an exception, otherwise it resolves to the returned value.
// A panic inside fn is recovered and resolves the promise to a
// PanicError exception, mirroring how then/fail steps treat a panicking
// user callback.
func (d *Deferred[T]) SetByFunc(fn func() (T, error)) error {
	v, err := callSafely(fn)
	if err != nil {
		return d.SetException(err)
	}
	return d.SetValue(v)
}

// Satisfy attaches this Deferred's resolution to p: once p settles, this
// Deferred resolves to the same value or exception. It is the
// promise-to-promise form of the source's satisfy_by_fun chaining.
func (d *Deferred[T]) Satisfy(p Promise[T]) error {
	return p.attach(nil, func(exp Expect[T]) {
		d.SetExpect(exp)
	})
}

// SatisfyByFunc invokes fn and chains this Deferred's resolution to the
// promise it returns. If fn itself returns an error instead of a
// promise, the Deferred resolves to a BrokenPromise wrapping that error,
// per spec §4.4's satisfy_by_fun contract for a throwing producer.
func (d *Deferred[T]) SatisfyByFunc(fn func() (Promise[T], error)) error {
	p, err := callSafelyPromise(fn)
	if err != nil {
		return d.SetException(&BrokenPromise{Cause: err})
	}
	return d.Satisfy(p)
}

// callSafely runs fn, recovering any panic into an error.
func callSafely[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverAsError(r)
		}
	}()
	return fn()
}

func callSafelyPromise[T any](fn func() (Promise[T], error)) (p Promise[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoverAsError(r)
		}
	}()
	return fn()
}
