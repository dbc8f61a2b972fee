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

import "github.com/vela-run/promise/queue"

// SharedPromise is the clone-able read end of a promise state. Unlike
// Promise, any number of continuations may attach to it; each sees the
// same value (or exception) once the state is ready.
type SharedPromise[T any] struct {
	st *state[T]
}

func (sp SharedPromise[T]) attach(q *queue.Queue, fn func(Expect[T])) error {
	return sp.st.attach(q, fn)
}

// Clone returns another handle to the same underlying state. Since
// SharedPromise holds nothing but that pointer, Clone is just a copy,
// but it documents intent at call sites that fan a shared promise out
// to multiple consumers.
func (sp SharedPromise[T]) Clone() SharedPromise[T] {
	return sp
}

// Unshare converts a SharedPromise back into a unique Promise over the
// same state. Because the state was sealed by Share and may already
// have had waiters attached to it as a shared state, the returned
// Promise still behaves as shared for attach-counting purposes; Unshare
// exists so a caller that knows no further sharing will happen can use
// the unique Then/Fail/Finally call sites without an explicit
// SharedPromise receiver.
func (sp SharedPromise[T]) Unshare() Promise[T] {
	return Promise[T]{st: sp.st}
}
