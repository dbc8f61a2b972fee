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

// Package promise provides a promise/future system coupled with task
// queues and worker threads.
//
// A Promise[T] is a handle to a single-shot outcome, either a value of
// type T or an exception (a Go error). Promise[T] is move-like: at most
// one continuation may ever be attached to it, matching its unique
// underlying state. SharedPromise[T] wraps the same kind of state but
// allows any number of continuations to attach, at the cost of giving up
// destructive reads.
//
// Deferred[T] is the write side of a promise. It resolves its state
// exactly once, through SetValue, SetException, SetExpect, SetByFunc or
// Satisfy. Resolving an already-resolved Deferred returns
// ErrPromiseAlreadyResolved.
//
// Continuations are attached with the package-level functions Then,
// Fail, Finally and Done, rather than methods, because a method cannot
// introduce the extra type parameter needed to change a promise's value
// type from T to R. Each continuation runs on a queue.Queue, dispatched
// by a worker.Pool; with no queue given, queue.Default() is used.
//
// All2 through All5 combine a fixed number of heterogeneously typed
// promises into one, waiting for every input and failing with the
// first-observed exception if any failed. AllList combines a dynamically
// sized slice of same-typed promises, waiting for every one to settle and
// reporting every outcome, in order, through a CombinedPromiseException
// on partial failure.
package promise
