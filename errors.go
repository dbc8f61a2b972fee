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
	"fmt"
)

var (
	// ErrPromiseAlreadyResolved is returned by a second call to SetValue,
	// SetException, SetExpect or SetByFunc on the same Deferred.
	ErrPromiseAlreadyResolved = errors.New("promise: already resolved")

	// ErrPromiseAlreadyConsumed is returned when attaching a second
	// continuation to a unique Promise.
	ErrPromiseAlreadyConsumed = errors.New("promise: already consumed")

	// ErrDeferredAlreadyTaken is returned by a second call to GetPromise
	// on the same Deferred.
	ErrDeferredAlreadyTaken = errors.New("promise: deferred's promise already taken")
)

// BrokenPromise is the exception a promise resolves to when its Deferred
// is garbage collected unresolved, or when the producer passed to
// SatisfyByFunc fails before returning a promise. Satisfy forwards the
// given promise's exception unchanged.
type BrokenPromise struct {
	// Cause is the error that broke the promise, if any is known.
	Cause error
}

func (e *BrokenPromise) Error() string {
	if e.Cause == nil {
		return "promise: broken promise"
	}
	return fmt.Sprintf("promise: broken promise: %s", e.Cause)
}

func (e *BrokenPromise) Unwrap() error { return e.Cause }

// PanicError wraps a value recovered from a panic raised by a user
// callback running inside a then/fail/finally step. It is the exception
// that step's successor resolves to.
type PanicError struct {
	V any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("promise: panic in callback: %v", e.V)
}

func newPanicError(v any) *PanicError {
	return &PanicError{V: v}
}

// recoverAsError turns a recovered panic value into an error, or returns
// nil if there was nothing to recover.
func recoverAsError(v any) error {
	if v == nil {
		return nil
	}
	if err, ok := v.(error); ok {
		return newPanicError(err)
	}
	return newPanicError(v)
}
