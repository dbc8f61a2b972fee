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
	"reflect"
)

// invokePositionalThen handles the positional-argument cases of Then
// (spec §4.5 cases 1/3): fn takes one argument per field of val, rather
// than val itself. Go generics can't enumerate arbitrary arities at
// compile time the way the source's variadic templates do, so this
// dispatch — deriving fn's arity and calling it — happens via reflection
// when the continuation runs, in the spirit of spec §9's Design Notes for
// targets without the source's compile-time function traits.
func invokePositionalThen[T, R any](next *Deferred[R], fn any, val T) {
	tup, ok := any(val).(tupler)
	if !ok {
		panic("promise: then callback's signature doesn't match the promise's value type")
	}
	fields := tup.Fields()

	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != len(fields) {
		panic("promise: then callback's arity doesn't match the promise's tuple arity")
	}

	args := make([]reflect.Value, len(fields))
	for i, f := range fields {
		args[i] = reflect.ValueOf(f)
	}

	results := fv.Call(args)
	deliverReflectedResults[R](next, results)
}

// deliverReflectedResults interprets the results of a reflect.Call made
// on behalf of a positionally-bound then callback: a trailing error
// result rejects, a Promise[R] result flattens, anything else is the
// fulfilled value.
func deliverReflectedResults[R any](next *Deferred[R], results []reflect.Value) {
	if len(results) == 0 {
		var zero R
		next.SetValue(zero)
		return
	}

	if len(results) == 2 {
		if errVal, ok := results[1].Interface().(error); ok {
			if errVal != nil {
				next.SetException(errVal)
				return
			}
		}
	}

	first := results[0].Interface()
	if p, ok := first.(Promise[R]); ok {
		flatten(next, p)
		return
	}

	next.SetValue(first.(R))
}

// invokeTypedFail implements the selective-catch form of Fail (spec
// §4.6): fn's sole parameter type E must implement error. fn runs only
// if errors.As reports that excErr's chain contains an E; otherwise
// invokeTypedFail returns false so the caller re-propagates excErr
// unchanged for the next Fail to examine. This is the idiomatic Go
// analogue of the source's "rethrow, catch by type" mechanism, and
// resolves spec §9's Open Question: the exception matched against is
// the one already captured in the upstream state's Expect, never
// fetched from ambient/global state.
func invokeTypedFail[T any](next *Deferred[T], fn any, excErr error) bool {
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumIn() != 1 {
		return false
	}

	paramType := ft.In(0)
	if !paramType.Implements(reflect.TypeOf((*error)(nil)).Elem()) {
		return false
	}

	target := reflect.New(paramType).Interface()
	if !errors.As(excErr, target) {
		return false
	}
	arg := reflect.ValueOf(target).Elem()

	results := fv.Call([]reflect.Value{arg})
	switch len(results) {
	case 0:
		var zero T
		next.SetValue(zero)
	case 1:
		if p, ok := results[0].Interface().(Promise[T]); ok {
			flatten(next, p)
		} else {
			next.SetValue(results[0].Interface().(T))
		}
	case 2:
		if errVal, ok := results[1].Interface().(error); ok && errVal != nil {
			next.SetException(errVal)
			break
		}
		next.SetValue(results[0].Interface().(T))
	default:
		next.SetException(fmt.Errorf("promise: typed fail callback has an unsupported return shape (%d results)", len(results)))
	}
	return true
}
