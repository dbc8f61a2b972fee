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

// tupler is implemented by the tuple types used for heterogeneous
// aggregation (Pair, Tuple3, Tuple4, Tuple5). The plain []E that AllList
// resolves to does not implement it. Its Fields are used by Then to
// decide, when the continuation runs, whether a callback binds its
// arguments positionally (case 1/3 of spec §4.5) or as one aggregate
// value (case 2/4).
//
// Go generics can't enumerate arbitrary arities the way the source's
// variadic templates do, so unlike the source this dispatch is a runtime
// reflect.Call rather than a compile-time overload; see
// invokePositionalThen in reflect.go.
type tupler interface {
	Fields() []any
}

// Pair concatenates the outcomes of two heterogeneously typed promises.
// It is the binary building block All3 through All5 are built from,
// following spec §9's "recursive binary all2" suggestion.
type Pair[A, B any] struct {
	First  A
	Second B
}

func (p Pair[A, B]) Fields() []any { return []any{p.First, p.Second} }

// Tuple3 concatenates the outcomes of three heterogeneously typed
// promises.
type Tuple3[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

func (t Tuple3[A, B, C]) Fields() []any { return []any{t.First, t.Second, t.Third} }

// Tuple4 concatenates the outcomes of four heterogeneously typed
// promises.
type Tuple4[A, B, C, D any] struct {
	First  A
	Second B
	Third  C
	Fourth D
}

func (t Tuple4[A, B, C, D]) Fields() []any {
	return []any{t.First, t.Second, t.Third, t.Fourth}
}

// Tuple5 concatenates the outcomes of five heterogeneously typed
// promises.
type Tuple5[A, B, C, D, E any] struct {
	First  A
	Second B
	Third  C
	Fourth D
	Fifth  E
}

func (t Tuple5[A, B, C, D, E]) Fields() []any {
	return []any{t.First, t.Second, t.Third, t.Fourth, t.Fifth}
}
