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

// debugEvent enumerates the points in a promise's lifecycle that the
// debug tracer (see debug_enabled.go) can report on, when the
// enable_promise_debug build tag is set.
type debugEvent int

const (
	_ debugEvent = iota

	eventResolveFulfilled
	eventResolveException
	eventAttachImmediate
	eventAttachPending
	eventScheduled
)

func (e debugEvent) String() string {
	switch e {
	case eventResolveFulfilled:
		return "resolve-fulfilled"
	case eventResolveException:
		return "resolve-exception"
	case eventAttachImmediate:
		return "attach-immediate"
	case eventAttachPending:
		return "attach-pending"
	case eventScheduled:
		return "scheduled"
	default:
		return "<unknown>"
	}
}

// debugRecord is what gets encoded and handed to the debug sink.
type debugRecord struct {
	StateID string     `json:"state_id"`
	Event   debugEvent `json:"-"`
	Name    string     `json:"event"`
}

// DebugSink receives a JSON-encoded debugRecord for every traced event,
// when tracing is enabled via SetDebugSink and the binary was built with
// -tags enable_promise_debug. Tracing is a no-op otherwise; see
// debug_disabled.go.
type DebugSink func(data []byte)
