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

//go:build enable_promise_debug

package promise

import (
	"sync"

	jsoniter "github.com/json-iterator/go"
)

var (
	debugMu   sync.Mutex
	debugSink DebugSink
)

// SetDebugSink installs cb as the process-wide debug tracer. Passing nil
// disables tracing again.
func SetDebugSink(cb DebugSink) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugSink = cb
}

func traceDebug(stateID string, ev debugEvent) {
	debugMu.Lock()
	sink := debugSink
	debugMu.Unlock()
	if sink == nil {
		return
	}

	data, err := jsoniter.Marshal(debugRecord{StateID: stateID, Event: ev, Name: ev.String()})
	if err != nil {
		return
	}
	sink(data)
}
