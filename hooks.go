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
	"log/slog"
	"sync"
)

var (
	uncaughtMu      sync.Mutex
	uncaughtHandler = func(err error) {
		slog.Default().Error("uncaught exception at end of promise chain", "error", err)
	}
)

// SetUncaughtExceptionHandler replaces the process-wide hook invoked by
// Done when a chain ends in an exception (spec §4.7, §7). Passing nil
// installs a handler that does nothing; the default handler, which logs
// through slog.Default(), is not restored.
func SetUncaughtExceptionHandler(fn func(err error)) {
	uncaughtMu.Lock()
	defer uncaughtMu.Unlock()
	if fn == nil {
		fn = func(error) {}
	}
	uncaughtHandler = fn
}

func uncaughtHook(err error) {
	uncaughtMu.Lock()
	h := uncaughtHandler
	uncaughtMu.Unlock()
	h(err)
}
