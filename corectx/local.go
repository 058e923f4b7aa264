// Copyright 2025 The Gati Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corectx

import (
	"sync"

	"github.com/google/uuid"

	"github.com/krishnapaul242/gati-sub000/hooks"
)

// Phase is a request phase (spec §4.G, ordered received -> validating ->
// processing -> responding -> completed | failed).
type Phase string

const (
	PhaseReceived   Phase = "received"
	PhaseValidating Phase = "validating"
	PhaseProcessing Phase = "processing"
	PhaseResponding Phase = "responding"
	PhaseCompleted  Phase = "completed"
	PhaseFailed     Phase = "failed"
)

// RequestLifecycle is the Local Context's lifecycle handle (spec §4.G).
type RequestLifecycle struct {
	mu          sync.Mutex
	phase       Phase
	cleaningUp  bool
	timedOut    bool
	onCleanupFn []func()
	onTimeoutFn []func()
	onErrorFn   []func(error)
	onPhaseFn   []func(from, to Phase)

	compensations []hooks.CompensatingAction
}

func (l *RequestLifecycle) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.phase = PhaseReceived
	l.cleaningUp = false
	l.timedOut = false
	l.onCleanupFn = l.onCleanupFn[:0]
	l.onTimeoutFn = l.onTimeoutFn[:0]
	l.onErrorFn = l.onErrorFn[:0]
	l.onPhaseFn = l.onPhaseFn[:0]
	l.compensations = l.compensations[:0]
}

// RegisterCompensatingAction pushes fn onto the request's compensation
// stack; Orchestrator.ExecuteCatch drains it in LIFO order (spec §4.F).
func (l *RequestLifecycle) RegisterCompensatingAction(fn hooks.CompensatingAction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.compensations = append(l.compensations, fn)
}

// CompensatingActions returns a snapshot of the registered compensation
// stack, in registration order (callers drain it LIFO, as
// Orchestrator.ExecuteCatch does).
func (l *RequestLifecycle) CompensatingActions() []hooks.CompensatingAction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]hooks.CompensatingAction(nil), l.compensations...)
}

// OnCleanup registers a callback run by ExecuteCleanup.
func (l *RequestLifecycle) OnCleanup(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onCleanupFn = append(l.onCleanupFn, fn)
}

// OnTimeout registers a callback invoked when the request is marked timed
// out.
func (l *RequestLifecycle) OnTimeout(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onTimeoutFn = append(l.onTimeoutFn, fn)
}

// OnError registers a callback invoked by NotifyError.
func (l *RequestLifecycle) OnError(fn func(error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onErrorFn = append(l.onErrorFn, fn)
}

// OnPhaseChange registers a callback invoked by SetPhase.
func (l *RequestLifecycle) OnPhaseChange(fn func(from, to Phase)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onPhaseFn = append(l.onPhaseFn, fn)
}

// SetPhase transitions the request to phase, notifying phase-change
// listeners.
func (l *RequestLifecycle) SetPhase(phase Phase) {
	l.mu.Lock()
	from := l.phase
	l.phase = phase
	listeners := append([]func(from, to Phase){}, l.onPhaseFn...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(from, phase)
	}
}

// Phase returns the current phase.
func (l *RequestLifecycle) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}

// MarkTimedOut flags the request as timed out and runs timeout listeners.
func (l *RequestLifecycle) MarkTimedOut() {
	l.mu.Lock()
	if l.timedOut {
		l.mu.Unlock()
		return
	}
	l.timedOut = true
	listeners := append([]func(){}, l.onTimeoutFn...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// IsTimedOut reports whether MarkTimedOut has run.
func (l *RequestLifecycle) IsTimedOut() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timedOut
}

// NotifyError runs error listeners with err.
func (l *RequestLifecycle) NotifyError(err error) {
	l.mu.Lock()
	listeners := append([]func(error){}, l.onErrorFn...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn(err)
	}
}

// ExecuteCleanup runs cleanup listeners once; subsequent calls are no-ops.
func (l *RequestLifecycle) ExecuteCleanup() {
	l.mu.Lock()
	if l.cleaningUp {
		l.mu.Unlock()
		return
	}
	l.cleaningUp = true
	listeners := append([]func(){}, l.onCleanupFn...)
	l.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// IsCleaningUp reports whether ExecuteCleanup has started.
func (l *RequestLifecycle) IsCleaningUp() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cleaningUp
}

// LocalContext is the request-lifetime context (spec §4.G). Instances are
// obtained from a sync.Pool via Acquire/Release so pooled contexts never
// leak state between requests.
type LocalContext struct {
	RequestID    string
	TraceID      string
	ParentSpanID string
	ClientID     string
	ReferenceIDs map[string]string
	ClientMeta   map[string]string
	Lifecycle    *RequestLifecycle

	state sync.Map
}

// SetState stores an opaque request-lifetime value.
func (l *LocalContext) SetState(key string, value any) { l.state.Store(key, value) }

// State resolves a request-lifetime value.
func (l *LocalContext) State(key string) (any, bool) { return l.state.Load(key) }

var localPool = sync.Pool{
	New: func() any {
		return &LocalContext{Lifecycle: &RequestLifecycle{}}
	},
}

// AcquireLocal takes a LocalContext from the pool, resets it, and assigns
// requestID (generating one via uuid if empty), matching spec §4.G
// ("requestId: generated if absent").
func AcquireLocal(requestID string) *LocalContext {
	lctx := localPool.Get().(*LocalContext)

	if requestID == "" {
		requestID = uuid.NewString()
	}
	lctx.RequestID = requestID
	lctx.TraceID = ""
	lctx.ParentSpanID = ""
	lctx.ClientID = ""
	lctx.ReferenceIDs = nil
	lctx.ClientMeta = nil
	lctx.state = sync.Map{}
	lctx.Lifecycle.reset()

	return lctx
}

// ReleaseLocal returns lctx to the pool. Callers must not use lctx after
// calling ReleaseLocal.
func ReleaseLocal(lctx *LocalContext) {
	localPool.Put(lctx)
}
