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

package hooks

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/krishnapaul242/gati-sub000/corelog"
	"github.com/krishnapaul242/gati-sub000/coreconfig"
	"github.com/krishnapaul242/gati-sub000/gtype"
	"github.com/krishnapaul242/gati-sub000/rerrors"
)

// Event is a lifecycle event (spec §6 "Lifecycle event shape").
type Event struct {
	Type      string
	Timestamp time.Time
	RequestID string
	HookID    string
	Err       error
	Duration  time.Duration
	Metadata  map[string]any
}

// Orchestrator is the Hook Orchestrator.
type Orchestrator struct {
	logger *corelog.Logger
	tracer trace.Tracer
	sink   coreconfig.EventSink
	alert  coreconfig.AlertSink
	emit   bool

	mu     sync.RWMutex
	before []Hook
	after  []Hook
	catch  []Hook
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithLogger(l *corelog.Logger) Option { return func(o *Orchestrator) { o.logger = l } }
func WithTracer(t trace.Tracer) Option    { return func(o *Orchestrator) { o.tracer = t } }
func WithEventSink(sink coreconfig.EventSink) Option {
	return func(o *Orchestrator) { o.sink = sink; o.emit = sink != nil }
}
func WithAlertSink(alert coreconfig.AlertSink) Option {
	return func(o *Orchestrator) { o.alert = alert }
}

// New builds an Orchestrator.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{logger: corelog.NoOp()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RegisterBefore adds h to the before pipeline, keeping it sorted by level.
func (o *Orchestrator) RegisterBefore(h Hook) { o.register(&o.before, h) }

// RegisterAfter adds h to the after pipeline, keeping it sorted by level
// (reverse of before: local -> route -> global).
func (o *Orchestrator) RegisterAfter(h Hook) { o.register(&o.after, h) }

// RegisterCatch adds h to the catch pipeline, same ordering as after.
func (o *Orchestrator) RegisterCatch(h Hook) { o.register(&o.catch, h) }

func (o *Orchestrator) register(list *[]Hook, h Hook) {
	o.mu.Lock()
	defer o.mu.Unlock()
	*list = append(*list, h.withDefaults())
}

func sortBefore(hooks []Hook) {
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Level < hooks[j].Level })
}

func sortReverse(hooks []Hook) {
	sort.SliceStable(hooks, func(i, j int) bool { return hooks[i].Level > hooks[j].Level })
}

// ExecuteBefore walks the before pipeline in global -> route -> local
// order (spec §4.F). The first hook whose every retry attempt fails stops
// the pipeline and its error is returned.
func (o *Orchestrator) ExecuteBefore(ctx context.Context, requestID string, data any) (any, error) {
	o.mu.RLock()
	hooks := append([]Hook(nil), o.before...)
	o.mu.RUnlock()
	sortBefore(hooks)
	return o.runPipeline(ctx, requestID, "hook", hooks, data)
}

// ExecuteAfter walks the after pipeline in local -> route -> global order.
func (o *Orchestrator) ExecuteAfter(ctx context.Context, requestID string, data any) (any, error) {
	o.mu.RLock()
	hooks := append([]Hook(nil), o.after...)
	o.mu.RUnlock()
	sortReverse(hooks)
	return o.runPipeline(ctx, requestID, "hook", hooks, data)
}

func (o *Orchestrator) runPipeline(ctx context.Context, requestID, kind string, hooks []Hook, data any) (any, error) {
	current := data
	for _, h := range hooks {
		var span trace.Span
		if o.tracer != nil {
			ctx, span = o.tracer.Start(ctx, kind+":"+h.ID, trace.WithAttributes(
				attribute.String("hookId", h.ID),
				attribute.Int("level", int(h.Level)),
			))
		}

		var lastErr error
		attempts := h.Retries + 1
		for attempt := 0; attempt < attempts; attempt++ {
			if attempt > 0 {
				o.emitEvent(Event{Type: "hook:retry", Timestamp: time.Now(), RequestID: requestID, HookID: h.ID})
			}
			o.emitEvent(Event{Type: "hook:start", Timestamp: time.Now(), RequestID: requestID, HookID: h.ID})

			start := time.Now()
			out, err := o.runOne(ctx, h, current)
			duration := time.Since(start)

			if err == nil {
				o.emitEvent(Event{Type: "hook:end", Timestamp: time.Now(), RequestID: requestID, HookID: h.ID, Duration: duration})
				current = out
				lastErr = nil
				break
			}

			lastErr = err
			o.emitEvent(Event{Type: "hook:error", Timestamp: time.Now(), RequestID: requestID, HookID: h.ID, Err: err, Duration: duration})
			o.logger.Error("hook failed", "hookId", h.ID, "attempt", attempt, "err", err)
		}

		if span != nil {
			span.End()
		}
		if lastErr != nil {
			return current, rerrors.New(rerrors.KindHook, "HOOK_FAILED", 500,
				"hook "+h.ID+" failed after retries").WithWrapped(rerrors.ErrHookFailed).WithDetails(map[string]any{"hookId": h.ID})
		}
	}
	return current, nil
}

func (o *Orchestrator) runOne(ctx context.Context, h Hook, data any) (any, error) {
	stepCtx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	type result struct {
		out any
		err error
	}
	done := make(chan result, 1)
	go func() {
		out, err := h.Fn(stepCtx, data)
		done <- result{out, err}
	}()

	select {
	case <-stepCtx.Done():
		return nil, rerrors.ErrHookTimeout
	case r := <-done:
		return r.out, r.err
	}
}

// ExecuteCatch runs registered compensating actions in LIFO order first
// (failures logged and alerted but never stop the drain), then runs the
// catch pipeline, swallowing its errors so the termination path is never
// blocked (spec §4.F).
func (o *Orchestrator) ExecuteCatch(ctx context.Context, requestID string, cause error, actions []CompensatingAction, data any) any {
	o.logger.Error("running compensation and catch pipeline", "requestId", requestID, "cause", cause)

	for i := len(actions) - 1; i >= 0; i-- {
		o.emitEvent(Event{Type: "compensation:start", Timestamp: time.Now(), RequestID: requestID, Err: cause})
		if err := actions[i](ctx); err != nil {
			o.emitEvent(Event{Type: "compensation:error", Timestamp: time.Now(), RequestID: requestID, Err: err})
			o.emitEvent(Event{Type: "compensation:alert", Timestamp: time.Now(), RequestID: requestID, Err: err})
			if o.alert != nil {
				o.alert(map[string]any{"requestId": requestID, "cause": cause, "err": err.Error()})
			}
			o.logger.Error("compensating action failed", "requestId", requestID, "err", err)
			continue
		}
		o.emitEvent(Event{Type: "compensation:end", Timestamp: time.Now(), RequestID: requestID})
	}

	o.mu.RLock()
	catchHooks := append([]Hook(nil), o.catch...)
	o.mu.RUnlock()
	sortReverse(catchHooks)

	current := data
	for _, h := range catchHooks {
		out, err := o.runOne(ctx, h, current)
		if err != nil {
			o.logger.Error("catch hook failed", "hookId", h.ID, "err", err)
			continue
		}
		current = out
	}
	return current
}

// ValidateRequest validates data against schema, emitting
// validation:start/end/error events (spec §4.F).
func (o *Orchestrator) ValidateRequest(ctx context.Context, requestID string, schema *gtype.GType, data any) error {
	return o.validate(ctx, requestID, schema, data)
}

// ValidateResponse is the response-side analogue of ValidateRequest.
func (o *Orchestrator) ValidateResponse(ctx context.Context, requestID string, schema *gtype.GType, data any) error {
	return o.validate(ctx, requestID, schema, data)
}

func (o *Orchestrator) validate(ctx context.Context, requestID string, schema *gtype.GType, data any) error {
	o.emitEvent(Event{Type: "validation:start", Timestamp: time.Now(), RequestID: requestID})
	if schema == nil {
		o.emitEvent(Event{Type: "validation:end", Timestamp: time.Now(), RequestID: requestID})
		return nil
	}
	if err := schema.Validate(ctx, data); err != nil {
		o.emitEvent(Event{Type: "validation:error", Timestamp: time.Now(), RequestID: requestID, Err: err})
		return rerrors.New(rerrors.KindValidation, "VALIDATION_FAILED", 400, "validation failed").
			WithWrapped(gtype.ErrValidation).WithDetails(err)
	}
	o.emitEvent(Event{Type: "validation:end", Timestamp: time.Now(), RequestID: requestID})
	return nil
}

func (o *Orchestrator) emitEvent(e Event) {
	if !o.emit || o.sink == nil {
		return
	}
	o.sink(e)
}
