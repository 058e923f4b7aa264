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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnapaul242/gati-sub000/gtype"
)

func TestExecuteBeforeOrdersGlobalRouteLocal(t *testing.T) {
	o := New()
	var mu sync.Mutex
	var order []string

	record := func(name string) Func {
		return func(_ context.Context, data any) (any, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return data, nil
		}
	}

	o.RegisterBefore(Hook{ID: "local", Fn: record("local"), Level: LevelLocal})
	o.RegisterBefore(Hook{ID: "global", Fn: record("global"), Level: LevelGlobal})
	o.RegisterBefore(Hook{ID: "route", Fn: record("route"), Level: LevelRoute})

	_, err := o.ExecuteBefore(context.Background(), "req-1", "payload")
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "route", "local"}, order)
}

func TestExecuteAfterOrdersLocalRouteGlobal(t *testing.T) {
	o := New()
	var mu sync.Mutex
	var order []string

	record := func(name string) Func {
		return func(_ context.Context, data any) (any, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return data, nil
		}
	}

	o.RegisterAfter(Hook{ID: "global", Fn: record("global"), Level: LevelGlobal})
	o.RegisterAfter(Hook{ID: "local", Fn: record("local"), Level: LevelLocal})
	o.RegisterAfter(Hook{ID: "route", Fn: record("route"), Level: LevelRoute})

	_, err := o.ExecuteAfter(context.Background(), "req-1", "payload")
	require.NoError(t, err)
	assert.Equal(t, []string{"local", "route", "global"}, order)
}

func TestExecuteBeforeRetriesThenFails(t *testing.T) {
	o := New()
	var attempts int

	o.RegisterBefore(Hook{ID: "flaky", Retries: 2, Fn: func(_ context.Context, data any) (any, error) {
		attempts++
		return nil, errors.New("boom")
	}})

	_, err := o.ExecuteBefore(context.Background(), "req-1", "payload")
	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial + 2 retries
}

func TestExecuteBeforeStopsAtFirstPermanentFailure(t *testing.T) {
	o := New()
	var secondRan bool

	o.RegisterBefore(Hook{ID: "first", Fn: func(_ context.Context, data any) (any, error) {
		return nil, errors.New("boom")
	}})
	o.RegisterBefore(Hook{ID: "second", Fn: func(_ context.Context, data any) (any, error) {
		secondRan = true
		return data, nil
	}})

	_, err := o.ExecuteBefore(context.Background(), "req-1", "payload")
	require.Error(t, err)
	assert.False(t, secondRan)
}

func TestExecuteCatchRunsCompensationsLIFOThenCatchHooks(t *testing.T) {
	o := New()
	var order []string
	var mu sync.Mutex

	actions := []CompensatingAction{
		func(context.Context) error { mu.Lock(); order = append(order, "a1"); mu.Unlock(); return nil },
		func(context.Context) error { mu.Lock(); order = append(order, "a2"); mu.Unlock(); return nil },
	}
	o.RegisterCatch(Hook{ID: "catch1", Fn: func(_ context.Context, data any) (any, error) {
		mu.Lock()
		order = append(order, "catch1")
		mu.Unlock()
		return data, nil
	}})

	o.ExecuteCatch(context.Background(), "req-1", errors.New("cause"), actions, "payload")

	assert.Equal(t, []string{"a2", "a1", "catch1"}, order)
}

func TestExecuteCatchCompensationFailureDoesNotStopDrain(t *testing.T) {
	var alerted bool
	o := New(WithAlertSink(func(alert any) { alerted = true }))

	var ran []string
	actions := []CompensatingAction{
		func(context.Context) error { ran = append(ran, "first"); return errors.New("fails") },
		func(context.Context) error { ran = append(ran, "second"); return nil },
	}

	o.ExecuteCatch(context.Background(), "req-1", errors.New("cause"), actions, nil)
	assert.Equal(t, []string{"second", "first"}, ran)
	assert.True(t, alerted)
}

func TestValidateRequestEmitsEventsAndFailsOnInvalid(t *testing.T) {
	var events []string
	o := New(WithEventSink(func(event any) {
		e := event.(Event)
		events = append(events, e.Type)
	}))

	type payload struct {
		Name string `validate:"required"`
	}
	schema := gtype.FromStruct("payload", payload{})

	err := o.ValidateRequest(context.Background(), "req-1", schema, payload{})
	require.Error(t, err)
	assert.Contains(t, events, "validation:start")
	assert.Contains(t, events, "validation:error")

	events = nil
	err = o.ValidateRequest(context.Background(), "req-1", schema, payload{Name: "ok"})
	require.NoError(t, err)
	assert.Contains(t, events, "validation:end")
}

func TestHookTimeoutFails(t *testing.T) {
	o := New()
	o.RegisterBefore(Hook{ID: "slow", Timeout: 10 * time.Millisecond, Fn: func(ctx context.Context, data any) (any, error) {
		select {
		case <-time.After(200 * time.Millisecond):
			return data, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}})

	_, err := o.ExecuteBefore(context.Background(), "req-1", "payload")
	require.Error(t, err)
}
