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

// Package hooks implements the Hook Orchestrator (spec §4.F): leveled
// before/after/catch pipelines, compensating-action rollback, and
// structural request/response validation delegated to gtype.
package hooks

import (
	"context"
	"time"
)

// Level orders hooks within a pipeline. Before walks global -> route ->
// local; after and catch walk the reverse (spec §4.F).
type Level int

const (
	LevelGlobal Level = iota
	LevelRoute
	LevelLocal
)

const defaultTimeout = 5 * time.Second

// Func is a hook body. ctx carries the request's Local Context keys the
// caller chooses to attach; data is the before/after pipeline's current
// payload (request on the way in, response on the way out).
type Func func(ctx context.Context, data any) (any, error)

// Hook is one registered hook (spec §3).
type Hook struct {
	ID      string
	Fn      Func
	Level   Level
	Timeout time.Duration
	Retries int
}

// withDefaults fills Timeout with the default when unset.
func (h Hook) withDefaults() Hook {
	if h.Timeout <= 0 {
		h.Timeout = defaultTimeout
	}
	return h
}

// CompensatingAction is a rollback step. Callers push these onto a
// request's corectx.RequestLifecycle via RegisterCompensatingAction, then
// drain the stack through ExecuteCatch (spec §4.F
// "registerCompensatingAction").
type CompensatingAction func(ctx context.Context) error
