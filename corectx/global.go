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

// Package corectx implements the Context Pair (spec §4.G): a process-
// lifetime GlobalContext and a request-lifetime LocalContext, the latter
// pooled via sync.Pool so state never leaks across requests.
package corectx

import (
	"sort"
	"sync"
)

// HealthCheck reports the health of one named subsystem.
type HealthCheck func() error

// BroadcastHandler reacts to a process-wide signal (config reload,
// memory-pressure level, circuit-breaker transition).
type BroadcastHandler func(payload any)

// Timescape is the registry/timeline handle carried by GlobalContext
// (spec §4.G).
type Timescape struct {
	Registry any
	Timeline any
}

type lifecycleHook struct {
	priority int
	fn       func() error
}

// GlobalContext is the process-lifetime context (spec §4.G).
type GlobalContext struct {
	InstanceID string
	Config     any
	Timescape  Timescape

	modules  sync.Map // string -> any
	services sync.Map // string -> any
	state    sync.Map // string -> any

	mu               sync.Mutex
	startupHooks     []lifecycleHook
	shutdownHooks    []lifecycleHook
	healthChecks     map[string]HealthCheck
	onConfigReload   []BroadcastHandler
	onMemoryPressure []BroadcastHandler
	onCircuitBreaker []BroadcastHandler
}

// NewGlobal builds an empty GlobalContext for instanceID.
func NewGlobal(instanceID string) *GlobalContext {
	return &GlobalContext{
		InstanceID:   instanceID,
		healthChecks: make(map[string]HealthCheck),
	}
}

// RegisterModule stores a module under name.
func (g *GlobalContext) RegisterModule(name string, module any) { g.modules.Store(name, module) }

// Module resolves a registered module.
func (g *GlobalContext) Module(name string) (any, bool) { return g.modules.Load(name) }

// RegisterService stores a service under name.
func (g *GlobalContext) RegisterService(name string, service any) { g.services.Store(name, service) }

// Service resolves a registered service.
func (g *GlobalContext) Service(name string) (any, bool) { return g.services.Load(name) }

// SetState stores an arbitrary process-lifetime value.
func (g *GlobalContext) SetState(key string, value any) { g.state.Store(key, value) }

// State resolves a process-lifetime value.
func (g *GlobalContext) State(key string) (any, bool) { return g.state.Load(key) }

// OnStartup registers a priority-ordered startup hook; lower priority runs
// first.
func (g *GlobalContext) OnStartup(priority int, fn func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.startupHooks = append(g.startupHooks, lifecycleHook{priority: priority, fn: fn})
}

// OnShutdown registers a priority-ordered shutdown hook.
func (g *GlobalContext) OnShutdown(priority int, fn func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdownHooks = append(g.shutdownHooks, lifecycleHook{priority: priority, fn: fn})
}

// RunStartup executes startup hooks in ascending priority order, stopping
// and returning the first error encountered.
func (g *GlobalContext) RunStartup() error { return runHooks(g.snapshot(&g.startupHooks), false) }

// RunShutdown executes shutdown hooks in ascending priority order,
// collecting but not stopping on individual errors.
func (g *GlobalContext) RunShutdown() error { return runHooks(g.snapshot(&g.shutdownHooks), true) }

func (g *GlobalContext) snapshot(hooks *[]lifecycleHook) []lifecycleHook {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := append([]lifecycleHook(nil), (*hooks)...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].priority < out[j].priority })
	return out
}

func runHooks(hooks []lifecycleHook, continueOnError bool) error {
	var first error
	for _, h := range hooks {
		if err := h.fn(); err != nil {
			if first == nil {
				first = err
			}
			if !continueOnError {
				return err
			}
		}
	}
	return first
}

// RegisterHealthCheck names a health check reachable by name.
func (g *GlobalContext) RegisterHealthCheck(name string, check HealthCheck) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.healthChecks[name] = check
}

// RunHealthChecks runs every registered health check, returning the
// failures keyed by name.
func (g *GlobalContext) RunHealthChecks() map[string]error {
	g.mu.Lock()
	checks := make(map[string]HealthCheck, len(g.healthChecks))
	for name, check := range g.healthChecks {
		checks[name] = check
	}
	g.mu.Unlock()

	failures := make(map[string]error)
	for name, check := range checks {
		if err := check(); err != nil {
			failures[name] = err
		}
	}
	return failures
}

// OnConfigReload registers a broadcast handler for config-reload signals.
func (g *GlobalContext) OnConfigReload(h BroadcastHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onConfigReload = append(g.onConfigReload, h)
}

// OnMemoryPressure registers a broadcast handler for memory-pressure level
// transitions.
func (g *GlobalContext) OnMemoryPressure(h BroadcastHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onMemoryPressure = append(g.onMemoryPressure, h)
}

// OnCircuitBreaker registers a broadcast handler for circuit-breaker
// transitions.
func (g *GlobalContext) OnCircuitBreaker(h BroadcastHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onCircuitBreaker = append(g.onCircuitBreaker, h)
}

// BroadcastConfigReload notifies every registered config-reload handler.
func (g *GlobalContext) BroadcastConfigReload(payload any) {
	g.broadcast(&g.onConfigReload, payload)
}

// BroadcastMemoryPressure notifies every registered memory-pressure handler.
func (g *GlobalContext) BroadcastMemoryPressure(payload any) {
	g.broadcast(&g.onMemoryPressure, payload)
}

// BroadcastCircuitBreaker notifies every registered circuit-breaker handler.
func (g *GlobalContext) BroadcastCircuitBreaker(payload any) {
	g.broadcast(&g.onCircuitBreaker, payload)
}

func (g *GlobalContext) broadcast(handlers *[]BroadcastHandler, payload any) {
	g.mu.Lock()
	hs := append([]BroadcastHandler(nil), (*handlers)...)
	g.mu.Unlock()
	for _, h := range hs {
		h(payload)
	}
}
