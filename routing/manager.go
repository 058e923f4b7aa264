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

package routing

import (
	"context"
	"sync"
	"time"

	"github.com/krishnapaul242/gati-sub000/corelog"
	"github.com/krishnapaul242/gati-sub000/coreconfig"
	"github.com/krishnapaul242/gati-sub000/gtype"
	"github.com/krishnapaul242/gati-sub000/manifest"
	"github.com/krishnapaul242/gati-sub000/rerrors"
	"github.com/krishnapaul242/gati-sub000/transform"
	"github.com/krishnapaul242/gati-sub000/tsv"
	"github.com/krishnapaul242/gati-sub000/version"
)

const (
	healthInactivityThreshold = 5 * time.Minute
	healthScanInterval        = 30 * time.Second
	rateLimitSweepInterval    = 60 * time.Second
	maxRateLimitWindow        = 60 * time.Second
)

// WarmPool is a handler's warm-instance pool policy (spec §4.D).
type WarmPool struct {
	Min               int
	Max               int
	TargetUtilization float64
}

// UsageMetrics tracks per-instance request accounting (spec §4.D).
type UsageMetrics struct {
	RequestCount int64
	ErrorCount   int64
	AvgLatency   time.Duration
	LastAccessed time.Time
}

type rateLimitKey struct {
	handlerID string
	clientID  string
}

type rateLimitState struct {
	windowStart time.Time
	count       int
}

// Result is the successful outcome of routeRequest (spec §4.D step 8).
type Result struct {
	Instance                  *Instance
	Manifest                  *manifest.Manifest
	Version                   tsv.TSV
	Cached                    bool
	TransformedRequest        any
	RequiresResponseTransform bool
	OriginalVersion           tsv.TSV
}

// Manager is the Route Manager.
type Manager struct {
	logger    *corelog.Logger
	eventSink coreconfig.EventSink
	registry  *version.Registry
	store     *manifest.Store
	engine    *transform.Engine

	mu        sync.RWMutex
	instances map[string]map[tsv.TSV]*Instance

	manifestCache *fifoCache[string, *manifest.Manifest]
	gtypeCache    *fifoCache[string, *gtype.GType]
	healthCache   *fifoCache[string, Health]

	rateMu    sync.Mutex
	rateState map[rateLimitKey]*rateLimitState

	warmPoolsMu sync.RWMutex
	warmPools   map[string]WarmPool

	usageMu sync.Mutex
	usage   map[string]*UsageMetrics

	stopCh chan struct{}
}

// Option configures a Manager.
type Option func(*Manager)

func WithLogger(l *corelog.Logger) Option { return func(m *Manager) { m.logger = l } }

// WithEventSink wires a lifecycle-event sink, used today to advise an
// external autoscaler of warm-pool over/under-utilization (spec §6 "onEvent").
func WithEventSink(sink coreconfig.EventSink) Option {
	return func(m *Manager) { m.eventSink = sink }
}

// New builds a Manager and starts its health-scan and rate-limit-sweep
// background tickers (spec §4.D "Background tasks").
func New(registry *version.Registry, store *manifest.Store, opts ...Option) *Manager {
	m := &Manager{
		logger:        corelog.NoOp(),
		registry:      registry,
		store:         store,
		instances:     make(map[string]map[tsv.TSV]*Instance),
		manifestCache: newFIFOCache[string, *manifest.Manifest](defaultCacheCap),
		gtypeCache:    newFIFOCache[string, *gtype.GType](defaultCacheCap),
		healthCache:   newFIFOCache[string, Health](defaultCacheCap),
		rateState:     make(map[rateLimitKey]*rateLimitState),
		warmPools:     make(map[string]WarmPool),
		usage:         make(map[string]*UsageMetrics),
		stopCh:        make(chan struct{}),
	}
	m.engine = transform.New(store.GetTransformerHop)
	for _, opt := range opts {
		opt(m)
	}
	go m.healthScanLoop()
	go m.rateLimitSweepLoop()
	return m
}

// Stop halts the background tickers.
func (m *Manager) Stop() { close(m.stopCh) }

// RegisterHandler inserts or overwrites instances[path][v], caches the
// manifest, and registers the version as hot (spec §4.D registerHandler).
func (m *Manager) RegisterHandler(path string, v tsv.TSV, fn HandlerFunc, man *manifest.Manifest) *Instance {
	m.store.StoreManifest(man)
	m.manifestCache.Set(man.HandlerID, man)
	m.registry.RegisterVersion(path, v, man.ContentHash, version.StatusHot, nil)

	now := time.Now()
	inst := &Instance{
		InstanceID:   instanceID(path, v),
		HandlerID:    man.HandlerID,
		Version:      v,
		Fn:           fn,
		Manifest:     man,
		Health:       Health{State: HealthHealthy, LastCheck: now},
		CreatedAt:    now,
		LastAccessed: now,
	}

	m.mu.Lock()
	if m.instances[path] == nil {
		m.instances[path] = make(map[tsv.TSV]*Instance)
	}
	m.instances[path][v] = inst
	m.mu.Unlock()

	m.usageMu.Lock()
	m.usage[inst.InstanceID] = &UsageMetrics{LastAccessed: now}
	m.usageMu.Unlock()

	return inst
}

// RegisterTransformer registers a Transformer Pair for a version hop (spec
// §6 "registerTransformer(pair)"), delegating to the Manifest Store that
// backs the Route Manager's transform engine lookups.
func (m *Manager) RegisterTransformer(pair *transform.Pair) {
	m.store.StoreTransformer(pair)
}

// LifecycleEvent is an advisory event the Route Manager emits through its
// configured event sink (spec §6 "onEvent"). Warm-pool accounting is the
// only producer today; no instances are actually created or destroyed by
// the core in response (handler instances have no OS resources).
type LifecycleEvent struct {
	Type      string
	Timestamp time.Time
	HandlerID string
	Metadata  map[string]any
}

func (m *Manager) emitEvent(eventType, handlerID string, metadata map[string]any) {
	if m.eventSink == nil {
		return
	}
	m.eventSink(LifecycleEvent{Type: eventType, Timestamp: time.Now(), HandlerID: handlerID, Metadata: metadata})
}

// SetWarmPool records the warm-pool policy for handlerID (spec §4.D
// warmPools, exercised by the NEW warm-pool accounting events in
// SPEC_FULL.md's Route Manager detail).
func (m *Manager) SetWarmPool(handlerID string, pool WarmPool) {
	m.warmPoolsMu.Lock()
	defer m.warmPoolsMu.Unlock()
	m.warmPools[handlerID] = pool
}

// WarmPoolFor returns the warm-pool policy for handlerID, if any.
func (m *Manager) WarmPoolFor(handlerID string) (WarmPool, bool) {
	m.warmPoolsMu.RLock()
	defer m.warmPoolsMu.RUnlock()
	p, ok := m.warmPools[handlerID]
	return p, ok
}

// ResolveGType resolves ref via the gtypeCache, falling back to the
// Manifest Store on a miss and populating the cache for next time — the
// gtypeCache named in spec §4.D, consulted when a hook needs the GType
// behind a manifest's request/response/params/headers ref.
func (m *Manager) ResolveGType(ref string) (*gtype.GType, bool) {
	if g, ok := m.gtypeCache.Get(ref); ok {
		return g, true
	}
	g, ok := m.store.GetGType(ref)
	if ok {
		m.gtypeCache.Set(ref, g)
	}
	return g, ok
}

// UpdateHealth is the external prober hook spec §9 says real deployments
// should inject, forcing an instance's health state directly.
func (m *Manager) UpdateHealth(path string, v tsv.TSV, state HealthState, message string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	insts := m.instances[path]
	if insts == nil {
		return false
	}
	inst, ok := insts[v]
	if !ok {
		return false
	}
	inst.Health.State = state
	inst.Health.LastCheck = time.Now()
	inst.Health.Message = message
	m.healthCache.Set(inst.InstanceID, inst.Health)
	return true
}

// RouteRequest runs the full dispatch pipeline (spec §4.D routeRequest,
// steps 1-8).
func (m *Manager) RouteRequest(ctx context.Context, d *Descriptor) (*Result, error) {
	resolvedVersion, err := m.resolveVersion(d)
	if err != nil {
		return nil, err
	}

	inst, err := m.locateInstance(d.Path, resolvedVersion)
	if err != nil {
		return nil, err
	}

	if inst.Health.State == HealthUnhealthy {
		return nil, rerrors.Unhealthy(inst.InstanceID)
	}

	if err := m.checkRateLimit(inst, d); err != nil {
		return nil, err
	}

	if err := m.checkAuth(inst, d); err != nil {
		return nil, err
	}

	result := &Result{
		Instance: inst,
		Manifest: inst.Manifest,
		Version:  resolvedVersion,
		Cached:   true,
	}

	if d.ClientGatiVersion != "" {
		clientVersion := tsv.TSV(d.ClientGatiVersion)
		if clientVersion != resolvedVersion {
			versions, _ := m.store.GetVersionGraph(inst.HandlerID)
			if len(versions) == 0 {
				versions = []tsv.TSV{clientVersion, resolvedVersion}
			}
			out := m.engine.TransformRequest(ctx, d.Body, clientVersion, resolvedVersion, versions)
			if !out.Success {
				return nil, rerrors.NoVersion(d.Path, nil).WithWrapped(out.Err)
			}
			result.TransformedRequest = out.Data
			result.RequiresResponseTransform = true
			result.OriginalVersion = clientVersion
		}
	}

	m.recordAccounting(inst, resolvedVersion)
	return result, nil
}

// resolveVersion implements spec §4.D step 1: query param > header > latest.
func (m *Manager) resolveVersion(d *Descriptor) (tsv.TSV, error) {
	if d.QueryVersion != "" {
		return tsv.TSV(d.QueryVersion), nil
	}
	if d.HeaderAPIVersion != "" {
		return tsv.TSV(d.HeaderAPIVersion), nil
	}
	return m.registry.ResolveLatest(d.Path)
}

func (m *Manager) locateInstance(path string, v tsv.TSV) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	insts := m.instances[path]
	if insts == nil {
		return nil, rerrors.NoHandler(path, string(v))
	}
	inst, ok := insts[v]
	if !ok {
		return nil, rerrors.NoHandler(path, string(v))
	}
	return inst, nil
}

// checkRateLimit implements spec §4.D step 4 (fixed-window counter), keyed
// per (handlerId, clientId) per spec §3's Rate-Limit State.
func (m *Manager) checkRateLimit(inst *Instance, d *Descriptor) error {
	rl := inst.Manifest.Policies.RateLimit
	if rl == nil {
		return nil
	}

	key := rateLimitKey{handlerID: inst.HandlerID, clientID: d.ClientID}
	now := time.Now()
	window := time.Duration(rl.WindowMs) * time.Millisecond

	m.rateMu.Lock()
	defer m.rateMu.Unlock()

	state, ok := m.rateState[key]
	if !ok || now.Sub(state.windowStart) >= window {
		state = &rateLimitState{windowStart: now, count: 0}
		m.rateState[key] = state
	}

	if state.count >= rl.Limit {
		return rerrors.RateLimited(rl.Limit, int(rl.WindowMs), state.count)
	}
	state.count++
	return nil
}

// checkAuth implements spec §4.D step 5.
func (m *Manager) checkAuth(inst *Instance, d *Descriptor) error {
	roles := inst.Manifest.Policies.Roles
	if len(roles) == 0 {
		return nil
	}
	if d.AuthContext == nil {
		return rerrors.Unauthorized(roles)
	}
	if !rolesIntersect(roles, d.AuthContext.Roles) {
		return rerrors.Unauthorized(roles)
	}
	return nil
}

func rolesIntersect(required, held []string) bool {
	heldSet := make(map[string]struct{}, len(held))
	for _, r := range held {
		heldSet[r] = struct{}{}
	}
	for _, r := range required {
		if _, ok := heldSet[r]; ok {
			return true
		}
	}
	return false
}

// recordAccounting implements spec §4.D step 7.
func (m *Manager) recordAccounting(inst *Instance, v tsv.TSV) {
	now := time.Now()

	m.mu.Lock()
	inst.LastAccessed = now
	m.mu.Unlock()

	m.usageMu.Lock()
	metrics, ok := m.usage[inst.InstanceID]
	if !ok {
		metrics = &UsageMetrics{}
		m.usage[inst.InstanceID] = metrics
	}
	metrics.RequestCount++
	metrics.LastAccessed = now
	m.usageMu.Unlock()

	m.registry.RecordRequest(v)
}

// UsageFor returns a snapshot of usage metrics for instanceID.
func (m *Manager) UsageFor(instanceID string) (UsageMetrics, bool) {
	m.usageMu.Lock()
	defer m.usageMu.Unlock()
	metrics, ok := m.usage[instanceID]
	if !ok {
		return UsageMetrics{}, false
	}
	return *metrics, true
}

func (m *Manager) healthScanLoop() {
	ticker := time.NewTicker(healthScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.scanHealth()
			m.checkWarmPools()
		}
	}
}

// checkWarmPools compares each handler's aggregate request count against its
// warm-pool target utilization and emits an advisory
// "warmpool:under-target"/"warmpool:over-target" lifecycle event (spec
// §4.D "Warm pool accounting" — NEW). This never creates or destroys
// instances; it is a signal for an external autoscaler collaborator.
func (m *Manager) checkWarmPools() {
	if m.eventSink == nil {
		return
	}

	m.warmPoolsMu.RLock()
	pools := make(map[string]WarmPool, len(m.warmPools))
	for h, p := range m.warmPools {
		pools[h] = p
	}
	m.warmPoolsMu.RUnlock()
	if len(pools) == 0 {
		return
	}

	m.mu.RLock()
	handlerOf := make(map[string]string, len(m.usage))
	for _, insts := range m.instances {
		for _, inst := range insts {
			handlerOf[inst.InstanceID] = inst.HandlerID
		}
	}
	m.mu.RUnlock()

	m.usageMu.Lock()
	byHandler := make(map[string]int64, len(pools))
	for instanceID, metrics := range m.usage {
		if h, ok := handlerOf[instanceID]; ok {
			byHandler[h] += metrics.RequestCount
		}
	}
	m.usageMu.Unlock()

	for handlerID, pool := range pools {
		if pool.Max <= 0 {
			continue
		}
		utilization := float64(byHandler[handlerID]) / float64(pool.Max)
		if utilization > 1 {
			utilization = 1
		}
		meta := map[string]any{"utilization": utilization, "targetUtilization": pool.TargetUtilization}
		switch {
		case utilization < pool.TargetUtilization:
			m.emitEvent("warmpool:under-target", handlerID, meta)
		case utilization > pool.TargetUtilization:
			m.emitEvent("warmpool:over-target", handlerID, meta)
		}
	}
}

// scanHealth implements spec §4.D's health scan: healthy instances
// inactive for longer than healthInactivityThreshold degrade.
func (m *Manager) scanHealth() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, insts := range m.instances {
		for _, inst := range insts {
			if inst.Health.State == HealthHealthy && now.Sub(inst.LastAccessed) > healthInactivityThreshold {
				inst.Health.State = HealthDegraded
				inst.Health.LastCheck = now
				m.healthCache.Set(inst.InstanceID, inst.Health)
			}
		}
	}
}

func (m *Manager) rateLimitSweepLoop() {
	ticker := time.NewTicker(rateLimitSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweepRateLimits()
		}
	}
}

// sweepRateLimits drops entries older than the max configured window
// (spec §4.D "Rate-limit sweep").
func (m *Manager) sweepRateLimits() {
	now := time.Now()

	m.rateMu.Lock()
	defer m.rateMu.Unlock()
	for key, state := range m.rateState {
		if now.Sub(state.windowStart) > maxRateLimitWindow {
			delete(m.rateState, key)
		}
	}
}
