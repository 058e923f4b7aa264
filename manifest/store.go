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

// Package manifest implements the Manifest Store (spec §4.C): an index of
// five maps (manifests, gtypes, transformers, version graphs, Timescape
// metadata) behind independent locks, following the teacher's pattern of
// giving each low-frequency-write concern its own mutex rather than one
// lock guarding unrelated state (e.g. router/routes.go's routesMutex,
// separate from the route tree's own per-node locking).
package manifest

import (
	"sync"
	"time"

	"github.com/krishnapaul242/gati-sub000/gtype"
	"github.com/krishnapaul242/gati-sub000/transform"
	"github.com/krishnapaul242/gati-sub000/tsv"
)

// RateLimitPolicy is the rate-limit clause of a Handler Manifest's
// policies (spec §4.D step 4).
type RateLimitPolicy struct {
	Limit    int
	WindowMs int64
}

// Policies is the policy clause of a Handler Manifest (spec §4.D steps
// 4-5).
type Policies struct {
	Roles     []string
	RateLimit *RateLimitPolicy
}

// Manifest is a Handler Manifest (spec §3). GType fields are refs into
// the Manifest Store's gtypes index, resolved on demand.
type Manifest struct {
	HandlerID   string
	Path        string
	Methods     []string
	Version     tsv.TSV
	RequestRef  string
	ResponseRef string
	ParamsRef   string
	HeadersRef  string
	HookRefs    []string
	Policies    Policies
	Deps        []string
	ContentHash string
	CreatedAt   time.Time
}

type manifestKey struct {
	handlerID string
	version   tsv.TSV
}

// Store is the Manifest Store.
type Store struct {
	manifestsMu sync.RWMutex
	manifests   map[manifestKey]*Manifest

	gtypesMu sync.RWMutex
	gtypes   map[string]*gtype.GType

	transformersMu sync.RWMutex
	transformers   map[string]*transform.Pair // keyed by fromTSV+"->"+toTSV

	graphsMu sync.RWMutex
	graphs   map[string][]tsv.TSV // handlerId -> version graph

	timescapeMu sync.RWMutex
	timescape   map[manifestKey]map[string]any
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		manifests:    make(map[manifestKey]*Manifest),
		gtypes:       make(map[string]*gtype.GType),
		transformers: make(map[string]*transform.Pair),
		graphs:       make(map[string][]tsv.TSV),
		timescape:    make(map[manifestKey]map[string]any),
	}
}

// StoreManifest stores m, overwriting any prior manifest for the same
// (HandlerID, Version) key. CreatedAt is set if unset, matching "a store
// of the same key replaces, never merges" (spec §3 invariant) while still
// giving every manifest a creation time for GetManifest's "latest" lookup.
func (s *Store) StoreManifest(m *Manifest) {
	s.manifestsMu.Lock()
	defer s.manifestsMu.Unlock()

	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.manifests[manifestKey{handlerID: m.HandlerID, version: m.Version}] = m
}

// GetManifest returns the manifest for handlerID at version. If version is
// nil, it returns the manifest with the greatest CreatedAt, breaking ties
// by TSV order (spec §4.C).
func (s *Store) GetManifest(handlerID string, version *tsv.TSV) (*Manifest, bool) {
	s.manifestsMu.RLock()
	defer s.manifestsMu.RUnlock()

	if version != nil {
		m, ok := s.manifests[manifestKey{handlerID: handlerID, version: *version}]
		return m, ok
	}

	var best *Manifest
	for k, m := range s.manifests {
		if k.handlerID != handlerID {
			continue
		}
		if best == nil {
			best = m
			continue
		}
		switch {
		case m.CreatedAt.After(best.CreatedAt):
			best = m
		case m.CreatedAt.Equal(best.CreatedAt) && best.Version.Before(m.Version):
			best = m
		}
	}
	return best, best != nil
}

// StoreGType stores g under g.Ref.
func (s *Store) StoreGType(g *gtype.GType) {
	s.gtypesMu.Lock()
	defer s.gtypesMu.Unlock()
	s.gtypes[g.Ref] = g
}

// GetGType resolves a gtype ref.
func (s *Store) GetGType(ref string) (*gtype.GType, bool) {
	s.gtypesMu.RLock()
	defer s.gtypesMu.RUnlock()
	g, ok := s.gtypes[ref]
	return g, ok
}

// StoreTransformer stores the Transformer Pair for the adjacent hop
// (pair.FromTSV, pair.ToTSV).
func (s *Store) StoreTransformer(pair *transform.Pair) {
	s.transformersMu.Lock()
	defer s.transformersMu.Unlock()
	s.transformers[hopKey(pair.FromTSV, pair.ToTSV)] = pair
}

// GetTransformerHop implements transform.Lookup, resolving the pair
// registered for the adjacent hop (from, to) in either direction: pairs are
// stored once under their ascending registration order (pair.FromTSV,
// pair.ToTSV), so a descending chain walk must also try the reverse key.
func (s *Store) GetTransformerHop(from, to tsv.TSV) (*transform.Pair, bool) {
	s.transformersMu.RLock()
	defer s.transformersMu.RUnlock()
	if p, ok := s.transformers[hopKey(from, to)]; ok {
		return p, ok
	}
	p, ok := s.transformers[hopKey(to, from)]
	return p, ok
}

func hopKey(from, to tsv.TSV) string { return string(from) + "->" + string(to) }

// StoreVersionGraph stores the version graph for handlerID.
func (s *Store) StoreVersionGraph(handlerID string, versions []tsv.TSV) {
	s.graphsMu.Lock()
	defer s.graphsMu.Unlock()
	s.graphs[handlerID] = tsv.Sort(versions)
}

// GetVersionGraph returns the version graph for handlerID.
func (s *Store) GetVersionGraph(handlerID string) ([]tsv.TSV, bool) {
	s.graphsMu.RLock()
	defer s.graphsMu.RUnlock()
	g, ok := s.graphs[handlerID]
	return g, ok
}

// StoreTimescape stores Timescape metadata for (handlerID, version).
func (s *Store) StoreTimescape(handlerID string, version tsv.TSV, meta map[string]any) {
	s.timescapeMu.Lock()
	defer s.timescapeMu.Unlock()
	s.timescape[manifestKey{handlerID: handlerID, version: version}] = meta
}

// GetTimescape returns the Timescape metadata for (handlerID, version).
func (s *Store) GetTimescape(handlerID string, version tsv.TSV) (map[string]any, bool) {
	s.timescapeMu.RLock()
	defer s.timescapeMu.RUnlock()
	m, ok := s.timescape[manifestKey{handlerID: handlerID, version: version}]
	return m, ok
}
