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

// Package version implements the Version Registry (spec §4.A): an
// ordered, per-route-path sequence of Version Records plus a reverse
// TSV -> (path, record) index. The registry is the one component every
// dispatch goes through first, so its locking discipline follows the
// teacher's router package: one mutex protects the registry's own maps,
// entirely separate from any lock the Route Manager holds over handler
// instances.
package version

import (
	"sync"
	"time"

	"github.com/krishnapaul242/gati-sub000/rerrors"
	"github.com/krishnapaul242/gati-sub000/tsv"
)

// Status is the lifecycle state of a Version Record.
type Status string

const (
	StatusHot  Status = "hot"
	StatusWarm Status = "warm"
	StatusCold Status = "cold"
)

// Record is a Version Record (spec §3).
type Record struct {
	TSV          tsv.TSV
	Hash         string
	Status       Status
	RequestCount int64
	LastAccessed time.Time
	Tags         []string
	CreatedAt    time.Time
}

// Registry stores, per route path, the ordered sequence of Version
// Records, plus the reverse TSV index.
type Registry struct {
	mu       sync.RWMutex
	byPath   map[string]map[tsv.TSV]*Record // path -> tsv -> record
	byTSV    map[tsv.TSV]string             // tsv -> path, for the reverse index
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byPath: make(map[string]map[tsv.TSV]*Record),
		byTSV:  make(map[tsv.TSV]string),
	}
}

// RegisterVersion registers (or idempotently replaces) a Version Record
// for (path, v). A later registration of the same key replaces the
// metadata but preserves the original CreatedAt (spec §4.A).
func (r *Registry) RegisterVersion(path string, v tsv.TSV, hash string, status Status, tags []string) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.byPath[path] == nil {
		r.byPath[path] = make(map[tsv.TSV]*Record)
	}

	now := time.Now()
	createdAt := now
	if existing, ok := r.byPath[path][v]; ok {
		createdAt = existing.CreatedAt
	}

	rec := &Record{
		TSV:       v,
		Hash:      hash,
		Status:    status,
		Tags:      tags,
		CreatedAt: createdAt,
	}
	r.byPath[path][v] = rec
	r.byTSV[v] = path
	return rec
}

// GetVersions returns every Version Record for path, sorted ascending by
// embedded timestamp.
func (r *Registry) GetVersions(path string) []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.byPath[path]
	out := make([]*Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec)
	}
	insertionSortRecords(out)
	return out
}

// RecordRequest increments the request counter and touches LastAccessed
// for the record identified by v, wherever it is registered.
func (r *Registry) RecordRequest(v tsv.TSV) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path, ok := r.byTSV[v]
	if !ok {
		return
	}
	rec, ok := r.byPath[path][v]
	if !ok {
		return
	}
	rec.RequestCount++
	rec.LastAccessed = time.Now()
}

// ResolveLatest returns the TSV with the greatest embedded timestamp among
// records for path whose status is not cold. Returns a NoVersion
// *rerrors.Error if no such record exists.
func (r *Registry) ResolveLatest(path string) (tsv.TSV, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.byPath[path]
	var best *Record
	for _, rec := range recs {
		if rec.Status == StatusCold {
			continue
		}
		if best == nil || best.TSV.Before(rec.TSV) {
			best = rec
		}
	}
	if best == nil {
		return "", rerrors.NoVersion(path, nil)
	}
	return best.TSV, nil
}

// Lookup returns the Record for (path, v), if any.
func (r *Registry) Lookup(path string, v tsv.TSV) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	recs := r.byPath[path]
	if recs == nil {
		return nil, false
	}
	rec, ok := recs[v]
	return rec, ok
}

// UpdateStatus updates the Status of the record at (path, v), if present.
func (r *Registry) UpdateStatus(path string, v tsv.TSV, status Status) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := r.byPath[path]
	if recs == nil {
		return false
	}
	rec, ok := recs[v]
	if !ok {
		return false
	}
	rec.Status = status
	return true
}

// Stats reports, for diagnostics only, the number of registered versions
// per path (mirrors the introspection accessors the teacher's router
// package exposes over its route tree).
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.byPath))
	for path, recs := range r.byPath {
		out[path] = len(recs)
	}
	return out
}

func insertionSortRecords(recs []*Record) {
	for i := 1; i < len(recs); i++ {
		for j := i; j > 0 && recs[j].TSV.Before(recs[j-1].TSV); j-- {
			recs[j], recs[j-1] = recs[j-1], recs[j]
		}
	}
}
