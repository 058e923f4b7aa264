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

// Package routing implements the Route Manager (spec §4.D): the central
// orchestrator that resolves a Request Descriptor to a handler instance
// through version resolution, health/rate-limit/auth gates, and version
// bridging via the Transformer Engine.
package routing

import (
	"time"

	"github.com/krishnapaul242/gati-sub000/manifest"
	"github.com/krishnapaul242/gati-sub000/tsv"
)

// HealthState is one of healthy | degraded | unhealthy (spec §3).
type HealthState string

const (
	HealthHealthy   HealthState = "healthy"
	HealthDegraded  HealthState = "degraded"
	HealthUnhealthy HealthState = "unhealthy"
)

// Health is a Health Status record (spec §3).
type Health struct {
	State               HealthState
	LastCheck           time.Time
	ConsecutiveFailures int
	Message             string
}

// HandlerFunc is the handler body a Handler Instance wraps.
type HandlerFunc func(descriptor *Descriptor) (any, error)

// Instance is a Handler Instance (spec §3).
type Instance struct {
	InstanceID   string
	HandlerID    string
	Version      tsv.TSV
	Fn           HandlerFunc
	Manifest     *manifest.Manifest
	Health       Health
	CreatedAt    time.Time
	LastAccessed time.Time

	Decommissioned bool
}

func instanceID(path string, v tsv.TSV) string { return path + "@" + string(v) }

// AuthContext carries the caller's authenticated roles, set by the HTTP
// edge layer onto a Descriptor when auth succeeds upstream.
type AuthContext struct {
	Roles []string
}

// Descriptor is a Request Descriptor (external collaborator input,
// spec §2/§6): everything the Route Manager needs to route one request.
type Descriptor struct {
	Path              string
	QueryVersion      string // query param "v"
	HeaderAPIVersion  string // header x-api-version
	ClientGatiVersion string // header x-gati-version ("client's native version")
	ClientID          string
	AuthContext       *AuthContext
	Body              any
}
