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

// Package coreconfig holds the recognised configuration options from
// spec §6, following the functional-option-with-validation shape of
// rivaas.dev/config.
package coreconfig

import (
	"fmt"
	"time"

	"github.com/krishnapaul242/gati-sub000/rerrors"
)

// EventSink receives lifecycle events (spec §6 "onEvent").
type EventSink func(event any)

// AlertSink receives compensation alerts (spec §6 "onAlert").
type AlertSink func(alert any)

// Config holds every recognised option from spec §6, with the defaults
// named there. Only the EventSink and AlertSink types are used by other
// packages: no component reads a Config value, and the Hook Orchestrator,
// Queue Fabric and Route Manager use their own built-in defaults instead.
type Config struct {
	Timeout                  time.Duration
	MaxQueueDepth            int
	DefaultDeliverySemantics string
	MaxDeliveryAttempts      int
	DefaultTTL               time.Duration
	MaxCacheSize             int
	HealthCheckInterval      time.Duration
	RateLimitCleanupInterval time.Duration
	DefaultHookTimeout       time.Duration
	DefaultRetries           int
	EmitEvents               bool
	OnEvent                  EventSink
	OnAlert                  AlertSink
}

// Option is a functional option that can fail validation at apply time.
type Option func(*Config) error

// Default returns a Config populated with every default from spec §6.
func Default() *Config {
	return &Config{
		Timeout:                  30 * time.Second,
		MaxQueueDepth:            10000,
		DefaultDeliverySemantics: "at-least-once",
		MaxDeliveryAttempts:      3,
		DefaultTTL:               60 * time.Second,
		MaxCacheSize:             1000,
		HealthCheckInterval:      30 * time.Second,
		RateLimitCleanupInterval: 60 * time.Second,
		DefaultHookTimeout:       5 * time.Second,
		DefaultRetries:           0,
		EmitEvents:               false,
	}
}

// New builds a Config from Default() plus opts, validating the result.
func New(opts ...Option) (*Config, error) {
	c := Default()
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("coreconfig: invalid option: %w", err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports a Configuration-kind *rerrors.Error for any
// out-of-range value.
func (c *Config) Validate() error {
	switch {
	case c.Timeout <= 0:
		return configErr("timeout must be positive")
	case c.MaxQueueDepth <= 0:
		return configErr("maxQueueDepth must be positive")
	case c.DefaultDeliverySemantics != "at-least-once" && c.DefaultDeliverySemantics != "exactly-once":
		return configErr("defaultDeliverySemantics must be at-least-once or exactly-once")
	case c.MaxDeliveryAttempts <= 0:
		return configErr("maxDeliveryAttempts must be positive")
	case c.DefaultTTL <= 0:
		return configErr("defaultTtl must be positive")
	case c.MaxCacheSize <= 0:
		return configErr("maxCacheSize must be positive")
	case c.HealthCheckInterval <= 0:
		return configErr("healthCheckInterval must be positive")
	case c.RateLimitCleanupInterval <= 0:
		return configErr("rateLimitCleanupInterval must be positive")
	case c.DefaultHookTimeout <= 0:
		return configErr("defaultHookTimeout must be positive")
	case c.DefaultRetries < 0:
		return configErr("defaultRetries must be non-negative")
	}
	return nil
}

func configErr(msg string) error {
	return rerrors.New(rerrors.KindConfiguration, "INVALID_CONFIG", 500, msg)
}
