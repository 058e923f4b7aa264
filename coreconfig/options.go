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

package coreconfig

import "time"

// WithTimeout sets the request ceiling.
func WithTimeout(d time.Duration) Option {
	return func(c *Config) error { c.Timeout = d; return nil }
}

// WithMaxQueueDepth sets the queue backpressure threshold.
func WithMaxQueueDepth(n int) Option {
	return func(c *Config) error { c.MaxQueueDepth = n; return nil }
}

// WithDefaultDeliverySemantics sets "at-least-once" or "exactly-once".
func WithDefaultDeliverySemantics(s string) Option {
	return func(c *Config) error { c.DefaultDeliverySemantics = s; return nil }
}

// WithMaxDeliveryAttempts sets the per-message retry ceiling.
func WithMaxDeliveryAttempts(n int) Option {
	return func(c *Config) error { c.MaxDeliveryAttempts = n; return nil }
}

// WithDefaultTTL sets the default message time-to-live.
func WithDefaultTTL(d time.Duration) Option {
	return func(c *Config) error { c.DefaultTTL = d; return nil }
}

// WithMaxCacheSize sets the FIFO cache capacity option. The Route Manager
// does not read it; its caches use a fixed capacity of 1000.
func WithMaxCacheSize(n int) Option {
	return func(c *Config) error { c.MaxCacheSize = n; return nil }
}

// WithHealthCheckInterval sets the background health-scan period.
func WithHealthCheckInterval(d time.Duration) Option {
	return func(c *Config) error { c.HealthCheckInterval = d; return nil }
}

// WithRateLimitCleanupInterval sets the background rate-limit sweep period.
func WithRateLimitCleanupInterval(d time.Duration) Option {
	return func(c *Config) error { c.RateLimitCleanupInterval = d; return nil }
}

// WithDefaultHookTimeout sets the default per-hook timeout option. The Hook
// Orchestrator does not read it; a hook without its own timeout gets 5s.
func WithDefaultHookTimeout(d time.Duration) Option {
	return func(c *Config) error { c.DefaultHookTimeout = d; return nil }
}

// WithDefaultRetries sets the default per-hook retry count option. The
// Hook Orchestrator does not read it; a hook without its own count is not
// retried.
func WithDefaultRetries(n int) Option {
	return func(c *Config) error { c.DefaultRetries = n; return nil }
}

// WithEvents enables lifecycle event emission and sets the sinks.
func WithEvents(onEvent EventSink, onAlert AlertSink) Option {
	return func(c *Config) error {
		c.EmitEvents = true
		c.OnEvent = onEvent
		c.OnAlert = onAlert
		return nil
	}
}
