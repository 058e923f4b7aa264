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

package rerrors

import (
	"errors"
	"net/http"
)

// Static errors for conditions that carry no per-call structured payload.
// These are wrapped into *Error (or returned directly) by callers that do
// need a payload; use errors.Is against these for tests and control flow.
var (
	ErrQueueShuttingDown = errors.New("queue fabric is shutting down")
	ErrTTLExpired        = errors.New("message expired before delivery")
	ErrMaxAttempts       = errors.New("message exceeded max delivery attempts")
	ErrNoSubscribers     = errors.New("no subscribers for topic")
	ErrChainTooLong      = errors.New("transformer chain exceeds maxHops")
	ErrChainBreak        = errors.New("no transformer registered for hop")
	ErrStepTimeout       = errors.New("transformer step timed out")
	ErrHookTimeout       = errors.New("hook execution timed out")
	ErrHookFailed        = errors.New("hook failed after retries")
)

// Routing error codes, verbatim from spec §6.
const (
	CodeNoHandler    = "NO_HANDLER"
	CodeNoVersion    = "NO_VERSION"
	CodeRateLimited  = "RATE_LIMITED"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUnhealthy    = "UNHEALTHY"
)

// NoVersion builds the NO_VERSION routing error for a path with no
// registered (non-cold) version, or for a failed version-bridge transform.
func NoVersion(path string, details any) *Error {
	return New(KindRouting, CodeNoVersion, http.StatusNotFound,
		"no version available for path "+path).WithDetails(details)
}

// NoHandler builds the NO_HANDLER routing error.
func NoHandler(path string, version string) *Error {
	return New(KindRouting, CodeNoHandler, http.StatusNotFound,
		"no handler instance for path "+path).WithDetails(map[string]any{
		"path":    path,
		"version": version,
	})
}

// Unhealthy builds the UNHEALTHY routing error.
func Unhealthy(instanceID string) *Error {
	return New(KindRouting, CodeUnhealthy, http.StatusServiceUnavailable,
		"handler instance is unhealthy").WithDetails(map[string]any{
		"instanceId": instanceID,
	})
}

// RateLimited builds the RATE_LIMITED routing error with the current
// counters, matching scenario S2 in spec §8.
func RateLimited(limit, window, current int) *Error {
	return New(KindRouting, CodeRateLimited, http.StatusTooManyRequests,
		"rate limit exceeded").WithDetails(map[string]any{
		"limit":   limit,
		"window":  window,
		"current": current,
	})
}

// Unauthorized builds the UNAUTHORIZED routing error, optionally naming the
// roles that were required.
func Unauthorized(requiredRoles []string) *Error {
	return New(KindRouting, CodeUnauthorized, http.StatusUnauthorized,
		"request does not satisfy required roles").WithDetails(map[string]any{
		"requiredRoles": requiredRoles,
	})
}

// ChainBreak builds a Transformation-kind error naming the missing hop.
func ChainBreak(from, to string) *Error {
	return New(KindTransformation, "CHAIN_BREAK", http.StatusInternalServerError,
		"no transformer for hop").WithDetails(map[string]any{
		"from": from,
		"to":   to,
	}).WithWrapped(ErrChainBreak)
}

// Backpressure builds a Queue-kind error for a rejected publish.
func Backpressure(depth, max int) *Error {
	return New(KindQueue, "BACKPRESSURE", http.StatusServiceUnavailable,
		"backpressure active").WithDetails(map[string]any{
		"queueDepth": depth,
		"maxDepth":   max,
	})
}

// Validation builds a Validation-kind error carrying the raw field errors.
func Validation(message string, fieldErrors any) *Error {
	return New(KindValidation, "VALIDATION_FAILED", http.StatusBadRequest, message).
		WithDetails(fieldErrors)
}
