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

// Package rerrors provides the error taxonomy shared by every component:
// Configuration, Routing, Transformation, Queue, Validation, Hook, and
// Compensation kinds (see spec §7). Domain errors implement the optional
// ErrorType / ErrorDetails / ErrorCode interfaces so a formatter (this
// package's Simple and RFC9457, or one the caller supplies; see
// rivaas.dev/errors for the shape this mirrors) can turn them into HTTP
// responses; no component of the core calls a formatter itself.
package rerrors

import "fmt"

// Kind enumerates the error taxonomy from spec §7.
type Kind string

const (
	KindConfiguration  Kind = "configuration"
	KindRouting        Kind = "routing"
	KindTransformation Kind = "transformation"
	KindQueue          Kind = "queue"
	KindValidation     Kind = "validation"
	KindHook           Kind = "hook"
	KindCompensation   Kind = "compensation"
)

// ErrorType allows an error to declare its own HTTP-equivalent status code.
// The mapping of routing codes to concrete HTTP statuses is left to the
// HTTP edge layer (spec §7); this interface only lets that edge layer ask.
type ErrorType interface {
	error
	HTTPStatus() int
}

// ErrorDetails allows an error to expose a structured details payload.
type ErrorDetails interface {
	error
	Details() any
}

// ErrorCode allows an error to expose a machine-readable code, e.g.
// "NO_HANDLER" or "RATE_LIMITED".
type ErrorCode interface {
	error
	Code() string
}

// Error is the concrete structured error type used across the core. It
// satisfies ErrorType, ErrorDetails, and ErrorCode.
type Error struct {
	Kind    Kind
	code    string
	status  int
	message string
	details any
	wrapped error
}

// New constructs an *Error of the given kind and machine-readable code.
func New(kind Kind, code string, status int, message string) *Error {
	return &Error{Kind: kind, code: code, status: status, message: message}
}

// WithDetails attaches a structured details payload and returns the
// receiver for chaining, matching the builder feel of rivaas.dev/errors's
// constructors.
func (e *Error) WithDetails(details any) *Error {
	e.details = details
	return e
}

// WithWrapped attaches an underlying cause, retrievable via errors.Unwrap.
func (e *Error) WithWrapped(err error) *Error {
	e.wrapped = err
	return e
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.wrapped }

// HTTPStatus implements ErrorType.
func (e *Error) HTTPStatus() int { return e.status }

// Details implements ErrorDetails.
func (e *Error) Details() any { return e.details }

// Code implements ErrorCode.
func (e *Error) Code() string { return e.code }
