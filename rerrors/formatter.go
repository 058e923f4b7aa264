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

// Response is the framework-agnostic formatted error response.
type Response struct {
	Status      int
	ContentType string
	Body        map[string]any
}

// Simple formats an error as a simple JSON object:
// {"error": "...", "code": "...", "details": {...}}. It never touches the
// HTTP edge layer directly (spec §7: "the mapping is outside the core");
// this is a convenience the embedding process may use or ignore.
type Simple struct {
	// StatusResolver overrides status determination, falling back to the
	// ErrorType interface and then 500.
	StatusResolver func(err error) int
}

// Format converts err into a Response.
func (f Simple) Format(err error) Response {
	body := map[string]any{"error": err.Error()}

	var coded ErrorCode
	if errors.As(err, &coded) {
		body["code"] = coded.Code()
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		body["details"] = detailed.Details()
	}

	return Response{
		Status:      f.status(err),
		ContentType: "application/json; charset=utf-8",
		Body:        body,
	}
}

func (f Simple) status(err error) int {
	if f.StatusResolver != nil {
		return f.StatusResolver(err)
	}
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// RFC9457 formats an error as an RFC 9457 "problem details" document:
// {"type": "...", "title": "...", "status": ..., "detail": "...",
// "code": "...", "details": {...}}. TypeBase prefixes the problem type URI;
// it defaults to "about:blank" when unset, same as the RFC's own default.
type RFC9457 struct {
	TypeBase string
}

// Format converts err into a Response whose body is an RFC 9457 document.
func (f RFC9457) Format(err error) Response {
	status := http.StatusInternalServerError
	var typed ErrorType
	if errors.As(err, &typed) {
		status = typed.HTTPStatus()
	}

	typeBase := f.TypeBase
	if typeBase == "" {
		typeBase = "about:blank"
	}

	body := map[string]any{
		"type":   typeBase,
		"title":  http.StatusText(status),
		"status": status,
		"detail": err.Error(),
	}

	var coded ErrorCode
	if errors.As(err, &coded) {
		body["code"] = coded.Code()
		if typeBase != "about:blank" {
			body["type"] = typeBase + "/" + coded.Code()
		}
	}

	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		body["details"] = detailed.Details()
	}

	return Response{
		Status:      status,
		ContentType: "application/problem+json; charset=utf-8",
		Body:        body,
	}
}
