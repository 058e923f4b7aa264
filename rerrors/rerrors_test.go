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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitedDetails(t *testing.T) {
	err := RateLimited(2, 60000, 2)
	assert.Equal(t, CodeRateLimited, err.Code())
	assert.Equal(t, http.StatusTooManyRequests, err.HTTPStatus())
	details, ok := err.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2, details["limit"])
	assert.Equal(t, 60000, details["window"])
	assert.Equal(t, 2, details["current"])
}

func TestErrorUnwrap(t *testing.T) {
	err := ChainBreak("tsv:1-a-1", "tsv:2-b-1")
	assert.True(t, errors.Is(err, ErrChainBreak))
}

func TestSimpleFormatter(t *testing.T) {
	err := NoHandler("/users", "tsv:1000-a-1")
	resp := Simple{}.Format(err)
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Equal(t, CodeNoHandler, resp.Body["code"])
	assert.Contains(t, resp.Body["error"], "no handler instance")
}

func TestSimpleFormatterDefaultsTo500(t *testing.T) {
	resp := Simple{}.Format(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestRFC9457Formatter(t *testing.T) {
	err := Unhealthy("instance-1")
	resp := RFC9457{}.Format(err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Status)
	assert.Equal(t, "application/problem+json; charset=utf-8", resp.ContentType)
	assert.Equal(t, CodeUnhealthy, resp.Body["code"])
	assert.Equal(t, http.StatusServiceUnavailable, resp.Body["status"])
	assert.Equal(t, "about:blank", resp.Body["type"])
}

func TestRFC9457FormatterWithTypeBase(t *testing.T) {
	err := Unhealthy("instance-1")
	resp := RFC9457{TypeBase: "https://errors.example.com"}.Format(err)
	assert.Equal(t, "https://errors.example.com/"+CodeUnhealthy, resp.Body["type"])
}
