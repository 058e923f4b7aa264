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

package corelog

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONLoggerEmitsServiceName(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf), WithServiceName("gati-core"))
	require.NoError(t, err)

	l.Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "gati-core", entry["service"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestNewRejectsNilOutput(t *testing.T) {
	_, err := New(WithOutput(nil))
	assert.ErrorIs(t, err, ErrNilOutput)
}

func TestNoOpDiscardsOutput(t *testing.T) {
	l := NoOp()
	assert.NotPanics(t, func() { l.Info("anything") })
}

func TestWithAttachesFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(WithOutput(&buf))
	require.NoError(t, err)

	scoped := l.With("requestId", "req-1")
	scoped.Info("done")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["requestId"])
}
