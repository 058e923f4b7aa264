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

package gtype

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRequest struct {
	Email string `validate:"required,email"`
	Age   int    `validate:"gte=0"`
}

func TestFromStructAcceptsValidValue(t *testing.T) {
	g := FromStruct("user-request-v1", userRequest{})
	err := g.Validate(context.Background(), userRequest{Email: "a@b.com", Age: 10})
	assert.NoError(t, err)
}

func TestFromStructRejectsInvalidValue(t *testing.T) {
	g := FromStruct("user-request-v1", userRequest{})
	err := g.Validate(context.Background(), userRequest{Email: "not-an-email", Age: -1})
	require.Error(t, err)

	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Len(t, gerr.Fields, 2)
}

func TestFromJSONSchemaCompilesAndValidates(t *testing.T) {
	schema := `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"required": ["name"]
	}`
	g, err := FromJSONSchema("thing-v1", schema)
	require.NoError(t, err)

	assert.NoError(t, g.Validate(context.Background(), map[string]any{"name": "ok"}))
	assert.Error(t, g.Validate(context.Background(), map[string]any{}))
}

func TestFromJSONSchemaRejectsMalformedSchema(t *testing.T) {
	_, err := FromJSONSchema("broken", `{not json`)
	assert.Error(t, err)
}
