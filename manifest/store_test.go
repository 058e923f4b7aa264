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

package manifest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnapaul242/gati-sub000/gtype"
	"github.com/krishnapaul242/gati-sub000/transform"
	"github.com/krishnapaul242/gati-sub000/tsv"
)

func TestStoreAndGetManifestByVersion(t *testing.T) {
	s := New()
	v1 := tsv.New(1000, "a", 1)

	s.StoreManifest(&Manifest{HandlerID: "h1", Version: v1, Path: "/users/:id"})

	got, ok := s.GetManifest("h1", &v1)
	require.True(t, ok)
	assert.Equal(t, "/users/:id", got.Path)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetManifestWithoutVersionReturnsNewest(t *testing.T) {
	s := New()
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)

	m1 := &Manifest{HandlerID: "h1", Version: v1, CreatedAt: time.Unix(100, 0)}
	m2 := &Manifest{HandlerID: "h1", Version: v2, CreatedAt: time.Unix(200, 0)}
	s.StoreManifest(m1)
	s.StoreManifest(m2)

	got, ok := s.GetManifest("h1", nil)
	require.True(t, ok)
	assert.Equal(t, v2, got.Version)
}

func TestGetManifestMissingReturnsFalse(t *testing.T) {
	s := New()
	_, ok := s.GetManifest("nope", nil)
	assert.False(t, ok)
}

func TestStoreAndGetGType(t *testing.T) {
	s := New()
	g := gtype.FromStruct("user.v1", struct {
		Name string `validate:"required"`
	}{})

	s.StoreGType(g)
	got, ok := s.GetGType("user.v1")
	require.True(t, ok)
	assert.Equal(t, "user.v1", got.Ref)
}

func TestStoreAndGetTransformerHop(t *testing.T) {
	s := New()
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)

	pair := &transform.Pair{FromTSV: v1, ToTSV: v2}
	s.StoreTransformer(pair)

	got, ok := s.GetTransformerHop(v1, v2)
	require.True(t, ok)
	assert.Equal(t, pair, got)

	got, ok = s.GetTransformerHop(v2, v1)
	require.True(t, ok)
	assert.Equal(t, pair, got)
}

func TestGetTransformerHopMissingReturnsFalse(t *testing.T) {
	s := New()
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)

	_, ok := s.GetTransformerHop(v1, v2)
	assert.False(t, ok)
}

func TestStoreAndGetVersionGraph(t *testing.T) {
	s := New()
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)
	v3 := tsv.New(3000, "c", 1)

	s.StoreVersionGraph("h1", []tsv.TSV{v3, v1, v2})

	got, ok := s.GetVersionGraph("h1")
	require.True(t, ok)
	assert.Equal(t, []tsv.TSV{v1, v2, v3}, got)
}

func TestStoreAndGetTimescape(t *testing.T) {
	s := New()
	v1 := tsv.New(1000, "a", 1)

	s.StoreTimescape("h1", v1, map[string]any{"deprecatedAt": "2025-01-01"})

	got, ok := s.GetTimescape("h1", v1)
	require.True(t, ok)
	assert.Equal(t, "2025-01-01", got["deprecatedAt"])

	_, ok = s.GetTimescape("h1", tsv.New(2000, "b", 1))
	assert.False(t, ok)
}
