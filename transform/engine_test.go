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

package transform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishnapaul242/gati-sub000/tsv"
)

// TestTransformRequestChain implements scenario S3 from spec §8.
func TestTransformRequestChain(t *testing.T) {
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)
	v3 := tsv.New(3000, "c", 1)

	pairs := map[string]*Pair{
		key(v1, v2): {
			FromTSV: v1, ToTSV: v2,
			TransformRequest: func(_ context.Context, data any) (any, error) {
				m := data.(map[string]any)
				out := map[string]any{}
				for k, v := range m {
					out[k] = v
				}
				out["step"] = "a"
				return out, nil
			},
		},
		key(v2, v3): {
			FromTSV: v2, ToTSV: v3,
			TransformRequest: func(_ context.Context, data any) (any, error) {
				m := data.(map[string]any)
				out := map[string]any{}
				for k, v := range m {
					out[k] = v
				}
				out["step"] = out["step"].(string) + ",b"
				return out, nil
			},
		},
	}

	engine := New(func(from, to tsv.TSV) (*Pair, bool) {
		p, ok := pairs[key(from, to)]
		return p, ok
	})

	result := engine.TransformRequest(context.Background(), map[string]any{}, v1, v3, []tsv.TSV{v1, v2, v3})

	require.True(t, result.Success)
	assert.Equal(t, "a,b", result.Data.(map[string]any)["step"])
	assert.Equal(t, 2, result.ChainLength)
	assert.Equal(t, []tsv.TSV{v2, v3}, result.TransformedVersions)
}

func TestTransformRequestMissingHopFails(t *testing.T) {
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)
	v3 := tsv.New(3000, "c", 1)

	engine := New(func(from, to tsv.TSV) (*Pair, bool) { return nil, false })
	result := engine.TransformRequest(context.Background(), map[string]any{}, v1, v3, []tsv.TSV{v1, v2, v3})

	assert.False(t, result.Success)
	require.Error(t, result.Err)
}

func TestTransformRequestSameVersionIsNoop(t *testing.T) {
	v1 := tsv.New(1000, "a", 1)
	engine := New(func(from, to tsv.TSV) (*Pair, bool) { return nil, false })
	result := engine.TransformRequest(context.Background(), "payload", v1, v1, []tsv.TSV{v1})

	assert.True(t, result.Success)
	assert.Equal(t, "payload", result.Data)
	assert.Equal(t, 0, result.ChainLength)
}

func TestTransformRequestStepErrorAbortsChain(t *testing.T) {
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)
	boom := errors.New("boom")

	engine := New(func(from, to tsv.TSV) (*Pair, bool) {
		return &Pair{FromTSV: from, ToTSV: to, TransformRequest: func(context.Context, any) (any, error) {
			return nil, boom
		}}, true
	})

	result := engine.TransformRequest(context.Background(), map[string]any{}, v1, v2, []tsv.TSV{v1, v2})
	assert.False(t, result.Success)
	require.Error(t, result.Err)
}

func TestReverseResponseWalksDownward(t *testing.T) {
	v1 := tsv.New(1000, "a", 1)
	v2 := tsv.New(2000, "b", 1)

	engine := New(func(from, to tsv.TSV) (*Pair, bool) {
		if from == v2 && to == v1 {
			return &Pair{FromTSV: from, ToTSV: to, ReverseResponse: func(_ context.Context, data any) (any, error) {
				return data.(int) - 1, nil
			}}, true
		}
		return nil, false
	})

	result := engine.ReverseResponse(context.Background(), 10, v2, v1, []tsv.TSV{v1, v2})
	require.True(t, result.Success)
	assert.Equal(t, 9, result.Data)
}

func key(from, to tsv.TSV) string { return string(from) + "->" + string(to) }
