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

package tsv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndParse(t *testing.T) {
	v := New(1000, "a", 1)
	assert.Equal(t, TSV("tsv:1000-a-1"), v)
	assert.True(t, v.Valid())

	ms, ok := v.UnixMs()
	require.True(t, ok)
	assert.Equal(t, int64(1000), ms)

	seq, ok := v.Seq()
	require.True(t, ok)
	assert.Equal(t, 1, seq)
}

func TestValidRejectsMalformed(t *testing.T) {
	cases := []TSV{
		"",
		"tsv:",
		"1000-a-1",
		"tsv:abc-a-1",
		"tsv:1000-a",
		"tsv:1000-a-x",
	}
	for _, c := range cases {
		assert.Falsef(t, c.Valid(), "expected %q to be invalid", c)
	}
}

func TestBeforeOrdersByTimestampThenSeq(t *testing.T) {
	v1 := New(1000, "a", 1)
	v2 := New(2000, "b", 1)
	assert.True(t, v1.Before(v2))
	assert.False(t, v2.Before(v1))

	same1 := New(1000, "a", 1)
	same2 := New(1000, "a", 2)
	assert.True(t, same1.Before(same2))
}

func TestCompare(t *testing.T) {
	v1 := New(1000, "a", 1)
	v2 := New(2000, "b", 1)
	assert.Equal(t, -1, v1.Compare(v2))
	assert.Equal(t, 1, v2.Compare(v1))
	assert.Equal(t, 0, v1.Compare(v1))
}

func TestSortAscending(t *testing.T) {
	v1 := New(1000, "a", 1)
	v2 := New(2000, "b", 1)
	v3 := New(3000, "c", 1)

	sorted := Sort([]TSV{v3, v1, v2})
	assert.Equal(t, []TSV{v1, v2, v3}, sorted)
}

func TestGenerateProducesValidTSV(t *testing.T) {
	v, err := Generate(5000, 7)
	require.NoError(t, err)
	assert.True(t, v.Valid())
	ms, _ := v.UnixMs()
	assert.Equal(t, int64(5000), ms)
}
