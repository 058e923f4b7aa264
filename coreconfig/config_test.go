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

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpec(t *testing.T) {
	c := Default()
	assert.Equal(t, 30*time.Second, c.Timeout)
	assert.Equal(t, 10000, c.MaxQueueDepth)
	assert.Equal(t, "at-least-once", c.DefaultDeliverySemantics)
	assert.Equal(t, 3, c.MaxDeliveryAttempts)
	assert.Equal(t, 1000, c.MaxCacheSize)
	assert.Equal(t, 5*time.Second, c.DefaultHookTimeout)
	assert.Equal(t, 0, c.DefaultRetries)
}

func TestNewAppliesOptions(t *testing.T) {
	c, err := New(WithMaxQueueDepth(5), WithDefaultDeliverySemantics("exactly-once"))
	require.NoError(t, err)
	assert.Equal(t, 5, c.MaxQueueDepth)
	assert.Equal(t, "exactly-once", c.DefaultDeliverySemantics)
}

func TestNewRejectsInvalidSemantics(t *testing.T) {
	_, err := New(WithDefaultDeliverySemantics("sometimes"))
	assert.Error(t, err)
}

func TestNewRejectsNonPositiveQueueDepth(t *testing.T) {
	_, err := New(WithMaxQueueDepth(0))
	assert.Error(t, err)
}
