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

package routing

import "sync"

const defaultCacheCap = 1000

// fifoCache is a fixed-capacity, FIFO-evicting cache keyed by K (spec §4.D:
// manifestCache, gtypeCache, healthCache, each capped at 1000 entries).
type fifoCache[K comparable, V any] struct {
	mu      sync.Mutex
	cap     int
	entries map[K]V
	order   []K
}

func newFIFOCache[K comparable, V any](cap int) *fifoCache[K, V] {
	if cap <= 0 {
		cap = defaultCacheCap
	}
	return &fifoCache[K, V]{cap: cap, entries: make(map[K]V)}
}

func (c *fifoCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fifoCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		c.order = append(c.order, key)
	}
	c.entries[key] = value

	for len(c.order) > c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *fifoCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
