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

// Package queue implements the Queue Fabric (spec §4.E): an in-process,
// topic-indexed priority queue with subscribers, at-least-once/
// exactly-once delivery semantics, backpressure, and one-shot result
// correlation by requestId.
package queue

import "time"

// DeliverySemantics selects whether the fabric may replay a message on
// retry (AtLeastOnce) or must suppress replays via the delivered-set
// (ExactlyOnce).
type DeliverySemantics string

const (
	AtLeastOnce DeliverySemantics = "at-least-once"
	ExactlyOnce DeliverySemantics = "exactly-once"
)

// Message is a Queued Message (spec §3).
type Message struct {
	ID                string
	Topic             string
	Payload           any
	Priority          int
	DeliverySemantics DeliverySemantics
	TTLMs             int64
	RequestID         string
	PublishedAt       time.Time
	Attempt           int
	ExpiresAt         time.Time

	seq int64 // insertion sequence, for FIFO-stability at equal priority
}

func (m *Message) expired(now time.Time) bool {
	return !m.ExpiresAt.IsZero() && now.After(m.ExpiresAt)
}
