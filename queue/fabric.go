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

package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/krishnapaul242/gati-sub000/corelog"
	"github.com/krishnapaul242/gati-sub000/rerrors"
)

const (
	defaultMaxQueueDepth       = 10_000
	defaultMaxDeliveryAttempts = 3
	defaultDispatchTick        = 10 * time.Millisecond
	deliveredSetCap            = 10_000
	deliveredSetEvictBatch     = 1_000
	shutdownDrainDeadline      = 1 * time.Second
)

// Handler processes one delivered message. A returned error counts as a
// failed delivery attempt (spec §4.E step 5).
type Handler func(ctx context.Context, msg *Message) error

// Subscription is returned by Subscribe (spec §6 external interface).
type Subscription struct {
	Topic       string
	unsubscribe func()
	active      *atomic.Bool
}

// Unsubscribe deactivates the subscription. Idempotent.
func (s *Subscription) Unsubscribe() { s.unsubscribe() }

// IsActive reports whether the subscription is still receiving deliveries.
func (s *Subscription) IsActive() bool { return s.active.Load() }

type subscriber struct {
	id     string
	active *atomic.Bool
	fn     Handler
}

// PublishOption configures a single Publish call.
type PublishOption func(*Message)

func WithPriority(p int) PublishOption { return func(m *Message) { m.Priority = p } }
func WithTTL(ttl time.Duration) PublishOption {
	return func(m *Message) { m.TTLMs = ttl.Milliseconds() }
}
func WithDeliverySemantics(s DeliverySemantics) PublishOption {
	return func(m *Message) { m.DeliverySemantics = s }
}
func WithRequestID(id string) PublishOption { return func(m *Message) { m.RequestID = id } }

// Stats is the getStats() surface named in spec §6.
type Stats struct {
	QueueDepth         int
	SubscriberCounts   map[string]int
	DeliveredCount     int64
	DroppedTTL         int64
	DroppedMaxAttempts int64
}

// BackpressureStatus is the getBackpressureStatus() surface (spec §4.E).
type BackpressureStatus struct {
	Active       bool
	QueueDepth   int
	MaxDepth     int
	CapacityUsed float64
}

// Fabric is the Queue Fabric.
type Fabric struct {
	logger *corelog.Logger

	maxQueueDepth       int
	maxDeliveryAttempts int
	backpressureFactor  float64

	mu            sync.Mutex
	pending       []*Message
	topicCount    map[string]int // active subscriber count per topic, for the topic-indexed skip
	subscribers   map[string][]*subscriber
	deliveredSet  map[string]struct{}
	deliveredKeys []string // insertion order, for bounded FIFO eviction

	resultMu       sync.Mutex
	resultHandlers map[string]func(any)

	seqCounter int64

	deliveredCount     atomic.Int64
	droppedTTL         atomic.Int64
	droppedMaxAttempts atomic.Int64

	shuttingDown atomic.Bool
	stopCh       chan struct{}
	stoppedCh    chan struct{}
}

// Option configures a Fabric.
type Option func(*Fabric)

func WithLogger(l *corelog.Logger) Option { return func(f *Fabric) { f.logger = l } }
func WithMaxQueueDepth(n int) Option      { return func(f *Fabric) { f.maxQueueDepth = n } }
func WithMaxDeliveryAttempts(n int) Option {
	return func(f *Fabric) { f.maxDeliveryAttempts = n }
}

// New builds a Fabric and starts its dispatcher goroutine.
func New(opts ...Option) *Fabric {
	f := &Fabric{
		logger:              corelog.NoOp(),
		maxQueueDepth:       defaultMaxQueueDepth,
		maxDeliveryAttempts: defaultMaxDeliveryAttempts,
		backpressureFactor:  1.0,
		topicCount:          make(map[string]int),
		subscribers:         make(map[string][]*subscriber),
		deliveredSet:        make(map[string]struct{}),
		resultHandlers:      make(map[string]func(any)),
		stopCh:              make(chan struct{}),
		stoppedCh:           make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	go f.dispatchLoop()
	return f
}

// effectiveMaxDepth applies the backpressure factor to the configured max
// queue depth (spec §4.E "enforceBackpressure").
func (f *Fabric) effectiveMaxDepth() int {
	return int(float64(f.maxQueueDepth) * f.backpressureFactor)
}

// Publish enqueues payload on topic, rejecting with Backpressure when the
// queue is at or above its effective max depth (spec §4.E).
func (f *Fabric) Publish(topic string, payload any, opts ...PublishOption) (string, error) {
	if f.shuttingDown.Load() {
		return "", rerrors.New(rerrors.KindQueue, "SHUTTING_DOWN", 503,
			"queue fabric is shutting down").WithWrapped(rerrors.ErrQueueShuttingDown)
	}

	now := time.Now()
	msg := &Message{
		ID:                uuid.NewString(),
		Topic:             topic,
		Payload:           payload,
		Priority:          0,
		DeliverySemantics: AtLeastOnce,
		PublishedAt:       now,
	}
	for _, opt := range opts {
		opt(msg)
	}
	if msg.TTLMs > 0 {
		msg.ExpiresAt = now.Add(time.Duration(msg.TTLMs) * time.Millisecond)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) >= f.effectiveMaxDepth() {
		return "", rerrors.Backpressure(len(f.pending), f.effectiveMaxDepth())
	}

	f.seqCounter++
	msg.seq = f.seqCounter
	f.insertLocked(msg)
	return msg.ID, nil
}

// insertLocked places msg before the first element with strictly lower
// priority, else appends (spec §4.E Publish); f.mu must be held.
func (f *Fabric) insertLocked(msg *Message) {
	idx := len(f.pending)
	for i, m := range f.pending {
		if m.Priority < msg.Priority {
			idx = i
			break
		}
	}
	f.pending = append(f.pending, nil)
	copy(f.pending[idx+1:], f.pending[idx:])
	f.pending[idx] = msg
}

// Subscribe registers fn to receive deliveries on topic.
func (f *Fabric) Subscribe(topic string, fn Handler) *Subscription {
	f.mu.Lock()
	defer f.mu.Unlock()

	active := &atomic.Bool{}
	active.Store(true)
	sub := &subscriber{id: uuid.NewString(), active: active, fn: fn}
	f.subscribers[topic] = append(f.subscribers[topic], sub)
	f.topicCount[topic]++

	unsubscribed := false
	var muOnce sync.Mutex
	unsub := func() {
		muOnce.Lock()
		defer muOnce.Unlock()
		if unsubscribed {
			return
		}
		unsubscribed = true
		active.Store(false)

		f.mu.Lock()
		defer f.mu.Unlock()
		subs := f.subscribers[topic]
		for i, s := range subs {
			if s.id == sub.id {
				f.subscribers[topic] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		if f.topicCount[topic] > 0 {
			f.topicCount[topic]--
		}
	}

	return &Subscription{Topic: topic, unsubscribe: unsub, active: active}
}

// GetBackpressureStatus reports the fabric's current pressure (spec §4.E).
func (f *Fabric) GetBackpressureStatus() BackpressureStatus {
	f.mu.Lock()
	defer f.mu.Unlock()

	depth := len(f.pending)
	maxDepth := f.effectiveMaxDepth()
	used := 0.0
	if maxDepth > 0 {
		used = float64(depth) / float64(maxDepth)
	}
	return BackpressureStatus{
		Active:       depth >= maxDepth,
		QueueDepth:   depth,
		MaxDepth:     maxDepth,
		CapacityUsed: used,
	}
}

// EnforceBackpressure scales the configured max depth by factor ∈ [0,1].
func (f *Fabric) EnforceBackpressure(factor float64) {
	if factor < 0 {
		factor = 0
	}
	if factor > 1 {
		factor = 1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backpressureFactor = factor
}

// RegisterResultHandler registers a one-shot callback invoked the next time
// DeliverResult(requestId, ...) is called (spec §4.E "Result delivery").
func (f *Fabric) RegisterResultHandler(requestID string, fn func(result any)) {
	f.resultMu.Lock()
	defer f.resultMu.Unlock()
	f.resultHandlers[requestID] = fn
}

// DeliverResult invokes and clears the result handler registered for
// requestID, if any. Panics from fn are recovered and logged, matching
// spec §4.E's "caught and logged; they do not affect other handlers".
func (f *Fabric) DeliverResult(requestID string, result any) {
	f.resultMu.Lock()
	fn, ok := f.resultHandlers[requestID]
	if ok {
		delete(f.resultHandlers, requestID)
	}
	f.resultMu.Unlock()

	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("result handler panicked", "requestId", requestID, "panic", r)
		}
	}()
	fn(result)
}

// GetStats implements getStats() (spec §6, additional detail in SPEC_FULL.md).
func (f *Fabric) GetStats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[string]int, len(f.subscribers))
	for topic, subs := range f.subscribers {
		counts[topic] = len(subs)
	}
	return Stats{
		QueueDepth:         len(f.pending),
		SubscriberCounts:   counts,
		DeliveredCount:     f.deliveredCount.Load(),
		DroppedTTL:         f.droppedTTL.Load(),
		DroppedMaxAttempts: f.droppedMaxAttempts.Load(),
	}
}

// Shutdown refuses new publishes, drains the queue by pumping the
// dispatcher up to shutdownDrainDeadline, then clears all state (spec
// §4.E "Shutdown").
func (f *Fabric) Shutdown(ctx context.Context) {
	if !f.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	close(f.stopCh)
	<-f.stoppedCh

	deadline := time.Now().Add(shutdownDrainDeadline)
	for time.Now().Before(deadline) {
		f.mu.Lock()
		empty := len(f.pending) == 0
		f.mu.Unlock()
		if empty {
			break
		}
		select {
		case <-ctx.Done():
			break
		default:
		}
		f.tick()
		time.Sleep(defaultDispatchTick)
	}

	f.mu.Lock()
	f.pending = nil
	f.subscribers = make(map[string][]*subscriber)
	f.topicCount = make(map[string]int)
	f.deliveredSet = make(map[string]struct{})
	f.deliveredKeys = nil
	f.mu.Unlock()

	f.resultMu.Lock()
	f.resultHandlers = make(map[string]func(any))
	f.resultMu.Unlock()
}

func (f *Fabric) dispatchLoop() {
	defer close(f.stoppedCh)
	ticker := time.NewTicker(defaultDispatchTick)
	defer ticker.Stop()
	for {
		select {
		case <-f.stopCh:
			return
		case <-ticker.C:
			f.tick()
		}
	}
}

// tick implements one dispatcher pass (spec §4.E steps 1-6). It scans the
// pending backbone for the first message that is deliverable, purging
// expired and already-delivered messages as it goes, and skipping past an
// unsubscribed head rather than blocking the whole fabric on it — the
// resolution of the dispatcher-starvation Open Question in spec §9.
func (f *Fabric) tick() {
	now := time.Now()

	f.mu.Lock()
	var target *Message
	targetIdx := -1
	for i := 0; i < len(f.pending); i++ {
		m := f.pending[i]
		if m.expired(now) {
			f.pending = append(f.pending[:i], f.pending[i+1:]...)
			f.droppedTTL.Add(1)
			i--
			continue
		}
		if m.DeliverySemantics == ExactlyOnce {
			if _, delivered := f.deliveredSet[m.ID]; delivered {
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				i--
				continue
			}
		}
		if f.topicCount[m.Topic] == 0 {
			continue // leave in place; try the next message instead of starving other topics
		}
		target = m
		targetIdx = i
		break
	}
	if target == nil {
		f.mu.Unlock()
		return
	}
	f.pending = append(f.pending[:targetIdx], f.pending[targetIdx+1:]...)
	subs := make([]*subscriber, len(f.subscribers[target.Topic]))
	copy(subs, f.subscribers[target.Topic])
	f.mu.Unlock()

	ctx := context.Background()
	failed := false
	for _, sub := range subs {
		if !sub.active.Load() {
			continue
		}
		if err := f.invoke(ctx, sub, target); err != nil {
			failed = true
			f.logger.Error("subscriber delivery failed", "topic", target.Topic, "messageId", target.ID, "err", err)
		}
	}

	if failed {
		target.Attempt++
		if target.Attempt >= f.maxDeliveryAttempts {
			f.droppedMaxAttempts.Add(1)
			f.logger.Error("message dropped after max delivery attempts", "topic", target.Topic, "messageId", target.ID)
			return
		}
		f.mu.Lock()
		f.seqCounter++
		target.seq = f.seqCounter
		f.insertLocked(target)
		f.mu.Unlock()
		return
	}

	f.deliveredCount.Add(1)
	if target.DeliverySemantics == ExactlyOnce {
		f.mu.Lock()
		f.recordDeliveredLocked(target.ID)
		f.mu.Unlock()
	}
}

func (f *Fabric) invoke(ctx context.Context, sub *subscriber, msg *Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v", r)
		}
	}()
	return sub.fn(ctx, msg)
}

// recordDeliveredLocked adds id to the delivered-set, bulk-evicting the
// oldest deliveredSetEvictBatch entries once the set exceeds
// deliveredSetCap (spec §4.E step 6; known-limitation per spec §9).
func (f *Fabric) recordDeliveredLocked(id string) {
	if _, ok := f.deliveredSet[id]; ok {
		return
	}
	f.deliveredSet[id] = struct{}{}
	f.deliveredKeys = append(f.deliveredKeys, id)
	if len(f.deliveredKeys) > deliveredSetCap {
		evict := f.deliveredKeys[:deliveredSetEvictBatch]
		for _, k := range evict {
			delete(f.deliveredSet, k)
		}
		f.deliveredKeys = f.deliveredKeys[deliveredSetEvictBatch:]
	}
}
