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

import "github.com/prometheus/client_golang/prometheus"

// Collector exposes the Fabric's internal counters as Prometheus metrics,
// mirroring the teacher's metrics/recording.go Collector wiring.
type Collector struct {
	fabric *Fabric

	depth           *prometheus.Desc
	delivered       *prometheus.Desc
	droppedTTL      *prometheus.Desc
	droppedAttempts *prometheus.Desc
}

// NewCollector builds a prometheus.Collector backed by f.
func NewCollector(f *Fabric) *Collector {
	return &Collector{
		fabric:          f,
		depth:           prometheus.NewDesc("gati_queue_depth", "Current number of pending messages in the queue fabric.", nil, nil),
		delivered:       prometheus.NewDesc("gati_queue_delivered_total", "Total number of messages successfully delivered.", nil, nil),
		droppedTTL:      prometheus.NewDesc("gati_queue_dropped_ttl_total", "Total number of messages dropped after TTL expiry.", nil, nil),
		droppedAttempts: prometheus.NewDesc("gati_queue_dropped_max_attempts_total", "Total number of messages dropped after exceeding maxDeliveryAttempts.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.depth
	ch <- c.delivered
	ch <- c.droppedTTL
	ch <- c.droppedAttempts
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.fabric.GetStats()
	ch <- prometheus.MustNewConstMetric(c.depth, prometheus.GaugeValue, float64(stats.QueueDepth))
	ch <- prometheus.MustNewConstMetric(c.delivered, prometheus.CounterValue, float64(stats.DeliveredCount))
	ch <- prometheus.MustNewConstMetric(c.droppedTTL, prometheus.CounterValue, float64(stats.DroppedTTL))
	ch <- prometheus.MustNewConstMetric(c.droppedAttempts, prometheus.CounterValue, float64(stats.DroppedMaxAttempts))
}
