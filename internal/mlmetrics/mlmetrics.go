// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mlmetrics keeps a bounded in-memory record of inference calls
// and computes percentile and grouped aggregates on demand.
package mlmetrics

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Record is one inference call.
type Record struct {
	Timestamp     time.Time
	Duration      time.Duration
	TextLength    int
	EntitiesFound int
	ChunkingUsed  bool
	Failed        bool
	DocumentType  string
	Language      string
}

// Summary aggregates a set of records.
type Summary struct {
	Count         int
	Failures      int
	TotalEntities int
	P50           time.Duration
	P95           time.Duration
	P99           time.Duration
	MeanDuration  time.Duration
}

// Collector is an append-only ring of the most recent records. When the
// capacity is reached the oldest record is overwritten.
type Collector struct {
	mu       sync.Mutex
	records  []Record
	capacity int
	next     int
	full     bool

	durations *prometheus.HistogramVec
	failures  *prometheus.CounterVec
}

// DefaultCapacity bounds the ring when no capacity is given.
const DefaultCapacity = 1000

// NewCollector creates a collector holding at most capacity records.
func NewCollector(capacity int) *Collector {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Collector{
		records:  make([]Record, capacity),
		capacity: capacity,
	}
}

// EnablePrometheus registers duration and failure metrics with the given
// registerer. Call at most once per collector.
func (c *Collector) EnablePrometheus(reg prometheus.Registerer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.durations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "piisift",
		Subsystem: "inference",
		Name:      "duration_seconds",
		Help:      "Inference call duration.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"document_type", "language"})
	c.failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "piisift",
		Subsystem: "inference",
		Name:      "failures_total",
		Help:      "Failed inference calls.",
	}, []string{"document_type", "language"})

	if err := reg.Register(c.durations); err != nil {
		return err
	}
	return reg.Register(c.failures)
}

// Add appends a record, overwriting the oldest once full. A zero timestamp
// is filled with the current time.
func (c *Collector) Add(r Record) {
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}

	c.mu.Lock()
	c.records[c.next] = r
	c.next++
	if c.next == c.capacity {
		c.next = 0
		c.full = true
	}
	durations, failures := c.durations, c.failures
	c.mu.Unlock()

	if durations != nil {
		durations.WithLabelValues(r.DocumentType, r.Language).Observe(r.Duration.Seconds())
	}
	if failures != nil && r.Failed {
		failures.WithLabelValues(r.DocumentType, r.Language).Inc()
	}
}

// Len returns the number of records currently held.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return c.capacity
	}
	return c.next
}

// snapshot copies the live records oldest-first.
func (c *Collector) snapshot() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.full {
		return append([]Record(nil), c.records[:c.next]...)
	}
	out := make([]Record, 0, c.capacity)
	out = append(out, c.records[c.next:]...)
	out = append(out, c.records[:c.next]...)
	return out
}

// Summarize aggregates everything currently in the ring.
func (c *Collector) Summarize() Summary {
	return summarize(c.snapshot())
}

// ByDocumentType groups the aggregates per document type.
func (c *Collector) ByDocumentType() map[string]Summary {
	return c.grouped(func(r Record) string { return r.DocumentType })
}

// ByLanguage groups the aggregates per language.
func (c *Collector) ByLanguage() map[string]Summary {
	return c.grouped(func(r Record) string { return r.Language })
}

func (c *Collector) grouped(key func(Record) string) map[string]Summary {
	groups := make(map[string][]Record)
	for _, r := range c.snapshot() {
		groups[key(r)] = append(groups[key(r)], r)
	}
	out := make(map[string]Summary, len(groups))
	for k, records := range groups {
		out[k] = summarize(records)
	}
	return out
}

func summarize(records []Record) Summary {
	s := Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	durations := make([]time.Duration, 0, len(records))
	var total time.Duration
	for _, r := range records {
		durations = append(durations, r.Duration)
		total += r.Duration
		if r.Failed {
			s.Failures++
		}
		s.TotalEntities += r.EntitiesFound
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	s.P50 = percentile(durations, 50)
	s.P95 = percentile(durations, 95)
	s.P99 = percentile(durations, 99)
	s.MeanDuration = total / time.Duration(len(records))
	return s
}

// percentile uses the nearest-rank method over sorted durations.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
