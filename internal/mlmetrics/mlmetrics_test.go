// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mlmetrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_RingOverwritesOldest(t *testing.T) {
	c := NewCollector(3)
	for i := 1; i <= 5; i++ {
		c.Add(Record{Duration: time.Duration(i) * time.Millisecond})
	}

	assert.Equal(t, 3, c.Len())
	s := c.Summarize()
	assert.Equal(t, 3, s.Count)
	// Records 1 and 2 were overwritten; the slowest survivor is 5ms.
	assert.Equal(t, 5*time.Millisecond, s.P99)
	assert.Equal(t, 4*time.Millisecond, s.P50)
}

func TestCollector_DefaultCapacity(t *testing.T) {
	c := NewCollector(0)
	for i := 0; i < DefaultCapacity+10; i++ {
		c.Add(Record{Duration: time.Millisecond})
	}
	assert.Equal(t, DefaultCapacity, c.Len())
}

func TestSummarize_Percentiles(t *testing.T) {
	c := NewCollector(100)
	for i := 1; i <= 100; i++ {
		c.Add(Record{Duration: time.Duration(i) * time.Millisecond})
	}

	s := c.Summarize()
	assert.Equal(t, 50*time.Millisecond, s.P50)
	assert.Equal(t, 95*time.Millisecond, s.P95)
	assert.Equal(t, 99*time.Millisecond, s.P99)
}

func TestSummarize_SingleRecord(t *testing.T) {
	c := NewCollector(10)
	c.Add(Record{Duration: 7 * time.Millisecond, EntitiesFound: 3, Failed: true})

	s := c.Summarize()
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, 3, s.TotalEntities)
	assert.Equal(t, 7*time.Millisecond, s.P50)
	assert.Equal(t, 7*time.Millisecond, s.P99)
}

func TestSummarize_Empty(t *testing.T) {
	s := NewCollector(10).Summarize()
	assert.Equal(t, 0, s.Count)
	assert.Equal(t, time.Duration(0), s.P50)
}

func TestGroupedAggregates(t *testing.T) {
	c := NewCollector(10)
	c.Add(Record{Duration: time.Millisecond, DocumentType: "invoice", Language: "de"})
	c.Add(Record{Duration: 2 * time.Millisecond, DocumentType: "invoice", Language: "fr"})
	c.Add(Record{Duration: 3 * time.Millisecond, DocumentType: "letter", Language: "de", Failed: true})

	byType := c.ByDocumentType()
	require.Len(t, byType, 2)
	assert.Equal(t, 2, byType["invoice"].Count)
	assert.Equal(t, 1, byType["letter"].Failures)

	byLang := c.ByLanguage()
	require.Len(t, byLang, 2)
	assert.Equal(t, 2, byLang["de"].Count)
	assert.Equal(t, 1, byLang["fr"].Count)
}

func TestEnablePrometheus(t *testing.T) {
	c := NewCollector(10)
	reg := prometheus.NewRegistry()
	require.NoError(t, c.EnablePrometheus(reg))

	c.Add(Record{Duration: time.Millisecond, DocumentType: "invoice", Language: "de", Failed: true})

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["piisift_inference_duration_seconds"])
	assert.True(t, names["piisift_inference_failures_total"])
}
