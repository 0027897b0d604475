// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"sync/atomic"

	"piisift/internal/contextenhancer"
	"piisift/internal/detector"
)

// ContextScoring applies the context enhancer to every entity. The full
// entity list is handed along so the enhancer can see related types nearby.
type ContextScoring struct {
	enhancer *contextenhancer.Enhancer
	boosted  atomic.Int64
}

// NewContextScoring creates the pass. A nil enhancer uses the default
// configuration and deny-list.
func NewContextScoring(enhancer *contextenhancer.Enhancer) *ContextScoring {
	if enhancer == nil {
		enhancer = contextenhancer.New(contextenhancer.DefaultConfig(), nil)
	}
	return &ContextScoring{enhancer: enhancer}
}

func (p *ContextScoring) Name() string { return "context_scoring" }
func (p *ContextScoring) Order() int   { return 30 }

func (p *ContextScoring) Execute(doc detector.Document, entities []detector.Entity) ([]detector.Entity, error) {
	out := make([]detector.Entity, 0, len(entities))
	var boosted int64
	for _, e := range entities {
		enhanced := p.enhancer.Enhance(doc, e, entities)
		if enhanced.Confidence > e.Confidence {
			boosted++
		}
		out = append(out, enhanced)
	}
	p.boosted.Add(boosted)
	return out, nil
}

// DrainCounters reports how many entities the context window boosted since
// the previous drain.
func (p *ContextScoring) DrainCounters() map[string]int64 {
	n := p.boosted.Swap(0)
	if n == 0 {
		return nil
	}
	return map[string]int64{detector.CounterContextBoosted: n}
}
