// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package passes implements the ordered stages of the detection pipeline.
// Each pass transforms the accumulated entity list; none mutates the
// entities it received.
package passes

import (
	"sort"
	"sync/atomic"

	"piisift/internal/denylist"
	"piisift/internal/detector"
	"piisift/internal/patterns"
)

// HighRecallConfig controls the first pass.
type HighRecallConfig struct {
	// FilterDenied drops deny-listed matches at detection time instead of
	// leaving the suppression to the context pass.
	FilterDenied bool
}

// HighRecall scans the document with every pattern applicable to its
// language hint and emits RULE entities. Recall is the goal here; later
// passes narrow precision.
type HighRecall struct {
	cfg      HighRecallConfig
	deny     *denylist.DenyList
	filtered atomic.Int64
}

// NewHighRecall creates the pass. A nil deny-list uses the shared default.
func NewHighRecall(cfg HighRecallConfig, deny *denylist.DenyList) *HighRecall {
	if deny == nil {
		deny = denylist.Default()
	}
	return &HighRecall{cfg: cfg, deny: deny}
}

func (p *HighRecall) Name() string { return "high_recall" }
func (p *HighRecall) Order() int   { return 10 }

// DrainCounters reports how many matches the deny-list filter dropped since
// the previous drain.
func (p *HighRecall) DrainCounters() map[string]int64 {
	n := p.filtered.Swap(0)
	if n == 0 {
		return nil
	}
	return map[string]int64{detector.CounterDenyListFiltered: n}
}

// Execute appends pattern matches to the entity list. Matches of the same
// type on the exact same span are collapsed to the highest confidence, and
// a same-type match fully contained in a longer one is dropped.
func (p *HighRecall) Execute(doc detector.Document, entities []detector.Entity) ([]detector.Entity, error) {
	var found []detector.Entity

	for _, pattern := range patterns.ForLanguage(doc.Language) {
		for _, m := range pattern.Regexp.FindAllStringSubmatchIndex(doc.Text, -1) {
			start, end := m[0], m[1]
			// A capture group narrows the emitted span to the value itself.
			if pattern.Regexp.NumSubexp() > 0 && len(m) >= 4 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			if start >= end {
				continue
			}
			text := doc.Text[start:end]
			if p.cfg.FilterDenied {
				if _, denied := p.deny.IsDenied(text, pattern.Type, doc.Language); denied {
					p.filtered.Add(1)
					continue
				}
			}
			e := detector.NewEntity(pattern.Type, text, start, end, pattern.BaseConfidence, detector.SourceRule)
			e.Metadata.Rule = &detector.RuleMetadata{PatternName: pattern.Name, Language: pattern.Language}
			found = append(found, e)
		}
	}

	out := append([]detector.Entity(nil), entities...)
	out = append(out, dedupe(found)...)
	return out, nil
}

// dedupe keeps, per type, the longest span covering each position. Exact
// duplicates keep the higher confidence.
func dedupe(found []detector.Entity) []detector.Entity {
	sort.Slice(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Length() != b.Length() {
			return a.Length() > b.Length()
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.Confidence > b.Confidence
	})

	var kept []detector.Entity
	for _, e := range found {
		covered := false
		for i, k := range kept {
			if k.Type != e.Type {
				continue
			}
			if k.Start == e.Start && k.End == e.End {
				if e.Confidence > k.Confidence {
					kept[i] = e
				}
				covered = true
				break
			}
			if e.Start >= k.Start && e.End <= k.End {
				covered = true
				break
			}
		}
		if !covered {
			kept = append(kept, e)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Start != kept[j].Start {
			return kept[i].Start < kept[j].Start
		}
		return kept[i].End > kept[j].End
	})
	return kept
}
