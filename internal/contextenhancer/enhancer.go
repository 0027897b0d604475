// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package contextenhancer adjusts a single entity's confidence from the text
// surrounding its span. Words before the span weigh more than words after,
// because field labels normally precede values.
package contextenhancer

import (
	"sort"
	"strings"

	"piisift/internal/contextdb"
	"piisift/internal/denylist"
	"piisift/internal/detector"
)

// Config holds the scoring parameters. Zero values are replaced by the
// defaults in New.
type Config struct {
	WindowSize       int            // characters scanned on each side
	WindowOverrides  map[string]int // per entity type
	BeforeWeight     float64
	AfterWeight      float64
	MaxBoost         float64 // cap on the summed positive contribution
	PositiveFloor    float64 // minimum confidence once a positive word matched
	RepetitionBoost  float64
	RelatedTypeBoost float64
	ReviewThreshold  float64
}

// DefaultConfig returns the standard parameters.
func DefaultConfig() Config {
	return Config{
		WindowSize: 100,
		WindowOverrides: map[string]int{
			detector.TypePersonName: 150,
			detector.TypeIBAN:       40,
		},
		BeforeWeight:     1.2,
		AfterWeight:      0.8,
		MaxBoost:         0.35,
		PositiveFloor:    0.4,
		RepetitionBoost:  0.05,
		RelatedTypeBoost: 0.05,
		ReviewThreshold:  0.5,
	}
}

// Types whose proximity supports each other: a name near an email or phone
// is more likely a real person record.
var relatedTypes = map[string][]string{
	detector.TypePersonName: {detector.TypeEmail, detector.TypePhone},
	detector.TypeEmail:      {detector.TypePersonName},
	detector.TypePhone:      {detector.TypePersonName},
	detector.TypeIBAN:       {detector.TypePersonName, detector.TypeVAT},
}

// Enhancer scores entities against the context-word tables, guarded by a
// deny-list.
type Enhancer struct {
	cfg  Config
	deny *denylist.DenyList
}

// New creates an enhancer. A nil deny-list uses the shared default instance.
func New(cfg Config, deny *denylist.DenyList) *Enhancer {
	if cfg.WindowSize == 0 {
		cfg = DefaultConfig()
	}
	if deny == nil {
		deny = denylist.Default()
	}
	return &Enhancer{cfg: cfg, deny: deny}
}

// Enhance returns a copy of the entity with adjusted confidence and an
// attached ContextResult. Deny-listed entities are returned unchanged except
// for the recorded denial. The input entity is never mutated.
func (e *Enhancer) Enhance(doc detector.Document, entity detector.Entity, all []detector.Entity) detector.Entity {
	out := entity.Clone()

	if denial, denied := e.deny.IsDenied(entity.Text, entity.Type, doc.Language); denied {
		out.Metadata.Denial = &detector.DenialMetadata{Layer: denial.Layer, Reason: denial.Pattern}
		return out
	}

	window := e.cfg.WindowSize
	if override, ok := e.cfg.WindowOverrides[entity.Type]; ok {
		window = override
	}

	before := strings.ToLower(sliceWindow(doc.Text, entity.Start-window, entity.Start))
	after := strings.ToLower(sliceWindow(doc.Text, entity.End, entity.End+window))

	var factors []detector.ContextFactor
	positive, negative := 0.0, 0.0
	positiveMatched := false

	words := contextdb.WordsFor(entity.Type, doc.Language)
	for _, w := range words {
		word := strings.ToLower(w.Word)
		for _, side := range []struct {
			name   string
			text   string
			weight float64
		}{
			{"before", before, e.cfg.BeforeWeight},
			{"after", after, e.cfg.AfterWeight},
		} {
			if !strings.Contains(side.text, word) {
				continue
			}
			score := w.Weight * side.weight
			if w.Polarity == contextdb.Negative {
				negative += score
				score = -score
			} else {
				positive += score
				positiveMatched = true
			}
			factors = append(factors, detector.ContextFactor{
				Name:    side.name + ":" + w.Word,
				Matched: w.Word,
				Score:   score,
			})
		}
	}

	if e.repeatsElsewhere(doc.Text, entity) {
		positive += e.cfg.RepetitionBoost
		factors = append(factors, detector.ContextFactor{Name: "repetition", Score: e.cfg.RepetitionBoost})
	}
	if related := e.relatedNearby(entity, all, window); related != "" {
		positive += e.cfg.RelatedTypeBoost
		factors = append(factors, detector.ContextFactor{Name: "related:" + related, Score: e.cfg.RelatedTypeBoost})
	}

	boost := positive
	if boost > e.cfg.MaxBoost {
		boost = e.cfg.MaxBoost
	}

	// Deterministic factor order regardless of table iteration.
	sort.Slice(factors, func(i, j int) bool { return factors[i].Name < factors[j].Name })

	confidence := detector.ClampConfidence(entity.Confidence + boost - negative)
	if positiveMatched && confidence < e.cfg.PositiveFloor {
		confidence = e.cfg.PositiveFloor
	}

	out.Confidence = confidence
	out.Context = &detector.ContextResult{Factors: factors, Total: boost - negative}
	if confidence < e.cfg.ReviewThreshold {
		out.Metadata.Review = &detector.ReviewMetadata{Flagged: true, Reason: "confidence below review threshold"}
	}
	return out
}

// repeatsElsewhere reports whether the exact text occurs at another position
// in the document.
func (e *Enhancer) repeatsElsewhere(text string, entity detector.Entity) bool {
	first := strings.Index(text, entity.Text)
	if first < 0 {
		return false
	}
	if first != entity.Start {
		return true
	}
	return strings.Index(text[entity.End:], entity.Text) >= 0
}

// relatedNearby returns the first related entity type found within the
// window distance of this entity's span.
func (e *Enhancer) relatedNearby(entity detector.Entity, all []detector.Entity, window int) string {
	related := relatedTypes[entity.Type]
	if len(related) == 0 {
		return ""
	}
	for _, other := range all {
		if other.ID == entity.ID {
			continue
		}
		for _, t := range related {
			if other.Type != t {
				continue
			}
			if gap(entity, other) <= window {
				return t
			}
		}
	}
	return ""
}

func gap(a, b detector.Entity) int {
	if a.Overlaps(b) {
		return 0
	}
	if a.End <= b.Start {
		return b.Start - a.End
	}
	return a.Start - b.End
}

func sliceWindow(text string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start >= end {
		return ""
	}
	return text[start:end]
}
