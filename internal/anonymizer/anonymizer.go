// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package anonymizer replaces detected entity spans with numbered type
// tokens. Repeated mentions of the same underlying value get the same
// token, so an anonymized document stays readable.
package anonymizer

import (
	"fmt"
	"sort"
	"strings"

	"piisift/internal/detector"
)

// Config controls replacement.
type Config struct {
	// MinConfidence skips entities below this confidence. Zero replaces
	// everything.
	MinConfidence float64
	// OnlyAutoAnonymize restricts replacement to entities the scorer
	// marked auto-anonymizable plus all checksum-validated ones.
	OnlyAutoAnonymize bool
}

// Replacement records one substitution for the audit trail. It carries the
// token and offsets, never the original text.
type Replacement struct {
	Token    string
	Type     string
	Start    int // offset in the original document
	End      int
	EntityID string
}

// Result is the anonymized document plus the substitution audit list.
type Result struct {
	Text         string
	Replacements []Replacement
}

// Anonymizer numbers tokens per document.
type Anonymizer struct {
	cfg Config
}

// New creates an anonymizer.
func New(cfg Config) *Anonymizer {
	return &Anonymizer{cfg: cfg}
}

// Anonymize replaces entity spans in the document. Entities sharing a
// logical ID share a token number; entities without one are keyed by
// normalized text. Overlapping entities are skipped after the first.
func (a *Anonymizer) Anonymize(document string, entities []detector.Entity) Result {
	selected := a.selectEntities(document, entities)

	// Number tokens by first appearance, keyed per type.
	counters := make(map[string]int)
	tokens := make(map[string]string)
	for _, e := range selected {
		key := e.Type + "\x00" + identityKey(e)
		if _, ok := tokens[key]; ok {
			continue
		}
		counters[e.Type]++
		tokens[key] = fmt.Sprintf("[%s-%d]", e.Type, counters[e.Type])
	}

	// Replace back to front so earlier offsets stay valid.
	var b strings.Builder
	result := Result{}
	last := len(document)
	reversed := append([]detector.Entity(nil), selected...)
	sort.Slice(reversed, func(i, j int) bool { return reversed[i].Start > reversed[j].Start })

	var tail []string
	for _, e := range reversed {
		token := tokens[e.Type+"\x00"+identityKey(e)]
		tail = append(tail, token+document[e.End:last])
		last = e.Start
		result.Replacements = append(result.Replacements, Replacement{
			Token:    token,
			Type:     e.Type,
			Start:    e.Start,
			End:      e.End,
			EntityID: e.ID,
		})
	}
	b.WriteString(document[:last])
	for i := len(tail) - 1; i >= 0; i-- {
		b.WriteString(tail[i])
	}
	result.Text = b.String()

	// Audit list in document order.
	sort.Slice(result.Replacements, func(i, j int) bool {
		return result.Replacements[i].Start < result.Replacements[j].Start
	})
	return result
}

func (a *Anonymizer) selectEntities(document string, entities []detector.Entity) []detector.Entity {
	sorted := append([]detector.Entity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var out []detector.Entity
	lastEnd := 0
	for _, e := range sorted {
		if !e.SpanValid(document) {
			continue
		}
		if e.Start < lastEnd {
			continue
		}
		if e.Confidence < a.cfg.MinConfidence {
			continue
		}
		if a.cfg.OnlyAutoAnonymize && !autoAnonymizable(e) {
			continue
		}
		out = append(out, e)
		lastEnd = e.End
	}
	return out
}

func autoAnonymizable(e detector.Entity) bool {
	if e.Validation != nil && e.Validation.Checked && e.Validation.Valid {
		return true
	}
	return e.Metadata.Address != nil && e.Metadata.Address.AutoAnonymize
}

func identityKey(e detector.Entity) string {
	if e.LogicalID != "" {
		return e.LogicalID
	}
	return strings.ToLower(strings.Join(strings.Fields(e.Text), " "))
}
