// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"sort"
	"strings"
	"sync"

	"piisift/internal/detector"
)

// ConsolidationConfig toggles the three sub-resolutions and their knobs.
type ConsolidationConfig struct {
	ResolveOverlaps      bool
	ConsolidateAddresses bool
	LinkEntities         bool

	// TieStrategy breaks overlap ties between equal-priority types.
	// "confidence-weighted" prefers higher confidence, then the longer span.
	TieStrategy string

	// LinkStrategy is "exact", "normalized" or "fuzzy".
	LinkStrategy   string
	FuzzyThreshold float64

	AddressMaxGap        int
	MinAddressComponents int
}

// DefaultConsolidationConfig enables all three sub-resolutions.
func DefaultConsolidationConfig() ConsolidationConfig {
	return ConsolidationConfig{
		ResolveOverlaps:      true,
		ConsolidateAddresses: true,
		LinkEntities:         true,
		TieStrategy:          "confidence-weighted",
		LinkStrategy:         "normalized",
		FuzzyThreshold:       0.85,
		AddressMaxGap:        50,
		MinAddressComponents: 2,
	}
}

// ConsolidationStats counts what the last run changed.
type ConsolidationStats struct {
	OverlapsResolved      int
	AddressesConsolidated int
	EntitiesLinked        int
}

// typePriority resolves overlapping spans: checksum-validated formats
// outrank generic pattern hits.
var typePriority = map[string]int{
	detector.TypeSwissAVS:     100,
	detector.TypeIBAN:         95,
	detector.TypeVAT:          90,
	detector.TypeEmail:        85,
	detector.TypePhone:        80,
	detector.TypeSwissAddress: 75,
	detector.TypeEUAddress:    74,
	detector.TypeAddress:      72,
	detector.TypePersonName:   60,
	detector.TypeDate:         50,
	detector.TypeMoney:        45,
	detector.TypePostalCode:   40,
	detector.TypeStreet:       35,
	detector.TypeCity:         32,
	detector.TypeCountry:      30,
}

const defaultPriority = 20

// addressFamily covers both grouped addresses and loose address parts.
var addressFamily = map[string]bool{
	detector.TypeAddress:      true,
	detector.TypeSwissAddress: true,
	detector.TypeEUAddress:    true,
	detector.TypeStreet:       true,
	detector.TypeCity:         true,
	detector.TypePostalCode:   true,
	detector.TypeCountry:      true,
}

// Consolidation resolves span overlaps, folds adjacent address fragments
// and links repeated mentions under a shared logical ID. The pass is
// idempotent: running it on its own output changes nothing.
type Consolidation struct {
	cfg ConsolidationConfig

	mu    sync.Mutex
	stats ConsolidationStats
}

// NewConsolidation creates the pass.
func NewConsolidation(cfg ConsolidationConfig) *Consolidation {
	if cfg.TieStrategy == "" {
		cfg = DefaultConsolidationConfig()
	}
	return &Consolidation{cfg: cfg}
}

func (p *Consolidation) Name() string { return "consolidation" }
func (p *Consolidation) Order() int   { return 50 }

// Stats returns the counters from the most recent run.
func (p *Consolidation) Stats() ConsolidationStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Consolidation) Execute(doc detector.Document, entities []detector.Entity) ([]detector.Entity, error) {
	stats := ConsolidationStats{}
	out := append([]detector.Entity(nil), entities...)

	if p.cfg.ResolveOverlaps {
		out, stats.OverlapsResolved = p.resolveOverlaps(out)
	}
	if p.cfg.ConsolidateAddresses {
		out, stats.AddressesConsolidated = p.consolidateAddresses(doc, out)
	}
	if p.cfg.LinkEntities {
		out, stats.EntitiesLinked = p.linkEntities(out)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].End > out[j].End
	})

	p.mu.Lock()
	p.stats = stats
	p.mu.Unlock()
	return out, nil
}

func priorityOf(e detector.Entity) int {
	prio, ok := typePriority[e.Type]
	if !ok {
		prio = defaultPriority
	}
	if e.Validation != nil && e.Validation.Checked && e.Validation.Valid {
		prio += 5
	}
	return prio
}

// resolveOverlaps keeps, among intersecting spans, the entity with the
// highest type priority; ties fall to the configured strategy.
func (p *Consolidation) resolveOverlaps(entities []detector.Entity) ([]detector.Entity, int) {
	ranked := append([]detector.Entity(nil), entities...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		pa, pb := priorityOf(a), priorityOf(b)
		if pa != pb {
			return pa > pb
		}
		// confidence-weighted tie break
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Length() != b.Length() {
			return a.Length() > b.Length()
		}
		return a.Start < b.Start
	})

	var kept []detector.Entity
	dropped := 0
	for _, e := range ranked {
		conflict := false
		for _, k := range kept {
			if e.Overlaps(k) {
				conflict = true
				break
			}
		}
		if conflict {
			dropped++
			continue
		}
		kept = append(kept, e)
	}
	return kept, dropped
}

// consolidateAddresses folds runs of nearby address-family entities into a
// single address entity. A fragment further than AddressMaxGap from the run
// starts a new run; runs below MinAddressComponents stay untouched.
func (p *Consolidation) consolidateAddresses(doc detector.Document, entities []detector.Entity) ([]detector.Entity, int) {
	sorted := append([]detector.Entity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var out []detector.Entity
	var run []detector.Entity
	folded := 0

	flush := func() {
		if len(run) >= p.cfg.MinAddressComponents && len(run) > 1 {
			out = append(out, p.foldRun(doc, run))
			folded++
		} else {
			out = append(out, run...)
		}
		run = nil
	}

	for _, e := range sorted {
		if !addressFamily[e.Type] {
			if len(run) > 0 {
				flush()
			}
			out = append(out, e)
			continue
		}
		if len(run) > 0 && e.Start-run[len(run)-1].End > p.cfg.AddressMaxGap {
			flush()
		}
		run = append(run, e)
	}
	if len(run) > 0 {
		flush()
	}
	return out, folded
}

func (p *Consolidation) foldRun(doc detector.Document, run []detector.Entity) detector.Entity {
	start, end := run[0].Start, run[0].End
	entityType := detector.TypeAddress
	confidence := 0.0
	componentCount := 0

	for _, e := range run {
		if e.End > end {
			end = e.End
		}
		if e.Confidence > confidence {
			confidence = e.Confidence
		}
		switch e.Type {
		case detector.TypeSwissAddress:
			entityType = detector.TypeSwissAddress
		case detector.TypeEUAddress:
			if entityType != detector.TypeSwissAddress {
				entityType = detector.TypeEUAddress
			}
		}
		if e.Metadata.Address != nil {
			componentCount += e.Metadata.Address.ComponentCount
		} else {
			componentCount++
		}
	}

	folded := detector.NewEntity(entityType, doc.Text[start:end], start, end, confidence, detector.SourceLinked)
	folded.Metadata.Address = &detector.AddressMetadata{
		Pattern:        "CONSOLIDATED",
		ComponentCount: componentCount,
	}
	return folded
}

// linkEntities assigns a shared, deterministic logical ID to same-type
// entities with matching text, so repeated mentions anonymize identically.
func (p *Consolidation) linkEntities(entities []detector.Entity) ([]detector.Entity, int) {
	keys := make([]string, len(entities))
	for i, e := range entities {
		keys[i] = p.linkKey(e)
	}

	if p.cfg.LinkStrategy == "fuzzy" {
		keys = p.fuzzyCanonicalize(entities, keys)
	}

	groups := make(map[string][]int)
	for i, e := range entities {
		groups[e.Type+"\x00"+keys[i]] = append(groups[e.Type+"\x00"+keys[i]], i)
	}

	out := make([]detector.Entity, len(entities))
	copy(out, entities)
	linked := 0

	for groupKey, members := range groups {
		logicalID := "lnk:" + groupKey
		for _, i := range members {
			clone := out[i].Clone()
			clone.LogicalID = logicalID
			if len(members) > 1 {
				clone.Metadata.Link = &detector.LinkMetadata{
					Strategy:  p.cfg.LinkStrategy,
					GroupSize: len(members),
				}
			}
			out[i] = clone
		}
		if len(members) > 1 {
			linked += len(members)
		}
	}
	return out, linked
}

func (p *Consolidation) linkKey(e detector.Entity) string {
	switch p.cfg.LinkStrategy {
	case "exact":
		return e.Text
	default:
		return strings.ToLower(strings.Join(strings.Fields(e.Text), " "))
	}
}

// fuzzyCanonicalize clusters near-identical keys per type and rewrites each
// member to the lexicographically smallest key of its cluster, so linking
// stays deterministic across runs.
func (p *Consolidation) fuzzyCanonicalize(entities []detector.Entity, keys []string) []string {
	byType := make(map[string][]string)
	seen := make(map[string]bool)
	for i, e := range entities {
		id := e.Type + "\x00" + keys[i]
		if !seen[id] {
			seen[id] = true
			byType[e.Type] = append(byType[e.Type], keys[i])
		}
	}

	canonical := make(map[string]string)
	for entityType, unique := range byType {
		sort.Strings(unique)
		for _, key := range unique {
			id := entityType + "\x00" + key
			if _, done := canonical[id]; done {
				continue
			}
			canonical[id] = key
			for _, other := range unique {
				otherID := entityType + "\x00" + other
				if _, done := canonical[otherID]; done {
					continue
				}
				if similarity(key, other) >= p.cfg.FuzzyThreshold {
					canonical[otherID] = key
				}
			}
		}
	}

	out := make([]string, len(keys))
	for i, e := range entities {
		out[i] = canonical[e.Type+"\x00"+keys[i]]
	}
	return out
}

// similarity is 1 minus the normalized Levenshtein distance over runes.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0.0
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	return 1.0 - float64(prev[len(rb)])/float64(longest)
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
