// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"sort"
	"strings"
)

// PatternKind names the canonical component ordering a group satisfies.
type PatternKind string

const (
	PatternSwiss       PatternKind = "SWISS"
	PatternEU          PatternKind = "EU"
	PatternAlternative PatternKind = "ALTERNATIVE"
	PatternPartial     PatternKind = "PARTIAL"
	PatternNone        PatternKind = "NONE"
)

// GroupedAddress aggregates nearby components into one address candidate.
// It is created whole by the linker and re-scored by the scorer; it is never
// assembled piecemeal.
type GroupedAddress struct {
	Components []Component
	ByRole     map[ComponentType]Component // first component per role
	Start      int
	End        int
	Pattern    PatternKind

	// Filled by the scorer.
	ValidationStatus string
	Confidence       float64
	FactorScores     map[string]float64
	FlaggedForReview bool
	AutoAnonymize    bool
}

// LinkerConfig holds the grouping thresholds.
type LinkerConfig struct {
	MaxGap        int // maximum character gap between successive components
	MinComponents int
}

// DefaultLinkerConfig returns the standard thresholds.
func DefaultLinkerConfig() LinkerConfig {
	return LinkerConfig{MaxGap: 50, MinComponents: 2}
}

// Linker groups classified components into address candidates.
type Linker struct {
	cfg LinkerConfig
}

// NewLinker creates a linker with the given configuration.
func NewLinker(cfg LinkerConfig) *Linker {
	if cfg.MaxGap == 0 {
		cfg = DefaultLinkerConfig()
	}
	return &Linker{cfg: cfg}
}

// Link walks the components in position order and closes a group whenever
// the gap to the next component exceeds MaxGap. Groups smaller than
// MinComponents are dropped.
func (l *Linker) Link(components []Component) []GroupedAddress {
	if len(components) == 0 {
		return nil
	}

	sorted := append([]Component(nil), components...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	var groups []GroupedAddress
	current := []Component{sorted[0]}

	flush := func() {
		if len(current) >= l.cfg.MinComponents {
			groups = append(groups, l.buildGroup(current))
		}
		current = nil
	}

	for _, comp := range sorted[1:] {
		if comp.Start-current[len(current)-1].End > l.cfg.MaxGap {
			flush()
		}
		current = append(current, comp)
	}
	flush()

	return groups
}

func (l *Linker) buildGroup(components []Component) GroupedAddress {
	byRole := make(map[ComponentType]Component, len(components))
	for _, c := range components {
		if _, seen := byRole[c.Type]; !seen {
			byRole[c.Type] = c
		}
	}
	g := GroupedAddress{
		Components: append([]Component(nil), components...),
		ByRole:     byRole,
		Start:      components[0].Start,
		End:        components[len(components)-1].End,
	}
	g.Pattern = detectPattern(g)
	return g
}

// detectPattern checks which canonical ordering the group satisfies.
func detectPattern(g GroupedAddress) PatternKind {
	street, hasStreet := g.ByRole[StreetName]
	_, hasNumber := g.ByRole[StreetNumber]
	postal, hasPostal := g.ByRole[PostalCode]
	city, hasCity := g.ByRole[City]

	if hasStreet && hasPostal && hasCity && street.Start < postal.Start && postal.Start < city.Start {
		if postalDigits(postal.Text) == 5 {
			return PatternEU
		}
		return PatternSwiss
	}
	if hasStreet && hasNumber && hasCity {
		return PatternAlternative
	}
	if hasPostal && hasCity {
		return PatternAlternative
	}
	if len(g.Components) >= 2 {
		return PatternPartial
	}
	return PatternNone
}

func postalDigits(s string) int {
	count := 0
	for _, c := range strings.TrimSpace(s) {
		if c >= '0' && c <= '9' {
			count++
		}
	}
	return count
}
