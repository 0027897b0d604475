// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"piisift/internal/address"
	"piisift/internal/detector"
)

// AddressRelationshipConfig controls the address pass.
type AddressRelationshipConfig struct {
	// ShowComponents keeps the raw component entities next to the grouped
	// address instead of replacing them.
	ShowComponents bool
	Classifier     address.ClassifierConfig
	Linker         address.LinkerConfig
	Scorer         address.ScorerConfig
}

// DefaultAddressRelationshipConfig returns the standard thresholds.
func DefaultAddressRelationshipConfig() AddressRelationshipConfig {
	return AddressRelationshipConfig{
		Classifier: address.DefaultClassifierConfig(),
		Linker:     address.DefaultLinkerConfig(),
		Scorer:     address.DefaultScorerConfig(),
	}
}

// AddressRelationship runs the classifier, linker and scorer and merges
// each grouped address into the entity list as one atomic entity. Component
// entities inside a group's span are replaced unless ShowComponents is set.
type AddressRelationship struct {
	cfg        AddressRelationshipConfig
	classifier *address.Classifier
	linker     *address.Linker
	scorer     *address.Scorer
}

// NewAddressRelationship creates the pass.
func NewAddressRelationship(cfg AddressRelationshipConfig) *AddressRelationship {
	if cfg.Linker.MaxGap == 0 {
		cfg = DefaultAddressRelationshipConfig()
	}
	return &AddressRelationship{
		cfg:        cfg,
		classifier: address.NewClassifier(cfg.Classifier),
		linker:     address.NewLinker(cfg.Linker),
		scorer:     address.NewScorer(cfg.Scorer),
	}
}

func (p *AddressRelationship) Name() string { return "address_relationship" }
func (p *AddressRelationship) Order() int   { return 40 }

// componentTypes are entity types subsumed by a grouped address.
var componentTypes = map[string]bool{
	detector.TypePostalCode: true,
	detector.TypeStreet:     true,
	detector.TypeCity:       true,
	detector.TypeCountry:    true,
}

func (p *AddressRelationship) Execute(doc detector.Document, entities []detector.Entity) ([]detector.Entity, error) {
	components := p.classifier.Classify(doc)
	groups := p.linker.Link(components)

	var grouped []detector.Entity
	for _, g := range groups {
		scored := p.scorer.Score(g)
		grouped = append(grouped, p.toEntity(doc, scored))
	}

	if len(grouped) == 0 {
		return entities, nil
	}

	out := make([]detector.Entity, 0, len(entities)+len(grouped))
	for _, e := range entities {
		if !p.cfg.ShowComponents && p.subsumed(e, grouped) {
			continue
		}
		out = append(out, e)
	}
	out = append(out, grouped...)
	return out, nil
}

// subsumed reports whether a component-typed entity lies fully inside one
// of the new grouped addresses.
func (p *AddressRelationship) subsumed(e detector.Entity, grouped []detector.Entity) bool {
	if !componentTypes[e.Type] {
		return false
	}
	for _, g := range grouped {
		if e.Start >= g.Start && e.End <= g.End {
			return true
		}
	}
	return false
}

func (p *AddressRelationship) toEntity(doc detector.Document, g address.GroupedAddress) detector.Entity {
	entityType := detector.TypeAddress
	switch g.Pattern {
	case address.PatternSwiss:
		entityType = detector.TypeSwissAddress
	case address.PatternEU:
		entityType = detector.TypeEUAddress
	}

	text := doc.Text[g.Start:g.End]
	e := detector.NewEntity(entityType, text, g.Start, g.End, g.Confidence, detector.SourceRule)

	components := make(map[string]string, len(g.ByRole))
	for role, comp := range g.ByRole {
		components[string(role)] = comp.Text
	}
	e.Metadata.Address = &detector.AddressMetadata{
		Pattern:        string(g.Pattern),
		Components:     components,
		FactorScores:   g.FactorScores,
		AutoAnonymize:  g.AutoAnonymize,
		ComponentCount: len(g.Components),
	}
	e.Validation = &detector.ValidationResult{
		Checked: true,
		Valid:   g.ValidationStatus == "postal_validated",
		Reason:  g.ValidationStatus,
	}
	if g.FlaggedForReview {
		e.Metadata.Review = &detector.ReviewMetadata{Flagged: true, Reason: "address confidence below review threshold"}
	}
	return e
}
