// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"piisift/internal/validators/postalcode"
)

// ScorerConfig holds the factor weights and decision thresholds.
type ScorerConfig struct {
	CompletenessWeight float64
	PatternWeight      float64
	PostalWeight       float64
	CityWeight         float64
	ReviewThreshold    float64
	AutoAnonymize      float64
}

// DefaultScorerConfig returns the standard weights.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		CompletenessWeight: 0.4,
		PatternWeight:      0.3,
		PostalWeight:       0.2,
		CityWeight:         0.1,
		ReviewThreshold:    0.6,
		AutoAnonymize:      0.8,
	}
}

var patternQuality = map[PatternKind]float64{
	PatternSwiss:       1.0,
	PatternEU:          0.9,
	PatternAlternative: 0.7,
	PatternPartial:     0.4,
	PatternNone:        0.1,
}

// Scorer computes the weighted confidence of a grouped address and always
// returns the per-factor breakdown for auditability.
type Scorer struct {
	cfg    ScorerConfig
	postal *postalcode.Validator
}

// NewScorer creates a scorer with the given configuration.
func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.CompletenessWeight == 0 && cfg.PatternWeight == 0 {
		cfg = DefaultScorerConfig()
	}
	return &Scorer{cfg: cfg, postal: postalcode.NewValidator()}
}

// Score fills the scoring fields of the group and returns it.
func (s *Scorer) Score(g GroupedAddress) GroupedAddress {
	factors := map[string]float64{}

	// Component completeness over the five scoreable roles.
	roles := 0
	for _, role := range []ComponentType{StreetName, StreetNumber, PostalCode, City, Country} {
		if _, ok := g.ByRole[role]; ok {
			roles++
		}
	}
	factors["completeness"] = float64(roles) / 5.0
	factors["pattern"] = patternQuality[g.Pattern]

	postalValid := false
	if postal, ok := g.ByRole[PostalCode]; ok {
		if result := s.postal.Validate(postal.Text); result.Valid {
			postalValid = true
		}
	}
	if postalValid {
		factors["postal_valid"] = 1.0
	} else {
		factors["postal_valid"] = 0.0
	}

	if city, ok := g.ByRole[City]; ok && CanonicalCity(city.Text) != "" {
		factors["known_city"] = 1.0
	} else {
		factors["known_city"] = 0.0
	}

	g.Confidence = s.cfg.CompletenessWeight*factors["completeness"] +
		s.cfg.PatternWeight*factors["pattern"] +
		s.cfg.PostalWeight*factors["postal_valid"] +
		s.cfg.CityWeight*factors["known_city"]

	g.FactorScores = factors
	if postalValid {
		g.ValidationStatus = "postal_validated"
	} else {
		g.ValidationStatus = "unvalidated"
	}
	g.FlaggedForReview = g.Confidence < s.cfg.ReviewThreshold
	g.AutoAnonymize = g.Confidence >= s.cfg.AutoAnonymize
	return g
}
