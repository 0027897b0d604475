// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"piisift/internal/detector"
	"piisift/internal/validators"
)

// FormatValidationConfig holds the confidence adjustments applied after a
// checksum verdict.
type FormatValidationConfig struct {
	// ValidBoost moves confidence toward 1.0 by this fraction of the
	// remaining headroom.
	ValidBoost float64
	// InvalidPenalty is subtracted on a failed check, bounded below by
	// InvalidFloor so invalid entities stay visible for review.
	InvalidPenalty float64
	InvalidFloor   float64
}

// DefaultFormatValidationConfig returns the standard adjustments.
func DefaultFormatValidationConfig() FormatValidationConfig {
	return FormatValidationConfig{
		ValidBoost:     0.25,
		InvalidPenalty: 0.4,
		InvalidFloor:   0.05,
	}
}

// FormatValidation runs the registered checksum validators over the entity
// list. Types without a validator pass through unchecked and unchanged.
type FormatValidation struct {
	cfg      FormatValidationConfig
	registry *validators.Registry
}

// NewFormatValidation creates the pass. A nil registry uses the full
// default validator set.
func NewFormatValidation(cfg FormatValidationConfig, registry *validators.Registry) *FormatValidation {
	if cfg.ValidBoost == 0 && cfg.InvalidPenalty == 0 {
		cfg = DefaultFormatValidationConfig()
	}
	if registry == nil {
		registry = validators.BuildDefaultRegistry(nil)
	}
	return &FormatValidation{cfg: cfg, registry: registry}
}

func (p *FormatValidation) Name() string { return "format_validation" }
func (p *FormatValidation) Order() int   { return 20 }

// Execute attaches validation results and adjusts confidence. Offsets are
// never touched.
func (p *FormatValidation) Execute(doc detector.Document, entities []detector.Entity) ([]detector.Entity, error) {
	out := make([]detector.Entity, 0, len(entities))
	for _, e := range entities {
		result, checked := p.registry.Validate(e)
		clone := e.Clone()
		if !checked {
			clone.Validation = &detector.ValidationResult{Checked: false}
			out = append(out, clone)
			continue
		}

		clone.Validation = &result
		if result.Valid {
			clone.Confidence = detector.ClampConfidence(e.Confidence + p.cfg.ValidBoost*(1-e.Confidence))
		} else {
			clone.Confidence = e.Confidence - p.cfg.InvalidPenalty
			if clone.Confidence < p.cfg.InvalidFloor {
				clone.Confidence = p.cfg.InvalidFloor
			}
		}
		out = append(out, clone)
	}
	return out, nil
}
