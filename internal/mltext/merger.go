// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mltext

import (
	"strings"

	"piisift/internal/detector"
)

// Token is one BIO-tagged subword from the model, in document offsets.
type Token struct {
	Text       string
	Start      int
	End        int
	Label      string // "B-IBAN", "I-IBAN", "O", ...
	Confidence float64
}

// MergerConfig controls subword merging.
type MergerConfig struct {
	// MaxGap is the largest character distance an I- token may sit behind
	// the previous token and still continue the entity.
	MaxGap int
	// MinLength discards merged entities shorter than this many bytes.
	MinLength int
	// Averaging is "simple" or "position-weighted"; position weighting
	// trusts the leading tokens more than the trailing ones.
	Averaging string
}

// DefaultMergerConfig returns the standard merge parameters.
func DefaultMergerConfig() MergerConfig {
	return MergerConfig{MaxGap: 5, MinLength: 2, Averaging: "simple"}
}

// SubwordTokenMerger folds BIO-tagged subword tokens back into whole
// entities, re-slicing the text from the original document so subword
// artifacts never leak into entity text.
type SubwordTokenMerger struct {
	cfg MergerConfig
}

// NewSubwordTokenMerger creates a merger.
func NewSubwordTokenMerger(cfg MergerConfig) *SubwordTokenMerger {
	if cfg.MinLength == 0 {
		cfg = DefaultMergerConfig()
	}
	return &SubwordTokenMerger{cfg: cfg}
}

type building struct {
	entityType  string
	start, end  int
	confidences []float64
}

// Merge walks the tokens in position order. A token continues the current
// entity only when it carries an I- label of the same type within MaxGap
// characters; anything else finalizes the entity and possibly starts a new
// one.
func (m *SubwordTokenMerger) Merge(document string, tokens []Token) []detector.Entity {
	var out []detector.Entity
	var current *building

	finalize := func() {
		if current == nil {
			return
		}
		if current.end-current.start >= m.cfg.MinLength &&
			current.end <= len(document) && current.start >= 0 {
			e := detector.NewEntity(
				current.entityType,
				document[current.start:current.end],
				current.start,
				current.end,
				m.average(current.confidences),
				detector.SourceML,
			)
			out = append(out, e)
		}
		current = nil
	}

	for _, tok := range tokens {
		prefix, entityType := splitLabel(tok.Label)
		switch {
		case prefix == "B":
			finalize()
			current = &building{
				entityType:  entityType,
				start:       tok.Start,
				end:         tok.End,
				confidences: []float64{tok.Confidence},
			}
		case prefix == "I" && current != nil &&
			current.entityType == entityType &&
			tok.Start-current.end <= m.cfg.MaxGap &&
			tok.Start >= current.end:
			current.end = tok.End
			current.confidences = append(current.confidences, tok.Confidence)
		default:
			finalize()
			// A dangling I- token without an open entity starts its own,
			// because models do emit them at chunk starts.
			if prefix == "I" {
				current = &building{
					entityType:  entityType,
					start:       tok.Start,
					end:         tok.End,
					confidences: []float64{tok.Confidence},
				}
			}
		}
	}
	finalize()
	return out
}

func (m *SubwordTokenMerger) average(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	if m.cfg.Averaging == "position-weighted" {
		sum, weights := 0.0, 0.0
		for i, c := range confidences {
			w := 1.0 / float64(i+1)
			sum += c * w
			weights += w
		}
		return detector.ClampConfidence(sum / weights)
	}
	sum := 0.0
	for _, c := range confidences {
		sum += c
	}
	return detector.ClampConfidence(sum / float64(len(confidences)))
}

func splitLabel(label string) (prefix, entityType string) {
	if label == "" || label == "O" {
		return "O", ""
	}
	if i := strings.Index(label, "-"); i > 0 {
		return label[:i], label[i+1:]
	}
	return "O", ""
}
