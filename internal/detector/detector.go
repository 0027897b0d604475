// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"fmt"

	"github.com/google/uuid"
)

// Source identifies where an entity came from.
type Source string

const (
	SourceRule   Source = "RULE"
	SourceML     Source = "ML"
	SourceManual Source = "MANUAL"
	SourceLinked Source = "LINKED"
)

// Entity type names shared across passes and validators.
const (
	TypeIBAN         = "IBAN"
	TypeSwissAVS     = "SWISS_AVS"
	TypePhone        = "PHONE"
	TypeEmail        = "EMAIL"
	TypeDate         = "DATE"
	TypePostalCode   = "POSTAL_CODE"
	TypeVAT          = "VAT_NUMBER"
	TypeMoney        = "MONEY"
	TypePersonName   = "PERSON_NAME"
	TypeStreet       = "STREET"
	TypeCity         = "CITY"
	TypeCountry      = "COUNTRY"
	TypeAddress      = "ADDRESS"
	TypeSwissAddress = "SWISS_ADDRESS"
	TypeEUAddress    = "EU_ADDRESS"
)

// Document is the immutable input to a pipeline run.
type Document struct {
	ID       string
	Text     string
	Language string // "en", "fr", "de" or "it"; empty means all languages
}

// Entity represents one detected PII span. Start and End are half-open byte
// offsets into the document text; Text must equal document[Start:End].
// Entities are value objects: passes copy and replace, they never mutate an
// entity that another pass produced.
type Entity struct {
	ID         string
	Type       string
	Text       string
	Start      int
	End        int
	Confidence float64
	Source     Source
	LogicalID  string

	Validation *ValidationResult
	Context    *ContextResult
	Metadata   Metadata
}

// ValidationResult is attached by the format validation pass.
type ValidationResult struct {
	Valid      bool
	Checked    bool // false when no validator is registered for the type
	Confidence float64
	Reason     string
}

// ContextFactor is one named contribution to the context score.
type ContextFactor struct {
	Name    string
	Matched string
	Score   float64
}

// ContextResult is attached by the context scoring pass. For a fixed
// (entity, document, context words) triple the factors are reproducible.
type ContextResult struct {
	Factors []ContextFactor
	Total   float64
}

// Metadata carries typed, per-pass annotations. Each producing pass fills
// its own section; consumers check for nil.
type Metadata struct {
	Rule    *RuleMetadata
	Denial  *DenialMetadata
	Address *AddressMetadata
	Link    *LinkMetadata
	Review  *ReviewMetadata
}

// RuleMetadata records which pattern produced a RULE entity.
type RuleMetadata struct {
	PatternName string
	Language    string
}

// DenialMetadata records why the context pass skipped an entity.
type DenialMetadata struct {
	Layer  string // "global", "type" or "language"
	Reason string
}

// AddressMetadata carries the grouped-address breakdown on ADDRESS entities.
type AddressMetadata struct {
	Pattern        string
	Components     map[string]string // role -> text
	FactorScores   map[string]float64
	AutoAnonymize  bool
	ComponentCount int
}

// LinkMetadata records the linking strategy that assigned the LogicalID.
type LinkMetadata struct {
	Strategy  string
	GroupSize int
}

// ReviewMetadata flags entities whose confidence stayed below the review
// threshold after all scoring.
type ReviewMetadata struct {
	Flagged bool
	Reason  string
}

// NewEntity creates an entity with a fresh ID. The caller is responsible
// for passing offsets that satisfy the span invariant.
func NewEntity(entityType, text string, start, end int, confidence float64, source Source) Entity {
	return Entity{
		ID:         uuid.NewString(),
		Type:       entityType,
		Text:       text,
		Start:      start,
		End:        end,
		Confidence: confidence,
		Source:     source,
	}
}

// SpanValid reports whether the entity's offsets still slice its text out of
// the document. Every pass that rewrites an entity checks this.
func (e Entity) SpanValid(document string) bool {
	if e.Start < 0 || e.End > len(document) || e.Start >= e.End {
		return false
	}
	return document[e.Start:e.End] == e.Text
}

// Overlaps reports whether two spans intersect.
func (e Entity) Overlaps(other Entity) bool {
	return e.Start < other.End && other.Start < e.End
}

// Length returns the span length in bytes.
func (e Entity) Length() int {
	return e.End - e.Start
}

// Clone returns a copy of the entity with deep-copied annotation sections so
// the copy can be modified without touching the original.
func (e Entity) Clone() Entity {
	clone := e
	if e.Validation != nil {
		v := *e.Validation
		clone.Validation = &v
	}
	if e.Context != nil {
		c := *e.Context
		c.Factors = append([]ContextFactor(nil), e.Context.Factors...)
		clone.Context = &c
	}
	clone.Metadata = e.Metadata.clone()
	return clone
}

func (m Metadata) clone() Metadata {
	out := Metadata{}
	if m.Rule != nil {
		r := *m.Rule
		out.Rule = &r
	}
	if m.Denial != nil {
		d := *m.Denial
		out.Denial = &d
	}
	if m.Address != nil {
		a := *m.Address
		a.Components = copyStringMap(m.Address.Components)
		a.FactorScores = copyFloatMap(m.Address.FactorScores)
		out.Address = &a
	}
	if m.Link != nil {
		l := *m.Link
		out.Link = &l
	}
	if m.Review != nil {
		r := *m.Review
		out.Review = &r
	}
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// String returns a debug representation without the matched text, so the
// value is safe to log.
func (e Entity) String() string {
	return fmt.Sprintf("%s[%d:%d] conf=%.2f src=%s", e.Type, e.Start, e.End, e.Confidence, e.Source)
}

// Pass is one ordered stage of the detection pipeline. Execute receives the
// immutable document and the current entity list and returns a new list; it
// must not mutate the entities it was given.
type Pass interface {
	Name() string
	Order() int
	Execute(doc Document, entities []Entity) ([]Entity, error)
}

// Counter keys reported by passes.
const (
	CounterDenyListFiltered = "deny_list_filtered"
	CounterContextBoosted   = "context_boosted"
)

// CounterReporter is implemented by passes that track per-run counters.
// DrainCounters returns the counts accumulated since the previous drain and
// resets them, so the pipeline can attribute counts to a single run.
type CounterReporter interface {
	DrainCounters() map[string]int64
}

// ClampConfidence bounds a confidence value to [0,1].
func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
