// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/pkg/errors"

	"piisift/internal/detector"
	"piisift/internal/pipeline"
)

// JSONFormatter renders a machine-readable report.
type JSONFormatter struct{}

// NewJSONFormatter creates the JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func init() {
	Register(NewJSONFormatter())
}

func (f *JSONFormatter) Name() string {
	return "json"
}

func (f *JSONFormatter) Description() string {
	return "Machine-readable JSON output"
}

func (f *JSONFormatter) FileExtension() string {
	return ".json"
}

type jsonReport struct {
	RunID    string           `json:"run_id"`
	Started  time.Time        `json:"started"`
	Elapsed  string           `json:"elapsed"`
	Count    int              `json:"count"`
	Counters map[string]int64 `json:"counters,omitempty"`
	Entities []jsonEntity     `json:"entities"`
	Passes   []jsonTiming     `json:"passes,omitempty"`
}

type jsonEntity struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Text       string          `json:"text,omitempty"`
	Start      int             `json:"start"`
	End        int             `json:"end"`
	Confidence float64         `json:"confidence"`
	Source     string          `json:"source"`
	LogicalID  string          `json:"logical_id,omitempty"`
	Validation *jsonValidation `json:"validation,omitempty"`
	Context    []jsonFactor    `json:"context_factors,omitempty"`
	Pattern    string          `json:"pattern,omitempty"`
	Language   string          `json:"language,omitempty"`
	Address    *jsonAddress    `json:"address,omitempty"`
	LinkGroup  int             `json:"link_group_size,omitempty"`
	Review     string          `json:"review_reason,omitempty"`
}

type jsonValidation struct {
	Checked bool   `json:"checked"`
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
}

type jsonFactor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type jsonAddress struct {
	Pattern        string             `json:"pattern"`
	ComponentCount int                `json:"component_count"`
	Components     map[string]string  `json:"components,omitempty"`
	FactorScores   map[string]float64 `json:"factor_scores,omitempty"`
	AutoAnonymize  bool               `json:"auto_anonymize"`
}

type jsonTiming struct {
	Name     string `json:"name"`
	Order    int    `json:"order"`
	Duration string `json:"duration"`
	Input    int    `json:"input"`
	Output   int    `json:"output"`
}

func (f *JSONFormatter) Format(result *pipeline.Result, options Options) (string, error) {
	entities := filterByConfidence(result.Entities, options.MinConfidence)
	sorted := append([]detector.Entity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	report := jsonReport{
		RunID:    result.RunID,
		Started:  result.Started,
		Elapsed:  result.Elapsed.String(),
		Count:    len(sorted),
		Counters: result.Counters,
		Entities: make([]jsonEntity, 0, len(sorted)),
	}
	for _, e := range sorted {
		report.Entities = append(report.Entities, toJSONEntity(e, options))
	}
	if options.Verbose {
		for _, timing := range result.Timings {
			report.Passes = append(report.Passes, jsonTiming{
				Name:     timing.Name,
				Order:    timing.Order,
				Duration: timing.Duration.String(),
				Input:    timing.Input,
				Output:   timing.Output,
			})
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal report")
	}
	return string(data) + "\n", nil
}

func toJSONEntity(e detector.Entity, options Options) jsonEntity {
	out := jsonEntity{
		ID:         e.ID,
		Type:       e.Type,
		Start:      e.Start,
		End:        e.End,
		Confidence: e.Confidence,
		Source:     string(e.Source),
		LogicalID:  e.LogicalID,
	}
	// Matched text is the PII itself, emit it only on request.
	if options.ShowMatch {
		out.Text = e.Text
	}
	if e.Validation != nil {
		out.Validation = &jsonValidation{
			Checked: e.Validation.Checked,
			Valid:   e.Validation.Valid,
			Reason:  e.Validation.Reason,
		}
	}
	if e.Context != nil {
		for _, factor := range e.Context.Factors {
			out.Context = append(out.Context, jsonFactor{Name: factor.Name, Score: factor.Score})
		}
	}
	if e.Metadata.Rule != nil {
		out.Pattern = e.Metadata.Rule.PatternName
		out.Language = e.Metadata.Rule.Language
	}
	if addr := e.Metadata.Address; addr != nil {
		out.Address = &jsonAddress{
			Pattern:        addr.Pattern,
			ComponentCount: addr.ComponentCount,
			FactorScores:   addr.FactorScores,
			AutoAnonymize:  addr.AutoAnonymize,
		}
		if options.ShowMatch {
			out.Address.Components = addr.Components
		}
	}
	if e.Metadata.Link != nil {
		out.LinkGroup = e.Metadata.Link.GroupSize
	}
	if e.Metadata.Review != nil && e.Metadata.Review.Flagged {
		out.Review = e.Metadata.Review.Reason
	}
	return out
}
