// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"piisift/internal/detector"
	"piisift/internal/pipeline"
)

const redactedPlaceholder = "[REDACTED]"

// TextFormatter renders a colored, human-readable table.
type TextFormatter struct {
	colors map[string]*color.Color
}

// NewTextFormatter creates the text formatter.
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		colors: map[string]*color.Color{
			"green":  color.New(color.FgGreen),
			"yellow": color.New(color.FgYellow),
			"red":    color.New(color.FgRed),
			"cyan":   color.New(color.FgCyan),
			"blue":   color.New(color.FgBlue),
			"white":  color.New(color.FgWhite, color.Bold),
		},
	}
}

func init() {
	Register(NewTextFormatter())
}

func (f *TextFormatter) Name() string {
	return "text"
}

func (f *TextFormatter) Description() string {
	return "Human-readable text output with colors"
}

func (f *TextFormatter) FileExtension() string {
	return ".txt"
}

func (f *TextFormatter) Format(result *pipeline.Result, options Options) (string, error) {
	if options.NoColor {
		color.NoColor = true
	}

	entities := filterByConfidence(result.Entities, options.MinConfidence)
	if len(entities) == 0 {
		return "No entities found.\n", nil
	}

	sorted := append([]detector.Entity(nil), entities...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End > sorted[j].End
	})

	var b strings.Builder
	f.appendHeader(&b, options)
	for _, e := range sorted {
		f.appendSummaryLine(&b, e, options)
		if options.Verbose {
			f.appendDetail(&b, e)
		}
	}
	f.appendFooter(&b, result, len(sorted), options)
	return b.String(), nil
}

func filterByConfidence(entities []detector.Entity, min float64) []detector.Entity {
	if min <= 0 {
		return entities
	}
	var out []detector.Entity
	for _, e := range entities {
		if e.Confidence >= min {
			out = append(out, e)
		}
	}
	return out
}

// confidenceLevel buckets a 0..1 confidence for display.
func confidenceLevel(confidence float64) string {
	switch {
	case confidence >= 0.8:
		return "HIGH"
	case confidence >= 0.5:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func (f *TextFormatter) levelColor(level string) *color.Color {
	switch level {
	case "HIGH":
		return f.colors["red"]
	case "MEDIUM":
		return f.colors["yellow"]
	default:
		return f.colors["green"]
	}
}

func (f *TextFormatter) appendHeader(b *strings.Builder, options Options) {
	header := fmt.Sprintf("%-8s %-20s %-8s %-12s %-10s %s\n",
		"LEVEL", "TYPE", "CONF", "OFFSETS", "STATUS", "MATCH")
	if !options.NoColor {
		header = f.colors["white"].Sprint(header)
	}
	b.WriteString(header)
	separator := strings.Repeat("-", 76) + "\n"
	if !options.NoColor {
		separator = f.colors["white"].Sprint(separator)
	}
	b.WriteString(separator)
}

func (f *TextFormatter) appendSummaryLine(b *strings.Builder, e detector.Entity, options Options) {
	level := confidenceLevel(e.Confidence)

	levelStr := fmt.Sprintf("[%-6s]", level)
	if !options.NoColor {
		levelStr = f.levelColor(level).Sprintf("[%-6s]", level)
	}

	typeDisplay := e.Type
	if len(typeDisplay) > 20 {
		typeDisplay = typeDisplay[:17] + "..."
	}
	typeStr := fmt.Sprintf("%-20s", typeDisplay)
	if !options.NoColor {
		typeStr = f.colors["cyan"].Sprintf("%-20s", typeDisplay)
	}

	confStr := fmt.Sprintf("%6.2f  ", e.Confidence)
	if !options.NoColor {
		confStr = f.colors["blue"].Sprintf("%6.2f  ", e.Confidence)
	}

	offsets := fmt.Sprintf("%-12s", fmt.Sprintf("%d-%d", e.Start, e.End))
	status := fmt.Sprintf("%-10s", validationStatus(e))

	matchText := redactedPlaceholder
	if options.ShowMatch {
		matchText = sanitizeMatch(e.Text)
	}

	b.WriteString(levelStr + " " + typeStr + " " + confStr + " " + offsets + " " + status + " " + matchText + "\n")
}

func validationStatus(e detector.Entity) string {
	switch {
	case e.Validation == nil || !e.Validation.Checked:
		return "-"
	case e.Validation.Valid:
		return "valid"
	default:
		return "invalid"
	}
}

// sanitizeMatch flattens a match onto one line and caps its length.
func sanitizeMatch(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "\t", " ")
	runes := []rune(text)
	if len(runes) > 40 {
		return string(runes[:37]) + "..."
	}
	return text
}

func (f *TextFormatter) appendDetail(b *strings.Builder, e detector.Entity) {
	if e.Metadata.Rule != nil {
		fmt.Fprintf(b, "         pattern: %s (%s)\n", e.Metadata.Rule.PatternName, e.Metadata.Rule.Language)
	}
	if e.Validation != nil && e.Validation.Checked && e.Validation.Reason != "" {
		fmt.Fprintf(b, "         validation: %s\n", e.Validation.Reason)
	}
	if e.Context != nil {
		for _, factor := range e.Context.Factors {
			fmt.Fprintf(b, "         context %s: %+.2f\n", factor.Name, factor.Score)
		}
	}
	if addr := e.Metadata.Address; addr != nil {
		roles := make([]string, 0, len(addr.Components))
		for role := range addr.Components {
			roles = append(roles, role)
		}
		sort.Strings(roles)
		fmt.Fprintf(b, "         address: %s, %d components (%s)\n",
			addr.Pattern, addr.ComponentCount, strings.Join(roles, ", "))
	}
	if e.Metadata.Link != nil {
		fmt.Fprintf(b, "         linked: %d mentions\n", e.Metadata.Link.GroupSize)
	}
	if e.Metadata.Review != nil && e.Metadata.Review.Flagged {
		fmt.Fprintf(b, "         review: %s\n", e.Metadata.Review.Reason)
	}
}

func (f *TextFormatter) appendFooter(b *strings.Builder, result *pipeline.Result, shown int, options Options) {
	b.WriteString("\n")
	summary := fmt.Sprintf("%d entities, run %s, %s\n", shown, result.RunID, result.Elapsed.Round(0))
	if !options.NoColor {
		summary = f.colors["white"].Sprint(summary)
	}
	b.WriteString(summary)

	if options.Verbose {
		for _, timing := range result.Timings {
			fmt.Fprintf(b, "  pass %-24s %3d -> %3d entities in %s\n",
				timing.Name, timing.Input, timing.Output, timing.Duration.Round(0))
		}
		keys := make([]string, 0, len(result.Counters))
		for key := range result.Counters {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(b, "  %s: %d\n", key, result.Counters[key])
		}
	}
}
