// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

import (
	"strings"
	"testing"
)

func TestSpanValid(t *testing.T) {
	doc := "IBAN: CH9300762011623852957"

	tests := []struct {
		name   string
		entity Entity
		want   bool
	}{
		{"matching span", Entity{Text: "CH9300762011623852957", Start: 6, End: 27}, true},
		{"text mismatch", Entity{Text: "CH0000000000000000000", Start: 6, End: 27}, false},
		{"negative start", Entity{Text: "IBAN", Start: -1, End: 3}, false},
		{"end past document", Entity{Text: "x", Start: 26, End: 100}, false},
		{"empty span", Entity{Text: "", Start: 5, End: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.entity.SpanValid(doc); got != tt.want {
				t.Errorf("SpanValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	a := Entity{Start: 0, End: 10}
	b := Entity{Start: 5, End: 15}
	c := Entity{Start: 10, End: 20}

	if !a.Overlaps(b) || !b.Overlaps(a) {
		t.Error("intersecting spans must overlap")
	}
	// Half-open spans touching at a boundary do not overlap.
	if a.Overlaps(c) {
		t.Error("adjacent spans must not overlap")
	}
}

func TestClone_DeepCopiesAnnotations(t *testing.T) {
	original := NewEntity(TypeIBAN, "CH9300762011623852957", 0, 21, 0.8, SourceRule)
	original.Validation = &ValidationResult{Checked: true, Valid: true}
	original.Context = &ContextResult{Factors: []ContextFactor{{Name: "keyword", Score: 0.1}}}
	original.Metadata.Address = &AddressMetadata{Components: map[string]string{"city": "Bern"}}

	clone := original.Clone()
	clone.Validation.Valid = false
	clone.Context.Factors[0].Score = 0.9
	clone.Metadata.Address.Components["city"] = "Genf"

	if !original.Validation.Valid {
		t.Error("clone mutation leaked into original validation")
	}
	if original.Context.Factors[0].Score != 0.1 {
		t.Error("clone mutation leaked into original context factors")
	}
	if original.Metadata.Address.Components["city"] != "Bern" {
		t.Error("clone mutation leaked into original address components")
	}
}

func TestClampConfidence(t *testing.T) {
	for _, tt := range []struct{ in, want float64 }{
		{-0.5, 0}, {0, 0}, {0.42, 0.42}, {1, 1}, {1.7, 1},
	} {
		if got := ClampConfidence(tt.in); got != tt.want {
			t.Errorf("ClampConfidence(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestString_OmitsMatchedText(t *testing.T) {
	e := NewEntity(TypeEmail, "jean@example.org", 0, 16, 0.9, SourceRule)
	if got := e.String(); len(got) == 0 || strings.Contains(got, "jean") {
		t.Errorf("String() must not leak the match, got %q", got)
	}
}
