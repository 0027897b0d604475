// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package address

import (
	"testing"

	"piisift/internal/detector"
)

func classify(t *testing.T, text string) []Component {
	t.Helper()
	c := NewClassifier(DefaultClassifierConfig())
	return c.Classify(detector.Document{ID: "t", Text: text})
}

func componentsByType(components []Component) map[ComponentType][]Component {
	out := make(map[ComponentType][]Component)
	for _, c := range components {
		out[c.Type] = append(out[c.Type], c)
	}
	return out
}

func TestClassify_SwissGermanAddress(t *testing.T) {
	text := "Lieferung an Bahnhofstrasse 10, 8001 Zürich, Schweiz"
	byType := componentsByType(classify(t, text))

	if len(byType[StreetName]) != 1 || byType[StreetName][0].Text != "Bahnhofstrasse" {
		t.Fatalf("expected street Bahnhofstrasse, got %v", byType[StreetName])
	}
	if len(byType[StreetNumber]) != 1 || byType[StreetNumber][0].Text != "10" {
		t.Errorf("expected street number 10, got %v", byType[StreetNumber])
	}
	if len(byType[PostalCode]) != 1 || byType[PostalCode][0].Text != "8001" {
		t.Errorf("expected postal code 8001, got %v", byType[PostalCode])
	}
	if len(byType[City]) != 1 || byType[City][0].Text != "Zürich" {
		t.Errorf("expected city Zürich, got %v", byType[City])
	}
	if len(byType[Country]) != 1 || byType[Country][0].Text != "Schweiz" {
		t.Errorf("expected country Schweiz, got %v", byType[Country])
	}
}

func TestClassify_RomanceStreetStyle(t *testing.T) {
	text := "domicilié rue de la Gare 12, 1003 Lausanne"
	byType := componentsByType(classify(t, text))

	if len(byType[StreetName]) != 1 {
		t.Fatalf("expected one street, got %v", byType[StreetName])
	}
	if byType[StreetName][0].Text != "rue de la Gare" {
		t.Errorf("unexpected street span %q", byType[StreetName][0].Text)
	}
	if len(byType[City]) != 1 || byType[City][0].Text != "Lausanne" {
		t.Errorf("expected city Lausanne, got %v", byType[City])
	}
}

func TestClassify_DiacriticInsensitiveCity(t *testing.T) {
	for _, variant := range []string{"Zürich", "Zurich", "Zurigo"} {
		byType := componentsByType(classify(t, "8001 "+variant))
		if len(byType[City]) != 1 {
			t.Errorf("variant %q not recognized as city", variant)
			continue
		}
		if CanonicalCity(byType[City][0].Text) != "Zürich" {
			t.Errorf("variant %q did not resolve to canonical Zürich", variant)
		}
	}
}

func TestClassify_CountryCodeNeedsBoundaries(t *testing.T) {
	byType := componentsByType(classify(t, "Versand nach 8004 Basel, CH"))
	found := false
	for _, c := range byType[Country] {
		if c.Text == "CH" {
			found = true
		}
	}
	if !found {
		t.Error("bounded country code CH should be detected")
	}

	// Letters inside a word never form a country code.
	byType = componentsByType(classify(t, "KIRCHWEG ohne nummer"))
	for _, c := range byType[Country] {
		t.Errorf("unexpected country component %q", c.Text)
	}
}

func TestClassify_CityAtSentenceEnd(t *testing.T) {
	text := "Er wohnt in 8001 Zürich. AHV-Nummer folgt."
	byType := componentsByType(classify(t, text))

	if len(byType[City]) != 1 || byType[City][0].Text != "Zürich" {
		t.Fatalf("expected city Zürich without the sentence period, got %v", byType[City])
	}
	if end := byType[City][0].End; text[end-1] == '.' {
		t.Errorf("city span must not include the period, ends at %d", end)
	}
}

func TestClassify_InteriorDotCitySurvivesTrim(t *testing.T) {
	text := "Kanton St. Gallen."
	byType := componentsByType(classify(t, text))

	if len(byType[City]) != 1 || byType[City][0].Text != "St. Gallen" {
		t.Fatalf("expected city St. Gallen, got %v", byType[City])
	}
}

func TestClassify_DottedNumbersAreNotPostalCodes(t *testing.T) {
	byType := componentsByType(classify(t, "AHV 756.1234.5678.97 und PLZ 8001 Bern"))
	codes := byType[PostalCode]
	if len(codes) != 1 || codes[0].Text != "8001" {
		t.Errorf("expected only 8001 as postal code, got %v", codes)
	}
}

func TestClassify_SpanInvariantAndNoOverlap(t *testing.T) {
	text := "Herr Muster, Seestrasse 45a, 8700 Küsnacht, Schweiz, Tel 044 123 45 67"
	components := classify(t, text)
	for i, c := range components {
		if text[c.Start:c.End] != c.Text {
			t.Errorf("component %d span mismatch: %q vs %q", i, text[c.Start:c.End], c.Text)
		}
		for j := i + 1; j < len(components); j++ {
			o := components[j]
			if c.Start < o.End && o.Start < c.End {
				t.Errorf("components %d and %d overlap", i, j)
			}
		}
	}
}

func TestLink_GroupsWithinGap(t *testing.T) {
	text := "Bahnhofstrasse 10, 8001 Zürich"
	components := classify(t, text)
	groups := NewLinker(DefaultLinkerConfig()).Link(components)

	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	g := groups[0]
	if g.Pattern != PatternSwiss {
		t.Errorf("expected SWISS pattern, got %s", g.Pattern)
	}
	if len(g.Components) < 4 {
		t.Errorf("expected street, number, postal and city in group, got %d components", len(g.Components))
	}
}

func TestLink_FarComponentsSplit(t *testing.T) {
	text := "Bahnhofstrasse 10 liegt zentral. " +
		"Der Vertrag wurde nach langer Verhandlung und mehreren Sitzungen unterzeichnet. " +
		"8001 Zürich"
	components := classify(t, text)
	groups := NewLinker(DefaultLinkerConfig()).Link(components)

	for _, g := range groups {
		_, hasStreet := g.ByRole[StreetName]
		_, hasPostal := g.ByRole[PostalCode]
		if hasStreet && hasPostal {
			t.Error("distant components must not end up in one group")
		}
	}
}

func TestLink_SingleComponentDropped(t *testing.T) {
	groups := NewLinker(DefaultLinkerConfig()).Link([]Component{
		{Type: City, Text: "Bern", Start: 0, End: 4},
	})
	if len(groups) != 0 {
		t.Errorf("a lone component is not an address, got %d groups", len(groups))
	}
}

func TestScore_SwissAddressScoresHigh(t *testing.T) {
	text := "Bahnhofstrasse 10, 8001 Zürich, Schweiz"
	components := classify(t, text)
	groups := NewLinker(DefaultLinkerConfig()).Link(components)
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}

	g := NewScorer(DefaultScorerConfig()).Score(groups[0])
	if g.Confidence < 0.8 {
		t.Errorf("complete Swiss address should auto-anonymize, confidence %.2f", g.Confidence)
	}
	if !g.AutoAnonymize {
		t.Error("expected AutoAnonymize")
	}
	if g.FlaggedForReview {
		t.Error("complete address should not be flagged")
	}
	for _, factor := range []string{"completeness", "pattern", "postal_valid", "known_city"} {
		if _, ok := g.FactorScores[factor]; !ok {
			t.Errorf("missing factor %s in breakdown", factor)
		}
	}
}

func TestScore_PartialGroupFlagged(t *testing.T) {
	g := GroupedAddress{
		Components: []Component{
			{Type: StreetName, Text: "Seeweg", Start: 0, End: 6},
			{Type: StreetNumber, Text: "3", Start: 7, End: 8},
		},
		ByRole: map[ComponentType]Component{
			StreetName:   {Type: StreetName, Text: "Seeweg", Start: 0, End: 6},
			StreetNumber: {Type: StreetNumber, Text: "3", Start: 7, End: 8},
		},
		Start:   0,
		End:     8,
		Pattern: PatternPartial,
	}
	scored := NewScorer(DefaultScorerConfig()).Score(g)
	if !scored.FlaggedForReview {
		t.Errorf("partial group should be flagged, confidence %.2f", scored.Confidence)
	}
	if scored.AutoAnonymize {
		t.Error("partial group must not auto-anonymize")
	}
}
