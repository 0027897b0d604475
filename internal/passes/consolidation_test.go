// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piisift/internal/detector"
)

func TestConsolidation_PriorityResolvesOverlap(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "756.1234.5678.97"}
	avs := detector.NewEntity(detector.TypeSwissAVS, "756.1234.5678.97", 0, 16, 0.75, detector.SourceRule)
	date := detector.NewEntity(detector.TypeDate, "756.1234.5678", 0, 13, 0.50, detector.SourceRule)

	pass := NewConsolidation(DefaultConsolidationConfig())
	out, err := pass.Execute(doc, []detector.Entity{date, avs})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, detector.TypeSwissAVS, out[0].Type)
	assert.Equal(t, 1, pass.Stats().OverlapsResolved)
}

func TestConsolidation_ValidatedOutranksInvalid(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "0123456789012345"}
	valid := detector.NewEntity(detector.TypePhone, "0123456789", 0, 10, 0.50, detector.SourceRule)
	valid.Validation = &detector.ValidationResult{Checked: true, Valid: true}
	invalid := detector.NewEntity(detector.TypePhone, "0123456789012345", 0, 16, 0.50, detector.SourceRule)
	invalid.Validation = &detector.ValidationResult{Checked: true, Valid: false}

	out, err := NewConsolidation(DefaultConsolidationConfig()).Execute(doc, []detector.Entity{invalid, valid})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.True(t, out[0].Validation.Valid)
}

func TestConsolidation_TieHigherConfidenceWins(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "044 123 45 67 ext"}
	low := detector.NewEntity(detector.TypePhone, "044 123 45 67", 0, 13, 0.45, detector.SourceRule)
	high := detector.NewEntity(detector.TypePhone, "044 123 45", 0, 10, 0.65, detector.SourceRule)

	out, err := NewConsolidation(DefaultConsolidationConfig()).Execute(doc, []detector.Entity{low, high})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, 0.65, out[0].Confidence)
}

func TestConsolidation_TieEqualConfidenceKeepsLonger(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "044 123 45 67"}
	long := detector.NewEntity(detector.TypePhone, "044 123 45 67", 0, 13, 0.50, detector.SourceRule)
	short := detector.NewEntity(detector.TypePhone, "044 123 45", 0, 10, 0.50, detector.SourceRule)

	out, err := NewConsolidation(DefaultConsolidationConfig()).Execute(doc, []detector.Entity{short, long})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, long.Text, out[0].Text)
}

func TestConsolidation_FoldsAdjacentAddressFragments(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "Bahnhofstrasse 10, 8001"}
	street := detector.NewEntity(detector.TypeStreet, "Bahnhofstrasse", 0, 14, 0.60, detector.SourceRule)
	postal := detector.NewEntity(detector.TypePostalCode, "8001", 19, 23, 0.40, detector.SourceRule)

	pass := NewConsolidation(DefaultConsolidationConfig())
	out, err := pass.Execute(doc, []detector.Entity{street, postal})
	require.NoError(t, err)

	require.Len(t, out, 1)
	assert.Equal(t, detector.TypeAddress, out[0].Type)
	assert.Equal(t, "Bahnhofstrasse 10, 8001", out[0].Text)
	assert.Equal(t, detector.SourceLinked, out[0].Source)
	assert.Equal(t, 0.60, out[0].Confidence)
	assert.Equal(t, 1, pass.Stats().AddressesConsolidated)
	assert.True(t, out[0].SpanValid(doc.Text))
}

func TestConsolidation_DistantFragmentsNotFolded(t *testing.T) {
	filler := " und dann folgt hier ein sehr langer erklärender Satz ohne Adressteile "
	text := "Seeweg" + filler + "8001"
	doc := detector.Document{ID: "d", Text: text}
	street := detector.NewEntity(detector.TypeStreet, "Seeweg", 0, 6, 0.60, detector.SourceRule)
	postal := detector.NewEntity(detector.TypePostalCode, "8001", len(text)-4, len(text), 0.40, detector.SourceRule)

	out, err := NewConsolidation(DefaultConsolidationConfig()).Execute(doc, []detector.Entity{street, postal})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestConsolidation_LinksRepeatedMentions(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "jean.dupont@example.org ... JEAN.DUPONT@example.org"}
	first := detector.NewEntity(detector.TypeEmail, "jean.dupont@example.org", 0, 23, 0.80, detector.SourceRule)
	second := detector.NewEntity(detector.TypeEmail, "JEAN.DUPONT@example.org", 28, 51, 0.80, detector.SourceRule)

	pass := NewConsolidation(DefaultConsolidationConfig())
	out, err := pass.Execute(doc, []detector.Entity{first, second})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.NotEmpty(t, out[0].LogicalID)
	assert.Equal(t, out[0].LogicalID, out[1].LogicalID)
	require.NotNil(t, out[0].Metadata.Link)
	assert.Equal(t, 2, out[0].Metadata.Link.GroupSize)
	assert.Equal(t, 2, pass.Stats().EntitiesLinked)
}

func TestConsolidation_DifferentTypesNeverLinked(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "Meier sagt Meier"}
	name := detector.NewEntity(detector.TypePersonName, "Meier", 0, 5, 0.60, detector.SourceRule)
	city := detector.NewEntity(detector.TypeCity, "Meier", 11, 16, 0.40, detector.SourceRule)

	out, err := NewConsolidation(DefaultConsolidationConfig()).Execute(doc, []detector.Entity{name, city})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.NotEqual(t, out[0].LogicalID, out[1].LogicalID)
}

func TestConsolidation_FuzzyLinking(t *testing.T) {
	cfg := DefaultConsolidationConfig()
	cfg.LinkStrategy = "fuzzy"
	doc := detector.Document{ID: "d", Text: "Jean Dupont ......... Jean Dupond"}
	a := detector.NewEntity(detector.TypePersonName, "Jean Dupont", 0, 11, 0.60, detector.SourceRule)
	b := detector.NewEntity(detector.TypePersonName, "Jean Dupond", 22, 33, 0.60, detector.SourceRule)

	out, err := NewConsolidation(cfg).Execute(doc, []detector.Entity{a, b})
	require.NoError(t, err)

	require.Len(t, out, 2)
	assert.Equal(t, out[0].LogicalID, out[1].LogicalID)
}

func TestConsolidation_Idempotent(t *testing.T) {
	doc := detector.Document{ID: "d", Text: "Bahnhofstrasse 10, 8001 und nochmals Bahnhofstrasse"}
	street1 := detector.NewEntity(detector.TypeStreet, "Bahnhofstrasse", 0, 14, 0.60, detector.SourceRule)
	postal := detector.NewEntity(detector.TypePostalCode, "8001", 19, 23, 0.40, detector.SourceRule)
	street2 := detector.NewEntity(detector.TypeStreet, "Bahnhofstrasse", 37, 51, 0.60, detector.SourceRule)

	pass := NewConsolidation(DefaultConsolidationConfig())
	once, err := pass.Execute(doc, []detector.Entity{street1, postal, street2})
	require.NoError(t, err)
	twice, err := pass.Execute(doc, once)
	require.NoError(t, err)

	require.Equal(t, len(once), len(twice))
	for i := range once {
		assert.Equal(t, once[i].Type, twice[i].Type)
		assert.Equal(t, once[i].Start, twice[i].Start)
		assert.Equal(t, once[i].End, twice[i].End)
		assert.Equal(t, once[i].LogicalID, twice[i].LogicalID)
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"jean dupont", "jean dupont", 1.0, 1.0},
		{"jean dupont", "jean dupond", 0.85, 0.95},
		{"jean dupont", "maria rossi", 0.0, 0.4},
		{"", "abc", 0.0, 0.0},
	}
	for _, tt := range tests {
		got := similarity(tt.a, tt.b)
		assert.GreaterOrEqual(t, got, tt.min, "%q vs %q", tt.a, tt.b)
		assert.LessOrEqual(t, got, tt.max, "%q vs %q", tt.a, tt.b)
	}
}
