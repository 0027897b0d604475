// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"piisift/internal/detector"
)

func runValidation(t *testing.T, e detector.Entity) detector.Entity {
	t.Helper()
	doc := detector.Document{ID: "d", Text: e.Text}
	out, err := NewFormatValidation(DefaultFormatValidationConfig(), nil).Execute(doc, []detector.Entity{e})
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

func TestFormatValidation_ValidBoostsTowardOne(t *testing.T) {
	e := detector.NewEntity(detector.TypeIBAN, "CH93 0076 2011 6238 5295 7", 0, 26, 0.70, detector.SourceRule)
	got := runValidation(t, e)

	require.NotNil(t, got.Validation)
	assert.True(t, got.Validation.Valid)
	assert.True(t, got.Validation.Checked)
	assert.InDelta(t, 0.70+0.25*0.30, got.Confidence, 1e-9)
}

func TestFormatValidation_InvalidPenalized(t *testing.T) {
	e := detector.NewEntity(detector.TypeIBAN, "CH93 0076 2011 6238 5295 8", 0, 26, 0.70, detector.SourceRule)
	got := runValidation(t, e)

	require.NotNil(t, got.Validation)
	assert.False(t, got.Validation.Valid)
	assert.InDelta(t, 0.30, got.Confidence, 1e-9)
}

func TestFormatValidation_PenaltyFloor(t *testing.T) {
	e := detector.NewEntity(detector.TypeIBAN, "XX00 NOT AN IBAN", 0, 16, 0.20, detector.SourceRule)
	got := runValidation(t, e)

	require.NotNil(t, got.Validation)
	assert.False(t, got.Validation.Valid)
	assert.Equal(t, 0.05, got.Confidence)
}

func TestFormatValidation_UncheckedTypeUnchanged(t *testing.T) {
	e := detector.NewEntity(detector.TypeMoney, "CHF 1'200.50", 0, 12, 0.55, detector.SourceRule)
	got := runValidation(t, e)

	require.NotNil(t, got.Validation)
	assert.False(t, got.Validation.Checked)
	assert.Equal(t, 0.55, got.Confidence)
}

func TestFormatValidation_OffsetsNeverChange(t *testing.T) {
	e := detector.NewEntity(detector.TypeSwissAVS, "756.1234.5678.97", 0, 16, 0.75, detector.SourceRule)
	got := runValidation(t, e)

	assert.Equal(t, e.Start, got.Start)
	assert.Equal(t, e.End, got.End)
	assert.Equal(t, e.Text, got.Text)
	require.NotNil(t, got.Validation)
	assert.True(t, got.Validation.Valid)
}

func TestFormatValidation_InputEntitiesNotMutated(t *testing.T) {
	e := detector.NewEntity(detector.TypeIBAN, "CH93 0076 2011 6238 5295 7", 0, 26, 0.70, detector.SourceRule)
	in := []detector.Entity{e}
	_ = runValidation(t, e)

	assert.Nil(t, in[0].Validation)
	assert.Equal(t, 0.70, in[0].Confidence)
}
