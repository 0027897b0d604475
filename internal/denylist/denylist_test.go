// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package denylist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDenied_CaseAndWhitespaceInsensitive(t *testing.T) {
	d := New()
	d.seedDefaults()

	for _, input := range []string{"Montant", "montant", "  MONTANT  "} {
		_, denied := d.IsDenied(input, "PERSON_NAME", "fr")
		assert.True(t, denied, "expected %q to be denied for PERSON_NAME", input)
	}

	_, denied := d.IsDenied("Jean Dupont", "PERSON_NAME", "fr")
	assert.False(t, denied, "a real name must never be denied")
}

func TestIsDenied_LayersAreAdditive(t *testing.T) {
	d := New()
	d.AddLiteral("", "", "global-word")
	d.AddLiteral("IBAN", "", "type-word")
	d.AddLiteral("", "de", "lang-word")

	cases := []struct {
		text  string
		layer string
	}{
		{"global-word", "global"},
		{"type-word", "type"},
		{"lang-word", "language"},
	}
	for _, tc := range cases {
		denial, denied := d.IsDenied(tc.text, "IBAN", "de")
		require.True(t, denied, "%q should be denied", tc.text)
		assert.Equal(t, tc.layer, denial.Layer)
	}

	// Type layer only denies for the matching type.
	_, denied := d.IsDenied("type-word", "PHONE", "de")
	assert.False(t, denied)
}

func TestAddRegex(t *testing.T) {
	d := New()
	require.NoError(t, d.AddRegex("", "", `^ref-\d+$`, "i"))

	_, denied := d.IsDenied("REF-12345", "PHONE", "")
	assert.True(t, denied)

	_, denied = d.IsDenied("ref12345", "PHONE", "")
	assert.False(t, denied)

	assert.Error(t, d.AddRegex("", "", `([`, ""))
}

func TestLoadFromFile_ReplacesWholesale(t *testing.T) {
	d := New()
	d.seedDefaults()

	content := `
global:
  - "internal use only"
by_entity_type:
  PHONE:
    - pattern: "^\\+41 00.*"
      type: regex
by_language:
  it:
    - "spettabile ditta"
`
	path := filepath.Join(t.TempDir(), "denylist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, d.LoadFromFile(path))

	_, denied := d.IsDenied("Internal Use Only", "PHONE", "")
	assert.True(t, denied)

	_, denied = d.IsDenied("+41 00 000 00 00", "PHONE", "")
	assert.True(t, denied)

	denial, denied := d.IsDenied("Spettabile Ditta", "PERSON_NAME", "it")
	require.True(t, denied)
	assert.Equal(t, "language", denial.Layer)

	// Seeded defaults were replaced, not merged.
	_, denied = d.IsDenied("montant", "PERSON_NAME", "fr")
	assert.False(t, denied)
}

func TestClearAndReset(t *testing.T) {
	d := New()
	d.seedDefaults()

	d.Clear()
	_, denied := d.IsDenied("montant", "PERSON_NAME", "")
	assert.False(t, denied)

	d.Reset()
	_, denied = d.IsDenied("montant", "PERSON_NAME", "")
	assert.True(t, denied)
}
