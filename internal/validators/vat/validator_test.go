// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package vat

import "testing"

// CHE-116.281.710 is the published UID of the Swiss federal administration
// and carries a correct mod-11 check digit.
func TestValidate_SwissUID(t *testing.T) {
	v := NewValidator()
	cases := []string{
		"CHE-116.281.710",
		"CHE116281710",
		"CHE-116.281.710 MWST",
		"CHE-116.281.710 TVA",
	}
	for _, input := range cases {
		result := v.Validate(input)
		if !result.Valid {
			t.Errorf("expected %q to validate, got reason %q", input, result.Reason)
		}
	}
}

func TestValidate_SwissUIDBadChecksum(t *testing.T) {
	v := NewValidator()
	if v.Validate("CHE-116.281.711").Valid {
		t.Error("wrong UID check digit must fail")
	}
}

func TestValidate_EUFormats(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		input string
		valid bool
	}{
		{"DE123456789", true},
		{"DE12345678", false}, // 8 digits
		{"IT12345678901", true},
		{"ATU12345678", true},
		{"FRXX123456789", true},
		{"XX123456789", false},
	}
	for _, tc := range cases {
		result := v.Validate(tc.input)
		if result.Valid != tc.valid {
			t.Errorf("Validate(%q).Valid = %v, want %v (%s)", tc.input, result.Valid, tc.valid, result.Reason)
		}
	}
}
