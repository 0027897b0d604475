// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package avs

import "testing"

func TestValidate_KnownGoodNumber(t *testing.T) {
	v := NewValidator()
	for _, input := range []string{"756.1234.5678.97", "7561234567897"} {
		result := v.Validate(input)
		if !result.Valid {
			t.Errorf("expected %q to validate, got reason %q", input, result.Reason)
		}
	}
}

func TestValidate_WrongCheckDigit(t *testing.T) {
	v := NewValidator()
	result := v.Validate("756.1234.5678.98")
	if result.Valid {
		t.Error("check digit 8 must fail, correct digit is 7")
	}
	if result.Reason != "checksum mismatch" {
		t.Errorf("unexpected reason %q", result.Reason)
	}
}

func TestValidate_ForeignPrefixAlwaysFails(t *testing.T) {
	v := NewValidator()
	// 757 prefix with an otherwise correct EAN-13 check digit.
	digits := "757123456789"
	withCheck := digits + string(rune('0'+checkDigit(digits)))
	if v.Validate(withCheck).Valid {
		t.Error("prefix other than 756 must never validate")
	}
}

func TestValidate_Rejections(t *testing.T) {
	v := NewValidator()
	cases := []struct {
		name  string
		input string
	}{
		{"too short", "756.1234.5678"},
		{"letters", "756.1234.5678.9a"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if v.Validate(tc.input).Valid {
				t.Errorf("expected %q to be rejected", tc.input)
			}
		})
	}
}

func TestCheckDigit(t *testing.T) {
	if got := checkDigit("756123456789"); got != 7 {
		t.Errorf("expected check digit 7, got %d", got)
	}
}
