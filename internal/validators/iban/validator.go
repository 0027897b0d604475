// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package iban validates International Bank Account Numbers with the
// ISO 7064 Mod 97-10 checksum.
package iban

import (
	"strings"

	"piisift/internal/detector"
)

// Expected IBAN lengths for the countries the detector targets, plus the
// most common others. Countries not listed fall back to a length range check.
var countryLengths = map[string]int{
	"CH": 21, "DE": 22, "FR": 27, "IT": 27, "AT": 20, "LI": 21,
	"GB": 22, "NL": 18, "BE": 16, "ES": 24, "PT": 25, "LU": 20,
}

// Validator checks IBAN format and checksum.
type Validator struct{}

// NewValidator returns a new IBAN validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Type() string {
	return detector.TypeIBAN
}

// Validate normalizes the candidate and runs the Mod 97-10 check.
func (v *Validator) Validate(input string) detector.ValidationResult {
	if result, ok := detector.GuardInput(input); !ok {
		return result
	}

	normalized := strings.ToUpper(strings.NewReplacer(" ", "", "-", "").Replace(input))
	if len(normalized) < 15 || len(normalized) > 34 {
		return detector.InvalidResult("length out of range")
	}

	country := normalized[:2]
	for _, c := range country {
		if c < 'A' || c > 'Z' {
			return detector.InvalidResult("missing country prefix")
		}
	}
	if expected, ok := countryLengths[country]; ok && len(normalized) != expected {
		return detector.InvalidResult("wrong length for country " + country)
	}
	for _, c := range normalized[2:4] {
		if c < '0' || c > '9' {
			return detector.InvalidResult("check digits not numeric")
		}
	}

	if mod97(rearrange(normalized)) != 1 {
		return detector.InvalidResult("checksum mismatch")
	}
	return detector.ValidResult(0.95)
}

// rearrange moves the first four characters to the end, the layout the
// ISO 7064 computation runs over.
func rearrange(iban string) string {
	return iban[4:] + iban[:4]
}

// mod97 computes the ISO 7064 Mod 97-10 remainder, mapping letters to
// 10..35 and reducing incrementally so arbitrary lengths cannot overflow.
func mod97(s string) int {
	remainder := 0
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			remainder = (remainder*10 + int(c-'0')) % 97
		case c >= 'A' && c <= 'Z':
			value := int(c-'A') + 10
			remainder = (remainder*100 + value) % 97
		default:
			return -1
		}
	}
	return remainder
}
