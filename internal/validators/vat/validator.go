// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package vat validates VAT identifiers: Swiss UID numbers with the mod-11
// weighted checksum, and EU identifiers of the neighbouring countries by
// country-specific pattern.
package vat

import (
	"regexp"
	"strings"

	"piisift/internal/detector"
)

// Mod-11 weights over the nine UID digits, per the Swiss UID specification.
var uidWeights = [8]int{5, 4, 3, 2, 7, 6, 5, 4}

var euPatterns = map[string]*regexp.Regexp{
	"DE": regexp.MustCompile(`^DE\d{9}$`),
	"FR": regexp.MustCompile(`^FR[A-Z0-9]{2}\d{9}$`),
	"IT": regexp.MustCompile(`^IT\d{11}$`),
	"AT": regexp.MustCompile(`^ATU\d{8}$`),
}

// Validator checks Swiss UID and EU VAT identifiers.
type Validator struct{}

// NewValidator returns a new VAT validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Type() string {
	return detector.TypeVAT
}

// Validate dispatches on the country prefix: CHE runs the UID checksum, EU
// prefixes run a pattern check with a lower resulting confidence.
func (v *Validator) Validate(input string) detector.ValidationResult {
	if result, ok := detector.GuardInput(input); !ok {
		return result
	}

	normalized := strings.ToUpper(strings.NewReplacer(" ", "", ".", "", "-", "").Replace(input))
	// Strip the VAT-register suffix (CHE-...-MWST / TVA / IVA / VAT).
	for _, suffix := range []string{"MWST", "TVA", "IVA", "VAT"} {
		normalized = strings.TrimSuffix(normalized, suffix)
	}

	if strings.HasPrefix(normalized, "CHE") {
		return validateUID(normalized)
	}
	for country, pattern := range euPatterns {
		if strings.HasPrefix(normalized, country) {
			if pattern.MatchString(normalized) {
				return detector.ValidResult(0.85)
			}
			return detector.InvalidResult("malformed " + country + " VAT number")
		}
	}
	return detector.InvalidResult("unrecognized VAT prefix")
}

// validateUID checks the nine-digit Swiss UID: weighted sum mod 11, check
// digit 11-remainder, remainder 1 has no valid check digit.
func validateUID(normalized string) detector.ValidationResult {
	digits := strings.TrimPrefix(normalized, "CHE")
	if len(digits) != 9 {
		return detector.InvalidResult("expected 9 UID digits")
	}
	sum := 0
	for i := 0; i < 8; i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return detector.InvalidResult("non-digit character")
		}
		sum += int(c-'0') * uidWeights[i]
	}
	remainder := sum % 11
	check := (11 - remainder) % 11
	if check == 10 {
		return detector.InvalidResult("no valid check digit exists")
	}
	if check != int(digits[8]-'0') {
		return detector.InvalidResult("checksum mismatch")
	}
	return detector.ValidResult(0.95)
}
