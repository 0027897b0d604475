// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package postalcode validates postal code candidates against the Swiss
// numeric range and the digit counts of the neighbouring countries.
package postalcode

import (
	"strconv"
	"strings"

	"piisift/internal/detector"
)

// Validator checks postal code plausibility.
type Validator struct{}

// NewValidator returns a new postal code validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Type() string {
	return detector.TypePostalCode
}

// Validate accepts 4-digit codes in the Swiss delivery range (1000-9699)
// and 5-digit codes in the German/French/Italian ranges. A CH- prefix pins
// the candidate to the Swiss check.
func (v *Validator) Validate(input string) detector.ValidationResult {
	if result, ok := detector.GuardInput(input); !ok {
		return result
	}

	trimmed := strings.TrimSpace(input)
	swissPrefixed := false
	if strings.HasPrefix(trimmed, "CH-") || strings.HasPrefix(trimmed, "CH ") {
		swissPrefixed = true
		trimmed = strings.TrimSpace(trimmed[3:])
	}

	code, err := strconv.Atoi(trimmed)
	if err != nil {
		return detector.InvalidResult("non-numeric code")
	}

	switch len(trimmed) {
	case 4:
		// Swiss codes run 1000-9699; Austria shares the 4-digit format.
		if code >= 1000 && code <= 9699 {
			if swissPrefixed {
				return detector.ValidResult(0.95)
			}
			return detector.ValidResult(0.80)
		}
		return detector.InvalidResult("outside Swiss delivery range")
	case 5:
		if swissPrefixed {
			return detector.InvalidResult("Swiss codes have 4 digits")
		}
		if code >= 1000 { // DE from 01000 upward, FR/IT full 5-digit range
			return detector.ValidResult(0.70)
		}
		return detector.InvalidResult("implausible 5-digit code")
	default:
		return detector.InvalidResult("unsupported code length")
	}
}
