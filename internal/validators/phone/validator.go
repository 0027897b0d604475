// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package phone validates phone number candidates by digit count and
// recognized country or local prefixes. Swiss mobile prefixes raise the
// resulting confidence.
package phone

import (
	"strings"

	"piisift/internal/detector"
)

// Country calling codes the detector recognizes, longest first so "41" does
// not shadow "423".
var countryCodes = []string{"423", "41", "49", "43", "44", "39", "33", "34", "31", "32", "352", "1"}

// Swiss mobile network prefixes (07x).
var swissMobilePrefixes = []string{"74", "75", "76", "77", "78", "79"}

// Validator checks phone number plausibility.
type Validator struct{}

// NewValidator returns a new phone validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Type() string {
	return detector.TypePhone
}

// Validate strips formatting and checks length plus prefix. A recognized
// country code is required for international numbers; local numbers need the
// leading zero and a plausible length.
func (v *Validator) Validate(input string) detector.ValidationResult {
	if result, ok := detector.GuardInput(input); !ok {
		return result
	}

	trimmed := strings.TrimSpace(input)
	international := strings.HasPrefix(trimmed, "+") || strings.HasPrefix(trimmed, "00")

	digits := keepDigits(trimmed)
	if international {
		digits = strings.TrimPrefix(digits, "00")
	}
	if len(digits) < 7 || len(digits) > 15 {
		return detector.InvalidResult("digit count out of range")
	}

	if international {
		code, national := splitCountryCode(digits)
		if code == "" {
			return detector.InvalidResult("unrecognized country code")
		}
		confidence := 0.85
		if code == "41" && hasSwissMobilePrefix(national) {
			confidence = 0.95
		}
		return detector.ValidResult(confidence)
	}

	if !strings.HasPrefix(digits, "0") {
		return detector.InvalidResult("local number without leading zero")
	}
	if len(digits) < 9 || len(digits) > 11 {
		return detector.InvalidResult("implausible local number length")
	}
	confidence := 0.70
	if hasSwissMobilePrefix(strings.TrimPrefix(digits, "0")) {
		confidence = 0.85
	}
	return detector.ValidResult(confidence)
}

func keepDigits(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// splitCountryCode peels a recognized calling code off the front of the
// digit string and returns it with the national remainder.
func splitCountryCode(digits string) (string, string) {
	for _, code := range countryCodes {
		if strings.HasPrefix(digits, code) {
			return code, digits[len(code):]
		}
	}
	return "", digits
}

func hasSwissMobilePrefix(national string) bool {
	for _, prefix := range swissMobilePrefixes {
		if strings.HasPrefix(national, prefix) {
			return true
		}
	}
	return false
}
