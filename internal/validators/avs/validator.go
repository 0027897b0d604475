// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package avs validates Swiss social-insurance numbers (AVS/AHV). The number
// is a 13-digit EAN-13 with the fixed country prefix 756.
package avs

import (
	"strings"

	"piisift/internal/detector"
)

// Validator checks AVS number format and checksum.
type Validator struct{}

// NewValidator returns a new AVS validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Type() string {
	return detector.TypeSwissAVS
}

// Validate strips the dotted grouping and runs the EAN-13 weighted checksum.
// Any prefix other than 756 fails regardless of checksum.
func (v *Validator) Validate(input string) detector.ValidationResult {
	if result, ok := detector.GuardInput(input); !ok {
		return result
	}

	digits := strings.NewReplacer(".", "", " ", "", "-", "").Replace(input)
	if len(digits) != 13 {
		return detector.InvalidResult("expected 13 digits")
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return detector.InvalidResult("non-digit character")
		}
	}
	if !strings.HasPrefix(digits, "756") {
		return detector.InvalidResult("country prefix is not 756")
	}

	if checkDigit(digits[:12]) != int(digits[12]-'0') {
		return detector.InvalidResult("checksum mismatch")
	}
	return detector.ValidResult(0.95)
}

// checkDigit computes the EAN-13 check digit: alternating 1/3 weights over
// the first twelve digits.
func checkDigit(digits string) int {
	sum := 0
	for i, c := range digits {
		d := int(c - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	return (10 - sum%10) % 10
}
