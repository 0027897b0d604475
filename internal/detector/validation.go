// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package detector

// MaxValidatorInput bounds the text handed to a format validator. Oversized
// input is rejected with an invalid result, never an error, so pathological
// spans cannot stall checksum loops.
const MaxValidatorInput = 256

// Validator checks a single candidate value for format and checksum
// correctness. Implementations are pure and stateless; one validator is
// registered per entity type.
type Validator interface {
	Type() string
	Validate(input string) ValidationResult
}

// GuardInput applies the shared length guard. When the second return value
// is false the caller must return the result as-is.
func GuardInput(input string) (ValidationResult, bool) {
	if input == "" {
		return ValidationResult{Checked: true, Reason: "empty input"}, false
	}
	if len(input) > MaxValidatorInput {
		return ValidationResult{Checked: true, Reason: "input exceeds maximum length"}, false
	}
	return ValidationResult{}, true
}

// InvalidResult builds a checked, failed result with a reason.
func InvalidResult(reason string) ValidationResult {
	return ValidationResult{Checked: true, Valid: false, Reason: reason}
}

// ValidResult builds a checked, passing result with the given confidence.
func ValidResult(confidence float64) ValidationResult {
	return ValidationResult{Checked: true, Valid: true, Confidence: confidence}
}
