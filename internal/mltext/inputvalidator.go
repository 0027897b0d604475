// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package mltext

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// InputValidatorConfig bounds what reaches the inference endpoint.
type InputValidatorConfig struct {
	MinLength  int
	MaxLength  int
	AllowEmpty bool
	// ControlRatioLimit is the fraction of control characters above which
	// the input is flagged (not rejected).
	ControlRatioLimit float64
}

// DefaultInputValidatorConfig returns the standard bounds.
func DefaultInputValidatorConfig() InputValidatorConfig {
	return InputValidatorConfig{
		MinLength:         3,
		MaxLength:         1 << 20,
		ControlRatioLimit: 0.05,
	}
}

// InputResult is the structured verdict. Invalid input never raises an
// error; callers branch on Valid.
type InputResult struct {
	Valid      bool
	Reason     string
	Normalized string
	Warnings   []string
}

// InputValidator guards model input and normalizes it to NFC.
type InputValidator struct {
	cfg InputValidatorConfig
}

// NewInputValidator creates a validator.
func NewInputValidator(cfg InputValidatorConfig) *InputValidator {
	if cfg.MaxLength == 0 {
		cfg = DefaultInputValidatorConfig()
	}
	return &InputValidator{cfg: cfg}
}

// Validate checks and normalizes one input text.
func (v *InputValidator) Validate(input string) InputResult {
	if input == "" {
		if v.cfg.AllowEmpty {
			return InputResult{Valid: true}
		}
		return InputResult{Reason: "empty input"}
	}
	if !utf8.ValidString(input) {
		return InputResult{Reason: "invalid UTF-8"}
	}
	if len(input) > v.cfg.MaxLength {
		return InputResult{Reason: "input exceeds maximum length"}
	}
	if utf8.RuneCountInString(input) < v.cfg.MinLength {
		return InputResult{Reason: "input below minimum length"}
	}

	normalized := norm.NFC.String(input)
	result := InputResult{Valid: true, Normalized: normalized}

	total, control, replacement := 0, 0, 0
	for _, r := range normalized {
		total++
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			control++
		}
		if r == '�' {
			replacement++
		}
	}
	if total > 0 && float64(control)/float64(total) > v.cfg.ControlRatioLimit {
		result.Warnings = append(result.Warnings, "high control character ratio")
	}
	if replacement > 0 {
		result.Warnings = append(result.Warnings, "contains encoding replacement markers")
	}
	return result
}
