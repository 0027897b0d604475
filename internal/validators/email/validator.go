// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package email validates email address candidates syntactically and checks
// domain plausibility.
package email

import (
	"regexp"
	"strings"

	"piisift/internal/detector"
)

var localPartPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+$`)
var labelPattern = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9\-]*[A-Za-z0-9])?$`)

// Placeholder domains that appear in documentation and templates.
var placeholderDomains = map[string]bool{
	"example.com": true, "example.org": true, "example.net": true,
	"test.com": true, "domain.com": true, "email.com": true,
}

// Validator checks email address plausibility.
type Validator struct{}

// NewValidator returns a new email validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Type() string {
	return detector.TypeEmail
}

// Validate splits on the last @ and checks both halves. Placeholder domains
// validate but with reduced confidence, so the review flow can keep them.
func (v *Validator) Validate(input string) detector.ValidationResult {
	if result, ok := detector.GuardInput(input); !ok {
		return result
	}

	trimmed := strings.TrimSpace(input)
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 || at == len(trimmed)-1 {
		return detector.InvalidResult("missing local part or domain")
	}

	local, domain := trimmed[:at], trimmed[at+1:]
	if len(local) > 64 || !localPartPattern.MatchString(local) {
		return detector.InvalidResult("malformed local part")
	}
	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") || strings.Contains(local, "..") {
		return detector.InvalidResult("malformed local part")
	}

	labels := strings.Split(domain, ".")
	if len(labels) < 2 {
		return detector.InvalidResult("domain has no TLD")
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 || !labelPattern.MatchString(label) {
			return detector.InvalidResult("malformed domain label")
		}
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 || strings.ContainsAny(tld, "0123456789") {
		return detector.InvalidResult("implausible TLD")
	}

	if placeholderDomains[strings.ToLower(domain)] {
		return detector.ValidResult(0.50)
	}
	return detector.ValidResult(0.95)
}
