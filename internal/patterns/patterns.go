// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package patterns holds the high-recall detection patterns as data, keyed
// by entity type and language, so they can be tested and swapped without
// touching pass logic.
package patterns

import (
	"regexp"

	"piisift/internal/detector"
)

// Pattern is one compiled detection rule. Language is empty for patterns
// that apply to every document language.
type Pattern struct {
	Name           string
	Type           string
	Language       string
	Regexp         *regexp.Regexp
	BaseConfidence float64
}

var table []Pattern

func init() {
	table = []Pattern{
		// IBAN: two letters, two check digits, 11-30 alphanumerics, with
		// optional groups of four separated by spaces.
		{
			Name:           "iban",
			Type:           detector.TypeIBAN,
			Regexp:         regexp.MustCompile(`\b[A-Z]{2}\d{2}(?:[ ]?[A-Z0-9]{4}){2,7}(?:[ ]?[A-Z0-9]{1,3})?\b`),
			BaseConfidence: 0.70,
		},
		// Swiss AVS/AHV number: 756.XXXX.XXXX.XX, dotted or plain.
		{
			Name:           "swiss_avs",
			Type:           detector.TypeSwissAVS,
			Regexp:         regexp.MustCompile(`\b756\.?\d{4}\.?\d{4}\.?\d{2}\b`),
			BaseConfidence: 0.75,
		},
		{
			Name:           "email",
			Type:           detector.TypeEmail,
			Regexp:         regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`),
			BaseConfidence: 0.80,
		},
		// Phone: international (+41 44 123 45 67, 0041...) and local Swiss
		// (044 123 45 67) formats.
		{
			Name:           "phone_international",
			Type:           detector.TypePhone,
			Regexp:         regexp.MustCompile(`(?:\+|00)[1-9]\d{0,2}[ ]?(?:\(0\)[ ]?)?\d{1,3}(?:[ .\-]?\d{2,4}){2,4}`),
			BaseConfidence: 0.65,
		},
		{
			Name:           "phone_local",
			Type:           detector.TypePhone,
			Regexp:         regexp.MustCompile(`\b0\d{2}[ ./\-]?\d{3}[ .\-]?\d{2}[ .\-]?\d{2}\b`),
			BaseConfidence: 0.45,
		},
		// Numeric European dates: 31.12.2024, 31/12/2024, 31-12-24.
		{
			Name:           "date_numeric",
			Type:           detector.TypeDate,
			Regexp:         regexp.MustCompile(`\b([0-3]?\d)[./\-]([01]?\d)[./\-](\d{4}|\d{2})\b`),
			BaseConfidence: 0.50,
		},
		// Swiss UID VAT: CHE-123.456.789 with optional MWST/TVA/IVA suffix.
		{
			Name:           "vat_swiss_uid",
			Type:           detector.TypeVAT,
			Regexp:         regexp.MustCompile(`\bCHE[\-. ]?\d{3}[. ]?\d{3}[. ]?\d{3}(?:[ ]?(?:MWST|TVA|IVA|VAT))?\b`),
			BaseConfidence: 0.80,
		},
		// EU VAT identifiers for the neighbouring countries.
		{
			Name:           "vat_eu",
			Type:           detector.TypeVAT,
			Regexp:         regexp.MustCompile(`\b(?:DE\d{9}|FR[A-Z0-9]{2}\d{9}|IT\d{11}|ATU\d{8})\b`),
			BaseConfidence: 0.70,
		},
		{
			Name:           "money",
			Type:           detector.TypeMoney,
			Regexp:         regexp.MustCompile(`(?:\b(?:CHF|EUR|USD|Fr\.)|[€$])[ ]?\d{1,3}(?:['.\x{2019} ]\d{3})*(?:[.,]\d{2})?\b`),
			BaseConfidence: 0.55,
		},
		// Swiss postal code. The capture group narrows the emitted span to
		// the code itself; requiring a following capitalized locality word
		// keeps recall high without matching every 4-digit number.
		{
			Name:           "postal_code_city",
			Type:           detector.TypePostalCode,
			Regexp:         regexp.MustCompile(`\b((?:CH[ \-])?\d{4,5})\s+[A-ZÄÖÜÉÈÀ]`),
			BaseConfidence: 0.40,
		},

		// Salutation-anchored person names, one pattern per language.
		{
			Name:           "person_salutation_de",
			Type:           detector.TypePersonName,
			Language:       "de",
			Regexp:         regexp.MustCompile(`\b(?:Herr|Frau|Dr\.|Prof\.)[ ]+[A-ZÄÖÜ][a-zäöüß]+(?:[ ]+[A-ZÄÖÜ][a-zäöüß]+)?`),
			BaseConfidence: 0.60,
		},
		{
			Name:           "person_salutation_fr",
			Type:           detector.TypePersonName,
			Language:       "fr",
			Regexp:         regexp.MustCompile(`\b(?:Monsieur|Madame|M\.|Mme)[ ]+[A-ZÉÈÀÇ][a-zéèàçë]+(?:[ ]+[A-ZÉÈÀÇ][a-zéèàçë]+)?`),
			BaseConfidence: 0.60,
		},
		{
			Name:           "person_salutation_it",
			Type:           detector.TypePersonName,
			Language:       "it",
			Regexp:         regexp.MustCompile(`\b(?:Signor|Signora|Sig\.|Sig\.ra)[ ]+[A-ZÀÈÌÒÙ][a-zàèìòù]+(?:[ ]+[A-ZÀÈÌÒÙ][a-zàèìòù]+)?`),
			BaseConfidence: 0.60,
		},
		{
			Name:           "person_salutation_en",
			Type:           detector.TypePersonName,
			Language:       "en",
			Regexp:         regexp.MustCompile(`\b(?:Mr\.?|Mrs\.?|Ms\.?|Dr\.?)[ ]+[A-Z][a-z]+(?:[ ]+[A-Z][a-z]+)?`),
			BaseConfidence: 0.60,
		},
		// Two capitalized words after a name label work in all languages.
		{
			Name:           "person_labeled",
			Type:           detector.TypePersonName,
			Regexp:         regexp.MustCompile(`(?i:\b(?:name|nom|nome)\s*:?\s*)([A-ZÄÖÜÉÈÀ][\p{L}]+[ ]+[A-ZÄÖÜÉÈÀ][\p{L}]+)`),
			BaseConfidence: 0.55,
		},
	}
}

// ForLanguage returns the patterns applicable to a language hint. An empty
// hint selects every pattern; a concrete hint selects language-neutral
// patterns plus that language's own.
func ForLanguage(language string) []Pattern {
	if language == "" {
		return table
	}
	out := make([]Pattern, 0, len(table))
	for _, p := range table {
		if p.Language == "" || p.Language == language {
			out = append(out, p)
		}
	}
	return out
}

// ForType returns all patterns for one entity type, any language.
func ForType(entityType string) []Pattern {
	var out []Pattern
	for _, p := range table {
		if p.Type == entityType {
			out = append(out, p)
		}
	}
	return out
}
