// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package date validates date candidates for calendar correctness. It
// understands numeric European formats (day first) and month-name formats in
// German, French, Italian and English.
package date

import (
	"regexp"
	"strconv"
	"strings"

	"piisift/internal/detector"
)

var numericPattern = regexp.MustCompile(`^([0-3]?\d)[./\-]([01]?\d)[./\-](\d{4}|\d{2})$`)
var monthNamePattern = regexp.MustCompile(`^([0-3]?\d)\.?\s+(\p{L}+)\s+(\d{4})$`)

// Month names across the four supported languages, lowercase. Short forms
// cover the common three-letter abbreviations.
var monthNames = map[string]int{
	"januar": 1, "februar": 2, "märz": 3, "april": 4, "mai": 5, "juni": 6,
	"juli": 7, "august": 8, "september": 9, "oktober": 10, "november": 11, "dezember": 12,
	"janvier": 1, "février": 2, "mars": 3, "avril": 4, "juin": 6,
	"juillet": 7, "août": 8, "septembre": 9, "octobre": 10, "novembre": 11, "décembre": 12,
	"gennaio": 1, "febbraio": 2, "marzo": 3, "aprile": 4, "maggio": 5, "giugno": 6,
	"luglio": 7, "agosto": 8, "settembre": 9, "ottobre": 10, "dicembre": 12,
	"january": 1, "february": 2, "march": 3, "may": 5, "june": 6,
	"july": 7, "october": 10, "december": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6, "jul": 7,
	"aug": 8, "sep": 9, "sept": 9, "okt": 10, "oct": 10, "nov": 11, "dez": 12, "dec": 12,
}

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Validator checks date candidates.
type Validator struct{}

// NewValidator returns a new date validator.
func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Type() string {
	return detector.TypeDate
}

// Validate parses the candidate day-first and rejects calendar-impossible
// combinations (month 13, day 32, 30 February).
func (v *Validator) Validate(input string) detector.ValidationResult {
	if result, ok := detector.GuardInput(input); !ok {
		return result
	}

	trimmed := strings.TrimSpace(input)

	if m := numericPattern.FindStringSubmatch(trimmed); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		return checkCalendar(day, month, year, 0.85)
	}

	if m := monthNamePattern.FindStringSubmatch(trimmed); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, ok := monthNames[strings.ToLower(m[2])]
		if !ok {
			return detector.InvalidResult("unknown month name")
		}
		year, _ := strconv.Atoi(m[3])
		return checkCalendar(day, month, year, 0.90)
	}

	return detector.InvalidResult("unrecognized date format")
}

func checkCalendar(day, month, year int, confidence float64) detector.ValidationResult {
	if month < 1 || month > 12 {
		return detector.InvalidResult("month out of range")
	}
	maxDay := daysInMonth[month]
	if month == 2 && !isLeap(year) {
		maxDay = 28
	}
	if day < 1 || day > maxDay {
		return detector.InvalidResult("day out of range for month")
	}
	if year < 1900 || year > 2100 {
		return detector.InvalidResult("year out of plausible range")
	}
	return detector.ValidResult(confidence)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
