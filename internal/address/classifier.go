// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package address detects postal address components, groups them by
// proximity and scores the groups. Street detection distinguishes the
// Germanic suffix style (Bahnhofstrasse) from the Romance prefix style
// (rue de la Gare).
package address

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"piisift/internal/detector"
)

// ComponentType classifies one address component.
type ComponentType string

const (
	StreetName   ComponentType = "STREET_NAME"
	StreetNumber ComponentType = "STREET_NUMBER"
	PostalCode   ComponentType = "POSTAL_CODE"
	City         ComponentType = "CITY"
	Country      ComponentType = "COUNTRY"
	Region       ComponentType = "REGION"
)

// Component is one detected address part. Spans never overlap within a
// single classifier run; the first classification of a position wins.
type Component struct {
	Type  ComponentType
	Text  string
	Start int
	End   int
}

// ClassifierConfig holds the detection distances.
type ClassifierConfig struct {
	// NumberDistance is how far after a street name a bare number still
	// counts as its house number.
	NumberDistance int
}

// DefaultClassifierConfig returns the standard distances.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{NumberDistance: 30}
}

var (
	// Germanic streets carry the type as a suffix, Romance streets as a
	// leading word.
	germanicStreet = regexp.MustCompile(`\b[A-ZÄÖÜ][\p{L}\-]*(?:strasse|straße|gasse|weg|platz|allee|ring)\b`)
	romanceStreet  = regexp.MustCompile(`\b(?:[Rr]ue|[Aa]venue|[Bb]oulevard|[Cc]hemin|[Rr]oute|[Vv]ia|[Vv]iale|[Pp]iazza|[Cc]orso)\s+(?:de\s+la\s+|de\s+|du\s+|des\s+|d'|della\s+|delle\s+|del\s+|dei\s+)?[A-ZÄÖÜÉÈÀ][\p{L}\-']*`)

	houseNumber = regexp.MustCompile(`\b\d{1,3}[a-hA-H]?\b`)

	swissPostal   = regexp.MustCompile(`\b(?:CH[ \-])?\d{4}\b`)
	genericPostal = regexp.MustCompile(`\b\d{5}\b`)

	// Two-letter country codes only count when bounded by punctuation or
	// whitespace; bare letters inside words never match.
	countryCode = regexp.MustCompile(`(?:^|[\s,;(\-])(CH|DE|FR|IT|AT|LI)(?:[\s,;.)]|$)`)
)

// cityVariants maps folded city variants to their canonical name. The table
// covers the multilingual spellings of the cities the detector targets.
var cityVariants = map[string]string{
	"zurich": "Zürich", "zuerich": "Zürich", "zurigo": "Zürich",
	"geneve": "Genève", "geneva": "Genève", "genf": "Genève", "ginevra": "Genève",
	"basel": "Basel", "bale": "Basel", "basilea": "Basel",
	"bern": "Bern", "berne": "Bern", "berna": "Bern",
	"lausanne": "Lausanne", "losanna": "Lausanne",
	"winterthur": "Winterthur", "winterthour": "Winterthur",
	"luzern": "Luzern", "lucerne": "Luzern", "lucerna": "Luzern",
	"st. gallen": "St. Gallen", "saint-gall": "St. Gallen", "san gallo": "St. Gallen",
	"lugano": "Lugano", "bellinzona": "Bellinzona", "fribourg": "Fribourg",
	"neuchatel": "Neuchâtel", "chur": "Chur", "coira": "Chur", "sion": "Sion",
	"zug": "Zug", "thun": "Thun", "biel": "Biel/Bienne", "bienne": "Biel/Bienne",
	"berlin": "Berlin", "munchen": "München", "munich": "München",
	"frankfurt": "Frankfurt", "hamburg": "Hamburg", "stuttgart": "Stuttgart",
	"paris": "Paris", "lyon": "Lyon", "marseille": "Marseille",
	"milano": "Milano", "milan": "Milano", "mailand": "Milano",
	"roma": "Roma", "rome": "Roma", "rom": "Roma", "torino": "Torino", "turin": "Torino",
	"wien": "Wien", "vienna": "Wien", "vienne": "Wien", "innsbruck": "Innsbruck",
	"vaduz": "Vaduz",
}

// countryNames maps folded country spellings across the four languages.
var countryNames = map[string]string{
	"schweiz": "CH", "suisse": "CH", "svizzera": "CH", "switzerland": "CH",
	"deutschland": "DE", "allemagne": "DE", "germania": "DE", "germany": "DE",
	"frankreich": "FR", "france": "FR", "francia": "FR",
	"italien": "IT", "italie": "IT", "italia": "IT", "italy": "IT",
	"osterreich": "AT", "autriche": "AT", "austria": "AT",
	"liechtenstein": "LI",
}

var wordPattern = regexp.MustCompile(`[\p{L}][\p{L}.\-']*`)

// Classifier detects address components in raw text.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a classifier with the given configuration.
func NewClassifier(cfg ClassifierConfig) *Classifier {
	if cfg.NumberDistance == 0 {
		cfg = DefaultClassifierConfig()
	}
	return &Classifier{cfg: cfg}
}

// Classify returns all components found in the document text, sorted by
// start offset. A position claimed by an earlier component is never
// reclassified by a later detector.
func (c *Classifier) Classify(doc detector.Document) []Component {
	text := doc.Text
	var components []Component
	covered := newCoverage()

	add := func(t ComponentType, start, end int) bool {
		if start >= end || covered.intersects(start, end) {
			return false
		}
		components = append(components, Component{Type: t, Text: text[start:end], Start: start, End: end})
		covered.claim(start, end)
		return true
	}

	// Street names first; they anchor house-number detection.
	var streetEnds []int
	for _, loc := range germanicStreet.FindAllStringIndex(text, -1) {
		if add(StreetName, loc[0], loc[1]) {
			streetEnds = append(streetEnds, loc[1])
		}
	}
	for _, loc := range romanceStreet.FindAllStringIndex(text, -1) {
		if add(StreetName, loc[0], loc[1]) {
			streetEnds = append(streetEnds, loc[1])
		}
	}

	// Postal codes before house numbers, so a 4-digit code next to a
	// street is never claimed as its number. Swiss 4-digit codes are
	// range-checked against the canton numbering; 5-digit codes cover the
	// neighbouring countries.
	for _, loc := range swissPostal.FindAllStringIndex(text, -1) {
		if partOfDottedNumber(text, loc[0], loc[1]) {
			continue
		}
		code := strings.TrimPrefix(strings.TrimPrefix(text[loc[0]:loc[1]], "CH-"), "CH ")
		if n, err := strconv.Atoi(code); err == nil && n >= 1000 && n <= 9699 {
			add(PostalCode, loc[0], loc[1])
		}
	}
	for _, loc := range genericPostal.FindAllStringIndex(text, -1) {
		if partOfDottedNumber(text, loc[0], loc[1]) {
			continue
		}
		add(PostalCode, loc[0], loc[1])
	}

	// House numbers only near a street name.
	for _, loc := range houseNumber.FindAllStringIndex(text, -1) {
		if !nearAnyStreet(loc[0], streetEnds, c.cfg.NumberDistance) {
			continue
		}
		add(StreetNumber, loc[0], loc[1])
	}

	// Cities and country names by folded word-window lookup.
	words := wordPattern.FindAllStringIndex(text, -1)
	for i := 0; i < len(words); i++ {
		// Try two-word windows first so "St. Gallen" beats "Gallen".
		for span := 2; span >= 1; span-- {
			if i+span > len(words) {
				continue
			}
			start, end := words[i][0], words[i+span-1][1]
			// The word pattern keeps a sentence period or dash attached to
			// the last word; drop it before the table lookup. Interior dots
			// survive, so "St. Gallen" still matches.
			end = trimTrailingPunct(text, start, end)
			folded := fold(text[start:end])
			if _, ok := cityVariants[folded]; ok {
				add(City, start, end)
				break
			}
			if _, ok := countryNames[folded]; ok {
				add(Country, start, end)
				break
			}
		}
	}

	// Country codes, cautiously: bounded by punctuation or whitespace.
	for _, m := range countryCode.FindAllStringSubmatchIndex(text, -1) {
		add(Country, m[2], m[3])
	}

	sort.Slice(components, func(i, j int) bool { return components[i].Start < components[j].Start })
	return components
}

// CanonicalCity resolves a detected city span to its canonical name, or ""
// when the text is not a known city.
func CanonicalCity(text string) string {
	return cityVariants[fold(text)]
}

// partOfDottedNumber rejects digit runs embedded in dotted identifiers such
// as social-insurance or UID numbers, which are not postal codes.
func partOfDottedNumber(text string, start, end int) bool {
	if start >= 2 && text[start-1] == '.' && isDigit(text[start-2]) {
		return true
	}
	if end+1 < len(text) && text[end] == '.' && isDigit(text[end+1]) {
		return true
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// trimTrailingPunct moves the end offset left past trailing '.', '-' and
// apostrophe bytes the word pattern swallowed.
func trimTrailingPunct(text string, start, end int) int {
	for end > start {
		switch text[end-1] {
		case '.', '-', '\'':
			end--
		default:
			return end
		}
	}
	return end
}

func nearAnyStreet(pos int, streetEnds []int, distance int) bool {
	for _, end := range streetEnds {
		if pos >= end && pos-end <= distance {
			return true
		}
	}
	return false
}

// coverage tracks claimed spans so components never overlap.
type coverage struct {
	spans [][2]int
}

func newCoverage() *coverage {
	return &coverage{}
}

func (c *coverage) intersects(start, end int) bool {
	for _, s := range c.spans {
		if start < s[1] && s[0] < end {
			return true
		}
	}
	return false
}

func (c *coverage) claim(start, end int) {
	c.spans = append(c.spans, [2]int{start, end})
}
