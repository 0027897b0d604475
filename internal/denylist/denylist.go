// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package denylist suppresses known false positives. Patterns live in three
// additive layers (global, per entity type, per language); a match in any
// layer denies the candidate. Literals are compared case-insensitively after
// trimming; regex patterns run against the trimmed candidate.
package denylist

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Denial reports which layer and pattern suppressed a candidate.
type Denial struct {
	Layer   string // "global", "type" or "language"
	Pattern string
}

// layerSet holds one layer's literal set and compiled regexes.
type layerSet struct {
	literals mapset.Set[string]
	regexes  []*regexp.Regexp
}

func newLayerSet() *layerSet {
	return &layerSet{literals: mapset.NewThreadUnsafeSet[string]()}
}

func (ls *layerSet) addLiteral(s string) {
	ls.literals.Add(normalize(s))
}

func (ls *layerSet) match(normalized string) (string, bool) {
	if ls == nil {
		return "", false
	}
	if ls.literals.Contains(normalized) {
		return normalized, true
	}
	for _, re := range ls.regexes {
		if re.MatchString(normalized) {
			return re.String(), true
		}
	}
	return "", false
}

// DenyList is one pattern registry. The process-wide Default instance is
// configuration state: mutate it before or between pipeline runs, never
// during concurrent detection. Callers needing per-tenant lists create
// separate instances with New.
type DenyList struct {
	mu     sync.RWMutex
	global *layerSet
	byType map[string]*layerSet
	byLang map[string]*layerSet
}

// New returns an empty deny-list.
func New() *DenyList {
	return &DenyList{
		global: newLayerSet(),
		byType: make(map[string]*layerSet),
		byLang: make(map[string]*layerSet),
	}
}

var (
	defaultOnce sync.Once
	defaultList *DenyList
)

// Default returns the shared process-wide instance, seeded with the built-in
// false-positive patterns on first use.
func Default() *DenyList {
	defaultOnce.Do(func() {
		defaultList = New()
		defaultList.seedDefaults()
	})
	return defaultList
}

// seedDefaults loads the built-in patterns: invoice vocabulary that regex
// name detection keeps mistaking for person names, and documentation
// placeholders.
func (d *DenyList) seedDefaults() {
	for _, w := range []string{"lorem ipsum", "john doe", "jane doe", "max mustermann", "example", "sample", "placeholder"} {
		d.AddLiteral("", "", w)
	}
	for _, w := range []string{"montant", "betrag", "importo", "amount", "total", "subtotal", "facture", "rechnung", "fattura", "invoice"} {
		d.AddLiteral("PERSON_NAME", "", w)
	}
	for _, w := range []string{"sehr geehrte damen und herren"} {
		d.AddLiteral("", "de", w)
	}
	for _, w := range []string{"madame, monsieur"} {
		d.AddLiteral("", "fr", w)
	}
}

// IsDenied checks the candidate against all three layers.
func (d *DenyList) IsDenied(text, entityType, language string) (Denial, bool) {
	normalized := normalize(text)
	if normalized == "" {
		return Denial{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if pattern, ok := d.global.match(normalized); ok {
		return Denial{Layer: "global", Pattern: pattern}, true
	}
	if pattern, ok := d.byType[entityType].match(normalized); ok {
		return Denial{Layer: "type", Pattern: pattern}, true
	}
	if pattern, ok := d.byLang[language].match(normalized); ok {
		return Denial{Layer: "language", Pattern: pattern}, true
	}
	return Denial{}, false
}

// AddLiteral registers a literal pattern. Empty entityType and language
// target the global layer; they are mutually exclusive layers otherwise.
func (d *DenyList) AddLiteral(entityType, language, literal string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.layerFor(entityType, language).addLiteral(literal)
}

// AddRegex compiles and registers a regex pattern. Flags is a subset of
// RE2 inline flags ("i", "m", "s").
func (d *DenyList) AddRegex(entityType, language, pattern, flags string) error {
	re, err := compilePattern(pattern, flags)
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	ls := d.layerFor(entityType, language)
	ls.regexes = append(ls.regexes, re)
	return nil
}

// Clear removes every pattern, including the seeded defaults.
func (d *DenyList) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.global = newLayerSet()
	d.byType = make(map[string]*layerSet)
	d.byLang = make(map[string]*layerSet)
}

// Reset restores the built-in defaults.
func (d *DenyList) Reset() {
	d.Clear()
	d.seedDefaults()
}

func (d *DenyList) layerFor(entityType, language string) *layerSet {
	switch {
	case entityType != "":
		if d.byType[entityType] == nil {
			d.byType[entityType] = newLayerSet()
		}
		return d.byType[entityType]
	case language != "":
		if d.byLang[language] == nil {
			d.byLang[language] = newLayerSet()
		}
		return d.byLang[language]
	default:
		return d.global
	}
}

// Entry is one config file pattern: either a bare literal string or a
// mapping {pattern, type: regex, flags}.
type Entry struct {
	Pattern string
	Regex   bool
	Flags   string
}

// UnmarshalYAML accepts both the scalar and the mapping form.
func (e *Entry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Pattern = node.Value
		return nil
	}
	var raw struct {
		Pattern string `yaml:"pattern"`
		Type    string `yaml:"type"`
		Flags   string `yaml:"flags"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	e.Pattern = raw.Pattern
	e.Regex = raw.Type == "regex"
	e.Flags = raw.Flags
	return nil
}

// ConfigFile is the on-disk deny-list layout.
type ConfigFile struct {
	Global       []Entry            `yaml:"global"`
	ByEntityType map[string][]Entry `yaml:"by_entity_type"`
	ByLanguage   map[string][]Entry `yaml:"by_language"`
}

// LoadFromFile reads a YAML deny-list file and replaces the active
// configuration wholesale. The seeded defaults are discarded.
func (d *DenyList) LoadFromFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return errors.Wrap(err, "reading deny-list config")
	}
	var cfg ConfigFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return errors.Wrap(err, "parsing deny-list config")
	}
	return d.LoadFromConfig(cfg)
}

// LoadFromConfig replaces the active configuration with the given one.
func (d *DenyList) LoadFromConfig(cfg ConfigFile) error {
	fresh := New()
	apply := func(entityType, language string, entries []Entry) error {
		for _, e := range entries {
			if e.Regex {
				if err := fresh.AddRegex(entityType, language, e.Pattern, e.Flags); err != nil {
					return errors.Wrapf(err, "pattern %q", e.Pattern)
				}
				continue
			}
			fresh.AddLiteral(entityType, language, e.Pattern)
		}
		return nil
	}

	if err := apply("", "", cfg.Global); err != nil {
		return err
	}
	for entityType, entries := range cfg.ByEntityType {
		if err := apply(entityType, "", entries); err != nil {
			return err
		}
	}
	for language, entries := range cfg.ByLanguage {
		if err := apply("", language, entries); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.global = fresh.global
	d.byType = fresh.byType
	d.byLang = fresh.byLang
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func compilePattern(pattern, flags string) (*regexp.Regexp, error) {
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrap(err, "compiling deny-list regex")
	}
	return re, nil
}
