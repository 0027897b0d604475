// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package contextdb holds the static context-word tables: for each entity
// type and language, the weighted, polarity-tagged words whose proximity to
// a candidate raises or lowers its confidence. The tables are read-only at
// runtime; tests may swap them through Override.
package contextdb

import (
	"sync"

	"piisift/internal/detector"
)

// Polarity tags a context word as supporting or contradicting a detection.
type Polarity string

const (
	Positive Polarity = "positive"
	Negative Polarity = "negative"
)

// ContextWord is one weighted lexical cue. Weight is in [0,1].
type ContextWord struct {
	Word     string
	Weight   float64
	Polarity Polarity
}

// key is entity type × language; language "" holds language-neutral words.
type key struct {
	entityType string
	language   string
}

var (
	initOnce sync.Once
	mu       sync.RWMutex
	table    map[key][]ContextWord
)

// WordsFor returns the context words for an entity type and language hint:
// the language-neutral words plus the hinted language's own. An empty hint
// returns words of every language. The returned slice must not be modified.
func WordsFor(entityType, language string) []ContextWord {
	initOnce.Do(buildDefaultTable)
	mu.RLock()
	defer mu.RUnlock()

	if language == "" {
		var out []ContextWord
		for k, words := range table {
			if k.entityType == entityType {
				out = append(out, words...)
			}
		}
		return out
	}

	neutral := table[key{entityType, ""}]
	localized := table[key{entityType, language}]
	out := make([]ContextWord, 0, len(neutral)+len(localized))
	out = append(out, neutral...)
	out = append(out, localized...)
	return out
}

// Override replaces the words for one entity type and language. Test-only;
// production code never mutates the table after init.
func Override(entityType, language string, words []ContextWord) {
	initOnce.Do(buildDefaultTable)
	mu.Lock()
	defer mu.Unlock()
	table[key{entityType, language}] = append([]ContextWord(nil), words...)
}

// Reset rebuilds the default tables, discarding overrides.
func Reset() {
	initOnce.Do(buildDefaultTable)
	mu.Lock()
	defer mu.Unlock()
	buildDefaultTableLocked()
}

func buildDefaultTable() {
	mu.Lock()
	defer mu.Unlock()
	buildDefaultTableLocked()
}

func buildDefaultTableLocked() {
	table = make(map[key][]ContextWord)

	add := func(entityType, language string, polarity Polarity, weight float64, words ...string) {
		k := key{entityType, language}
		for _, w := range words {
			table[k] = append(table[k], ContextWord{Word: w, Weight: weight, Polarity: polarity})
		}
	}

	// Person names: salutations and field labels ahead of the value.
	add(detector.TypePersonName, "de", Positive, 0.8, "herr", "frau", "sehr geehrte", "sehr geehrter", "name", "vorname", "nachname", "mitarbeiter")
	add(detector.TypePersonName, "fr", Positive, 0.8, "monsieur", "madame", "nom", "prénom", "employé", "collaborateur")
	add(detector.TypePersonName, "it", Positive, 0.8, "signor", "signora", "nome", "cognome", "dipendente")
	add(detector.TypePersonName, "en", Positive, 0.8, "mr", "mrs", "ms", "dear", "name", "employee", "contact")
	add(detector.TypePersonName, "fr", Negative, 0.9, "montant", "total", "facture")
	add(detector.TypePersonName, "de", Negative, 0.9, "betrag", "summe", "rechnung")
	add(detector.TypePersonName, "it", Negative, 0.9, "importo", "totale", "fattura")
	add(detector.TypePersonName, "en", Negative, 0.9, "amount", "total", "invoice no")

	// IBAN: banking labels, tight window.
	add(detector.TypeIBAN, "", Positive, 0.9, "iban", "konto", "compte", "conto", "account", "bank", "bic", "swift")
	add(detector.TypeIBAN, "", Negative, 0.7, "beispiel", "exemple", "esempio", "example", "muster")

	// Swiss social-insurance number.
	add(detector.TypeSwissAVS, "de", Positive, 0.9, "ahv", "ahv-nummer", "versichertennummer", "sozialversicherung")
	add(detector.TypeSwissAVS, "fr", Positive, 0.9, "avs", "numéro avs", "assurance sociale")
	add(detector.TypeSwissAVS, "it", Positive, 0.9, "avs", "numero avs", "assicurazione sociale")
	add(detector.TypeSwissAVS, "en", Positive, 0.9, "social insurance", "ahv number", "avs number")

	// Phone.
	add(detector.TypePhone, "", Positive, 0.8, "tel", "tél", "telefon", "téléphone", "telefono", "phone", "mobile", "natel", "fax")
	add(detector.TypePhone, "", Negative, 0.6, "fax only", "seriennummer", "numéro de série", "serial")

	// Email.
	add(detector.TypeEmail, "", Positive, 0.7, "e-mail", "email", "mail", "courriel", "kontakt", "contact", "contatto")

	// Dates: birth-date labels matter, generic dates less so.
	add(detector.TypeDate, "de", Positive, 0.8, "geburtsdatum", "geboren am", "eintrittsdatum")
	add(detector.TypeDate, "fr", Positive, 0.8, "date de naissance", "né le", "née le", "date d'entrée")
	add(detector.TypeDate, "it", Positive, 0.8, "data di nascita", "nato il", "nata il")
	add(detector.TypeDate, "en", Positive, 0.8, "date of birth", "born on", "hire date")
	add(detector.TypeDate, "", Negative, 0.5, "gültig bis", "valable jusqu'au", "valid until", "ablaufdatum")

	// VAT identifiers.
	add(detector.TypeVAT, "", Positive, 0.9, "uid", "mwst", "tva", "iva", "vat", "mehrwertsteuer", "umsatzsteuer")

	// Addresses.
	add(detector.TypeAddress, "de", Positive, 0.7, "adresse", "wohnort", "strasse", "wohnhaft")
	add(detector.TypeAddress, "fr", Positive, 0.7, "adresse", "domicile", "rue", "domicilié")
	add(detector.TypeAddress, "it", Positive, 0.7, "indirizzo", "domicilio", "via")
	add(detector.TypeAddress, "en", Positive, 0.7, "address", "residence", "street")

	// Money: amounts near labels are invoices, not PII-bearing identifiers.
	add(detector.TypeMoney, "", Positive, 0.6, "betrag", "montant", "importo", "amount", "total", "chf", "eur")
}
