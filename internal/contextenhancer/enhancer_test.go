// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package contextenhancer

import (
	"strings"
	"testing"

	"piisift/internal/contextdb"
	"piisift/internal/denylist"
	"piisift/internal/detector"
)

func docWith(text string) detector.Document {
	return detector.Document{ID: "doc-1", Text: text, Language: "fr"}
}

func entityIn(doc detector.Document, entityType, text string) detector.Entity {
	start := strings.Index(doc.Text, text)
	if start < 0 {
		panic("entity text not in document")
	}
	return detector.NewEntity(entityType, text, start, start+len(text), 0.5, detector.SourceRule)
}

func TestEnhance_LabelBeforeBoostsConfidence(t *testing.T) {
	e := New(DefaultConfig(), denylist.New())
	doc := docWith("IBAN: CH93 0076 2011 6238 5295 7 pour le versement")
	entity := entityIn(doc, detector.TypeIBAN, "CH93 0076 2011 6238 5295 7")

	out := e.Enhance(doc, entity, nil)
	if out.Confidence <= entity.Confidence {
		t.Errorf("label before span should boost confidence: %.2f -> %.2f", entity.Confidence, out.Confidence)
	}
	if out.Context == nil || len(out.Context.Factors) == 0 {
		t.Fatal("expected context factors")
	}
	if !out.SpanValid(doc.Text) {
		t.Error("span invariant violated")
	}
}

func TestEnhance_BeforeWeighsMoreThanAfter(t *testing.T) {
	// A full-weight label saturates the boost cap on either side, so pin a
	// weak word through the test-only override to make direction visible.
	contextdb.Override(detector.TypeIBAN, "", []contextdb.ContextWord{
		{Word: "compte", Weight: 0.2, Polarity: contextdb.Positive},
	})
	defer contextdb.Reset()

	e := New(DefaultConfig(), denylist.New())

	beforeDoc := docWith("compte bancaire CH9300762011623852957 reste")
	afterDoc := docWith("montant verse CH9300762011623852957 compte bancaire")
	beforeEntity := entityIn(beforeDoc, detector.TypeIBAN, "CH9300762011623852957")
	afterEntity := entityIn(afterDoc, detector.TypeIBAN, "CH9300762011623852957")

	boosted := e.Enhance(beforeDoc, beforeEntity, nil)
	trailed := e.Enhance(afterDoc, afterEntity, nil)
	if boosted.Confidence <= trailed.Confidence {
		t.Errorf("before-match (%.3f) should outweigh after-match (%.3f)", boosted.Confidence, trailed.Confidence)
	}
}

func TestEnhance_BoostIsCapped(t *testing.T) {
	cfg := DefaultConfig()
	e := New(cfg, denylist.New())
	// Pile every positive IBAN label into the window.
	doc := docWith("iban konto compte account bank bic swift CH9300762011623852957")
	entity := entityIn(doc, detector.TypeIBAN, "CH9300762011623852957")
	entity.Confidence = 0.5

	out := e.Enhance(doc, entity, nil)
	if out.Confidence > entity.Confidence+cfg.MaxBoost+1e-9 {
		t.Errorf("boost %.3f exceeds cap %.3f", out.Confidence-entity.Confidence, cfg.MaxBoost)
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Errorf("confidence out of bounds: %.3f", out.Confidence)
	}
}

func TestEnhance_PositiveFloor(t *testing.T) {
	e := New(DefaultConfig(), denylist.New())
	doc := docWith("tél: 044 123 45 67")
	entity := entityIn(doc, detector.TypePhone, "044 123 45 67")
	entity.Confidence = 0.1

	out := e.Enhance(doc, entity, nil)
	if out.Confidence < 0.4 {
		t.Errorf("positive match should floor confidence at 0.4, got %.3f", out.Confidence)
	}
}

func TestEnhance_NoFloorOnNegativeOnly(t *testing.T) {
	e := New(DefaultConfig(), denylist.New())
	doc := docWith("exemple fictif: CH9300762011623852957")
	entity := entityIn(doc, detector.TypeIBAN, "CH9300762011623852957")
	entity.Confidence = 0.3

	out := e.Enhance(doc, entity, nil)
	if out.Confidence >= entity.Confidence {
		t.Errorf("negative-only context should lower confidence, got %.3f", out.Confidence)
	}
}

func TestEnhance_DeniedEntitySkipped(t *testing.T) {
	deny := denylist.New()
	deny.AddLiteral(detector.TypePersonName, "", "montant")
	e := New(DefaultConfig(), deny)

	doc := docWith("nom: Montant Total")
	entity := entityIn(doc, detector.TypePersonName, "Montant")

	out := e.Enhance(doc, entity, nil)
	if out.Confidence != entity.Confidence {
		t.Errorf("denied entity confidence must stay unchanged, got %.3f", out.Confidence)
	}
	if out.Metadata.Denial == nil {
		t.Fatal("expected denial metadata")
	}
	if out.Metadata.Denial.Layer != "type" {
		t.Errorf("expected type layer, got %s", out.Metadata.Denial.Layer)
	}
}

func TestEnhance_RepetitionAndRelatedType(t *testing.T) {
	e := New(DefaultConfig(), denylist.New())
	doc := docWith("Jean Dupont, jean.dupont@acme.ch. Veuillez contacter Jean Dupont.")
	name := entityIn(doc, detector.TypePersonName, "Jean Dupont")
	email := entityIn(doc, detector.TypeEmail, "jean.dupont@acme.ch")

	out := e.Enhance(doc, name, []detector.Entity{name, email})

	var sawRepetition, sawRelated bool
	for _, f := range out.Context.Factors {
		if f.Name == "repetition" {
			sawRepetition = true
		}
		if f.Name == "related:"+detector.TypeEmail {
			sawRelated = true
		}
	}
	if !sawRepetition {
		t.Error("expected repetition factor for repeated mention")
	}
	if !sawRelated {
		t.Error("expected related-type factor for adjacent email")
	}
}

func TestEnhance_Reproducible(t *testing.T) {
	e := New(DefaultConfig(), denylist.New())
	doc := docWith("IBAN: CH9300762011623852957 compte bancaire")
	entity := entityIn(doc, detector.TypeIBAN, "CH9300762011623852957")

	first := e.Enhance(doc, entity, nil)
	second := e.Enhance(doc, entity, nil)
	if first.Confidence != second.Confidence {
		t.Error("enhancement must be deterministic")
	}
	if len(first.Context.Factors) != len(second.Context.Factors) {
		t.Fatal("factor lists differ between runs")
	}
	for i := range first.Context.Factors {
		if first.Context.Factors[i] != second.Context.Factors[i] {
			t.Errorf("factor %d differs between runs", i)
		}
	}
}
