// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package validators

import (
	"testing"

	"piisift/internal/detector"
)

func TestBuildDefaultRegistry_AllTypes(t *testing.T) {
	r := BuildDefaultRegistry(nil)
	for _, entityType := range []string{
		detector.TypeIBAN, detector.TypeSwissAVS, detector.TypeVAT,
		detector.TypePhone, detector.TypeEmail, detector.TypeDate, detector.TypePostalCode,
	} {
		if _, ok := r.Lookup(entityType); !ok {
			t.Errorf("expected validator registered for %s", entityType)
		}
	}
}

func TestBuildDefaultRegistry_ExplicitFalseDisables(t *testing.T) {
	r := BuildDefaultRegistry(map[string]bool{detector.TypePhone: false})
	if _, ok := r.Lookup(detector.TypePhone); ok {
		t.Error("PHONE should be disabled")
	}
	if _, ok := r.Lookup(detector.TypeIBAN); !ok {
		t.Error("IBAN is absent from the map and must stay enabled")
	}
}

func TestBuildDefaultRegistry_AbsentKeysStayEnabled(t *testing.T) {
	// A single explicit toggle must not switch off the other validators.
	r := BuildDefaultRegistry(map[string]bool{detector.TypeIBAN: false})
	for _, entityType := range []string{
		detector.TypeSwissAVS, detector.TypeVAT, detector.TypePhone,
		detector.TypeEmail, detector.TypeDate, detector.TypePostalCode,
	} {
		if _, ok := r.Lookup(entityType); !ok {
			t.Errorf("%s must stay enabled when only IBAN is toggled off", entityType)
		}
	}
	if _, ok := r.Lookup(detector.TypeIBAN); ok {
		t.Error("IBAN should be disabled")
	}
}

func TestRegistry_ValidateOversizedInput(t *testing.T) {
	r := BuildDefaultRegistry(nil)
	long := make([]byte, detector.MaxValidatorInput+1)
	for i := range long {
		long[i] = '1'
	}
	e := detector.NewEntity(detector.TypeIBAN, string(long), 0, len(long), 0.6, detector.SourceRule)
	result, checked := r.Validate(e)
	if !checked {
		t.Fatal("oversized input must still be checked")
	}
	if result.Valid {
		t.Error("oversized input must be invalid")
	}
}

func TestRegistry_ValidateUnregisteredType(t *testing.T) {
	r := BuildDefaultRegistry(nil)
	e := detector.NewEntity(detector.TypePersonName, "Jean Dupont", 0, 11, 0.6, detector.SourceRule)
	if _, checked := r.Validate(e); checked {
		t.Error("PERSON_NAME has no validator and must stay unchecked")
	}
}
