// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package validators assembles the format validators into a registry keyed
// by entity type. The validator contract itself lives in detector so the
// subpackages stay leaf imports.
package validators

import (
	"piisift/internal/detector"
	"piisift/internal/validators/avs"
	"piisift/internal/validators/date"
	"piisift/internal/validators/email"
	"piisift/internal/validators/iban"
	"piisift/internal/validators/phone"
	"piisift/internal/validators/postalcode"
	"piisift/internal/validators/vat"
)

// Registry maps entity types to their format validators.
type Registry struct {
	byType map[string]detector.Validator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byType: make(map[string]detector.Validator)}
}

// BuildDefaultRegistry constructs the standard validator set, optionally
// filtered by a toggle map. A nil map enables every validator; with a
// non-nil map, only an explicit false disables a validator.
func BuildDefaultRegistry(enabledChecks map[string]bool) *Registry {
	r := NewRegistry()
	all := []detector.Validator{
		iban.NewValidator(),
		avs.NewValidator(),
		vat.NewValidator(),
		phone.NewValidator(),
		email.NewValidator(),
		date.NewValidator(),
		postalcode.NewValidator(),
	}
	for _, v := range all {
		if enabled, ok := enabledChecks[v.Type()]; ok && !enabled {
			continue
		}
		r.Register(v)
	}
	return r
}

// Register adds a validator, replacing any existing one for the same type.
func (r *Registry) Register(v detector.Validator) {
	r.byType[v.Type()] = v
}

// Lookup returns the validator for an entity type, if one is registered.
func (r *Registry) Lookup(entityType string) (detector.Validator, bool) {
	v, ok := r.byType[entityType]
	return v, ok
}

// Validate runs the registered validator for the entity's type. The third
// return value is false when no validator covers the type; the entity then
// stays unchecked.
func (r *Registry) Validate(e detector.Entity) (detector.ValidationResult, bool) {
	v, ok := r.byType[e.Type]
	if !ok {
		return detector.ValidationResult{}, false
	}
	if len(e.Text) > detector.MaxValidatorInput {
		return detector.InvalidResult("input exceeds maximum validator length"), true
	}
	return v.Validate(e.Text), true
}

// Types returns the registered entity types.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	return out
}
