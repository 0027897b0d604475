// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package output renders scan results. Formatters register themselves into
// a registry and are selected by name.
package output

import (
	"strings"

	"github.com/pkg/errors"

	"piisift/internal/pipeline"
)

// Options control what the formatters show.
type Options struct {
	// Verbose adds the per-entity detail blocks (validation, context
	// factors, address components).
	Verbose bool
	// NoColor disables ANSI colors in the text formatter.
	NoColor bool
	// ShowMatch prints the matched text. Off by default because the
	// matched text is the PII itself.
	ShowMatch bool
	// MinConfidence hides entities below this confidence.
	MinConfidence float64
}

// Formatter renders one pipeline result.
type Formatter interface {
	Format(result *pipeline.Result, options Options) (string, error)

	// Name is the identifier used on the command line.
	Name() string

	// Description is a one-line summary for help output.
	Description() string

	// FileExtension is the recommended extension for redirected output.
	FileExtension() string
}

// Registry holds formatters by name.
type Registry struct {
	formatters map[string]Formatter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{formatters: make(map[string]Formatter)}
}

// Register adds a formatter, replacing any previous one with the same name.
func (r *Registry) Register(formatter Formatter) {
	r.formatters[formatter.Name()] = formatter
}

// Get retrieves a formatter by name.
func (r *Registry) Get(name string) (Formatter, bool) {
	formatter, exists := r.formatters[name]
	return formatter, exists
}

// List returns all registered formatter names.
func (r *Registry) List() []string {
	var names []string
	for name := range r.formatters {
		names = append(names, name)
	}
	return names
}

// DefaultRegistry is the global formatter registry.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(formatter Formatter) {
	DefaultRegistry.Register(formatter)
}

// Get looks up a formatter in the default registry.
func Get(name string) (Formatter, bool) {
	return DefaultRegistry.Get(name)
}

// Export formats a result with the named formatter.
func Export(format string, result *pipeline.Result, options Options) (string, error) {
	formatter, exists := Get(format)
	if !exists {
		return "", errors.Errorf("unsupported format %q, available: %s",
			format, strings.Join(DefaultRegistry.List(), ", "))
	}
	return formatter.Format(result, options)
}
