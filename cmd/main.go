// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"piisift/internal/anonymizer"
	"piisift/internal/config"
	"piisift/internal/contextenhancer"
	"piisift/internal/denylist"
	"piisift/internal/detector"
	"piisift/internal/mlmetrics"
	"piisift/internal/observability"
	"piisift/internal/output"
	"piisift/internal/passes"
	"piisift/internal/pipeline"
	"piisift/internal/validators"
	"piisift/internal/version"
)

// cliFlags holds command line flag values before merging with the config.
type cliFlags struct {
	file           string
	format         string
	language       string
	configFile     string
	profile        string
	outputFile     string
	minConfidence  float64
	showMatch      bool
	showComponents bool
	noColor        bool
	verbose        bool
	debug          bool
	anonymize      bool
	listFormats    bool
	showVersion    bool
}

func parseFlags() *cliFlags {
	flags := &cliFlags{}
	flag.StringVar(&flags.file, "file", "", "File to scan (- or empty reads stdin)")
	flag.StringVar(&flags.format, "format", "", "Output format (text, json)")
	flag.StringVar(&flags.language, "language", "", "Document language hint (en, fr, de, it)")
	flag.StringVar(&flags.configFile, "config", "", "Path to configuration file")
	flag.StringVar(&flags.profile, "profile", "", "Configuration profile to apply")
	flag.StringVar(&flags.outputFile, "output", "", "Write the report to a file instead of stdout")
	flag.Float64Var(&flags.minConfidence, "min-confidence", -1, "Hide entities below this confidence (0..1)")
	flag.BoolVar(&flags.showMatch, "show-match", false, "Print matched text (the matches are PII)")
	flag.BoolVar(&flags.showComponents, "show-components", false, "Keep individual address components in the output")
	flag.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")
	flag.BoolVar(&flags.verbose, "verbose", false, "Detailed per-entity output")
	flag.BoolVar(&flags.debug, "debug", false, "Debug logging")
	flag.BoolVar(&flags.anonymize, "anonymize", false, "Print the anonymized document instead of a report")
	flag.BoolVar(&flags.listFormats, "list-formats", false, "List available output formats")
	flag.BoolVar(&flags.showVersion, "version", false, "Print version information")
	flag.Parse()
	return flags
}

// isFlagSet reports whether a flag was given explicitly, so config file
// values only apply when the flag is absent.
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// resolveSettings merges config defaults, the active profile and explicit
// command line flags, flags winning.
func resolveSettings(cfg *config.Config, flags *cliFlags) config.Settings {
	settings := cfg.Defaults
	if settings.Format == "" {
		settings.Format = "text"
	}
	if isFlagSet("format") {
		settings.Format = flags.format
	}
	if isFlagSet("language") {
		settings.Language = flags.language
	}
	if isFlagSet("min-confidence") {
		settings.MinConfidence = flags.minConfidence
	}
	if flags.noColor {
		settings.NoColor = true
	}
	if flags.verbose {
		settings.Verbose = true
	}
	if flags.debug {
		settings.Debug = true
	}
	if flags.showMatch {
		settings.ShowMatches = true
	}
	if flags.showComponents {
		settings.ShowComponents = true
	}
	if flags.anonymize {
		settings.Anonymize = true
	}
	return settings
}

func readDocument(path string) (id, text string, err error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return path, string(data), nil
}

// metricsCollector builds the run metrics collector when the config asks
// for one.
func metricsCollector(cfg *config.Config, reg prometheus.Registerer) (*mlmetrics.Collector, error) {
	if cfg.Metrics.RingCapacity == 0 && !cfg.Metrics.EnablePrometheus {
		return nil, nil
	}
	collector := mlmetrics.NewCollector(cfg.Metrics.RingCapacity)
	if cfg.Metrics.EnablePrometheus {
		if err := collector.EnablePrometheus(reg); err != nil {
			return nil, err
		}
	}
	return collector, nil
}

// buildPipeline wires the five detection passes from the resolved settings.
func buildPipeline(cfg *config.Config, settings config.Settings, logger *logrus.Logger) (*pipeline.Pipeline, error) {
	deny := denylist.Default()
	if cfg.DenyListFile != "" {
		if err := deny.LoadFromFile(cfg.DenyListFile); err != nil {
			return nil, fmt.Errorf("load deny list: %w", err)
		}
	}

	enhancerCfg := contextenhancer.DefaultConfig()
	if cfg.Context.WindowSize > 0 {
		enhancerCfg.WindowSize = cfg.Context.WindowSize
	}
	for entityType, size := range cfg.Context.WindowOverrides {
		enhancerCfg.WindowOverrides[entityType] = size
	}
	if cfg.Context.ReviewThreshold > 0 {
		enhancerCfg.ReviewThreshold = cfg.Context.ReviewThreshold
	}

	addressCfg := passes.DefaultAddressRelationshipConfig()
	addressCfg.ShowComponents = settings.ShowComponents

	consolidationCfg := passes.DefaultConsolidationConfig()
	if cfg.Address.MaxGap > 0 {
		consolidationCfg.AddressMaxGap = cfg.Address.MaxGap
	}
	if cfg.Address.MinComponents > 0 {
		consolidationCfg.MinAddressComponents = cfg.Address.MinComponents
	}

	registry := validators.BuildDefaultRegistry(cfg.EnabledValidators())

	p := pipeline.New(logger)
	p.Register(passes.NewHighRecall(passes.HighRecallConfig{FilterDenied: settings.FilterDenied}, deny))
	p.Register(passes.NewFormatValidation(passes.DefaultFormatValidationConfig(), registry))
	p.Register(passes.NewContextScoring(contextenhancer.New(enhancerCfg, deny)))
	p.Register(passes.NewAddressRelationship(addressCfg))
	p.Register(passes.NewConsolidation(consolidationCfg))
	return p, nil
}

func run() error {
	flags := parseFlags()

	if flags.showVersion {
		fmt.Println(version.Info())
		return nil
	}
	if flags.listFormats {
		for _, name := range output.DefaultRegistry.List() {
			formatter, _ := output.Get(name)
			fmt.Printf("%-8s %s\n", name, formatter.Description())
		}
		return nil
	}

	var cfg *config.Config
	var err error
	if flags.configFile != "" {
		cfg, err = config.Load(flags.configFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return err
	}
	if err := cfg.ApplyProfile(flags.profile); err != nil {
		return err
	}
	settings := resolveSettings(cfg, flags)

	// Colors are pointless when the output is piped.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		settings.NoColor = true
	}

	level := "warn"
	if settings.Verbose {
		level = "info"
	}
	if settings.Debug {
		level = "debug"
	}
	logger := observability.NewLogger(observability.Config{
		Level:  level,
		Format: "text",
		Output: os.Stderr,
	})

	docID, text, err := readDocument(flags.file)
	if err != nil {
		return err
	}

	p, err := buildPipeline(cfg, settings, logger)
	if err != nil {
		return err
	}
	collector, err := metricsCollector(cfg, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	result, err := p.Run(context.Background(), detector.Document{
		ID:       docID,
		Text:     text,
		Language: settings.Language,
	})
	if collector != nil {
		collector.Add(mlmetrics.Record{
			Duration:      result.Elapsed,
			DocumentType:  "text",
			Language:      settings.Language,
			EntitiesFound: len(result.Entities),
			Failed:        err != nil,
		})
		summary := collector.Summarize()
		logger.WithFields(logrus.Fields{
			"runs":   summary.Count,
			"p50_ms": summary.P50.Milliseconds(),
			"p99_ms": summary.P99.Milliseconds(),
		}).Debug("run metrics")
	}
	if err != nil {
		return err
	}

	var report string
	if settings.Anonymize {
		anonymized := anonymizer.New(anonymizer.Config{
			MinConfidence: settings.MinConfidence,
		}).Anonymize(text, result.Entities)
		report = anonymized.Text
		if !strings.HasSuffix(report, "\n") {
			report += "\n"
		}
	} else {
		report, err = output.Export(settings.Format, &result, output.Options{
			Verbose:       settings.Verbose,
			NoColor:       settings.NoColor,
			ShowMatch:     settings.ShowMatches,
			MinConfidence: settings.MinConfidence,
		})
		if err != nil {
			return err
		}
	}

	if flags.outputFile != "" {
		return os.WriteFile(flags.outputFile, []byte(report), 0o600)
	}
	fmt.Print(report)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
