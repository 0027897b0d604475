// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs an ordered sequence of detection passes over a
// document. The pipeline owns ordering and timing; each pass owns its own
// semantics.
package pipeline

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"piisift/internal/detector"
	"piisift/internal/observability"
)

// PassTiming records one executed pass.
type PassTiming struct {
	Name     string
	Order    int
	Duration time.Duration
	Input    int // entities handed to the pass
	Output   int // entities returned by the pass
}

// Result is the outcome of one pipeline run. RunID is a ULID, so results
// sort chronologically by ID.
type Result struct {
	RunID    string
	Document string
	Entities []detector.Entity
	Timings  []PassTiming
	// Counters are the per-run pass statistics, such as how many matches
	// the deny-list filter dropped and how many entities the context
	// window boosted. Only this run's counts appear here.
	Counters map[string]int64
	Started  time.Time
	Elapsed  time.Duration
}

type registered struct {
	pass detector.Pass
	seq  int // registration order, breaks Order ties
}

// Pipeline executes registered passes in ascending Order. Registration
// order breaks ties, so two passes with the same Order run in the order
// they were added.
type Pipeline struct {
	mu      sync.Mutex
	passes  []registered
	nextSeq int
	logger  *logrus.Logger
	entropy *ulid.MonotonicEntropy
}

// New creates an empty pipeline. A nil logger disables logging.
func New(logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Pipeline{
		logger:  logger,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// Register adds a pass. Registering the same pass name twice replaces the
// earlier registration but keeps its position in tie-breaking.
func (p *Pipeline) Register(pass detector.Pass) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.passes {
		if r.pass.Name() == pass.Name() {
			p.passes[i].pass = pass
			return
		}
	}
	p.passes = append(p.passes, registered{pass: pass, seq: p.nextSeq})
	p.nextSeq++
}

// Remove drops the pass with the given name. Removing an unknown name is a
// no-op.
func (p *Pipeline) Remove(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.passes {
		if r.pass.Name() == name {
			p.passes = append(p.passes[:i], p.passes[i+1:]...)
			return
		}
	}
}

// Passes returns the registered passes in execution order.
func (p *Pipeline) Passes() []detector.Pass {
	p.mu.Lock()
	defer p.mu.Unlock()
	ordered := p.ordered()
	out := make([]detector.Pass, len(ordered))
	for i, r := range ordered {
		out[i] = r.pass
	}
	return out
}

func (p *Pipeline) ordered() []registered {
	ordered := append([]registered(nil), p.passes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].pass.Order() != ordered[j].pass.Order() {
			return ordered[i].pass.Order() < ordered[j].pass.Order()
		}
		return ordered[i].seq < ordered[j].seq
	})
	return ordered
}

// Run executes all passes over the document. An empty document yields an
// empty result without invoking any pass. A pass error aborts the run and
// is returned wrapped with the pass name.
func (p *Pipeline) Run(ctx context.Context, doc detector.Document) (Result, error) {
	p.mu.Lock()
	ordered := p.ordered()
	runID := ulid.MustNew(ulid.Timestamp(time.Now()), p.entropy).String()
	p.mu.Unlock()

	result := Result{
		RunID:    runID,
		Document: doc.ID,
		Started:  time.Now(),
	}
	log := observability.ForRun(p.logger, runID, doc.ID)

	if doc.Text == "" {
		result.Elapsed = time.Since(result.Started)
		log.Debug("empty document, skipping passes")
		return result, nil
	}

	var entities []detector.Entity
	for _, r := range ordered {
		if err := ctx.Err(); err != nil {
			return result, errors.Wrap(err, "pipeline cancelled")
		}

		passStart := time.Now()
		out, err := r.pass.Execute(doc, entities)
		elapsed := time.Since(passStart)
		if err != nil {
			return result, errors.Wrapf(err, "pass %s", r.pass.Name())
		}

		result.Timings = append(result.Timings, PassTiming{
			Name:     r.pass.Name(),
			Order:    r.pass.Order(),
			Duration: elapsed,
			Input:    len(entities),
			Output:   len(out),
		})
		if reporter, ok := r.pass.(detector.CounterReporter); ok {
			for key, count := range reporter.DrainCounters() {
				if result.Counters == nil {
					result.Counters = make(map[string]int64)
				}
				result.Counters[key] += count
			}
		}
		log.WithFields(logrus.Fields{
			"pass":        r.pass.Name(),
			"duration_ms": elapsed.Milliseconds(),
			"in":          len(entities),
			"out":         len(out),
		}).Debug("pass complete")
		entities = out
	}

	result.Entities = entities
	result.Elapsed = time.Since(result.Started)
	fields := logrus.Fields{
		"entities":   len(entities),
		"elapsed_ms": result.Elapsed.Milliseconds(),
	}
	for key, count := range result.Counters {
		fields[key] = count
	}
	log.WithFields(fields).Info("run complete")
	return result, nil
}
