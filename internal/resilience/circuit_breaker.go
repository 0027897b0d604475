// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resilience

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// BreakerState is the circuit breaker state machine position.
type BreakerState int

const (
	StateClosed   BreakerState = iota // normal operation
	StateOpen                         // failing fast
	StateHalfOpen                     // probing whether the endpoint recovered
)

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// BreakerConfig tunes the circuit breaker guarding the inference endpoint.
type BreakerConfig struct {
	Name             string
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successes in half-open before closing
	OpenTimeout      time.Duration // wait before probing again
	MaxProbes        int           // concurrent-ish requests allowed half-open
	IsFailure        func(error) bool
	OnStateChange    func(name string, from, to BreakerState)
}

// DefaultBreakerConfig returns the endpoint defaults. Only transient
// errors count as failures; a fatal error is the caller's problem, not the
// endpoint's.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		MaxProbes:        2,
		IsFailure: func(err error) bool {
			return err != nil && Classify(err).Retryable()
		},
	}
}

// CircuitBreaker fails fast once the inference endpoint keeps failing, so
// a stuck model does not stall every document in the batch.
type CircuitBreaker struct {
	cfg BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	probes      int
	lastFailure time.Time
}

// NewCircuitBreaker creates a breaker in the closed state.
func NewCircuitBreaker(cfg BreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold == 0 {
		cfg = DefaultBreakerConfig(cfg.Name)
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Execute runs the operation if the breaker admits it.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Operation) error {
	if err := cb.admit(); err != nil {
		return err
	}
	err := op(ctx)
	cb.record(err)
	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if time.Since(cb.lastFailure) >= cb.cfg.OpenTimeout {
			cb.transition(StateHalfOpen)
			cb.probes = 0
			return nil
		}
		return &BreakerOpenError{Name: cb.cfg.Name, State: cb.state}
	case StateHalfOpen:
		if cb.probes >= cb.cfg.MaxProbes {
			return &BreakerOpenError{Name: cb.cfg.Name, State: cb.state}
		}
		cb.probes++
		return nil
	default:
		return fmt.Errorf("breaker %s in unknown state %d", cb.cfg.Name, cb.state)
	}
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	failure := err != nil
	if cb.cfg.IsFailure != nil {
		failure = cb.cfg.IsFailure(err)
	}
	if failure {
		cb.failures++
		cb.lastFailure = time.Now()
		switch cb.state {
		case StateClosed:
			if cb.failures >= cb.cfg.FailureThreshold {
				cb.transition(StateOpen)
			}
		case StateHalfOpen:
			cb.transition(StateOpen)
			cb.probes = 0
		}
		return
	}

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.successes++
		if cb.successes >= cb.cfg.SuccessThreshold {
			cb.transition(StateClosed)
			cb.failures = 0
			cb.successes = 0
			cb.probes = 0
		}
	}
}

func (cb *CircuitBreaker) transition(next BreakerState) {
	if cb.state == next {
		return
	}
	prev := cb.state
	cb.state = next
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, prev, next)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Reset forces the breaker back to closed.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transition(StateClosed)
	cb.failures = 0
	cb.successes = 0
	cb.probes = 0
	cb.lastFailure = time.Time{}
}

// BreakerOpenError is returned when the breaker refuses an operation.
type BreakerOpenError struct {
	Name  string
	State BreakerState
}

func (e *BreakerOpenError) Error() string {
	return fmt.Sprintf("breaker %s is %s, refusing request", e.Name, e.State)
}

// IsBreakerOpen reports whether an error came from a refusing breaker.
func IsBreakerOpen(err error) bool {
	_, ok := err.(*BreakerOpenError)
	return ok
}
