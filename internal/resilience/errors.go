// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package resilience classifies inference errors and retries the transient
// ones with bounded exponential backoff.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// ErrorClass separates errors worth retrying from errors that will fail
// identically on every attempt.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassTransient
	ClassFatal
)

func (c ErrorClass) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ClassifiedError wraps an inference error with its class.
type ClassifiedError struct {
	Original error
	Class    ErrorClass
	Reason   string
}

func (e *ClassifiedError) Error() string {
	if e.Original != nil {
		return e.Original.Error()
	}
	return e.Reason
}

func (e *ClassifiedError) Unwrap() error { return e.Original }

// Retryable reports whether another attempt can succeed.
func (e *ClassifiedError) Retryable() bool { return e.Class == ClassTransient }

// fatalPatterns match errors that no amount of retrying fixes. They are
// checked before the transient patterns, so an error mentioning both kinds
// of symptom stays fatal.
var fatalPatterns = []string{
	"malformed",
	"invalid input",
	"model not found",
	"out of memory",
	"bad request",
	"unauthorized",
	"forbidden",
	"unprocessable",
	"status 400",
	"status 401",
	"status 403",
	"status 404",
	"status 422",
}

var transientPatterns = []string{
	"timeout",
	"deadline exceeded",
	"connection refused",
	"connection reset",
	"rate limit",
	"throttl",
	"too many requests",
	"model is loading",
	"model loading",
	"service unavailable",
	"internal server error",
	"bad gateway",
	"status 500",
	"status 502",
	"status 503",
	"status 504",
	"status 429",
}

// Classify assigns an error class. Fatal message patterns take precedence
// over transient ones; network and timeout errors without a recognizable
// message classify as transient.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	message := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(message, p) {
			return &ClassifiedError{Original: err, Class: ClassFatal, Reason: p}
		}
	}
	for _, p := range transientPatterns {
		if strings.Contains(message, p) {
			return &ClassifiedError{Original: err, Class: ClassTransient, Reason: p}
		}
	}
	if isNetworkError(err) {
		return &ClassifiedError{Original: err, Class: ClassTransient, Reason: "network error"}
	}

	return &ClassifiedError{Original: err, Class: ClassUnknown, Reason: "unclassified"}
}

// IsRetryable reports whether the error classifies as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return Classify(err).Retryable()
}

func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH)
}

// NewTransientError builds a pre-classified transient error.
func NewTransientError(reason string, cause error) *ClassifiedError {
	return &ClassifiedError{Original: cause, Class: ClassTransient, Reason: reason}
}

// NewFatalError builds a pre-classified fatal error.
func NewFatalError(reason string, cause error) *ClassifiedError {
	return &ClassifiedError{Original: cause, Class: ClassFatal, Reason: reason}
}
