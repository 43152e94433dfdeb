//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package common provides shared types and utilities used across the
// policy engine packages.
package common

import "fmt"

// ErrorKind classifies a [PolicyError] for callers that need to branch on
// the failure category without string-matching the message.
type ErrorKind string

// Error kind constants shared by the parser, loader, and evaluator.
const (
	ErrKindParse       ErrorKind = "parse"
	ErrKindStructural  ErrorKind = "structural"
	ErrKindCompilation ErrorKind = "compilation"
	ErrKindRuntime     ErrorKind = "runtime"
)

// PolicyError represents a hard error encountered while parsing, loading,
// or compiling a policy. Soft/semantic failures (unknown operator, missing
// context) are never represented this way — they become complex markers
// inside a residual value, per the engine's error-handling design.
type PolicyError struct {
	Kind    ErrorKind
	Reason  string
	Details map[string]interface{}
}

// Error implements the error interface.
func (e *PolicyError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s %+v", e.Kind, e.Reason, e.Details)
}

// NewError creates a new [PolicyError] with the specified kind and message.
func NewError(kind ErrorKind, msg string) *PolicyError {
	return &PolicyError{Kind: kind, Reason: msg}
}

// NewErrorf creates a new [PolicyError] with a formatted message.
func NewErrorf(kind ErrorKind, format string, args ...interface{}) *PolicyError {
	return &PolicyError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// WithDetail attaches a structured detail key/value to the error and
// returns it for chaining.
func (e *PolicyError) WithDetail(key string, value interface{}) *PolicyError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}
