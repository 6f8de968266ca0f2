// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

// Package errors provides structured error handling for coapattr.
package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// ErrInvalidInput indicates invalid input data.
	ErrInvalidInput = errors.New("invalid input")

	// ErrProtocolViolation indicates a protocol-level error.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrInvalidEntityTag indicates an entity tag that is too long or cannot be parsed.
	ErrInvalidEntityTag = errors.New("invalid entity tag")

	// ErrInvalidOptionValue indicates an option value that cannot be coerced to the option's wire type.
	ErrInvalidOptionValue = errors.New("invalid option value")

	// ErrUnsupportedOption indicates an option that was not accepted and has been left out.
	ErrUnsupportedOption = errors.New("unsupported option")

	// ErrInvalidLink indicates a malformed discovery link.
	ErrInvalidLink = errors.New("invalid link")

	// ErrMethodNotAllowed indicates a request method outside the resource's allowed set.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// EntityTagError describes a rejected entity tag source.
type EntityTagError struct {
	Input  string // Offending input, as text
	Length int    // Observed length in bytes: of the tag, or of the input text if it could not be converted
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *EntityTagError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %q has length %d: %v", ErrInvalidEntityTag, e.Input, e.Length, e.Err)
	}
	return fmt.Sprintf("%v: %q has length %d, exceeds 8 bytes", ErrInvalidEntityTag, e.Input, e.Length)
}

// Unwrap returns the underlying error.
func (e *EntityTagError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidEntityTag}
	}
	return []error{ErrInvalidEntityTag, e.Err}
}

// OptionError wraps an option coercion or validation failure with the option identity.
type OptionError struct {
	Option string // Option name or alias
	Number uint16 // Option number
	Value  any    // Rejected value
	Err    error  // Underlying error
}

// Error implements the error interface.
func (e *OptionError) Error() string {
	name := e.Option
	if name == "" {
		name = fmt.Sprint(e.Number)
	}
	if e.Value == nil {
		return fmt.Sprintf("option %s (%d): %v", name, e.Number, e.Err)
	}
	return fmt.Sprintf("option %s (%d) value %v: %v", name, e.Number, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *OptionError) Unwrap() error {
	return e.Err
}

// NewOption creates a new OptionError. When err does not already carry a
// classification, it is marked as ErrInvalidOptionValue.
func NewOption(name string, number uint16, value any, err error) error {
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrInvalidOptionValue) && !errors.Is(err, ErrUnsupportedOption) {
		err = fmt.Errorf("%w: %w", ErrInvalidOptionValue, err)
	}
	return &OptionError{
		Option: name,
		Number: number,
		Value:  value,
		Err:    err,
	}
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New returns an error that formats as the given text.
func New(text string) error {
	return errors.New(text)
}
