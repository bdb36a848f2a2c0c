// Package engine implements the configuration application engine: it turns a
// parsed run specification into device mutations, one domain at a time, and
// aggregates per-domain outcomes into a single run report. One domain's
// failure never prevents the remaining domains from being attempted.
package engine

import (
	"errors"
	"fmt"

	"github.com/droidseed/droidseed/pkg/spec"
)

// ErrorClass classifies a seeding error by the stage that produced it.
type ErrorClass string

const (
	// ErrorClassMalformedInput indicates the document itself is invalid:
	// bad structure or an unknown domain name. The only class that aborts
	// a run before any device mutation.
	ErrorClassMalformedInput ErrorClass = "malformed_input"

	// ErrorClassInvalidOption indicates a recognized domain whose payload
	// failed validation. Fails that domain only.
	ErrorClassInvalidOption ErrorClass = "invalid_option"

	// ErrorClassDeviceFailure indicates a device control operation failed:
	// timeout, unreachable device, content provider or shell error.
	ErrorClassDeviceFailure ErrorClass = "device_failure"

	// ErrorClassUnregisteredDomain indicates no configurator is registered
	// for a validated domain. Defensive; treated like a device failure
	// scoped to that domain.
	ErrorClassUnregisteredDomain ErrorClass = "unregistered_domain"
)

// SeedError is a classified error with domain and item context.
type SeedError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Domain is the domain the error is scoped to, if any.
	Domain spec.Domain `json:"domain,omitempty"`

	// Item is the zero-based index of the failing item, or -1.
	Item int `json:"item,omitempty"`

	// Op is the operation being performed when the error occurred.
	Op string `json:"op,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *SeedError) Error() string {
	switch {
	case e.Domain != "" && e.Item >= 0:
		return fmt.Sprintf("[%s] %s (domain=%s, item=%d): %s",
			e.Class, e.Message, e.Domain, e.Item, e.unwrapMessage())
	case e.Domain != "":
		return fmt.Sprintf("[%s] %s (domain=%s): %s",
			e.Class, e.Message, e.Domain, e.unwrapMessage())
	default:
		return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
	}
}

// Unwrap returns the underlying error.
func (e *SeedError) Unwrap() error {
	return e.Err
}

func (e *SeedError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is matches errors of the same class.
func (e *SeedError) Is(target error) bool {
	t, ok := target.(*SeedError)
	if !ok {
		return false
	}
	return e.Class == t.Class
}

// NewMalformedInputError creates a document-level error.
func NewMalformedInputError(message string, err error) *SeedError {
	return &SeedError{Class: ErrorClassMalformedInput, Message: message, Item: -1, Err: err}
}

// NewInvalidOptionError creates a per-domain validation error.
func NewInvalidOptionError(domain spec.Domain, err error) *SeedError {
	return &SeedError{
		Class:   ErrorClassInvalidOption,
		Message: "domain spec failed validation",
		Domain:  domain,
		Item:    -1,
		Err:     err,
	}
}

// NewDeviceError creates a device operation error.
func NewDeviceError(message string, err error) *SeedError {
	return &SeedError{Class: ErrorClassDeviceFailure, Message: message, Item: -1, Err: err}
}

// NewUnregisteredDomainError creates the defensive registry miss error.
func NewUnregisteredDomainError(domain spec.Domain) *SeedError {
	return &SeedError{
		Class:   ErrorClassUnregisteredDomain,
		Message: "no configurator registered",
		Domain:  domain,
		Item:    -1,
	}
}

// WithDomain adds domain context to an error.
func (e *SeedError) WithDomain(d spec.Domain) *SeedError {
	e.Domain = d
	return e
}

// WithItem adds the failing item index to an error.
func (e *SeedError) WithItem(index int) *SeedError {
	e.Item = index
	return e
}

// WithOp adds the failing operation to an error.
func (e *SeedError) WithOp(op string) *SeedError {
	e.Op = op
	return e
}

// IsMalformedInput reports whether err is classified as malformed input.
func IsMalformedInput(err error) bool {
	return hasClass(err, ErrorClassMalformedInput)
}

// IsInvalidOption reports whether err is classified as an invalid option.
func IsInvalidOption(err error) bool {
	return hasClass(err, ErrorClassInvalidOption)
}

// IsDeviceFailure reports whether err is classified as a device failure.
func IsDeviceFailure(err error) bool {
	return hasClass(err, ErrorClassDeviceFailure)
}

// IsUnregisteredDomain reports whether err is the defensive registry miss.
func IsUnregisteredDomain(err error) bool {
	return hasClass(err, ErrorClassUnregisteredDomain)
}

func hasClass(err error, class ErrorClass) bool {
	var e *SeedError
	if errors.As(err, &e) {
		return e.Class == class
	}
	return false
}
