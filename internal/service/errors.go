package service

import (
	"errors"
	"strings"
)

// ErrorKind classifies scout failures so callers can branch on them
type ErrorKind string

const (
	// KindEnvironmentAuthFailure means no credential was available at call time
	KindEnvironmentAuthFailure ErrorKind = "ENVIRONMENT_AUTH_FAILURE"
	// KindCredentialRejected means the backend refused the credential
	KindCredentialRejected ErrorKind = "API_REJECTED_CREDENTIALS"
	// KindMalformedResponse means no usable value could be recovered from the backend output
	KindMalformedResponse ErrorKind = "MALFORMED_RESPONSE"
	// KindSuperseded means a newer search on the same session replaced this one
	KindSuperseded ErrorKind = "SEARCH_SUPERSEDED"
	// KindBackend covers every other backend or network failure
	KindBackend ErrorKind = "BACKEND_FAILURE"
)

// ScoutError is the error type returned by the analyzer, the searcher and Scout
type ScoutError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// Error returns "KIND: message" for classified kinds and the verbatim
// message for KindBackend
func (e *ScoutError) Error() string {
	if e.Kind == KindBackend {
		return e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *ScoutError) Unwrap() error {
	return e.Err
}

// Is matches any ScoutError of the same kind, so the sentinels below work with errors.Is
func (e *ScoutError) Is(target error) bool {
	var t *ScoutError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrEnvironmentAuth    = &ScoutError{Kind: KindEnvironmentAuthFailure}
	ErrCredentialRejected = &ScoutError{Kind: KindCredentialRejected}
	ErrMalformedResponse  = &ScoutError{Kind: KindMalformedResponse}
	ErrSuperseded         = &ScoutError{Kind: KindSuperseded}
)

// KindOf returns the kind of a ScoutError, or KindBackend for anything else
func KindOf(err error) ErrorKind {
	var se *ScoutError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindBackend
}

func errEnvironmentAuth() error {
	return &ScoutError{
		Kind:    KindEnvironmentAuthFailure,
		Message: "API_KEY variable not found in current execution context.",
	}
}

func errMalformed(message string) error {
	return &ScoutError{Kind: KindMalformedResponse, Message: message}
}

// classifyBackendError maps a transport failure onto a ScoutError.
// A structured status from the backend is preferred. Without one, a message
// mentioning "401" or "key" is treated as a rejected credential; that
// substring check is brittle and only kept for transports without status codes.
func classifyBackendError(err error, fallback string) error {
	if err == nil {
		return nil
	}

	var se *ScoutError
	if errors.As(err, &se) {
		return se
	}

	if isCredentialRejection(err) {
		return &ScoutError{
			Kind:    KindCredentialRejected,
			Message: "The provided API_KEY was rejected by Google. Verify its validity in AI Studio.",
			Err:     err,
		}
	}

	message := err.Error()
	if message == "" {
		message = fallback
	}
	return &ScoutError{Kind: KindBackend, Message: message, Err: err}
}

func isCredentialRejection(err error) bool {
	var be *BackendError
	if errors.As(err, &be) && be.StatusCode != 0 {
		switch be.StatusCode {
		case 401, 403:
			return true
		case 400:
			return be.Status == "INVALID_ARGUMENT" && strings.Contains(strings.ToLower(be.Message), "api key")
		}
		return false
	}

	message := err.Error()
	return strings.Contains(message, "401") || strings.Contains(message, "key")
}
