// Package failure holds the error taxonomy shared by the backend client,
// the orchestrators and the HTTP boundary. Match with errors.As.
package failure

import (
	"errors"
	"fmt"
)

// GenericMessage is shown when no server-provided message is available.
const GenericMessage = "Something went wrong. Please try again."

// AuthError is a rejected login (bad credentials or incomplete form).
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return "login rejected"
	}
	return "login rejected: " + e.Message
}

// AccessDenied is a role mismatch or a 403 from the backend.
type AccessDenied struct {
	Reason string
}

func (e *AccessDenied) Error() string {
	if e.Reason == "" {
		return "access denied"
	}
	return "access denied: " + e.Reason
}

// RoleResolutionError means the token subject could not be mapped to exactly one role.
type RoleResolutionError struct {
	Subject string
	Reason  string
	Err     error
}

func (e *RoleResolutionError) Error() string {
	msg := "role resolution failed"
	if e.Subject != "" {
		msg += " for subject " + e.Subject
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RoleResolutionError) Unwrap() error { return e.Err }

// NetworkError is a transport failure or a non-2xx response with no actionable body.
type NetworkError struct {
	Op     string // e.g. "GET /api/projects/"
	Status int    // 0 when the request never completed
	Err    error
}

func (e *NetworkError) Error() string {
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": request failed"
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError is a 4xx response carrying a human-readable message.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsAccessDenied reports whether err should force a redirect to the login page.
func IsAccessDenied(err error) bool {
	var ad *AccessDenied
	return errors.As(err, &ad)
}

// UserMessage returns the text to show the user for err.
// Server-provided messages are passed through verbatim; anything else gets GenericMessage.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Message != "" {
		return ve.Message
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		if ae.Message != "" {
			return ae.Message
		}
		return "Invalid username or password."
	}
	var ad *AccessDenied
	if errors.As(err, &ad) {
		return "You do not have access to that page. Please log in again."
	}
	var re *RoleResolutionError
	if errors.As(err, &re) {
		return "We could not determine your role for this account."
	}
	return GenericMessage
}
