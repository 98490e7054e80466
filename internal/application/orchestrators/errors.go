package orchestrators

import (
	"errors"

	"exhibition/internal/application/sessionctx"
)

// Orchestrator sentinels. Backend failures use the failure package types instead.
var (
	ErrNoSession          = sessionctx.ErrNoSession
	ErrSubmissionInFlight = errors.New("an application for this project is already being submitted")
	ErrInvalidProject     = errors.New("project id must be positive")
	ErrInvalidApplication = errors.New("application id must be positive")
	ErrInvalidDecision    = errors.New("invalid decision")
)
