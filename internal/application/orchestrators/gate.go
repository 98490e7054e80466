package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/session"
)

// SessionAccessor loads and clears the session for the current browser.
type SessionAccessor interface {
	Load(ctx context.Context) (session.Session, error)
	Clear(ctx context.Context) error
}

// GateInput names the role a page requires.
type GateInput struct {
	Required session.Role
}

// GateDeps holds dependencies for Gate.
type GateDeps struct {
	Session SessionAccessor
}

// GateResult carries the session that passed the gate.
type GateResult struct {
	Session session.Session
}

// ExecuteGate decides whether the current session may view a page.
// PRE: Required is a valid role
// POST: Returns the session when its resolved role satisfies Required;
// ErrNoSession when absent; *failure.AccessDenied (and a cleared session) otherwise
func ExecuteGate(ctx context.Context, input GateInput, deps GateDeps) (GateResult, error) {
	s, err := deps.Session.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return GateResult{}, ErrNoSession
	}
	if err != nil {
		return GateResult{}, err
	}

	var denied *failure.AccessDenied
	switch {
	case !s.ResolvedRole.Valid():
		denied = &failure.AccessDenied{Reason: "session has no resolved role"}
	case !s.ResolvedRole.Satisfies(input.Required):
		denied = &failure.AccessDenied{Reason: "page requires " + input.Required.String()}
	}
	if denied != nil {
		slog.Info("auth_event", "event", "gate_denied", "subject_id", s.SubjectID,
			"resolved", s.ResolvedRole.String(), "required", input.Required.String())
		if err := deps.Session.Clear(ctx); err != nil {
			return GateResult{}, errors.Join(denied, err)
		}
		return GateResult{}, denied
	}
	return GateResult{Session: s}, nil
}
