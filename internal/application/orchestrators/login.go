package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/session"
)

// Authenticator exchanges credentials for a token pair.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*oauth2.Token, error)
}

// SessionWriter persists the session for the current browser.
type SessionWriter interface {
	Save(ctx context.Context, s session.Session) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username    string
	Password    string
	ClaimedRole string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	Subject session.SubjectID
	Role    session.Role
	Landing string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Auth     Authenticator
	Rosters  RosterLister
	Subjects SubjectDecoder
	Session  SessionWriter
	Now      func() time.Time
}

// ExecuteLogin authenticates, resolves the role and persists the session.
// PRE: none
// POST: On success a session exists whose resolved role satisfies the claimed role
// INVARIANT: Nothing is persisted when authentication, resolution or the role check fails
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return LoginResult{}, &failure.AuthError{Message: "Please enter your username and password."}
	}
	claimed, err := session.ParseRole(input.ClaimedRole)
	if err != nil {
		return LoginResult{}, &failure.AuthError{Message: "Please choose whether you are a student or faculty member."}
	}

	tok, err := deps.Auth.Login(ctx, username, input.Password)
	if err != nil {
		var authErr *failure.AuthError
		if errors.As(err, &authErr) {
			slog.Info("auth_event", "event", "login_failed", "username", username, "reason", "credentials")
		}
		return LoginResult{}, err
	}

	resolved, err := ExecuteResolveRole(ctx, ResolveRoleInput{AccessToken: tok.AccessToken}, ResolveRoleDeps{
		Rosters:  deps.Rosters,
		Subjects: deps.Subjects,
	})
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "username", username, "reason", "role_resolution")
		return LoginResult{}, err
	}

	if !resolved.Role.Satisfies(claimed) {
		slog.Info("auth_event", "event", "login_blocked", "username", username,
			"reason", "role_mismatch", "claimed", claimed.String(), "resolved", resolved.Role.String())
		return LoginResult{}, &failure.AccessDenied{
			Reason: "account is registered as " + resolved.Role.String() + ", not " + claimed.String(),
		}
	}

	s := session.Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		SubjectID:    resolved.Subject,
		Identity:     username,
		ClaimedRole:  claimed,
		ResolvedRole: resolved.Role,
		CreatedAt:    deps.Now(),
	}
	if err := deps.Session.Save(ctx, s); err != nil {
		return LoginResult{}, err
	}

	slog.Info("auth_event", "event", "login_success", "username", username, "subject_id", resolved.Subject, "role", resolved.Role.String())
	return LoginResult{Subject: resolved.Subject, Role: resolved.Role, Landing: resolved.Role.Landing()}, nil
}
