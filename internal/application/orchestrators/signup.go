package orchestrators

import (
	"context"
	"log/slog"
	"strings"

	"exhibition/internal/domain/session"
)

// AccountCreator registers new accounts.
type AccountCreator interface {
	Signup(ctx context.Context, s session.Signup) (string, error)
}

// SignupInput carries the raw signup form.
type SignupInput struct {
	Username   string
	Password   string
	Role       string
	RollNumber string
	Course     string
	Department string
}

// SignupDeps holds dependencies for Signup.
type SignupDeps struct {
	Accounts AccountCreator
}

// SignupResult carries the backend confirmation.
type SignupResult struct {
	Message string
	Role    session.Role
}

var signupMessages = map[error]string{
	session.ErrEmptyUsername: "Please choose a username.",
	session.ErrEmptyPassword: "Please choose a password.",
	session.ErrSignupRole:    "Please choose whether you are a student or faculty member.",
}

// ExecuteSignup creates a student or faculty account. It does not log the user in.
// POST: On success the account can log in with the claimed role
func ExecuteSignup(ctx context.Context, input SignupInput, deps SignupDeps) (SignupResult, error) {
	role, err := session.ParseRole(input.Role)
	if err != nil {
		role = session.RoleNone
	}
	s := session.Signup{
		Username: strings.TrimSpace(input.Username),
		Password: input.Password,
		Role:     role,
	}
	switch role {
	case session.RoleStudent:
		s.RollNumber = strings.TrimSpace(input.RollNumber)
		s.Course = strings.TrimSpace(input.Course)
	case session.RoleFaculty:
		s.Department = strings.TrimSpace(input.Department)
	}
	if err := invalid(s.Validate(), signupMessages); err != nil {
		return SignupResult{}, err
	}

	msg, err := deps.Accounts.Signup(ctx, s)
	if err != nil {
		slog.Info("auth_event", "event", "signup_failed", "username", s.Username, "error", err)
		return SignupResult{}, err
	}
	slog.Info("auth_event", "event", "signup_success", "username", s.Username, "role", role.String())
	return SignupResult{Message: msg, Role: role}, nil
}
