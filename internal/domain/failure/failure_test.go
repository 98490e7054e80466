package failure

import (
	"errors"
	"fmt"
	"testing"
)

// TestUserMessage tests which errors surface verbatim and which fall back.
func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"validation verbatim", &ValidationError{Status: 400, Message: "No seats available for this project."}, "No seats available for this project."},
		{"wrapped validation", fmt.Errorf("apply: %w", &ValidationError{Status: 400, Message: "You have already applied to this project."}), "You have already applied to this project."},
		{"empty validation", &ValidationError{Status: 400}, GenericMessage},
		{"network", &NetworkError{Op: "GET /api/projects/", Status: 500}, GenericMessage},
		{"plain", errors.New("boom"), GenericMessage},
		{"auth with detail", &AuthError{Message: "No active account found with the given credentials"}, "No active account found with the given credentials"},
		{"auth bare", &AuthError{}, "Invalid username or password."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestIsAccessDenied finds AccessDenied through wrapping and joins.
func TestIsAccessDenied(t *testing.T) {
	if !IsAccessDenied(fmt.Errorf("list: %w", &AccessDenied{Reason: "403"})) {
		t.Error("expected wrapped AccessDenied to match")
	}
	if !IsAccessDenied(errors.Join(&ValidationError{Message: "x"}, &AccessDenied{})) {
		t.Error("expected joined AccessDenied to match")
	}
	if IsAccessDenied(&NetworkError{Op: "GET /", Status: 500}) {
		t.Error("expected NetworkError not to match")
	}
}

// TestRoleResolutionError_Unwrap keeps the cause reachable.
func TestRoleResolutionError_Unwrap(t *testing.T) {
	cause := errors.New("malformed token")
	err := &RoleResolutionError{Reason: "decode", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}
