package orchestrators

import (
	"context"
	"log/slog"
)

// SessionClearer removes the session for the current browser.
type SessionClearer interface {
	Clear(ctx context.Context) error
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Session SessionClearer
}

// ExecuteLogout destroys the current session. Logging out twice is a no-op.
func ExecuteLogout(ctx context.Context, deps LogoutDeps) error {
	if err := deps.Session.Clear(ctx); err != nil {
		return err
	}
	slog.Info("auth_event", "event", "logout")
	return nil
}
