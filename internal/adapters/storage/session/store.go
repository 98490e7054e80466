package session

import (
	"context"
	"errors"

	domain "exhibition/internal/domain/session"
)

// ErrNotFound is returned when no session is stored under a key.
var ErrNotFound = errors.New("session not found")

// Store persists dashboard sessions keyed by the browser session key.
type Store interface {
	Load(ctx context.Context, key string) (domain.Session, error)
	Save(ctx context.Context, key string, value domain.Session) error
	Delete(ctx context.Context, key string) error
}
