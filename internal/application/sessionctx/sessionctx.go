// Package sessionctx binds one browser session key to the token store for
// the duration of a request. Handlers receive it explicitly; nothing reads
// session state from package globals.
package sessionctx

import (
	"context"
	"errors"
	"log/slog"
	"time"

	sessionStore "exhibition/internal/adapters/storage/session"
	"exhibition/internal/domain/session"
)

// ErrNoSession is returned when the browser has no usable session.
var ErrNoSession = errors.New("no active session")

// Store is the persistence contract the context needs.
type Store interface {
	Load(ctx context.Context, key string) (session.Session, error)
	Save(ctx context.Context, key string, value session.Session) error
	Delete(ctx context.Context, key string) error
}

// Context is the explicit per-request session handle.
// It is not safe for concurrent use; each request gets its own.
type Context struct {
	key    string
	store  Store
	ttl    time.Duration
	now    func() time.Time
	cached *session.Session
}

// New creates a Context for key. A non-positive ttl disables expiry.
func New(key string, store Store, ttl time.Duration) *Context {
	return &Context{key: key, store: store, ttl: ttl, now: time.Now}
}

// WithClock replaces the clock used for expiry checks.
func (c *Context) WithClock(now func() time.Time) *Context {
	c.now = now
	return c
}

// Key returns the browser session key.
func (c *Context) Key() string {
	return c.key
}

// Load returns the stored session.
// PRE: none
// POST: Returns ErrNoSession when absent, unreadable or older than the TTL;
// expired and unreadable rows are deleted
func (c *Context) Load(ctx context.Context) (session.Session, error) {
	if c.cached != nil {
		return *c.cached, nil
	}
	if c.key == "" {
		return session.Session{}, ErrNoSession
	}

	s, err := c.store.Load(ctx, c.key)
	switch {
	case errors.Is(err, sessionStore.ErrNotFound):
		return session.Session{}, ErrNoSession
	case errors.Is(err, sessionStore.ErrSealedValue):
		slog.Warn("session_unreadable", "error", err)
		_ = c.store.Delete(ctx, c.key)
		return session.Session{}, ErrNoSession
	case err != nil:
		return session.Session{}, err
	}

	if s.Expired(c.now(), c.ttl) {
		slog.Info("auth_event", "event", "session_expired", "subject_id", s.SubjectID)
		_ = c.store.Delete(ctx, c.key)
		return session.Session{}, ErrNoSession
	}
	c.cached = &s
	return s, nil
}

// Save validates and persists s under this context's key.
// PRE: s has a token, a subject and a resolved role satisfying the claimed role
// POST: s is durable and returned by subsequent Load calls
func (c *Context) Save(ctx context.Context, s session.Session) error {
	if c.key == "" {
		return ErrNoSession
	}
	if err := s.Validate(); err != nil {
		return err
	}
	if err := c.store.Save(ctx, c.key, s); err != nil {
		return err
	}
	c.cached = &s
	return nil
}

// Clear deletes the stored session. Clearing an absent session is not an error.
func (c *Context) Clear(ctx context.Context) error {
	c.cached = nil
	if c.key == "" {
		return nil
	}
	return c.store.Delete(ctx, c.key)
}
