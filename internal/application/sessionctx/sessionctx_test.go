package sessionctx

import (
	"context"
	"errors"
	"testing"
	"time"

	sessionStore "exhibition/internal/adapters/storage/session"
	"exhibition/internal/domain/session"
)

func validSession(created time.Time) session.Session {
	return session.Session{
		AccessToken:  "tok",
		SubjectID:    "3",
		Identity:     "s1",
		ClaimedRole:  session.RoleStudent,
		ResolvedRole: session.RoleStudent,
		CreatedAt:    created,
	}
}

// erroringStore fails every Load with a fixed error.
type erroringStore struct {
	*sessionStore.MemoryStore
	loadErr error
}

func (e erroringStore) Load(context.Context, string) (session.Session, error) {
	return session.Session{}, e.loadErr
}

// TestContext_Lifecycle tests save, load and clear across two request contexts.
func TestContext_Lifecycle(t *testing.T) {
	store := sessionStore.NewMemoryStore()
	ctx := context.Background()

	first := New("browser-1", store, time.Hour)
	if _, err := first.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession on cold load, got %v", err)
	}
	if err := first.Save(ctx, validSession(time.Now())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := New("browser-1", store, time.Hour)
	got, err := second.Load(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ResolvedRole != session.RoleStudent {
		t.Errorf("ResolvedRole = %v", got.ResolvedRole)
	}

	other := New("browser-2", store, time.Hour)
	if _, err := other.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected sessions to be per browser key, got %v", err)
	}

	if err := second.Clear(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := New("browser-1", store, time.Hour).Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after clear, got %v", err)
	}
	if err := second.Clear(ctx); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

// TestContext_Expired tests that an old session loads as absent and is removed.
func TestContext_Expired(t *testing.T) {
	store := sessionStore.NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := store.Save(ctx, "k", validSession(now.Add(-25*time.Hour))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c := New("k", store, 24*time.Hour).WithClock(func() time.Time { return now })
	if _, err := c.Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected expired session to be deleted")
	}
}

// TestContext_SaveValidates tests that incomplete sessions are never persisted.
func TestContext_SaveValidates(t *testing.T) {
	store := sessionStore.NewMemoryStore()
	ctx := context.Background()

	s := validSession(time.Now())
	s.ResolvedRole = session.RoleNone
	if err := New("k", store, 0).Save(ctx, s); !errors.Is(err, session.ErrUnresolvedRole) {
		t.Fatalf("expected ErrUnresolvedRole, got %v", err)
	}
	s = validSession(time.Now())
	s.ClaimedRole = session.RoleFaculty
	if err := New("k", store, 0).Save(ctx, s); !errors.Is(err, session.ErrRoleNotSatisfied) {
		t.Fatalf("expected ErrRoleNotSatisfied, got %v", err)
	}
	if store.Len() != 0 {
		t.Errorf("expected nothing persisted, got %d", store.Len())
	}
	if err := New("", store, 0).Save(ctx, validSession(time.Now())); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for empty key, got %v", err)
	}
}

// TestContext_StoreErrors tests that unreadable rows are dropped and other errors surface.
func TestContext_StoreErrors(t *testing.T) {
	ctx := context.Background()

	sealed := erroringStore{MemoryStore: sessionStore.NewMemoryStore(), loadErr: sessionStore.ErrSealedValue}
	if _, err := New("k", sealed, 0).Load(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession for unreadable row, got %v", err)
	}

	boom := errors.New("disk full")
	broken := erroringStore{MemoryStore: sessionStore.NewMemoryStore(), loadErr: boom}
	if _, err := New("k", broken, 0).Load(ctx); !errors.Is(err, boom) {
		t.Errorf("expected store error, got %v", err)
	}
}
