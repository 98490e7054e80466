package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"exhibition/internal/adapters/storage"
	domain "exhibition/internal/domain/session"
)

// SQLStore implements Store over SQLite or Postgres.
// Access and refresh tokens are sealed before they reach the database.
type SQLStore struct {
	db     storage.SQLDB
	driver string
	sealer *Sealer
	now    func() time.Time
}

// NewSQLStore creates a new SQLStore.
// PRE: db has been initialised with storage.InitDB; sealer is non-nil
func NewSQLStore(db storage.SQLDB, driver string, sealer *Sealer) *SQLStore {
	return &SQLStore{db: db, driver: driver, sealer: sealer, now: time.Now}
}

func (s *SQLStore) q(query string) string {
	return storage.Rebind(s.driver, query)
}

// Load retrieves the session stored under key.
// PRE: key is non-empty
// POST: Returns ErrNotFound when absent; tokens are returned unsealed
func (s *SQLStore) Load(ctx context.Context, key string) (domain.Session, error) {
	query := "SELECT subject_id, identity, claimed_role, resolved_role, access_token, refresh_token, created_at FROM dashboard_session WHERE session_key = ?"
	row := s.db.QueryRowContext(ctx, s.q(query), key)

	entity, sealedAccess, sealedRefresh, err := scanSession(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}

	if entity.AccessToken, err = s.sealer.Open(sealedAccess, key); err != nil {
		return domain.Session{}, fmt.Errorf("open access token: %w", err)
	}
	if sealedRefresh != "" {
		if entity.RefreshToken, err = s.sealer.Open(sealedRefresh, key); err != nil {
			return domain.Session{}, fmt.Errorf("open refresh token: %w", err)
		}
	}
	return entity, nil
}

// Save persists a session under key.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLStore) Save(ctx context.Context, key string, entity domain.Session) error {
	access, err := s.sealer.Seal(entity.AccessToken, key)
	if err != nil {
		return err
	}
	var refresh string
	if entity.RefreshToken != "" {
		if refresh, err = s.sealer.Seal(entity.RefreshToken, key); err != nil {
			return err
		}
	}

	fields := []string{"session_key", "subject_id", "identity", "claimed_role", "resolved_role", "access_token", "refresh_token", "created_at", "updated_at"}
	placeholders := strings.Repeat("?, ", len(fields)-1) + "?"
	updates := []string{
		"subject_id=excluded.subject_id",
		"identity=excluded.identity",
		"claimed_role=excluded.claimed_role",
		"resolved_role=excluded.resolved_role",
		"access_token=excluded.access_token",
		"refresh_token=excluded.refresh_token",
		"updated_at=excluded.updated_at",
	}
	query := fmt.Sprintf(
		"INSERT INTO dashboard_session (%s) VALUES (%s) ON CONFLICT(session_key) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		placeholders,
		strings.Join(updates, ", "),
	)

	_, err = s.db.ExecContext(ctx, s.q(query),
		key,
		string(entity.SubjectID),
		entity.Identity,
		entity.ClaimedRole.String(),
		entity.ResolvedRole.String(),
		access,
		refresh,
		entity.CreatedAt.UTC().Format(storage.TimeFormat),
		s.now().UTC().Format(storage.TimeFormat),
	)
	return err
}

// Delete removes the session stored under key. Deleting a missing key is not an error.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, s.q("DELETE FROM dashboard_session WHERE session_key = ?"), key)
	return err
}

// DeleteExpired removes sessions created before cutoff and returns how many went.
func (s *SQLStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.q("DELETE FROM dashboard_session WHERE created_at < ?"), cutoff.UTC().Format(storage.TimeFormat))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanSession(scan func(dest ...any) error) (domain.Session, string, string, error) {
	var entity domain.Session
	var subject, claimed, resolved, createdAt string
	var sealedAccess, sealedRefresh string
	if err := scan(&subject, &entity.Identity, &claimed, &resolved, &sealedAccess, &sealedRefresh, &createdAt); err != nil {
		return domain.Session{}, "", "", err
	}
	entity.SubjectID = domain.SubjectID(subject)

	var err error
	if claimed != "" {
		if entity.ClaimedRole, err = domain.ParseRole(claimed); err != nil {
			return domain.Session{}, "", "", fmt.Errorf("claimed role: %w", err)
		}
	}
	if resolved != "" {
		if entity.ResolvedRole, err = domain.ParseRole(resolved); err != nil {
			return domain.Session{}, "", "", fmt.Errorf("resolved role: %w", err)
		}
	}
	if entity.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.Session{}, "", "", fmt.Errorf("created_at: %w", err)
	}
	return entity, sealedAccess, sealedRefresh, nil
}
