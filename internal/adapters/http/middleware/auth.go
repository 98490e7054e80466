package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"exhibition/internal/application/orchestrators"
	"exhibition/internal/application/sessionctx"
	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/session"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const (
	sessionCtxKey contextKey = "sessionctx"
	gatedKey      contextKey = "gated"
)

const sessionCookieName = "exhibition_session"

// LoginPath is where unauthenticated and denied requests are sent.
const LoginPath = "/login"

// SessionConfig configures the Sessions middleware.
type SessionConfig struct {
	Store  sessionctx.Store
	TTL    time.Duration
	Secure bool // set the cookie's Secure flag
}

// Sessions returns middleware that binds each request to a sessionctx.Context.
// Browsers without a valid key cookie are issued a fresh random key.
// It does NOT block unauthenticated requests; use RequireRole for that.
func Sessions(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ""
			if cookie, err := r.Cookie(sessionCookieName); err == nil {
				if _, err := uuid.Parse(cookie.Value); err == nil {
					key = cookie.Value
				}
			}
			if key == "" {
				key = uuid.NewString()
				setSessionCookie(w, key, cfg)
			}
			sc := sessionctx.New(key, cfg.Store, cfg.TTL)
			ctx := context.WithValue(r.Context(), sessionCtxKey, &sessionHolder{sc: sc, cfg: cfg})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type sessionHolder struct {
	sc  *sessionctx.Context
	cfg SessionConfig
}

// SessionFrom returns the request's session context.
// PRE: the Sessions middleware ran for this request
func SessionFrom(ctx context.Context) *sessionctx.Context {
	if h, ok := ctx.Value(sessionCtxKey).(*sessionHolder); ok {
		return h.sc
	}
	return sessionctx.New("", nil, 0)
}

// RotateSession issues a new session key for the request, so a key seen
// before login is never the one that carries tokens.
// PRE: the Sessions middleware ran for this request
// POST: The new key's cookie is set and SessionFrom returns the new context
func RotateSession(w http.ResponseWriter, r *http.Request) *sessionctx.Context {
	h, ok := r.Context().Value(sessionCtxKey).(*sessionHolder)
	if !ok {
		return sessionctx.New("", nil, 0)
	}
	_ = h.sc.Clear(r.Context())
	key := uuid.NewString()
	setSessionCookie(w, key, h.cfg)
	h.sc = sessionctx.New(key, h.cfg.Store, h.cfg.TTL)
	return h.sc
}

// RequireRole returns middleware that only admits sessions whose resolved role
// satisfies required. Others are cleared and sent to the login page.
func RequireRole(required session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := orchestrators.ExecuteGate(r.Context(), orchestrators.GateInput{Required: required},
				orchestrators.GateDeps{Session: SessionFrom(r.Context())})
			if err != nil {
				if errors.Is(err, orchestrators.ErrNoSession) || failure.IsAccessDenied(err) {
					Deny(w, r)
					return
				}
				slog.Error("internal_error", "error", err, "path", r.URL.Path)
				http.Error(w, failure.GenericMessage, http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), gatedKey, res.Session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CurrentSession returns the session admitted by RequireRole.
func CurrentSession(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(gatedKey).(session.Session)
	return s, ok
}

// ContextWithSession returns a context with the given gated session set.
// Intended for use in tests.
func ContextWithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, gatedKey, s)
}

// Deny sends the caller to the login page.
// Script callers get a 401 with a JSON body naming the redirect.
func Deny(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"redirect": LoginPath})
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusSeeOther)
}

// WantsJSON reports whether the caller asked for a JSON response.
func WantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("internal_error", "error", err)
	}
}

func setSessionCookie(w http.ResponseWriter, key string, cfg SessionConfig) {
	maxAge := max(int(cfg.TTL/time.Second), 0) // 0: browser-session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    key,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   maxAge,
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
