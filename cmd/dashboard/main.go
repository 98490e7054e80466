package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exhibition/internal/adapters/backend"
	emailPkg "exhibition/internal/adapters/email"
	web "exhibition/internal/adapters/http"
	"exhibition/internal/adapters/http/perf"
	"exhibition/internal/adapters/storage"
	sessionStore "exhibition/internal/adapters/storage/session"
	"exhibition/internal/config"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// janitorInterval is how often expired sessions and idle rate-limit buckets are dropped.
const janitorInterval = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	slog.SetDefault(slog.New(logHandler(cfg)))

	db, driver, err := storage.Open(cfg.DB)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	slog.Info("database_ready", "driver", driver)

	// Performance instrumentation: one collector for requests, backend calls and queries
	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	sealer, err := sessionStore.NewSealer(cfg.TokenKey)
	if err != nil {
		log.Fatalf("failed to create token sealer: %v", err)
	}
	sessions := sessionStore.NewSQLStore(timedDB, driver, sealer)

	api, err := backend.New(cfg.APIURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithCollector(collector),
		backend.WithSlowThreshold(cfg.SlowUpstreamMs),
	)
	if err != nil {
		log.Fatalf("failed to create backend client: %v", err)
	}

	var mailer emailPkg.Sender
	if cfg.ResendKey != "" {
		mailer = emailPkg.NewResendSender(cfg.ResendKey, cfg.EmailFrom)
		slog.Info("email_sender", "provider", "resend")
	} else {
		mailer = emailPkg.NewNoopSender()
		slog.Info("email_sender", "provider", "noop")
	}

	server, err := web.NewServer(web.Options{
		CSRFKey:        cfg.CSRFKey,
		Secure:         cfg.Production(),
		TrustedOrigins: cfg.TrustedOrigins,
		SessionTTL:     cfg.SessionTTL,
		RateLimit:      cfg.RateLimit,
		SlowRequestMs:  cfg.SlowRequestMs,
		MailFrom:       cfg.EmailFrom,
	}, web.Deps{
		Backend:   api,
		Subjects:  backend.NewSubjectDecoder(),
		Sessions:  sessions,
		Mailer:    mailer,
		Collector: collector,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go janitor(ctx, sessions, server, cfg.SessionTTL)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown_failed", "error", err)
		}
	}()

	slog.Info("server_starting", "version", version, "addr", cfg.Addr, "env", cfg.Env, "api", cfg.APIURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func logHandler(cfg config.Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

// janitor periodically removes expired session rows and idle rate-limit visitors.
func janitor(ctx context.Context, sessions *sessionStore.SQLStore, server *web.Server, ttl time.Duration) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if ttl > 0 {
				n, err := sessions.DeleteExpired(ctx, now.Add(-ttl))
				if err != nil {
					slog.Error("internal_error", "error", err.Error(), "op", "delete_expired_sessions")
				} else if n > 0 {
					slog.Info("auth_event", "event", "sessions_expired", "count", n)
				}
			}
			if n := server.Limiter().Sweep(janitorInterval); n > 0 {
				slog.Debug("rate_limit_swept", "count", n)
			}
		}
	}
}
