package web

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"exhibition/internal/adapters/email"
	"exhibition/internal/adapters/http/middleware"
	"exhibition/internal/adapters/http/perf"
	"exhibition/internal/application/orchestrators"
	"exhibition/internal/application/sessionctx"
	"exhibition/internal/domain/application"
	"exhibition/internal/domain/project"
	"exhibition/internal/domain/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Backend is the REST surface the dashboard consumes.
// *backend.Client satisfies it.
type Backend interface {
	Login(ctx context.Context, username, password string) (*oauth2.Token, error)
	Signup(ctx context.Context, s session.Signup) (string, error)
	ListStudents(ctx context.Context, accessToken string) ([]session.RosterRecord, error)
	ListFaculty(ctx context.Context, accessToken string) ([]session.RosterRecord, error)
	ListCommittees(ctx context.Context, accessToken string) ([]session.RosterRecord, error)
	ApplyCommittee(ctx context.Context, accessToken string, a session.CommitteeApplication) (session.RosterRecord, error)
	ListProjects(ctx context.Context, accessToken string) ([]project.Project, error)
	ListMyProjects(ctx context.Context, accessToken string) ([]project.Project, error)
	ListPendingReview(ctx context.Context, accessToken string) ([]project.Project, error)
	CreateProject(ctx context.Context, accessToken string, p project.Proposal) (project.Project, error)
	ReviewProject(ctx context.Context, accessToken string, projectID int64, decision string) (string, error)
	CreateApplication(ctx context.Context, accessToken string, projectID int64) (application.Application, error)
	ListMyApplications(ctx context.Context, accessToken string) ([]application.Application, error)
	ListFacultyApplications(ctx context.Context, accessToken string) ([]application.Application, error)
	DecideApplication(ctx context.Context, accessToken string, applicationID int64, decision string) (application.Application, error)
}

// Options holds the transport settings of the dashboard.
type Options struct {
	CSRFKey        []byte // 32 bytes
	Secure         bool   // HTTPS only cookies
	TrustedOrigins []string
	SessionTTL     time.Duration
	RateLimit      int // requests per second per IP
	SlowRequestMs  int
	MailFrom       string
}

// Deps are the collaborators a Server needs.
type Deps struct {
	Backend   Backend
	Subjects  orchestrators.SubjectDecoder
	Sessions  sessionctx.Store
	Mailer    email.Sender // nil disables receipts
	Collector *perf.Collector
	Limiter   *middleware.RateLimiter // nil builds one from Options.RateLimit
	InFlight  *orchestrators.InFlight // nil builds a fresh set
	Now       func() time.Time
}

// Server renders the dashboard and proxies user actions to the backend.
// It owns no package state; every dependency hangs off the struct.
type Server struct {
	opts      Options
	backend   Backend
	subjects  orchestrators.SubjectDecoder
	sessions  sessionctx.Store
	mailer    email.Sender
	collector *perf.Collector
	limiter   *middleware.RateLimiter
	inFlight  *orchestrators.InFlight
	pages     *pageSet
	now       func() time.Time
}

// NewServer validates deps and parses the embedded templates.
// PRE: deps.Backend, deps.Subjects and deps.Sessions are non-nil; len(opts.CSRFKey) == 32
// POST: Returns a Server ready to serve Handler()
func NewServer(opts Options, deps Deps) (*Server, error) {
	if deps.Backend == nil || deps.Subjects == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("web: backend, subject decoder and session store are required")
	}
	if len(opts.CSRFKey) != 32 {
		return nil, fmt.Errorf("web: csrf key must be 32 bytes, got %d", len(opts.CSRFKey))
	}
	pages, err := parsePages(templateFS)
	if err != nil {
		return nil, err
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	s := &Server{
		opts:      opts,
		backend:   deps.Backend,
		subjects:  deps.Subjects,
		sessions:  deps.Sessions,
		mailer:    deps.Mailer,
		collector: deps.Collector,
		limiter:   deps.Limiter,
		inFlight:  deps.InFlight,
		pages:     pages,
		now:       deps.Now,
	}
	if s.limiter == nil {
		s.limiter = middleware.NewRateLimiter(opts.RateLimit, time.Second)
	}
	if s.inFlight == nil {
		s.inFlight = orchestrators.NewInFlight()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Limiter returns the rate limiter so callers can sweep idle visitors.
func (s *Server) Limiter() *middleware.RateLimiter {
	return s.limiter
}

// Handler returns the full middleware stack around the route mux.
// Order, outermost first: RateLimit, SecurityHeaders, CSRF, Sessions, Timing.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.routes(),
		middleware.Timing(s.collector, s.opts.SlowRequestMs),
		middleware.Sessions(middleware.SessionConfig{
			Store:  s.sessions,
			TTL:    s.opts.SessionTTL,
			Secure: s.opts.Secure,
		}),
		middleware.CSRF(middleware.CSRFConfig{
			Key:            s.opts.CSRFKey,
			Secure:         s.opts.Secure,
			TrustedOrigins: s.opts.TrustedOrigins,
		}),
		middleware.SecurityHeaders,
		middleware.RateLimit(s.limiter),
	)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embedded directory always exists
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.handleLogout)
	mux.HandleFunc("GET /signup", s.handleSignupPage)
	mux.HandleFunc("POST /signup", s.handleSignup)

	student := middleware.RequireRole(session.RoleStudent)
	mux.Handle("GET /student", student(http.HandlerFunc(s.handleStudent)))
	mux.Handle("POST /student/projects/{id}/apply", student(http.HandlerFunc(s.handleApply)))

	faculty := middleware.RequireRole(session.RoleFaculty)
	mux.Handle("GET /faculty", faculty(http.HandlerFunc(s.handleFaculty)))
	mux.Handle("POST /faculty/projects", faculty(http.HandlerFunc(s.handleProposeProject)))
	mux.Handle("POST /faculty/committee", faculty(http.HandlerFunc(s.handleCommitteeApply)))
	mux.Handle("POST /faculty/applications/{id}/{decision}", faculty(http.HandlerFunc(s.handleApplicantDecision)))

	committee := middleware.RequireRole(session.RoleCommittee)
	mux.Handle("GET /review", committee(http.HandlerFunc(s.handleReview)))
	mux.Handle("POST /review/projects/{id}/{decision}", committee(http.HandlerFunc(s.handleReviewDecision)))
	mux.Handle("GET /admin/perf", committee(http.HandlerFunc(s.handlePerf)))

	return mux
}
