package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"exhibition/internal/adapters/http/middleware"
	"exhibition/internal/application/orchestrators"
	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/session"
)

// loginRoles are the choices offered on the login form. Committee members log in as faculty.
var loginRoles = []session.Role{session.RoleStudent, session.RoleFaculty}

type loginData struct {
	Username string
	Claimed  string
	Roles    []session.Role
}

// signupData refills the signup form. The password is never echoed.
type signupData struct {
	Username   string
	Role       string
	RollNumber string
	Course     string
	Department string
	Roles      []session.Role
}

// userMessage maps err to the text shown to the user.
func userMessage(err error) string {
	switch {
	case errors.Is(err, orchestrators.ErrSubmissionInFlight):
		return "Your application for this project is already being submitted."
	case errors.Is(err, orchestrators.ErrInvalidProject),
		errors.Is(err, orchestrators.ErrInvalidApplication),
		errors.Is(err, orchestrators.ErrInvalidDecision):
		return "That action is not available."
	}
	return failure.UserMessage(err)
}

// statusFor maps err to the response status for script callers.
func statusFor(err error) int {
	var ve *failure.ValidationError
	var ne *failure.NetworkError
	switch {
	case errors.Is(err, orchestrators.ErrSubmissionInFlight):
		return http.StatusConflict
	case errors.Is(err, orchestrators.ErrInvalidProject),
		errors.Is(err, orchestrators.ErrInvalidApplication),
		errors.Is(err, orchestrators.ErrInvalidDecision):
		return http.StatusBadRequest
	case errors.As(err, &ve):
		if ve.Status >= 400 && ve.Status < 500 {
			return ve.Status
		}
		return http.StatusBadRequest
	case errors.As(err, &ne):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// reportFailure logs errors the user only sees as the generic message.
func reportFailure(r *http.Request, err error) {
	if userMessage(err) == failure.GenericMessage {
		slog.Error("internal_error", "error", err.Error(), "path", r.URL.Path)
	}
}

// denied ends the session and sends the caller to the login page when err
// is an access denial or a lost session. It reports whether it responded.
func (s *Server) denied(w http.ResponseWriter, r *http.Request, err error) bool {
	if !failure.IsAccessDenied(err) && !errors.Is(err, orchestrators.ErrNoSession) {
		return false
	}
	slog.Info("auth_event", "event", "access_denied", "path", r.URL.Path, "error", err)
	if clearErr := orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutDeps{Session: middleware.SessionFrom(r.Context())}); clearErr != nil {
		slog.Error("internal_error", "error", clearErr.Error(), "path", r.URL.Path)
	}
	middleware.ClearSessionCookie(w)
	middleware.Deny(w, r)
	return true
}

func pathID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRoot handles GET / by sending the user to their role's landing page.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sess, err := middleware.SessionFrom(r.Context()).Load(r.Context())
	switch {
	case errors.Is(err, orchestrators.ErrNoSession):
		http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
	case err != nil:
		internalError(w, r, err)
	default:
		http.Redirect(w, r, sess.ResolvedRole.Landing(), http.StatusSeeOther)
	}
}

// handleLoginPage handles GET /login
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	v := view{
		Title: "Log in",
		Data:  loginData{Claimed: session.RoleStudent.String(), Roles: loginRoles},
	}
	if r.URL.Query().Get("signup") == "ok" {
		v.Notice = "Account created. You can log in now."
	}
	s.page(w, r, http.StatusOK, "login", v)
}

// handleLogin handles POST /login
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.LoginInput{
		Username:    r.FormValue("username"),
		Password:    r.FormValue("password"),
		ClaimedRole: r.FormValue("role"),
	}

	sc := middleware.RotateSession(w, r)
	result, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
		Auth:     s.backend,
		Rosters:  s.backend,
		Subjects: s.subjects,
		Session:  sc,
		Now:      s.now,
	})
	if err != nil {
		reportFailure(r, err)
		status := http.StatusUnauthorized
		if failure.IsAccessDenied(err) {
			status = http.StatusForbidden
		}
		s.page(w, r, status, "login", view{
			Title: "Log in",
			Error: userMessage(err),
			Data:  loginData{Username: input.Username, Claimed: input.ClaimedRole, Roles: loginRoles},
		})
		return
	}
	http.Redirect(w, r, result.Landing, http.StatusSeeOther)
}

// handleSignupPage handles GET /signup
func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.page(w, r, http.StatusOK, "signup", view{
		Title: "Sign up",
		Data:  signupData{Role: session.RoleStudent.String(), Roles: loginRoles},
	})
}

// handleSignup handles POST /signup
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	input := orchestrators.SignupInput{
		Username:   r.FormValue("username"),
		Password:   r.FormValue("password"),
		Role:       r.FormValue("role"),
		RollNumber: r.FormValue("roll_number"),
		Course:     r.FormValue("course"),
		Department: r.FormValue("department"),
	}
	if _, err := orchestrators.ExecuteSignup(r.Context(), input, orchestrators.SignupDeps{Accounts: s.backend}); err != nil {
		reportFailure(r, err)
		s.page(w, r, statusFor(err), "signup", view{
			Title: "Sign up",
			Error: userMessage(err),
			Data: signupData{
				Username:   input.Username,
				Role:       input.Role,
				RollNumber: input.RollNumber,
				Course:     input.Course,
				Department: input.Department,
				Roles:      loginRoles,
			},
		})
		return
	}
	http.Redirect(w, r, middleware.LoginPath+"?signup=ok", http.StatusSeeOther)
}

// handleLogout handles POST /logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := orchestrators.ExecuteLogout(r.Context(), orchestrators.LogoutDeps{Session: middleware.SessionFrom(r.Context())}); err != nil {
		internalError(w, r, err)
		return
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// handlePerf handles GET /admin/perf?minutes=N
func (s *Server) handlePerf(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		http.Error(w, "performance collection is disabled", http.StatusNotFound)
		return
	}
	minutes := 15
	if v, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && v > 0 && v <= 24*60 {
		minutes = v
	}
	since := s.now().Add(-time.Duration(minutes) * time.Minute)
	middleware.WriteJSON(w, http.StatusOK, s.collector.Snapshot(since, 10))
}
