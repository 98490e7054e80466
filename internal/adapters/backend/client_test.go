package backend

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"exhibition/internal/adapters/backend/backendtest"
	"exhibition/internal/adapters/http/perf"
	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/project"
	"exhibition/internal/domain/session"
)

func newTestClient(t *testing.T, fake *backendtest.Server, opts ...Option) *Client {
	t.Helper()
	c, err := New(fake.URL(), opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func newFake(t *testing.T) *backendtest.Server {
	t.Helper()
	fake := backendtest.New()
	t.Cleanup(fake.Close)
	return fake
}

// TestNew_RejectsBadURL tests base URL validation.
func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "ftp://example.com", "http://", "::not a url"} {
		if _, err := New(raw); err == nil {
			t.Errorf("New(%q): expected error", raw)
		}
	}
}

// TestClient_Login tests the token exchange and credential rejection.
func TestClient_Login(t *testing.T) {
	fake := newFake(t)
	fake.AddStudent("s1", "p")
	c := newTestClient(t, fake)
	ctx := context.Background()

	tok, err := c.Login(ctx, "s1", "p")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken == "" || tok.RefreshToken == "" {
		t.Errorf("expected both tokens, got %+v", tok)
	}
	if tok.Type() != "Bearer" {
		t.Errorf("expected Bearer token type, got %q", tok.Type())
	}

	_, err = c.Login(ctx, "s1", "wrong")
	var authErr *failure.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if authErr.Message != "No active account found with the given credentials" {
		t.Errorf("unexpected message: %q", authErr.Message)
	}
}

// TestClient_Rosters_ForbiddenForOtherRole tests that the backend's 403 maps to AccessDenied.
func TestClient_Rosters_ForbiddenForOtherRole(t *testing.T) {
	fake := newFake(t)
	sid := fake.AddStudent("s1", "p")
	fake.AddFaculty("f1", "p", "CSE")
	c := newTestClient(t, fake)
	ctx := context.Background()
	token := backendtest.Token(sid)

	students, err := c.ListStudents(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(students) != 1 || students[0].User != "1" {
		t.Errorf("unexpected students: %+v", students)
	}

	_, err = c.ListFaculty(ctx, token)
	if !failure.IsAccessDenied(err) {
		t.Errorf("expected AccessDenied, got %v", err)
	}
}

// TestClient_CreateApplication tests success and the verbatim validation message.
func TestClient_CreateApplication(t *testing.T) {
	fake := newFake(t)
	fid := fake.AddFaculty("f1", "p", "CSE")
	sid := fake.AddStudent("s1", "p")
	open := fake.AddProject(backendtest.Project{FacultyUser: fid, Title: "Open", SeatsAvailable: 1, IsApproved: true})
	full := fake.AddProject(backendtest.Project{FacultyUser: fid, Title: "Full", Seats: 2, SeatsAvailable: 0, IsApproved: true})
	c := newTestClient(t, fake)
	ctx := context.Background()
	token := backendtest.Token(sid)

	app, err := c.CreateApplication(ctx, token, open)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.ProjectID != open || app.Status != "pending" {
		t.Errorf("unexpected application: %+v", app)
	}
	if app.AppliedAt.IsZero() {
		t.Error("expected applied_at to be parsed")
	}

	_, err = c.CreateApplication(ctx, token, full)
	var ve *failure.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.Message != "No seats available for this project." {
		t.Errorf("unexpected message: %q", ve.Message)
	}

	projects, err := c.ListProjects(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projects[0].SeatsAvailable != 0 || projects[0].ApplicationsCount != 1 {
		t.Errorf("expected server to decrement seats, got %+v", projects[0])
	}
}

// TestClient_ExpiredToken tests that a 401 on a data call is a NetworkError, not a validation message.
func TestClient_ExpiredToken(t *testing.T) {
	fake := newFake(t)
	c := newTestClient(t, fake)

	_, err := c.ListProjects(context.Background(), "garbage")
	var ne *failure.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
	if ne.Status != 401 {
		t.Errorf("expected status 401, got %d", ne.Status)
	}
	if got := failure.UserMessage(err); got != failure.GenericMessage {
		t.Errorf("expected generic message, got %q", got)
	}
}

// TestClient_ServerError tests that a 5xx with no body is a NetworkError.
func TestClient_ServerError(t *testing.T) {
	fake := newFake(t)
	sid := fake.AddStudent("s1", "p")
	fake.FailNext("GET /api/projects/", 502, "")
	c := newTestClient(t, fake)

	_, err := c.ListProjects(context.Background(), backendtest.Token(sid))
	var ne *failure.NetworkError
	if !errors.As(err, &ne) || ne.Status != 502 {
		t.Fatalf("expected NetworkError 502, got %v", err)
	}
}

// TestClient_ReviewProject tests the committee action and its confirmation message.
func TestClient_ReviewProject(t *testing.T) {
	fake := newFake(t)
	owner := fake.AddFaculty("f1", "p", "CSE")
	reviewer := fake.AddFaculty("c1", "p", "CSE")
	fake.AddCommittee(reviewer, true)
	id := fake.AddProject(backendtest.Project{ID: 7, FacultyUser: owner, Title: "Drones", SeatsAvailable: 2})
	c := newTestClient(t, fake)
	ctx := context.Background()
	token := backendtest.Token(reviewer)

	queue, err := c.ListPendingReview(ctx, token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(queue) != 1 || queue[0].FacultyName != "F1" {
		t.Fatalf("unexpected queue: %+v", queue)
	}

	msg, err := c.ReviewProject(ctx, token, id, "reject")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Project 'Drones' rejected successfully!" {
		t.Errorf("unexpected message: %q", msg)
	}
	if fake.Calls("POST /api/projects/7/reject/") != 1 {
		t.Errorf("expected one reject call")
	}

	if _, err := c.ReviewProject(ctx, token, id, "shelve"); err == nil {
		t.Error("expected invalid decision to be rejected before any request")
	}
}

// TestClient_CreateProject tests proposal creation and the faculty-only rule.
func TestClient_CreateProject(t *testing.T) {
	fake := newFake(t)
	fid := fake.AddFaculty("f1", "p", "CSE")
	sid := fake.AddStudent("s1", "p")
	c := newTestClient(t, fake)
	ctx := context.Background()
	proposal := project.Proposal{Title: "Rover Arm", Abstract: "Arm", Timeline: "6 months", Difficulty: "easy", Seats: 2}

	p, err := c.CreateProject(ctx, backendtest.Token(fid), proposal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID == 0 || p.Title != "Rover Arm" || p.Status != project.StatusPending || p.IsApproved || p.SeatsAvailable != 2 {
		t.Errorf("unexpected project: %+v", p)
	}

	_, err = c.CreateProject(ctx, backendtest.Token(sid), proposal)
	var ve *failure.ValidationError
	if !errors.As(err, &ve) || ve.Message != "Only faculty members can create projects." {
		t.Fatalf("expected faculty-only message, got %v", err)
	}

	proposal.Difficulty = "extreme"
	_, err = c.CreateProject(ctx, backendtest.Token(fid), proposal)
	if !errors.As(err, &ve) || ve.Message != `"extreme" is not a valid choice.` {
		t.Fatalf("expected field error message, got %v", err)
	}
}

// TestClient_ApplyCommittee tests the unapproved membership and the duplicate field error.
func TestClient_ApplyCommittee(t *testing.T) {
	fake := newFake(t)
	fid := fake.AddFaculty("f1", "p", "CSE")
	sid := fake.AddStudent("s1", "p")
	c := newTestClient(t, fake)
	ctx := context.Background()
	a := session.CommitteeApplication{Degree: "PhD", Specialization: "Vision", YearsOfExperience: 4}

	rec, err := c.ApplyCommittee(ctx, backendtest.Token(fid), a)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.User != session.SubjectFromInt(fid) || rec.Approved {
		t.Errorf("unexpected record: %+v", rec)
	}

	_, err = c.ApplyCommittee(ctx, backendtest.Token(fid), a)
	var ve *failure.ValidationError
	if !errors.As(err, &ve) || ve.Message != "committee with this user already exists." {
		t.Fatalf("expected duplicate message, got %v", err)
	}

	if _, err := c.ApplyCommittee(ctx, backendtest.Token(sid), a); !failure.IsAccessDenied(err) {
		t.Errorf("expected AccessDenied for a student, got %v", err)
	}
}

// TestClient_Signup tests account creation without a token.
func TestClient_Signup(t *testing.T) {
	fake := newFake(t)
	c := newTestClient(t, fake)
	ctx := context.Background()

	msg, err := c.Signup(ctx, session.Signup{Username: "s9", Password: "p", Role: session.RoleStudent, RollNumber: "R9"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "Signup successful" {
		t.Errorf("Message = %q", msg)
	}
	if _, err := c.Login(ctx, "s9", "p"); err != nil {
		t.Fatalf("login after signup: %v", err)
	}

	_, err = c.Signup(ctx, session.Signup{Username: "s9", Password: "p", Role: session.RoleStudent})
	var ve *failure.ValidationError
	if !errors.As(err, &ve) || ve.Message != "Username already taken" {
		t.Fatalf("expected taken message, got %v", err)
	}
}

// TestClient_RecordsUpstreamTiming tests that calls land in the perf collector.
func TestClient_RecordsUpstreamTiming(t *testing.T) {
	fake := newFake(t)
	sid := fake.AddStudent("s1", "p")
	collector := perf.NewCollector(16)
	c := newTestClient(t, fake, WithCollector(collector), WithTimeout(5*time.Second))

	if _, err := c.ListMyApplications(context.Background(), backendtest.Token(sid)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	snap := collector.Snapshot(time.Now().Add(-time.Minute), 5)
	if len(snap.SlowestUpstream) != 1 || snap.SlowestUpstream[0].Path != "GET /api/applications/my/" {
		t.Errorf("unexpected upstream stats: %+v", snap.SlowestUpstream)
	}
}

// TestServerMessage covers the error body shapes the backend produces.
func TestServerMessage(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"detail": "Not found."}`, "Not found."},
		{`{"error": "Only committee members can review projects."}`, "Only committee members can review projects."},
		{`{"message": "ok"}`, "ok"},
		{`["Only students can apply to projects."]`, "Only students can apply to projects."},
		{`{"non_field_errors": ["The fields student, project must make a unique set."]}`, "The fields student, project must make a unique set."},
		{`"plain string"`, "plain string"},
		{`{"project": ["Invalid pk \"9\" - object does not exist."]}`, `Invalid pk "9" - object does not exist.`},
		{`{"title": ["This field is required."], "seats": ["Ensure this value is greater than or equal to 1."]}`, "Ensure this value is greater than or equal to 1."},
		{`{"non_field_errors": [], "project": ["Invalid pk"]}`, "Invalid pk"},
		{`{"count": 3}`, ""},
		{``, ""},
		{`<html>bad gateway</html>`, ""},
	}
	for _, tt := range tests {
		if got := serverMessage([]byte(tt.body)); got != tt.want {
			t.Errorf("serverMessage(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}

// TestSubjectDecoder tests user_id extraction, sub fallback and malformed tokens.
func TestSubjectDecoder(t *testing.T) {
	d := NewSubjectDecoder()
	ctx := context.Background()

	got, err := d.Subject(ctx, backendtest.Token(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "42" {
		t.Errorf("expected subject 42, got %q", got)
	}

	enc := base64.RawURLEncoding
	subOnly := enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." +
		enc.EncodeToString([]byte(`{"sub":"abc","exp":1}`)) + "." + enc.EncodeToString([]byte("x"))
	got, err = d.Subject(ctx, subOnly)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abc" {
		t.Errorf("expected sub fallback abc, got %q", got)
	}

	noSubject := enc.EncodeToString([]byte(`{"alg":"HS256"}`)) + "." +
		enc.EncodeToString([]byte(`{"exp":1}`)) + "." + enc.EncodeToString([]byte("x"))
	if _, err := d.Subject(ctx, noSubject); !errors.Is(err, ErrNoSubject) {
		t.Errorf("expected ErrNoSubject, got %v", err)
	}

	for _, bad := range []string{"", "not-a-jwt", "a.b"} {
		if _, err := d.Subject(ctx, bad); err == nil {
			t.Errorf("Subject(%q): expected error", bad)
		}
	}
}
