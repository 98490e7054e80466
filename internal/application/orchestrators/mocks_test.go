package orchestrators

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	"exhibition/internal/domain/application"
	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/project"
	"exhibition/internal/domain/session"
)

var errForbidden = &failure.AccessDenied{Reason: "You do not have permission to perform this action."}

// mockRosters serves fixed rosters; a nil slice with a set error simulates a 403.
type mockRosters struct {
	students, faculty, committees              []session.RosterRecord
	studentErr, facultyErr, committeeErr       error
	studentCalls, facultyCalls, committeeCalls int
}

func (m *mockRosters) ListStudents(context.Context, string) ([]session.RosterRecord, error) {
	m.studentCalls++
	return m.students, m.studentErr
}

func (m *mockRosters) ListFaculty(context.Context, string) ([]session.RosterRecord, error) {
	m.facultyCalls++
	return m.faculty, m.facultyErr
}

func (m *mockRosters) ListCommittees(context.Context, string) ([]session.RosterRecord, error) {
	m.committeeCalls++
	return m.committees, m.committeeErr
}

type mockSubjects struct {
	subject session.SubjectID
	err     error
}

func (m mockSubjects) Subject(context.Context, string) (session.SubjectID, error) {
	return m.subject, m.err
}

type mockAuth struct {
	token *oauth2.Token
	err   error
}

func (m mockAuth) Login(context.Context, string, string) (*oauth2.Token, error) {
	return m.token, m.err
}

// mockSession is an in-memory SessionAccessor/SessionWriter.
type mockSession struct {
	current *session.Session
	saves   int
	clears  int
	loadErr error
}

func (m *mockSession) Load(context.Context) (session.Session, error) {
	if m.loadErr != nil {
		return session.Session{}, m.loadErr
	}
	if m.current == nil {
		return session.Session{}, ErrNoSession
	}
	return *m.current, nil
}

func (m *mockSession) Save(_ context.Context, s session.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.saves++
	m.current = &s
	return nil
}

func (m *mockSession) Clear(context.Context) error {
	m.clears++
	m.current = nil
	return nil
}

// mockCatalog counts calls for the apply workflow.
type mockCatalog struct {
	createFn     func(projectID int64) (application.Application, error)
	projects     []project.Project
	apps         []application.Application
	projectsErr  error
	createCalls  int
	projectCalls int
	myAppsCalls  int
}

func (m *mockCatalog) CreateApplication(_ context.Context, _ string, projectID int64) (application.Application, error) {
	m.createCalls++
	if m.createFn != nil {
		return m.createFn(projectID)
	}
	return application.Application{ID: 1, ProjectID: projectID, Status: application.StatusPending}, nil
}

func (m *mockCatalog) ListProjects(context.Context, string) ([]project.Project, error) {
	m.projectCalls++
	return m.projects, m.projectsErr
}

func (m *mockCatalog) ListMyApplications(context.Context, string) ([]application.Application, error) {
	m.myAppsCalls++
	return m.apps, nil
}

var errBoom = errors.New("boom")
