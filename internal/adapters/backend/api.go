package backend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"

	"exhibition/internal/domain/application"
	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/project"
	"exhibition/internal/domain/session"
)

// Backend paths
const (
	pathLogin               = "/api/auth/login/"
	pathSignup              = "/api/signup/"
	pathStudents            = "/api/students/"
	pathFaculty             = "/api/faculty/"
	pathCommittees          = "/api/committees/"
	pathCommitteeApply      = "/api/committees/apply/"
	pathProjects            = "/api/projects/"
	pathMyProjects          = "/api/projects/my/"
	pathPendingReview       = "/api/projects/pending_review/"
	pathApplications        = "/api/applications/"
	pathMyApplications      = "/api/applications/my/"
	pathFacultyApplications = "/api/applications/faculty_applications/"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type rosterWire struct {
	ID              int64             `json:"id"`
	User            session.SubjectID `json:"user"`
	ApprovedByAdmin bool              `json:"approved_by_admin"`
}

type projectWire struct {
	ID                int64  `json:"id"`
	Faculty           int64  `json:"faculty"`
	FacultyName       string `json:"faculty_name"`
	Title             string `json:"title"`
	Abstract          string `json:"abstract"`
	Description       string `json:"description"`
	Timeline          string `json:"timeline"`
	Difficulty        string `json:"difficulty"`
	Status            string `json:"status"`
	Seats             int    `json:"seats"`
	SeatsAvailable    int    `json:"seats_available"`
	IsApproved        bool   `json:"is_approved"`
	IsDiscarded       bool   `json:"is_discarded"`
	ApplicationsCount int    `json:"applications_count"`
	CreatedAt         string `json:"created_at"`
}

func (w projectWire) toDomain() project.Project {
	abstract := w.Abstract
	if abstract == "" {
		abstract = w.Description
	}
	return project.Project{
		ID:                w.ID,
		FacultyID:         w.Faculty,
		FacultyName:       w.FacultyName,
		Title:             w.Title,
		Abstract:          abstract,
		Timeline:          w.Timeline,
		Difficulty:        w.Difficulty,
		Status:            w.Status,
		Seats:             w.Seats,
		SeatsAvailable:    w.SeatsAvailable,
		IsApproved:        w.IsApproved,
		IsDiscarded:       w.IsDiscarded,
		ApplicationsCount: w.ApplicationsCount,
		CreatedAt:         parseTime(w.CreatedAt),
	}
}

type applicationWire struct {
	ID        int64    `json:"id"`
	Student   int64    `json:"student"`
	Project   int64    `json:"project"`
	Priority  int      `json:"priority"`
	CGPA      *float64 `json:"cgpa"`
	Skills    string   `json:"skills"`
	Status    string   `json:"status"`
	AppliedAt string   `json:"applied_at"`
}

func (w applicationWire) toDomain() application.Application {
	a := application.Application{
		ID:        w.ID,
		StudentID: w.Student,
		ProjectID: w.Project,
		Priority:  w.Priority,
		Skills:    w.Skills,
		Status:    w.Status,
		AppliedAt: parseTime(w.AppliedAt),
	}
	if w.CGPA != nil {
		a.CGPA = *w.CGPA
	}
	return a
}

type proposalRequest struct {
	Title      string `json:"title"`
	Abstract   string `json:"abstract"`
	Timeline   string `json:"timeline"`
	Difficulty string `json:"difficulty"`
	Seats      int    `json:"seats"`
}

type signupRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	RollNumber string `json:"roll_number,omitempty"`
	Course     string `json:"course,omitempty"`
	Department string `json:"department,omitempty"`
}

type committeeApplyRequest struct {
	Degree            string `json:"degree"`
	Specialization    string `json:"specialization"`
	YearsOfExperience int    `json:"years_of_experience"`
	Bio               string `json:"bio,omitempty"`
}

type createApplicationRequest struct {
	Project int64 `json:"project"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// parseTime accepts the backend's ISO-8601 timestamps; unparseable values yield the zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Login exchanges credentials for an access/refresh token pair.
// PRE: username and password are non-empty
// POST: Returns the token pair, or *failure.AuthError when the backend rejects the credentials
func (c *Client) Login(ctx context.Context, username, password string) (*oauth2.Token, error) {
	var resp loginResponse
	err := c.do(ctx, "POST", pathLogin, nil, loginRequest{Username: username, Password: password}, &resp)
	if err != nil {
		switch e := err.(type) {
		case *failure.ValidationError:
			return nil, &failure.AuthError{Message: e.Message}
		case *failure.NetworkError:
			if e.Status == 401 || e.Status == 400 {
				msg := ""
				if e.Err != nil {
					msg = e.Err.Error()
				}
				return nil, &failure.AuthError{Message: msg}
			}
		case *failure.AccessDenied:
			return nil, &failure.AuthError{Message: e.Reason}
		}
		return nil, err
	}
	if resp.Access == "" {
		return nil, &failure.AuthError{Message: "login response carried no access token"}
	}
	return &oauth2.Token{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		TokenType:    "Bearer",
	}, nil
}

// Signup creates a student or faculty account. No token is needed.
// PRE: s passes Validate
// POST: Returns the backend's confirmation message
func (c *Client) Signup(ctx context.Context, s session.Signup) (string, error) {
	req := signupRequest{
		Username:   s.Username,
		Password:   s.Password,
		Role:       s.Role.String(),
		RollNumber: s.RollNumber,
		Course:     s.Course,
		Department: s.Department,
	}
	var resp messageResponse
	if err := c.do(ctx, "POST", pathSignup, nil, req, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) listRoster(ctx context.Context, path, accessToken string) ([]session.RosterRecord, error) {
	var wire []rosterWire
	if err := c.do(ctx, "GET", path, bearer(accessToken), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]session.RosterRecord, 0, len(wire))
	for _, w := range wire {
		out = append(out, session.RosterRecord{ID: w.ID, User: w.User, Approved: w.ApprovedByAdmin})
	}
	return out, nil
}

// ListStudents returns the student roster. The backend 403s callers who are not students.
func (c *Client) ListStudents(ctx context.Context, accessToken string) ([]session.RosterRecord, error) {
	return c.listRoster(ctx, pathStudents, accessToken)
}

// ListFaculty returns the faculty roster. The backend 403s callers who are not faculty.
func (c *Client) ListFaculty(ctx context.Context, accessToken string) ([]session.RosterRecord, error) {
	return c.listRoster(ctx, pathFaculty, accessToken)
}

// ListCommittees returns committee memberships, including ones not yet approved by an admin.
func (c *Client) ListCommittees(ctx context.Context, accessToken string) ([]session.RosterRecord, error) {
	return c.listRoster(ctx, pathCommittees, accessToken)
}

// ApplyCommittee asks for committee membership. The backend stores it unapproved.
// POST: Returns the membership record as echoed by the backend
func (c *Client) ApplyCommittee(ctx context.Context, accessToken string, a session.CommitteeApplication) (session.RosterRecord, error) {
	req := committeeApplyRequest{
		Degree:            a.Degree,
		Specialization:    a.Specialization,
		YearsOfExperience: a.YearsOfExperience,
		Bio:               a.Bio,
	}
	var wire rosterWire
	if err := c.do(ctx, "POST", pathCommitteeApply, bearer(accessToken), req, &wire); err != nil {
		return session.RosterRecord{}, err
	}
	return session.RosterRecord{ID: wire.ID, User: wire.User, Approved: wire.ApprovedByAdmin}, nil
}

func (c *Client) listProjects(ctx context.Context, path, accessToken string) ([]project.Project, error) {
	var wire []projectWire
	if err := c.do(ctx, "GET", path, bearer(accessToken), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]project.Project, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// ListProjects returns every project visible to the caller, in server order.
func (c *Client) ListProjects(ctx context.Context, accessToken string) ([]project.Project, error) {
	return c.listProjects(ctx, pathProjects, accessToken)
}

// ListMyProjects returns the calling faculty member's own projects with application counts.
func (c *Client) ListMyProjects(ctx context.Context, accessToken string) ([]project.Project, error) {
	return c.listProjects(ctx, pathMyProjects, accessToken)
}

// ListPendingReview returns projects awaiting the calling committee member's review.
func (c *Client) ListPendingReview(ctx context.Context, accessToken string) ([]project.Project, error) {
	return c.listProjects(ctx, pathPendingReview, accessToken)
}

// CreateProject submits a faculty proposal.
// PRE: p is normalized and passes Validate
// POST: Returns the stored project, pending and unapproved
func (c *Client) CreateProject(ctx context.Context, accessToken string, p project.Proposal) (project.Project, error) {
	req := proposalRequest{
		Title:      p.Title,
		Abstract:   p.Abstract,
		Timeline:   p.Timeline,
		Difficulty: p.Difficulty,
		Seats:      p.Seats,
	}
	var wire projectWire
	if err := c.do(ctx, "POST", pathProjects, bearer(accessToken), req, &wire); err != nil {
		return project.Project{}, err
	}
	return wire.toDomain(), nil
}

// ReviewProject posts a committee decision (approve or reject) and returns the server message.
// PRE: projectID > 0; decision passes project.ValidateDecision
// POST: Returns the backend's confirmation message
func (c *Client) ReviewProject(ctx context.Context, accessToken string, projectID int64, decision string) (string, error) {
	if err := project.ValidateDecision(decision); err != nil {
		return "", err
	}
	var resp messageResponse
	path := fmt.Sprintf("%s%d/%s/", pathProjects, projectID, decision)
	if err := c.do(ctx, "POST", path, bearer(accessToken), struct{}{}, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CreateApplication applies the caller to a project.
// PRE: projectID > 0
// POST: Returns the created application as echoed by the backend
func (c *Client) CreateApplication(ctx context.Context, accessToken string, projectID int64) (application.Application, error) {
	var wire applicationWire
	if err := c.do(ctx, "POST", pathApplications, bearer(accessToken), createApplicationRequest{Project: projectID}, &wire); err != nil {
		return application.Application{}, err
	}
	return wire.toDomain(), nil
}

func (c *Client) listApplications(ctx context.Context, path, accessToken string) ([]application.Application, error) {
	var wire []applicationWire
	if err := c.do(ctx, "GET", path, bearer(accessToken), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]application.Application, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toDomain())
	}
	return out, nil
}

// ListMyApplications returns the calling student's applications.
func (c *Client) ListMyApplications(ctx context.Context, accessToken string) ([]application.Application, error) {
	return c.listApplications(ctx, pathMyApplications, accessToken)
}

// ListFacultyApplications returns applications to the calling faculty member's projects.
func (c *Client) ListFacultyApplications(ctx context.Context, accessToken string) ([]application.Application, error) {
	return c.listApplications(ctx, pathFacultyApplications, accessToken)
}

// DecideApplication posts a faculty decision (select or reject) on one application.
// PRE: applicationID > 0; decision passes application.ValidateDecision
// POST: Returns the application as updated by the backend
func (c *Client) DecideApplication(ctx context.Context, accessToken string, applicationID int64, decision string) (application.Application, error) {
	if err := application.ValidateDecision(decision); err != nil {
		return application.Application{}, err
	}
	var wire applicationWire
	path := fmt.Sprintf("%s%d/%s/", pathApplications, applicationID, decision)
	if err := c.do(ctx, "POST", path, bearer(accessToken), struct{}{}, &wire); err != nil {
		return application.Application{}, err
	}
	return wire.toDomain(), nil
}
