package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"exhibition/internal/adapters/http/middleware"
	"exhibition/internal/application/orchestrators"
	"exhibition/internal/application/projections"
	"exhibition/internal/domain/application"
	"exhibition/internal/domain/project"
	"exhibition/internal/domain/session"
)

type reviewData struct {
	Queue  []project.Project
	Loaded bool
}

// handleReview handles GET /review
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)

	queue, err := projections.QueryReviewQueue(ctx,
		projections.ReviewQueueQuery{AccessToken: sess.AccessToken},
		projections.ReviewQueueDeps{Reviews: s.backend},
	)
	if s.denied(w, r, err) {
		return
	}
	v := view{Title: "Review queue", Data: reviewData{Queue: queue.Projects, Loaded: err == nil}}
	if err != nil {
		reportFailure(r, err)
		v.Error = userMessage(err)
	}
	s.page(w, r, http.StatusOK, "review", v)
}

// handleReviewDecision handles POST /review/projects/{id}/{decision}
// The page is rendered from the re-fetched queue, never from a local removal.
func (s *Server) handleReviewDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)

	result, err := orchestrators.ExecuteReviewDecision(ctx, orchestrators.ReviewDecisionInput{
		AccessToken: sess.AccessToken,
		ProjectID:   pathID(r),
		Decision:    r.PathValue("decision"),
	}, orchestrators.ReviewDecisionDeps{Reviews: s.backend})
	if s.denied(w, r, err) {
		return
	}

	v := view{Title: "Review queue", Data: reviewData{Queue: result.Queue, Loaded: result.QueueLoaded}}
	status := http.StatusOK
	if err != nil {
		reportFailure(r, err)
		v.Error = userMessage(err)
		status = statusFor(err)
	} else {
		v.Notice = result.Message
	}
	s.page(w, r, status, "review", v)
}

// facultyData backs the faculty page. The drafts refill the forms after a failed submit.
type facultyData struct {
	Dashboard      projections.FacultyDashboardResult
	Loaded         bool
	Draft          project.Proposal
	CommitteeDraft session.CommitteeApplication
	Difficulties   []string
}

func newFacultyData(dash projections.FacultyDashboardResult, loaded bool) facultyData {
	return facultyData{
		Dashboard:    dash,
		Loaded:       loaded,
		Draft:        project.Proposal{Difficulty: project.DifficultyMedium, Seats: project.DefaultSeats},
		Difficulties: []string{project.DifficultyEasy, project.DifficultyMedium, project.DifficultyHard},
	}
}

func (s *Server) facultyDashboard(ctx context.Context, sess session.Session) (projections.FacultyDashboardResult, error) {
	return projections.QueryFacultyDashboard(ctx,
		projections.FacultyDashboardQuery{AccessToken: sess.AccessToken, Subject: sess.SubjectID},
		projections.FacultyDashboardDeps{Faculty: s.backend, Committees: s.backend},
	)
}

// formInt reads an integer form field. Empty gives fallback, garbage gives -1.
func formInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

// handleFaculty handles GET /faculty
func (s *Server) handleFaculty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)

	dash, err := s.facultyDashboard(ctx, sess)
	if s.denied(w, r, err) {
		return
	}
	v := view{Title: "My projects", Data: newFacultyData(dash, err == nil)}
	if err != nil {
		reportFailure(r, err)
		v.Error = userMessage(err)
	}
	s.page(w, r, http.StatusOK, "faculty", v)
}

// handleApplicantDecision handles POST /faculty/applications/{id}/{decision}
func (s *Server) handleApplicantDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)

	var dash projections.FacultyDashboardResult
	decision := r.PathValue("decision")
	result, err := orchestrators.ExecuteApplicantDecision(ctx, orchestrators.ApplicantDecisionInput{
		AccessToken:   sess.AccessToken,
		ApplicationID: pathID(r),
		Decision:      decision,
	}, orchestrators.ApplicantDecisionDeps{
		Applicants: s.backend,
		Refresh: func(ctx context.Context) error {
			var err error
			dash, err = s.facultyDashboard(ctx, sess)
			return err
		},
	})
	if s.denied(w, r, err) {
		return
	}

	v := view{Title: "My projects", Data: newFacultyData(dash, result.Refreshed)}
	status := http.StatusOK
	if err != nil {
		reportFailure(r, err)
		v.Error = userMessage(err)
		status = statusFor(err)
	} else if decision == application.DecisionSelect {
		v.Notice = "Applicant selected."
	} else {
		v.Notice = "Applicant rejected."
	}
	s.page(w, r, status, "faculty", v)
}

// handleProposeProject handles POST /faculty/projects
func (s *Server) handleProposeProject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	proposal := project.Proposal{
		Title:      r.FormValue("title"),
		Abstract:   r.FormValue("abstract"),
		Timeline:   r.FormValue("timeline"),
		Difficulty: r.FormValue("difficulty"),
		Seats:      formInt(r, "seats", project.DefaultSeats),
	}

	var dash projections.FacultyDashboardResult
	result, err := orchestrators.ExecuteProposeProject(ctx, orchestrators.ProposeProjectInput{
		AccessToken: sess.AccessToken,
		Proposal:    proposal,
	}, orchestrators.ProposeProjectDeps{
		Projects: s.backend,
		Refresh: func(ctx context.Context) error {
			var err error
			dash, err = s.facultyDashboard(ctx, sess)
			return err
		},
	})
	if s.denied(w, r, err) {
		return
	}

	data := newFacultyData(dash, result.Refreshed)
	v := view{Title: "My projects"}
	status := http.StatusOK
	if err != nil {
		reportFailure(r, err)
		v.Error = userMessage(err)
		status = statusFor(err)
		if result.Project.ID == 0 {
			data.Draft = proposal
		}
	} else {
		v.Notice = "Project proposed. Students will see it once the committee approves it."
	}
	v.Data = data
	s.page(w, r, status, "faculty", v)
}

// handleCommitteeApply handles POST /faculty/committee
func (s *Server) handleCommitteeApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}
	app := session.CommitteeApplication{
		Degree:            strings.TrimSpace(r.FormValue("degree")),
		Specialization:    strings.TrimSpace(r.FormValue("specialization")),
		YearsOfExperience: formInt(r, "years_of_experience", 0),
		Bio:               strings.TrimSpace(r.FormValue("bio")),
	}

	var dash projections.FacultyDashboardResult
	result, err := orchestrators.ExecuteCommitteeApply(ctx, orchestrators.CommitteeApplyInput{
		AccessToken: sess.AccessToken,
		Application: app,
	}, orchestrators.CommitteeApplyDeps{
		Committees: s.backend,
		Refresh: func(ctx context.Context) error {
			var err error
			dash, err = s.facultyDashboard(ctx, sess)
			return err
		},
	})
	if s.denied(w, r, err) {
		return
	}

	data := newFacultyData(dash, result.Refreshed)
	v := view{Title: "My projects"}
	status := http.StatusOK
	if err != nil {
		reportFailure(r, err)
		v.Error = userMessage(err)
		status = statusFor(err)
		if result.Membership.ID == 0 {
			data.CommitteeDraft = app
		}
	} else {
		v.Notice = "Committee application submitted. An administrator will review it."
	}
	v.Data = data
	s.page(w, r, status, "faculty", v)
}
