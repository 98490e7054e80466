package projections

import (
	"context"
	"log/slog"

	"exhibition/internal/domain/application"
	"exhibition/internal/domain/project"
	"exhibition/internal/domain/session"
)

// FacultyLister lists a faculty member's projects and their applicants.
type FacultyLister interface {
	ListMyProjects(ctx context.Context, accessToken string) ([]project.Project, error)
	ListFacultyApplications(ctx context.Context, accessToken string) ([]application.Application, error)
}

// CommitteeLister lists committee memberships.
type CommitteeLister interface {
	ListCommittees(ctx context.Context, accessToken string) ([]session.RosterRecord, error)
}

// FacultyDashboardQuery carries query parameters for the faculty dashboard.
type FacultyDashboardQuery struct {
	AccessToken string
	Subject     session.SubjectID
}

// FacultyDashboardDeps holds dependencies for the faculty dashboard.
// A nil Committees skips the membership lookup.
type FacultyDashboardDeps struct {
	Faculty    FacultyLister
	Committees CommitteeLister
}

// CommitteeStatus is the viewer's standing with the review committee.
type CommitteeStatus uint8

const (
	CommitteeUnknown CommitteeStatus = iota // lookup skipped or failed
	CommitteeNone
	CommitteePending
	CommitteeApproved
)

func (c CommitteeStatus) String() string {
	switch c {
	case CommitteeNone:
		return "none"
	case CommitteePending:
		return "pending"
	case CommitteeApproved:
		return "approved"
	}
	return "unknown"
}

// CanApply reports whether the apply form should be offered.
func (c CommitteeStatus) CanApply() bool {
	return c == CommitteeNone
}

// FacultyStats are the summary tiles at the top of the dashboard.
type FacultyStats struct {
	Total        int
	Approved     int
	Pending      int
	Applications int
}

// FacultyProject is one owned project with its applicants.
type FacultyProject struct {
	Project    project.Project
	Applicants []application.Application
}

// FacultyDashboardResult carries the faculty dashboard.
type FacultyDashboardResult struct {
	Stats     FacultyStats
	Projects  []FacultyProject
	Committee CommitteeStatus
}

// QueryFacultyDashboard fetches owned projects and applicants.
// PRE: AccessToken belongs to a faculty (or committee) session
// POST: Applicants are grouped under their project; applicants of unknown projects are dropped
// POST: A failed committee lookup leaves Committee unknown and does not fail the view
func QueryFacultyDashboard(ctx context.Context, query FacultyDashboardQuery, deps FacultyDashboardDeps) (FacultyDashboardResult, error) {
	projects, err := deps.Faculty.ListMyProjects(ctx, query.AccessToken)
	if err != nil {
		return FacultyDashboardResult{}, err
	}
	apps, err := deps.Faculty.ListFacultyApplications(ctx, query.AccessToken)
	if err != nil {
		return FacultyDashboardResult{}, err
	}

	byProject := make(map[int64][]application.Application, len(projects))
	for _, a := range apps {
		byProject[a.ProjectID] = append(byProject[a.ProjectID], a)
	}

	var result FacultyDashboardResult
	result.Projects = make([]FacultyProject, 0, len(projects))
	for _, p := range projects {
		result.Stats.Total++
		switch p.Status {
		case project.StatusApproved:
			result.Stats.Approved++
		case project.StatusPending:
			result.Stats.Pending++
		}
		result.Stats.Applications += p.ApplicationsCount
		result.Projects = append(result.Projects, FacultyProject{Project: p, Applicants: byProject[p.ID]})
	}
	if deps.Committees != nil {
		result.Committee = committeeStatus(ctx, query, deps.Committees)
	}
	return result, nil
}

func committeeStatus(ctx context.Context, query FacultyDashboardQuery, committees CommitteeLister) CommitteeStatus {
	records, err := committees.ListCommittees(ctx, query.AccessToken)
	if err != nil {
		slog.Warn("committee lookup failed", "subject_id", query.Subject, "error", err)
		return CommitteeUnknown
	}
	for _, r := range records {
		if r.User != query.Subject {
			continue
		}
		if r.Approved {
			return CommitteeApproved
		}
		return CommitteePending
	}
	return CommitteeNone
}
