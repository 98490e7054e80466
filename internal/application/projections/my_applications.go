package projections

import (
	"context"

	"exhibition/internal/domain/application"
	"exhibition/internal/domain/project"
)

// MaxApplications is the backend's per-student application limit.
const MaxApplications = 3

// MyApplicationLister lists the student's own applications.
type MyApplicationLister interface {
	ListMyApplications(ctx context.Context, accessToken string) ([]application.Application, error)
}

// MyApplicationsQuery carries query parameters for the student's applications.
type MyApplicationsQuery struct {
	AccessToken string
}

// MyApplicationsDeps holds dependencies for MyApplications.
type MyApplicationsDeps struct {
	Applications MyApplicationLister
}

// MyApplicationRow is one application joined with its project title.
type MyApplicationRow struct {
	Application  application.Application
	ProjectTitle string
}

// MyApplicationsResult carries the student's applications.
type MyApplicationsResult struct {
	Rows      []MyApplicationRow
	Remaining int // applications the student may still submit
}

// QueryMyApplications fetches the student's applications.
// projects is the catalog already on the page; it is only used for titles.
func QueryMyApplications(ctx context.Context, query MyApplicationsQuery, deps MyApplicationsDeps, projects []project.Project) (MyApplicationsResult, error) {
	apps, err := deps.Applications.ListMyApplications(ctx, query.AccessToken)
	if err != nil {
		return MyApplicationsResult{}, err
	}
	return BuildMyApplications(apps, projects), nil
}

// BuildMyApplications joins applications with project titles.
func BuildMyApplications(apps []application.Application, projects []project.Project) MyApplicationsResult {
	titles := make(map[int64]string, len(projects))
	for _, p := range projects {
		titles[p.ID] = p.Title
	}
	rows := make([]MyApplicationRow, 0, len(apps))
	for _, a := range apps {
		rows = append(rows, MyApplicationRow{Application: a, ProjectTitle: titles[a.ProjectID]})
	}
	remaining := MaxApplications - len(apps)
	if remaining < 0 {
		remaining = 0
	}
	return MyApplicationsResult{Rows: rows, Remaining: remaining}
}
