package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"exhibition/internal/adapters/email"
	"exhibition/internal/domain/application"
	"exhibition/internal/domain/project"
)

// ApplicationCreator submits an application for the bearer's student record.
type ApplicationCreator interface {
	CreateApplication(ctx context.Context, accessToken string, projectID int64) (application.Application, error)
}

// ProjectLister lists the projects visible to the bearer.
type ProjectLister interface {
	ListProjects(ctx context.Context, accessToken string) ([]project.Project, error)
}

// MyApplicationLister lists the bearer's own applications.
type MyApplicationLister interface {
	ListMyApplications(ctx context.Context, accessToken string) ([]application.Application, error)
}

// ApplyInput carries input for the apply orchestrator.
type ApplyInput struct {
	SessionKey  string
	AccessToken string
	Identity    string
	ProjectID   int64
}

// ApplyDeps holds dependencies for Apply.
type ApplyDeps struct {
	Applications   ApplicationCreator
	Projects       ProjectLister
	MyApplications MyApplicationLister
	InFlight       *InFlight
	Mailer         email.Sender // nil disables receipts
	MailFrom       string
}

// ApplyResult carries the created application and the re-fetched views.
type ApplyResult struct {
	Application  application.Application
	Projects     []project.Project
	Applications []application.Application
}

// ExecuteApply submits one application and re-fetches the dependent views.
// PRE: ProjectID > 0; AccessToken belongs to a student session
// POST: On success the catalog and my-applications were each fetched exactly once
// after the POST returned; on failure nothing was re-fetched
// INVARIANT: At most one POST per (SessionKey, ProjectID) is in flight
func ExecuteApply(ctx context.Context, input ApplyInput, deps ApplyDeps) (ApplyResult, error) {
	if input.ProjectID <= 0 {
		return ApplyResult{}, ErrInvalidProject
	}
	if !deps.InFlight.TryBegin(input.SessionKey, input.ProjectID) {
		slog.Info("application_event", "event", "apply_duplicate", "project_id", input.ProjectID)
		return ApplyResult{}, ErrSubmissionInFlight
	}

	app, err := deps.Applications.CreateApplication(ctx, input.AccessToken, input.ProjectID)
	deps.InFlight.End(input.SessionKey, input.ProjectID)
	if err != nil {
		slog.Info("application_event", "event", "apply_failed", "project_id", input.ProjectID, "error", err)
		return ApplyResult{}, err
	}
	slog.Info("application_event", "event", "apply_success", "project_id", input.ProjectID, "application_id", app.ID)

	result := ApplyResult{Application: app}
	projects, projectsErr := deps.Projects.ListProjects(ctx, input.AccessToken)
	apps, appsErr := deps.MyApplications.ListMyApplications(ctx, input.AccessToken)
	if err := errors.Join(projectsErr, appsErr); err != nil {
		return result, err
	}
	result.Projects = projects
	result.Applications = apps

	sendReceipt(ctx, input, deps, result)
	return result, nil
}

// sendReceipt mails a best-effort confirmation when the login identity is an address.
func sendReceipt(ctx context.Context, input ApplyInput, deps ApplyDeps, result ApplyResult) {
	if deps.Mailer == nil || !strings.Contains(input.Identity, "@") {
		return
	}
	r := email.Receipt{
		To:            input.Identity,
		Student:       input.Identity,
		ApplicationID: result.Application.ID,
		Status:        string(result.Application.Status),
		AppliedAt:     result.Application.AppliedAt,
	}
	for _, p := range result.Projects {
		if p.ID == input.ProjectID {
			r.ProjectTitle = p.Title
			break
		}
	}
	req, err := email.ReceiptRequest(r, deps.MailFrom)
	if err == nil {
		_, err = deps.Mailer.Send(ctx, req)
	}
	if err != nil {
		slog.Warn("receipt_failed", "application_id", result.Application.ID, "error", err)
	}
}
