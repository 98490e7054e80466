package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"exhibition/internal/domain/application"
	"exhibition/internal/domain/project"
)

// ProjectReviewer is the committee side of the backend.
type ProjectReviewer interface {
	ReviewProject(ctx context.Context, accessToken string, projectID int64, decision string) (string, error)
	ListPendingReview(ctx context.Context, accessToken string) ([]project.Project, error)
}

// ReviewDecisionInput carries input for a committee decision.
type ReviewDecisionInput struct {
	AccessToken string
	ProjectID   int64
	Decision    string
}

// ReviewDecisionDeps holds dependencies for ReviewDecision.
type ReviewDecisionDeps struct {
	Reviews ProjectReviewer
}

// ReviewDecisionResult carries the confirmation and the re-fetched queue.
type ReviewDecisionResult struct {
	Message     string
	Queue       []project.Project
	QueueLoaded bool
}

// ExecuteReviewDecision approves or rejects a project, then re-fetches the queue.
// PRE: AccessToken belongs to a committee session
// POST: The queue was fetched exactly once after the action, whether or not it succeeded
func ExecuteReviewDecision(ctx context.Context, input ReviewDecisionInput, deps ReviewDecisionDeps) (ReviewDecisionResult, error) {
	var result ReviewDecisionResult
	actionErr := validateTarget(input.ProjectID, ErrInvalidProject, project.ValidateDecision(input.Decision))
	if actionErr == nil {
		result.Message, actionErr = deps.Reviews.ReviewProject(ctx, input.AccessToken, input.ProjectID, input.Decision)
	}
	if actionErr == nil {
		slog.Info("review_event", "event", "project_"+input.Decision, "project_id", input.ProjectID)
	} else {
		slog.Info("review_event", "event", "review_failed", "project_id", input.ProjectID, "decision", input.Decision, "error", actionErr)
	}

	queue, queueErr := deps.Reviews.ListPendingReview(ctx, input.AccessToken)
	if queueErr == nil {
		result.Queue = queue
		result.QueueLoaded = true
	}
	return result, errors.Join(actionErr, queueErr)
}

// ApplicantDecider is the faculty side of the backend.
type ApplicantDecider interface {
	DecideApplication(ctx context.Context, accessToken string, applicationID int64, decision string) (application.Application, error)
}

// ApplicantDecisionInput carries input for a faculty decision on one applicant.
type ApplicantDecisionInput struct {
	AccessToken   string
	ApplicationID int64
	Decision      string
}

// ApplicantDecisionDeps holds dependencies for ApplicantDecision.
// Refresh reloads the faculty dashboard after the action.
type ApplicantDecisionDeps struct {
	Applicants ApplicantDecider
	Refresh    func(ctx context.Context) error
}

// ApplicantDecisionResult carries the updated application.
type ApplicantDecisionResult struct {
	Application application.Application
	Refreshed   bool
}

// ExecuteApplicantDecision selects or rejects an applicant, then refreshes the dashboard.
// PRE: AccessToken belongs to the faculty member who owns the project
// POST: Refresh ran exactly once after the action, whether or not it succeeded
func ExecuteApplicantDecision(ctx context.Context, input ApplicantDecisionInput, deps ApplicantDecisionDeps) (ApplicantDecisionResult, error) {
	var result ApplicantDecisionResult
	actionErr := validateTarget(input.ApplicationID, ErrInvalidApplication, application.ValidateDecision(input.Decision))
	if actionErr == nil {
		result.Application, actionErr = deps.Applicants.DecideApplication(ctx, input.AccessToken, input.ApplicationID, input.Decision)
	}
	if actionErr == nil {
		slog.Info("review_event", "event", "applicant_"+input.Decision, "application_id", input.ApplicationID)
	} else {
		slog.Info("review_event", "event", "applicant_decision_failed", "application_id", input.ApplicationID, "decision", input.Decision, "error", actionErr)
	}

	refreshErr := deps.Refresh(ctx)
	result.Refreshed = refreshErr == nil
	return result, errors.Join(actionErr, refreshErr)
}

func validateTarget(id int64, invalidID, decisionErr error) error {
	if id <= 0 {
		return invalidID
	}
	if decisionErr != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDecision, decisionErr)
	}
	return nil
}
