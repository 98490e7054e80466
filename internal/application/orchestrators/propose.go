package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/project"
)

// ProjectProposer creates projects on behalf of a faculty member.
type ProjectProposer interface {
	CreateProject(ctx context.Context, accessToken string, p project.Proposal) (project.Project, error)
}

// ProposeProjectInput carries input for a new project proposal.
type ProposeProjectInput struct {
	AccessToken string
	Proposal    project.Proposal
}

// ProposeProjectDeps holds dependencies for ProposeProject.
// Refresh reloads the faculty dashboard after the action.
type ProposeProjectDeps struct {
	Projects ProjectProposer
	Refresh  func(ctx context.Context) error
}

// ProposeProjectResult carries the stored project.
type ProposeProjectResult struct {
	Project   project.Project
	Refreshed bool
}

var proposalMessages = map[error]string{
	project.ErrEmptyTitle:        "Please give the project a title.",
	project.ErrTitleTooLong:      "The title can be at most 255 characters.",
	project.ErrEmptyAbstract:     "Please describe the project in the abstract.",
	project.ErrTimelineTooLong:   "The timeline can be at most 255 characters.",
	project.ErrInvalidDifficulty: "Please choose easy, medium or hard.",
	project.ErrInvalidSeats:      "A project needs at least one seat.",
}

// ExecuteProposeProject submits a proposal, then refreshes the dashboard.
// PRE: AccessToken belongs to a faculty session
// POST: Refresh ran exactly once after the action, whether or not it succeeded
// INVARIANT: An invalid proposal never reaches the backend
func ExecuteProposeProject(ctx context.Context, input ProposeProjectInput, deps ProposeProjectDeps) (ProposeProjectResult, error) {
	var result ProposeProjectResult
	p := input.Proposal.Normalize()
	actionErr := invalid(p.Validate(), proposalMessages)
	if actionErr == nil {
		result.Project, actionErr = deps.Projects.CreateProject(ctx, input.AccessToken, p)
	}
	if actionErr == nil {
		slog.Info("review_event", "event", "project_proposed", "project_id", result.Project.ID, "difficulty", p.Difficulty, "seats", p.Seats)
	} else {
		slog.Info("review_event", "event", "proposal_failed", "error", actionErr)
	}

	refreshErr := deps.Refresh(ctx)
	result.Refreshed = refreshErr == nil
	return result, errors.Join(actionErr, refreshErr)
}

// invalid turns a domain validation error into a user-facing 400.
func invalid(err error, messages map[error]string) error {
	if err == nil {
		return nil
	}
	msg, ok := messages[err]
	if !ok {
		msg = err.Error()
	}
	return &failure.ValidationError{Status: http.StatusBadRequest, Message: msg}
}
