package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"exhibition/internal/domain/session"
)

// CommitteeApplicant submits committee membership requests.
type CommitteeApplicant interface {
	ApplyCommittee(ctx context.Context, accessToken string, a session.CommitteeApplication) (session.RosterRecord, error)
}

// CommitteeApplyInput carries a faculty member's committee application.
type CommitteeApplyInput struct {
	AccessToken string
	Application session.CommitteeApplication
}

// CommitteeApplyDeps holds dependencies for CommitteeApply.
type CommitteeApplyDeps struct {
	Committees CommitteeApplicant
	Refresh    func(ctx context.Context) error
}

// CommitteeApplyResult carries the unapproved membership record.
type CommitteeApplyResult struct {
	Membership session.RosterRecord
	Refreshed  bool
}

var committeeMessages = map[error]string{
	session.ErrEmptyDegree:         "Please enter your highest degree.",
	session.ErrEmptySpecialization: "Please enter your specialization.",
	session.ErrNegativeExperience:  "Years of experience cannot be negative.",
}

// ExecuteCommitteeApply asks to join the review committee, then refreshes the dashboard.
// The session role does not change; an admin approval plus a new login grants committee access.
// POST: Refresh ran exactly once after the action, whether or not it succeeded
func ExecuteCommitteeApply(ctx context.Context, input CommitteeApplyInput, deps CommitteeApplyDeps) (CommitteeApplyResult, error) {
	var result CommitteeApplyResult
	actionErr := invalid(input.Application.Validate(), committeeMessages)
	if actionErr == nil {
		result.Membership, actionErr = deps.Committees.ApplyCommittee(ctx, input.AccessToken, input.Application)
	}
	if actionErr == nil {
		slog.Info("review_event", "event", "committee_applied", "committee_id", result.Membership.ID)
	} else {
		slog.Info("review_event", "event", "committee_apply_failed", "error", actionErr)
	}

	refreshErr := deps.Refresh(ctx)
	result.Refreshed = refreshErr == nil
	return result, errors.Join(actionErr, refreshErr)
}
