package projections

import (
	"context"

	"exhibition/internal/domain/project"
)

// PendingReviewLister lists projects awaiting committee review.
type PendingReviewLister interface {
	ListPendingReview(ctx context.Context, accessToken string) ([]project.Project, error)
}

// ReviewQueueQuery carries query parameters for the review queue.
type ReviewQueueQuery struct {
	AccessToken string
}

// ReviewQueueDeps holds dependencies for the review queue.
type ReviewQueueDeps struct {
	Reviews PendingReviewLister
}

// ReviewQueueResult carries the pending projects in server order.
type ReviewQueueResult struct {
	Projects []project.Project
}

// QueryReviewQueue fetches the committee's pending queue.
// PRE: AccessToken belongs to an approved committee member
func QueryReviewQueue(ctx context.Context, query ReviewQueueQuery, deps ReviewQueueDeps) (ReviewQueueResult, error) {
	projects, err := deps.Reviews.ListPendingReview(ctx, query.AccessToken)
	if err != nil {
		return ReviewQueueResult{}, err
	}
	return ReviewQueueResult{Projects: projects}, nil
}
