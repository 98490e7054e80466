package projections

import (
	"context"

	"exhibition/internal/domain/project"
)

// CatalogProjectLister lists the projects visible to a student.
type CatalogProjectLister interface {
	ListProjects(ctx context.Context, accessToken string) ([]project.Project, error)
}

// InFlightChecker reports pending submissions.
type InFlightChecker interface {
	Active(sessionKey string, projectID int64) bool
}

// CatalogQuery carries query parameters for the student catalog.
type CatalogQuery struct {
	AccessToken string
	SessionKey  string
}

// CatalogDeps holds dependencies for the student catalog.
type CatalogDeps struct {
	Projects CatalogProjectLister
	InFlight InFlightChecker
}

// CatalogCard is one project card with its Apply control.
type CatalogCard struct {
	Project project.Project
	Control project.ApplyControl
}

// CatalogResult carries the approved projects in server order.
type CatalogResult struct {
	Cards []CatalogCard
}

// QueryStudentCatalog fetches projects and derives each card's Apply control.
// PRE: AccessToken belongs to a student session
// POST: Only approved projects are returned, in the order the backend sent them
func QueryStudentCatalog(ctx context.Context, query CatalogQuery, deps CatalogDeps) (CatalogResult, error) {
	projects, err := deps.Projects.ListProjects(ctx, query.AccessToken)
	if err != nil {
		return CatalogResult{}, err
	}
	return BuildStudentCatalog(projects, query.SessionKey, deps.InFlight), nil
}

// BuildStudentCatalog derives the catalog from an already fetched project list.
// inFlight may be nil.
func BuildStudentCatalog(projects []project.Project, sessionKey string, inFlight InFlightChecker) CatalogResult {
	cards := make([]CatalogCard, 0, len(projects))
	for _, p := range projects {
		if !p.IsApproved {
			continue
		}
		submitting := inFlight != nil && inFlight.Active(sessionKey, p.ID)
		cards = append(cards, CatalogCard{Project: p, Control: project.ControlFor(p.SeatsAvailable, submitting)})
	}
	return CatalogResult{Cards: cards}
}
