package web

import (
	"errors"
	"net/http"

	"exhibition/internal/adapters/http/middleware"
	"exhibition/internal/application/orchestrators"
	"exhibition/internal/application/projections"
	"exhibition/internal/domain/project"
)

// studentData feeds both the student page and the catalog fragment.
type studentData struct {
	Catalog      projections.CatalogResult
	Applications projections.MyApplicationsResult
}

func catalogProjects(c projections.CatalogResult) []project.Project {
	out := make([]project.Project, len(c.Cards))
	for i, card := range c.Cards {
		out[i] = card.Project
	}
	return out
}

// handleStudent handles GET /student
func (s *Server) handleStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)
	key := middleware.SessionFrom(ctx).Key()

	catalog, catErr := projections.QueryStudentCatalog(ctx,
		projections.CatalogQuery{AccessToken: sess.AccessToken, SessionKey: key},
		projections.CatalogDeps{Projects: s.backend, InFlight: s.inFlight},
	)
	apps, appsErr := projections.QueryMyApplications(ctx,
		projections.MyApplicationsQuery{AccessToken: sess.AccessToken},
		projections.MyApplicationsDeps{Applications: s.backend},
		catalogProjects(catalog),
	)
	err := errors.Join(catErr, appsErr)
	if s.denied(w, r, err) {
		return
	}

	v := view{Title: "Projects", Data: studentData{Catalog: catalog, Applications: apps}}
	if err != nil {
		reportFailure(r, err)
		v.Error = userMessage(err)
	}
	s.page(w, r, http.StatusOK, "student", v)
}

// handleApply handles POST /student/projects/{id}/apply
// Called by dashboard.js; success returns the re-rendered catalog fragment,
// failure returns {"error": msg} and optionally {"redirect": url}.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, _ := middleware.CurrentSession(ctx)
	key := middleware.SessionFrom(ctx).Key()

	result, err := orchestrators.ExecuteApply(ctx, orchestrators.ApplyInput{
		SessionKey:  key,
		AccessToken: sess.AccessToken,
		Identity:    sess.Identity,
		ProjectID:   pathID(r),
	}, orchestrators.ApplyDeps{
		Applications:   s.backend,
		Projects:       s.backend,
		MyApplications: s.backend,
		InFlight:       s.inFlight,
		Mailer:         s.mailer,
		MailFrom:       s.opts.MailFrom,
	})
	if s.denied(w, r, err) {
		return
	}
	if err != nil {
		reportFailure(r, err)
		body := map[string]string{"error": userMessage(err)}
		if result.Application.ID != 0 {
			// Submitted, but the refreshed views could not be fetched.
			body["redirect"] = "/student"
		}
		middleware.WriteJSON(w, statusFor(err), body)
		return
	}

	data := studentData{
		Catalog:      projections.BuildStudentCatalog(result.Projects, key, s.inFlight),
		Applications: projections.BuildMyApplications(result.Applications, result.Projects),
	}
	s.pages.render(w, r, http.StatusOK, "student", "catalog", data)
}
