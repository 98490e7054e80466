package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"exhibition/internal/adapters/email"
	"exhibition/internal/domain/application"
	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/project"
)

// recordingSender captures receipts.
type recordingSender struct {
	sent []email.SendRequest
	err  error
}

func (r *recordingSender) Send(_ context.Context, req email.SendRequest) (email.SendResult, error) {
	r.sent = append(r.sent, req)
	return email.SendResult{MessageID: "m1"}, r.err
}

func applyDeps(c *mockCatalog) ApplyDeps {
	return ApplyDeps{Applications: c, Projects: c, MyApplications: c, InFlight: NewInFlight()}
}

// TestExecuteApply_Success tests one re-fetch of each view and no local seat mutation.
func TestExecuteApply_Success(t *testing.T) {
	c := &mockCatalog{
		projects: []project.Project{{ID: 3, Title: "Drones", SeatsAvailable: 0, IsApproved: true}},
		apps:     []application.Application{{ID: 1, ProjectID: 3, Status: application.StatusPending}},
	}
	deps := applyDeps(c)

	res, err := ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", AccessToken: "t", ProjectID: 3}, deps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.createCalls != 1 || c.projectCalls != 1 || c.myAppsCalls != 1 {
		t.Errorf("calls create/projects/my = %d/%d/%d, want 1/1/1", c.createCalls, c.projectCalls, c.myAppsCalls)
	}
	if len(res.Projects) != 1 || res.Projects[0].SeatsAvailable != 0 {
		t.Errorf("expected server seat count to be passed through, got %+v", res.Projects)
	}
	if len(res.Applications) != 1 || res.Application.ProjectID != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	if deps.InFlight.Active("k", 3) {
		t.Error("in-flight flag should be cleared")
	}
}

// TestExecuteApply_Failure tests that a rejected POST triggers no re-fetch and returns to idle.
func TestExecuteApply_Failure(t *testing.T) {
	c := &mockCatalog{createFn: func(int64) (application.Application, error) {
		return application.Application{}, &failure.ValidationError{Status: 400, Message: "No seats available for this project."}
	}}
	deps := applyDeps(c)

	_, err := ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", AccessToken: "t", ProjectID: 3}, deps)
	if got := failure.UserMessage(err); got != "No seats available for this project." {
		t.Errorf("UserMessage = %q", got)
	}
	if c.projectCalls != 0 || c.myAppsCalls != 0 {
		t.Errorf("expected no re-fetch, got %d/%d", c.projectCalls, c.myAppsCalls)
	}
	if deps.InFlight.Active("k", 3) {
		t.Error("in-flight flag should be cleared after failure")
	}

	c.createFn = func(int64) (application.Application, error) { return application.Application{}, errBoom }
	_, err = ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", AccessToken: "t", ProjectID: 3}, deps)
	if got := failure.UserMessage(err); got != failure.GenericMessage {
		t.Errorf("expected generic message, got %q", got)
	}
}

// TestExecuteApply_InFlight tests that a second submission during the first posts nothing.
func TestExecuteApply_InFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := &mockCatalog{createFn: func(id int64) (application.Application, error) {
		close(started)
		<-release
		return application.Application{ID: 9, ProjectID: id, Status: application.StatusPending}, nil
	}}
	deps := applyDeps(c)
	input := ApplyInput{SessionKey: "k", AccessToken: "t", ProjectID: 4}

	done := make(chan error, 1)
	go func() {
		_, err := ExecuteApply(context.Background(), input, deps)
		done <- err
	}()
	<-started

	if !deps.InFlight.Active("k", 4) {
		t.Error("expected submission to be active while POST is pending")
	}
	if _, err := ExecuteApply(context.Background(), input, deps); !errors.Is(err, ErrSubmissionInFlight) {
		t.Errorf("expected ErrSubmissionInFlight, got %v", err)
	}
	other := input
	other.SessionKey = "other-browser"
	if !deps.InFlight.TryBegin(other.SessionKey, other.ProjectID) {
		t.Error("another session should not be blocked")
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1", c.createCalls)
	}
}

// TestExecuteApply_InvalidProject tests input validation.
func TestExecuteApply_InvalidProject(t *testing.T) {
	c := &mockCatalog{}
	if _, err := ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", ProjectID: 0}, applyDeps(c)); !errors.Is(err, ErrInvalidProject) {
		t.Errorf("expected ErrInvalidProject, got %v", err)
	}
	if c.createCalls != 0 {
		t.Error("nothing should be posted")
	}
}

// TestExecuteApply_RefetchError tests that a failed re-fetch is reported with the application kept.
func TestExecuteApply_RefetchError(t *testing.T) {
	c := &mockCatalog{projectsErr: errBoom}
	res, err := ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", AccessToken: "t", ProjectID: 2}, applyDeps(c))
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected refetch error, got %v", err)
	}
	if res.Application.ID == 0 {
		t.Error("expected created application in result")
	}
	if c.myAppsCalls != 1 {
		t.Errorf("my-applications should still be fetched once, got %d", c.myAppsCalls)
	}
}

// TestExecuteApply_Receipt tests best-effort receipt delivery.
func TestExecuteApply_Receipt(t *testing.T) {
	c := &mockCatalog{projects: []project.Project{{ID: 2, Title: "Rovers", IsApproved: true}}}
	sender := &recordingSender{}
	deps := applyDeps(c)
	deps.Mailer = sender
	deps.MailFrom = "noreply@exhibition.local"

	if _, err := ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", AccessToken: "t", Identity: "s1@uni.example", ProjectID: 2}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 || !strings.Contains(sender.sent[0].Subject, "Rovers") {
		t.Fatalf("expected one receipt mentioning the project, got %+v", sender.sent)
	}

	if _, err := ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", AccessToken: "t", Identity: "s1", ProjectID: 2}, deps); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Error("no receipt expected for a username identity")
	}

	sender.err = errBoom
	if _, err := ExecuteApply(context.Background(), ApplyInput{SessionKey: "k", AccessToken: "t", Identity: "s1@uni.example", ProjectID: 2}, deps); err != nil {
		t.Errorf("send failure must not fail the application: %v", err)
	}
}
