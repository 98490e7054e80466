package orchestrators

import (
	"context"
	"log/slog"

	"exhibition/internal/domain/failure"
	"exhibition/internal/domain/session"
)

// RosterLister lists the role rosters visible to a bearer token.
type RosterLister interface {
	ListStudents(ctx context.Context, accessToken string) ([]session.RosterRecord, error)
	ListFaculty(ctx context.Context, accessToken string) ([]session.RosterRecord, error)
	ListCommittees(ctx context.Context, accessToken string) ([]session.RosterRecord, error)
}

// SubjectDecoder extracts the user id from an access token.
type SubjectDecoder interface {
	Subject(ctx context.Context, accessToken string) (session.SubjectID, error)
}

// ResolveRoleInput carries input for role resolution.
type ResolveRoleInput struct {
	AccessToken string
}

// ResolveRoleDeps holds dependencies for ResolveRole.
type ResolveRoleDeps struct {
	Rosters  RosterLister
	Subjects SubjectDecoder
}

// ResolveRoleResult carries the resolved subject and role.
type ResolveRoleResult struct {
	Subject session.SubjectID
	Role    session.Role
}

// ExecuteResolveRole maps a bearer token to exactly one dashboard role.
// PRE: AccessToken was just issued by the backend
// POST: Returns Student, Faculty or Committee, or a *failure.RoleResolutionError
// INVARIANT: A subject present in both the student and faculty rosters never resolves
func ExecuteResolveRole(ctx context.Context, input ResolveRoleInput, deps ResolveRoleDeps) (ResolveRoleResult, error) {
	if input.AccessToken == "" {
		return ResolveRoleResult{}, &failure.RoleResolutionError{Reason: "missing access token"}
	}

	subject, err := deps.Subjects.Subject(ctx, input.AccessToken)
	if err != nil {
		return ResolveRoleResult{}, &failure.RoleResolutionError{Reason: "token subject could not be decoded", Err: err}
	}

	// The backend 403s the roster the caller does not belong to, so a single
	// listing error is expected and only recorded.
	students, studentErr := deps.Rosters.ListStudents(ctx, input.AccessToken)
	faculty, facultyErr := deps.Rosters.ListFaculty(ctx, input.AccessToken)
	if studentErr != nil && facultyErr != nil {
		slog.Warn("role_resolution_failed", "subject_id", subject, "student_error", studentErr, "faculty_error", facultyErr)
		return ResolveRoleResult{}, &failure.RoleResolutionError{Subject: string(subject), Reason: "no roster could be listed"}
	}

	isStudent := studentErr == nil && inRoster(students, subject)
	isFaculty := facultyErr == nil && inRoster(faculty, subject)

	var role session.Role
	switch {
	case isStudent && isFaculty:
		return ResolveRoleResult{}, &failure.RoleResolutionError{Subject: string(subject), Reason: "subject appears in both student and faculty rosters"}
	case isStudent:
		role = session.RoleStudent
	case isFaculty:
		role = session.RoleFaculty
		if approvedCommittee(ctx, deps.Rosters, input.AccessToken, subject) {
			role = session.RoleCommittee
		}
	default:
		return ResolveRoleResult{}, &failure.RoleResolutionError{Subject: string(subject), Reason: "subject not found in any roster"}
	}

	slog.Info("auth_event", "event", "role_resolved", "subject_id", subject, "role", role.String())
	return ResolveRoleResult{Subject: subject, Role: role}, nil
}

// approvedCommittee reports whether subject holds an admin-approved committee seat.
// Listing failures leave the caller as plain faculty.
func approvedCommittee(ctx context.Context, rosters RosterLister, accessToken string, subject session.SubjectID) bool {
	committees, err := rosters.ListCommittees(ctx, accessToken)
	if err != nil {
		slog.Debug("committee_lookup_failed", "subject_id", subject, "error", err)
		return false
	}
	for _, c := range committees {
		if c.User == subject && c.Approved {
			return true
		}
	}
	return false
}

func inRoster(records []session.RosterRecord, subject session.SubjectID) bool {
	for _, r := range records {
		if r.User == subject {
			return true
		}
	}
	return false
}
