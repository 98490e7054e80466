package application

import (
	"errors"
	"time"
)

// Application statuses
const (
	StatusPending     = "pending"
	StatusShortlisted = "shortlisted"
	StatusSelected    = "selected"
	StatusRejected    = "rejected"
)

// Faculty decisions on an applicant
const (
	DecisionSelect = "select"
	DecisionReject = "reject"
)

// Domain errors
var (
	ErrInvalidStatus   = errors.New("application status must be one of: pending, shortlisted, selected, rejected")
	ErrInvalidDecision = errors.New("applicant decision must be one of: select, reject")
	ErrInvalidProject  = errors.New("application must reference a project")
)

// ValidStatuses contains all valid application statuses.
var ValidStatuses = []string{StatusPending, StatusShortlisted, StatusSelected, StatusRejected}

// Application is a student's request to join a project.
// Status is owned by the backend and only observed here.
type Application struct {
	ID        int64
	StudentID int64
	ProjectID int64
	Priority  int
	CGPA      float64
	Skills    string
	Status    string
	AppliedAt time.Time
}

// Validate checks if the Application has valid data.
// PRE: Application struct is populated
// POST: Returns nil if valid, error otherwise
func (a Application) Validate() error {
	if a.ProjectID <= 0 {
		return ErrInvalidProject
	}
	switch a.Status {
	case StatusPending, StatusShortlisted, StatusSelected, StatusRejected:
		return nil
	}
	return ErrInvalidStatus
}

// IsOpen reports whether the application still awaits a faculty decision.
func (a Application) IsOpen() bool {
	return a.Status == StatusPending || a.Status == StatusShortlisted
}

// ValidateDecision checks a faculty decision keyword.
func ValidateDecision(decision string) error {
	switch decision {
	case DecisionSelect, DecisionReject:
		return nil
	}
	return ErrInvalidDecision
}
