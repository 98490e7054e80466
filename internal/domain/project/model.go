package project

import (
	"errors"
	"time"
)

// Project statuses
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Difficulty levels
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Apply button labels
const (
	LabelApply      = "Apply"
	LabelSubmitting = "Applying..."
	LabelFull       = "Full"
)

// Committee review decisions
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Domain errors
var (
	ErrInvalidID       = errors.New("project id must be positive")
	ErrInvalidStatus   = errors.New("project status must be one of: pending, approved, rejected")
	ErrInvalidDecision = errors.New("review decision must be one of: approve, reject")
)

// ValidStatuses contains all valid project statuses.
var ValidStatuses = []string{StatusPending, StatusApproved, StatusRejected}

// Project is a faculty proposal as returned by the backend.
// Read-only here: SeatsAvailable only changes through server effects observed on re-fetch.
type Project struct {
	ID                int64
	FacultyID         int64
	FacultyName       string // only populated by the pending-review listing
	Title             string
	Abstract          string // Markdown
	Timeline          string
	Difficulty        string
	Status            string
	Seats             int
	SeatsAvailable    int
	IsApproved        bool
	IsDiscarded       bool
	ApplicationsCount int
	CreatedAt         time.Time
}

// Validate checks the fields the dashboard relies on.
// PRE: Project struct is populated
// POST: Returns nil if valid, error otherwise
func (p Project) Validate() error {
	if p.ID <= 0 {
		return ErrInvalidID
	}
	switch p.Status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return ErrInvalidStatus
	}
	return nil
}

// ValidateDecision checks a committee review keyword.
func ValidateDecision(decision string) error {
	switch decision {
	case DecisionApprove, DecisionReject:
		return nil
	}
	return ErrInvalidDecision
}

// HasSeats reports whether the server still advertises capacity.
func (p Project) HasSeats() bool {
	return p.SeatsAvailable > 0
}

// ButtonState is the ephemeral state of a card's apply control.
type ButtonState uint8

const (
	ButtonIdle ButtonState = iota
	ButtonSubmitting
	ButtonFull
)

// String returns a stable name used in templates and data attributes.
func (s ButtonState) String() string {
	switch s {
	case ButtonIdle:
		return "idle"
	case ButtonSubmitting:
		return "submitting"
	case ButtonFull:
		return "full"
	}
	return "unknown"
}

// ApplyControl is the rendered affordance for one project card.
type ApplyControl struct {
	State    ButtonState
	Label    string
	Disabled bool
}

// ControlFor derives the apply control from server seat state and local in-flight state.
// An in-flight submission wins over a full project so the click is never re-enabled mid-request.
// PRE: none
// POST: Disabled is false only for ButtonIdle
func ControlFor(seatsAvailable int, submitting bool) ApplyControl {
	switch {
	case submitting:
		return ApplyControl{State: ButtonSubmitting, Label: LabelSubmitting, Disabled: true}
	case seatsAvailable <= 0:
		return ApplyControl{State: ButtonFull, Label: LabelFull, Disabled: true}
	default:
		return ApplyControl{State: ButtonIdle, Label: LabelApply, Disabled: false}
	}
}
