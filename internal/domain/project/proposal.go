package project

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Proposal limits
const (
	MaxTitleLength    = 255
	MaxTimelineLength = 255
	DefaultSeats      = 1
)

// Proposal errors
var (
	ErrEmptyTitle        = errors.New("title cannot be empty")
	ErrTitleTooLong      = errors.New("title cannot exceed 255 characters")
	ErrEmptyAbstract     = errors.New("abstract cannot be empty")
	ErrTimelineTooLong   = errors.New("timeline cannot exceed 255 characters")
	ErrInvalidDifficulty = errors.New("difficulty must be one of: easy, medium, hard")
	ErrInvalidSeats      = errors.New("seats must be at least 1")
)

// Proposal is a new project submitted by a faculty member.
// The backend stores it pending and unapproved, with every seat available.
type Proposal struct {
	Title      string
	Abstract   string // Markdown
	Timeline   string
	Difficulty string
	Seats      int
}

// Normalize trims text fields and fills the default difficulty.
func (p Proposal) Normalize() Proposal {
	p.Title = strings.TrimSpace(p.Title)
	p.Abstract = strings.TrimSpace(p.Abstract)
	p.Timeline = strings.TrimSpace(p.Timeline)
	p.Difficulty = strings.ToLower(strings.TrimSpace(p.Difficulty))
	if p.Difficulty == "" {
		p.Difficulty = DifficultyMedium
	}
	return p
}

// Validate checks a normalized proposal.
// PRE: p has been normalized
// POST: Returns nil if valid, error otherwise
func (p Proposal) Validate() error {
	switch {
	case p.Title == "":
		return ErrEmptyTitle
	case utf8.RuneCountInString(p.Title) > MaxTitleLength:
		return ErrTitleTooLong
	case p.Abstract == "":
		return ErrEmptyAbstract
	case utf8.RuneCountInString(p.Timeline) > MaxTimelineLength:
		return ErrTimelineTooLong
	case p.Seats < 1:
		return ErrInvalidSeats
	}
	switch p.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return nil
	}
	return ErrInvalidDifficulty
}
