package project

import (
	"strings"
	"testing"
)

// TestProposal_Normalize tests trimming and the default difficulty.
func TestProposal_Normalize(t *testing.T) {
	p := Proposal{Title: "  Rover Arm ", Abstract: "\nArm\n", Difficulty: " "}.Normalize()
	if p.Title != "Rover Arm" || p.Abstract != "Arm" || p.Difficulty != DifficultyMedium {
		t.Errorf("Normalize = %+v", p)
	}
	if got := (Proposal{Difficulty: "HARD"}).Normalize().Difficulty; got != DifficultyHard {
		t.Errorf("Difficulty = %q, want hard", got)
	}
}

// TestProposal_Validate tests each proposal rule.
func TestProposal_Validate(t *testing.T) {
	valid := Proposal{Title: "Rover Arm", Abstract: "A robotic arm.", Difficulty: DifficultyEasy, Seats: 2}
	tests := []struct {
		name string
		edit func(p *Proposal)
		want error
	}{
		{"valid", func(*Proposal) {}, nil},
		{"empty title", func(p *Proposal) { p.Title = "" }, ErrEmptyTitle},
		{"long title", func(p *Proposal) { p.Title = strings.Repeat("é", MaxTitleLength+1) }, ErrTitleTooLong},
		{"title at limit", func(p *Proposal) { p.Title = strings.Repeat("é", MaxTitleLength) }, nil},
		{"empty abstract", func(p *Proposal) { p.Abstract = "" }, ErrEmptyAbstract},
		{"long timeline", func(p *Proposal) { p.Timeline = strings.Repeat("x", MaxTimelineLength+1) }, ErrTimelineTooLong},
		{"zero seats", func(p *Proposal) { p.Seats = 0 }, ErrInvalidSeats},
		{"unknown difficulty", func(p *Proposal) { p.Difficulty = "extreme" }, ErrInvalidDifficulty},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)
			if err := p.Validate(); err != tt.want {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
