package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Role is the closed set of dashboard roles.
// The zero value RoleNone is never a valid resolved role.
type Role uint8

const (
	RoleNone Role = iota
	RoleStudent
	RoleFaculty
	RoleCommittee
)

// Domain errors
var (
	ErrUnknownRole      = errors.New("role must be one of: student, faculty, committee")
	ErrEmptyToken       = errors.New("access token cannot be empty")
	ErrEmptySubject     = errors.New("subject id cannot be empty")
	ErrUnresolvedRole   = errors.New("session has no resolved role")
	ErrRoleNotSatisfied = errors.New("resolved role does not satisfy the claimed role")
)

// ParseRole maps the wire/form representation to a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, nil
	case "faculty":
		return RoleFaculty, nil
	case "committee":
		return RoleCommittee, nil
	}
	return RoleNone, ErrUnknownRole
}

// String returns the lower-case wire name of the role.
func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleFaculty:
		return "faculty"
	case RoleCommittee:
		return "committee"
	case RoleNone:
		return ""
	}
	return fmt.Sprintf("role(%d)", uint8(r))
}

// Valid reports whether r is one of the three real roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleCommittee:
		return true
	case RoleNone:
		return false
	}
	return false
}

// Satisfies reports whether a user holding r may act as required.
// Committee members are faculty, so Committee satisfies Faculty; nothing else crosses over.
// PRE: none
// POST: Returns false whenever either role is RoleNone
func (r Role) Satisfies(required Role) bool {
	switch required {
	case RoleStudent:
		return r == RoleStudent
	case RoleFaculty:
		return r == RoleFaculty || r == RoleCommittee
	case RoleCommittee:
		return r == RoleCommittee
	case RoleNone:
		return false
	}
	return false
}

// Landing returns the dashboard path a role lands on after login.
func (r Role) Landing() string {
	switch r {
	case RoleStudent:
		return "/student"
	case RoleFaculty:
		return "/faculty"
	case RoleCommittee:
		return "/review"
	case RoleNone:
		return "/login"
	}
	return "/login"
}

// SubjectID is a backend user primary key.
// The backend emits it as a JSON number in rosters and as a number or string inside tokens.
type SubjectID string

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (s *SubjectID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*s = SubjectID(n.String())
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("subject id: %w", err)
	}
	*s = SubjectID(str)
	return nil
}

// SubjectFromInt formats an integer primary key as a SubjectID.
func SubjectFromInt(id int64) SubjectID {
	return SubjectID(strconv.FormatInt(id, 10))
}

// RosterRecord is one entry of the student, faculty or committee listing.
// Approved is only meaningful for committee records.
type RosterRecord struct {
	ID       int64
	User     SubjectID
	Approved bool
}

// Session is the per-browser authenticated state.
// INVARIANT: ResolvedRole, once set, is authoritative over ClaimedRole.
type Session struct {
	AccessToken  string
	RefreshToken string
	SubjectID    SubjectID
	Identity     string // username or email typed at login
	ClaimedRole  Role
	ResolvedRole Role
	CreatedAt    time.Time
}

// Validate checks that a session is complete enough to be persisted.
// PRE: Session struct is populated
// POST: Returns nil if valid, error otherwise
func (s Session) Validate() error {
	if s.AccessToken == "" {
		return ErrEmptyToken
	}
	if s.SubjectID == "" {
		return ErrEmptySubject
	}
	if !s.ResolvedRole.Valid() {
		return ErrUnresolvedRole
	}
	if !s.ResolvedRole.Satisfies(s.ClaimedRole) {
		return ErrRoleNotSatisfied
	}
	return nil
}

// Expired reports whether the session is older than ttl at now.
// A non-positive ttl never expires.
func (s Session) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.CreatedAt) > ttl
}
