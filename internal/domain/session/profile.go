package session

import (
	"errors"
	"strings"
)

// Account and committee profile errors
var (
	ErrEmptyUsername       = errors.New("username cannot be empty")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrSignupRole          = errors.New("accounts can only be created as student or faculty")
	ErrEmptyDegree         = errors.New("degree cannot be empty")
	ErrEmptySpecialization = errors.New("specialization cannot be empty")
	ErrNegativeExperience  = errors.New("years of experience cannot be negative")
)

// Signup is a new account request. Committee membership is not a signup
// role; faculty ask for it afterwards with a CommitteeApplication.
type Signup struct {
	Username   string
	Password   string
	Role       Role
	RollNumber string // students only
	Course     string // students only
	Department string // faculty only
}

// Validate checks the fields the backend requires.
func (s Signup) Validate() error {
	if strings.TrimSpace(s.Username) == "" {
		return ErrEmptyUsername
	}
	if s.Password == "" {
		return ErrEmptyPassword
	}
	if s.Role != RoleStudent && s.Role != RoleFaculty {
		return ErrSignupRole
	}
	return nil
}

// CommitteeApplication asks an admin to make a faculty member a reviewer.
type CommitteeApplication struct {
	Degree            string
	Specialization    string
	YearsOfExperience int
	Bio               string
}

// Validate checks the required profile fields.
func (a CommitteeApplication) Validate() error {
	switch {
	case strings.TrimSpace(a.Degree) == "":
		return ErrEmptyDegree
	case strings.TrimSpace(a.Specialization) == "":
		return ErrEmptySpecialization
	case a.YearsOfExperience < 0:
		return ErrNegativeExperience
	}
	return nil
}
