// Package domain contains core business types and interfaces.
//
// This file defines the device user, the practice profile derived from a CV
// and job description, and user preferences.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the person practising on this device. The email is the lookup key
// for the billing collaborator.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewUser creates a user with a fresh ID.
func NewUser(email, name string, now time.Time) User {
	return User{
		ID:        uuid.New(),
		Email:     strings.TrimSpace(strings.ToLower(email)),
		Name:      strings.TrimSpace(name),
		CreatedAt: now.UTC(),
	}
}

// DisplayName returns the user's name or email if name is empty.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// HasEmail reports whether the user can be matched to a billing customer.
func (u *User) HasEmail() bool {
	return u != nil && strings.Contains(u.Email, "@")
}

// Profile describes what the user is practising for.
type Profile struct {
	Name           string `json:"name,omitempty"`
	CurrentRole    string `json:"currentRole,omitempty"`
	CurrentCompany string `json:"currentCompany,omitempty"`
	TargetRole     string `json:"targetRole,omitempty"`
	TargetCompany  string `json:"targetCompany,omitempty"`
	Industry       string `json:"industry,omitempty"`
	CVParsed       bool   `json:"cvParsed"`
}

// ProfileFrom derives a profile from extracted CV data and the bank request.
// cv may be nil.
func ProfileFrom(cv *CVData, targetRole, targetCompany string) Profile {
	p := Profile{
		TargetRole:    targetRole,
		TargetCompany: targetCompany,
	}
	if cv == nil {
		return p
	}
	p.CVParsed = true
	p.Name = cv.CandidateProfile.FullName
	if role := cv.CurrentRole(); role != nil {
		p.CurrentRole = role.JobTitle
		p.CurrentCompany = role.CompanyName
		p.Industry = role.CompanyIndustry
	}
	return p
}

// Preferences are the small per-device settings stored under their own keys.
type Preferences struct {
	InterviewDate *time.Time `json:"interviewDate,omitempty"`
	TargetCompany string     `json:"targetCompany,omitempty"`
	DarkMode      bool       `json:"darkMode"`
}

// DaysUntilInterview returns whole days from now to the interview date, or
// -1 if no date is set. A past date yields 0.
func (p Preferences) DaysUntilInterview(now time.Time) int {
	if p.InterviewDate == nil {
		return -1
	}
	d := p.InterviewDate.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + 24*time.Hour - 1) / (24 * time.Hour))
}
