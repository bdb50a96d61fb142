// Package domain contains core business types and interfaces.
//
// This file defines the structured CV extracted from free text.
package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FlexStrings decodes from either a JSON string or an array of strings.
// Extraction output is inconsistent about which form it uses.
type FlexStrings []string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		*f = out
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = list
	return nil
}

// FlexString decodes from a JSON string or number. Years come back either way.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*f = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(n.String())
		return nil
	}
}

// Location is a city and country pair.
type Location struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// CandidateProfile holds the candidate's contact details.
type CandidateProfile struct {
	FullName            string   `json:"full_name"`
	Email               string   `json:"email"`
	Phone               string   `json:"phone"`
	Location            Location `json:"location"`
	LinkedInURL         string   `json:"linkedin_url"`
	PortfolioURL        string   `json:"portfolio_url"`
	ProfessionalSummary string   `json:"professional_summary"`
}

// Employment is one role from the employment history.
type Employment struct {
	CompanyName      string      `json:"company_name"`
	CompanyIndustry  string      `json:"company_industry"`
	JobTitle         string      `json:"job_title"`
	EmploymentType   string      `json:"employment_type"`
	Location         Location    `json:"location"`
	StartDate        string      `json:"start_date"`
	EndDate          string      `json:"end_date"`
	IsCurrentRole    bool        `json:"is_current_role"`
	Responsibilities FlexStrings `json:"responsibilities"`
	Achievements     FlexStrings `json:"achievements"`
	TechnologiesUsed FlexStrings `json:"technologies_used"`
}

// Education is one education entry.
type Education struct {
	Institution  string     `json:"institution"`
	Degree       string     `json:"degree"`
	FieldOfStudy string     `json:"field_of_study"`
	StartYear    FlexString `json:"start_year"`
	EndYear      FlexString `json:"end_year"`
}

// Certification is a professional certification.
type Certification struct {
	Name        string     `json:"name"`
	IssuingBody string     `json:"issuing_body"`
	Year        FlexString `json:"year"`
}

// Skills groups skills by category.
type Skills struct {
	Technical FlexStrings `json:"technical_skills"`
	Tools     FlexStrings `json:"tools_software"`
	Soft      FlexStrings `json:"soft_skills"`
	Languages FlexStrings `json:"languages"`
}

// Project is a side or work project.
type Project struct {
	Name             string      `json:"project_name"`
	Description      string      `json:"description"`
	TechnologiesUsed FlexStrings `json:"technologies_used"`
	Year             FlexString  `json:"year"`
}

// CVData is the structured form of a candidate CV.
type CVData struct {
	CandidateProfile      CandidateProfile  `json:"candidate_profile"`
	EmploymentHistory     []Employment      `json:"employment_history"`
	Education             []Education       `json:"education"`
	Certifications        []Certification   `json:"certifications"`
	Skills                Skills            `json:"skills"`
	Projects              []Project         `json:"projects"`
	Publications          []json.RawMessage `json:"publications,omitempty"`
	Awards                []json.RawMessage `json:"awards,omitempty"`
	VolunteerExperience   []json.RawMessage `json:"volunteer_experience,omitempty"`
	AdditionalInformation []json.RawMessage `json:"additional_information,omitempty"`
}

// CurrentRole returns the role flagged as current, else the first role.
func (c *CVData) CurrentRole() *Employment {
	if c == nil || len(c.EmploymentHistory) == 0 {
		return nil
	}
	for i := range c.EmploymentHistory {
		if c.EmploymentHistory[i].IsCurrentRole {
			return &c.EmploymentHistory[i]
		}
	}
	return &c.EmploymentHistory[0]
}

// Achievements returns up to n achievements across all roles, in order.
func (c *CVData) Achievements(n int) []string {
	var out []string
	if c == nil {
		return out
	}
	for _, e := range c.EmploymentHistory {
		for _, a := range e.Achievements {
			if len(out) >= n {
				return out
			}
			out = append(out, a)
		}
	}
	return out
}

// TopSkills returns up to n technical skills followed by tools.
func (c *CVData) TopSkills(n int) []string {
	if c == nil {
		return nil
	}
	all := append(append([]string{}, c.Skills.Technical...), c.Skills.Tools...)
	if len(all) > n {
		all = all[:n]
	}
	return all
}
