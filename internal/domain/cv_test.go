package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexStrings_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FlexStrings
	}{
		{"array", `["Excel","Python"]`, FlexStrings{"Excel", "Python"}},
		{"comma string", `"Excel, Python , SQL"`, FlexStrings{"Excel", "Python", "SQL"}},
		{"empty string", `""`, nil},
		{"null", `null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got FlexStrings
			require.NoError(t, json.Unmarshal([]byte(tt.input), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCVData_Helpers(t *testing.T) {
	raw := `{
		"candidate_profile": {"full_name": "Sam Lee"},
		"employment_history": [
			{"company_name": "Old Co", "job_title": "Analyst", "achievements": ["Cut close by 2 days"]},
			{"company_name": "Now Co", "job_title": "Senior Analyst", "company_industry": "Banking",
			 "is_current_role": true, "achievements": ["Built FP&A model", "Led audit"]}
		],
		"skills": {"technical_skills": ["DCF", "LBO"], "tools_software": "Excel, Power BI"}
	}`

	var cv CVData
	require.NoError(t, json.Unmarshal([]byte(raw), &cv))

	role := cv.CurrentRole()
	require.NotNil(t, role)
	assert.Equal(t, "Senior Analyst", role.JobTitle)

	assert.Equal(t, []string{"Cut close by 2 days", "Built FP&A model"}, cv.Achievements(2))
	assert.Equal(t, []string{"DCF", "LBO", "Excel"}, cv.TopSkills(3))

	p := ProfileFrom(&cv, "FP&A Manager", "Acme")
	assert.True(t, p.CVParsed)
	assert.Equal(t, "Sam Lee", p.Name)
	assert.Equal(t, "Now Co", p.CurrentCompany)
	assert.Equal(t, "Banking", p.Industry)

	empty := ProfileFrom(nil, "Controller", "")
	assert.False(t, empty.CVParsed)
	assert.Equal(t, "Controller", empty.TargetRole)
}

func TestPreferences_DaysUntilInterview(t *testing.T) {
	now := time.Date(2026, time.October, 16, 12, 0, 0, 0, time.UTC)
	in3 := now.Add(72 * time.Hour)
	past := now.Add(-time.Hour)
	soon := now.Add(time.Hour)

	assert.Equal(t, -1, Preferences{}.DaysUntilInterview(now))
	assert.Equal(t, 3, Preferences{InterviewDate: &in3}.DaysUntilInterview(now))
	assert.Equal(t, 0, Preferences{InterviewDate: &past}.DaysUntilInterview(now))
	assert.Equal(t, 1, Preferences{InterviewDate: &soon}.DaysUntilInterview(now))
}
