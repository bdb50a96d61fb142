package anthropic

import (
	"fmt"
	"strings"

	"github.com/DukeRupert/readyhire/internal/ai"
	"github.com/DukeRupert/readyhire/internal/domain"
)

const (
	jobDescriptionLimit = 2000
	cvTextLimit         = 15000
	maxBankQuestions    = 6
	maxBankCases        = 1
)

// buildScorePrompt asks for a strict grade of one answer.
func buildScorePrompt(params ai.ScoreParams) string {
	context := params.Context
	if context == "" {
		context = "Finance interview"
	}
	model := params.Question.Model
	if model == "" {
		model = "N/A"
	}

	return fmt.Sprintf(`Finance interview coach. Analyse this answer strictly and fairly.
Context: %s
Question: %s
Answer: %s
Key concepts expected: %s
Model answer: %s

Respond with JSON only, no other text:
{"score":0-100,"strengths":[{"t":"title","d":"detail"}],"improvements":[{"t":"title","d":"detail"}],"found":[],"missing":[],"summary":"2 sentences max"}`,
		context, params.Question.Text, params.Answer, strings.Join(params.Question.Keys, ", "), model)
}

// bankCounts caps the requested counts so the completion fits its token budget.
func bankCounts(params ai.BankParams) (questions, cases int) {
	questions = params.QuestionCount
	if questions <= 0 {
		questions = 5
	}
	cases = params.CaseCount
	if cases <= 0 {
		cases = 1
	}
	return min(questions, maxBankQuestions), min(cases, maxBankCases)
}

// candidateLine summarises a CV in one line: role, skills and a few achievements.
func candidateLine(cv *domain.CVData) string {
	name := cv.CandidateProfile.FullName
	if name == "" {
		name = "Candidate"
	}
	title, company := "N/A", "N/A"
	if cur := cv.CurrentRole(); cur != nil {
		if cur.JobTitle != "" {
			title = cur.JobTitle
		}
		if cur.CompanyName != "" {
			company = cur.CompanyName
		}
	}
	skills := strings.Join(cv.TopSkills(10), ", ")
	if skills == "" {
		skills = "N/A"
	}
	achievements := strings.Join(cv.Achievements(3), "; ")
	if achievements == "" {
		achievements = "N/A"
	}
	return fmt.Sprintf("\nCANDIDATE: %s, %s at %s. Skills: %s. Achievements: %s.", name, title, company, skills, achievements)
}

func buildBankPrompt(params ai.BankParams) string {
	nQ, nC := bankCounts(params)

	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d finance interview questions and %d case study as JSON.", nQ, nC)
	if params.CV != nil {
		b.WriteString(candidateLine(params.CV))
	}
	if params.JobDescription != "" {
		b.WriteString("\nJOB DESCRIPTION:\n")
		b.WriteString(ai.Truncate(params.JobDescription, jobDescriptionLimit))
	}
	if params.TargetCompany != "" {
		b.WriteString("\nCOMPANY: " + params.TargetCompany)
	}
	if params.TargetRole != "" {
		b.WriteString("\nROLE: " + params.TargetRole)
	}
	b.WriteString("\n")
	if params.IncludeManagerLevel {
		b.WriteString("Include leadership questions.")
	}

	role := params.TargetRole
	if role == "" {
		role = "Finance"
	}
	level := "standard"
	if params.CV != nil {
		level = "high"
	}
	fmt.Fprintf(&b, `
Return ONLY this JSON:
{"questions":[{"id":1,"q":"Question text","type":"experience","cat":"Technical","difficulty":"intermediate","keys":["k1","k2"],"m":"Model answer","context":"Why relevant","direction":"How to structure","tips":"Tip"}],"cases":[{"id":1,"t":"Title","s":"Scenario","task":"Task","cat":"Category","d":"intermediate","time":30,"criteria":["c1","c2"],"m":"Approach","direction":"Guide","tips":"Tip","context":"Background"}],"bankMeta":{"targetRole":%q,"difficulty":"mixed","personalisationLevel":%q,"cvInsights":"Summary"}}`,
		role, level)

	return b.String()
}

const cvSystemPrompt = `You are an expert information extraction system.
Your task is to extract structured professional data from a candidate CV.
The CV text may be poorly formatted, include tables, bullet points, headers, or inconsistent ordering.
Do not summarize. Do not rewrite. Only extract and structure.

EXTRACTION RULES:
1. Only use information explicitly present in the CV. Do NOT infer seniority, skills, or dates.
2. If information is missing, return null.
3. Dates as YYYY-MM, country names in full, employment type as one of ["Full-time","Part-time","Contract","Internship","Consulting","Freelance","Unknown"].
4. Do not merge roles even if at the same company.
5. Preserve career chronology exactly as written.

CLASSIFICATION:
- Responsibilities: duties, role scope, team size, reporting lines ("Led a team of 6 analysts").
- Achievements: metrics, outcomes and impact such as %, £, $, growth, cost savings ("Reduced costs by 18%").
- Skills: technical_skills (SQL, Python, IFRS), tools_software (SAP, Excel, Tableau), soft_skills (Leadership), languages (English, French).

Never fabricate missing months, guess industries or expand acronyms.

Return ONLY valid JSON in this schema:
{
  "candidate_profile": {"full_name": "", "email": "", "phone": "", "location": {"city": "", "country": ""}, "linkedin_url": "", "portfolio_url": "", "professional_summary": ""},
  "employment_history": [{"company_name": "", "company_industry": "", "job_title": "", "employment_type": "", "location": {"city": "", "country": ""}, "start_date": "", "end_date": "", "is_current_role": false, "responsibilities": [], "achievements": [], "technologies_used": []}],
  "education": [{"institution": "", "degree": "", "field_of_study": "", "start_year": "", "end_year": ""}],
  "certifications": [{"name": "", "issuing_body": "", "year": ""}],
  "skills": {"technical_skills": [], "tools_software": [], "soft_skills": [], "languages": []},
  "projects": [{"project_name": "", "description": "", "technologies_used": [], "year": ""}],
  "publications": [],
  "awards": [],
  "volunteer_experience": [],
  "additional_information": []
}`

func buildCVMessage(params ai.CVParams) string {
	return "CV TEXT TO PROCESS:\n\n" + ai.Truncate(params.Text, cvTextLimit)
}

func buildProblemPrompt(params ai.ProblemParams) string {
	kind := "interview question"
	if params.Type == domain.SessionTypeCase {
		kind = "business case study"
	}
	role := params.Profile.TargetRole
	if role == "" {
		role = params.Profile.CurrentRole
	}
	if role == "" {
		role = "Finance Professional"
	}
	level := params.LevelName
	if level == "" {
		level = "Finance"
	}

	var company string
	if params.CompanyName != "" {
		company = fmt.Sprintf("Target Company: %s (%s). Sector: %s.", params.CompanyName, params.CompanyStyle, params.CompanySector)
	} else {
		industry := params.Profile.Industry
		if industry == "" {
			industry = "Finance"
		}
		company = fmt.Sprintf("Industry: %s.", industry)
	}

	return fmt.Sprintf(`You are a high-end finance interview coach. Generate a realistic, challenging and tailored %s for a %s.

User Profile:
- Seniority: %s
- Role: %s
- %s

Requirements:
1. The scenario must be relevant to the role and industry.
2. If a company is provided, include sector-specific challenges.
3. JSON only:
{"t":"Short Title","s":"Scenario (3-4 sentences)","task":"Instruction for the candidate","direction":"How to structure the answer","tips":"Insider tip","keys":["4-5 grading concepts"],"m":"Model answer (2-3 sentences)","cat":"Technical/Commercial/Leadership","d":"Custom","time":30,"criteria":["3-4 evaluation criteria"],"context":"Extended backstory","lk":false}`,
		kind, role, level, role, company)
}
