// Package domain contains core business types and interfaces.
//
// This file defines the generated question bank. Question keys and case
// criteria are the grading vocabulary shared by the remote grader prompt
// and the local fallback scorer.
package domain

// Question is a single interview question.
type Question struct {
	ID         int      `json:"id"`
	Text       string   `json:"q"`
	Type       string   `json:"type,omitempty"`
	Category   string   `json:"cat,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Keys       []string `json:"keys"`
	Model      string   `json:"m,omitempty"`
	Context    string   `json:"context,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	Tips       string   `json:"tips,omitempty"`
}

// Case is a business case study.
type Case struct {
	ID         int      `json:"id"`
	Title      string   `json:"t"`
	Scenario   string   `json:"s"`
	Task       string   `json:"task"`
	Category   string   `json:"cat,omitempty"`
	Difficulty string   `json:"d,omitempty"`
	Minutes    int      `json:"time,omitempty"`
	Criteria   []string `json:"criteria"`
	Model      string   `json:"m,omitempty"`
	Direction  string   `json:"direction,omitempty"`
	Tips       string   `json:"tips,omitempty"`
	Context    string   `json:"context,omitempty"`
}

// AsQuestion adapts a case for grading: the prompt is "title: task" and the
// criteria act as the expected concepts.
func (c Case) AsQuestion() Question {
	return Question{
		Text:  c.Title + ": " + c.Task,
		Keys:  c.Criteria,
		Model: c.Model,
	}
}

// BankMeta describes how a bank was generated.
type BankMeta struct {
	TargetRole           string `json:"targetRole,omitempty"`
	Difficulty           string `json:"difficulty,omitempty"`
	PersonalisationLevel string `json:"personalisationLevel,omitempty"`
	CVInsights           string `json:"cvInsights,omitempty"`
}

// QuestionBank is the generated set of questions and cases.
type QuestionBank struct {
	Questions []Question `json:"questions"`
	Cases     []Case     `json:"cases"`
	Meta      BankMeta   `json:"bankMeta"`
}

// Problem is a single custom question or case produced on demand.
type Problem struct {
	Title     string   `json:"t"`
	Scenario  string   `json:"s"`
	Task      string   `json:"task"`
	Direction string   `json:"direction,omitempty"`
	Tips      string   `json:"tips,omitempty"`
	Keys      []string `json:"keys"`
	Model     string   `json:"m,omitempty"`
	Category  string   `json:"cat,omitempty"`
	Minutes   int      `json:"time,omitempty"`
	Criteria  []string `json:"criteria,omitempty"`
	Context   string   `json:"context,omitempty"`
	Locked    bool     `json:"lk"`
}
