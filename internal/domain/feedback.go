// Package domain contains core business types and interfaces.
//
// This file defines answer feedback and the practice history types.
package domain

import "time"

// FeedbackSource records who graded an answer.
type FeedbackSource string

const (
	FeedbackSourceAI        FeedbackSource = "ai"
	FeedbackSourceHeuristic FeedbackSource = "heuristic"
)

// Point is a titled strength or improvement.
type Point struct {
	Title  string `json:"t"`
	Detail string `json:"d"`
}

// Feedback is the grading result for one answer. Remote and local graders
// produce the same shape.
type Feedback struct {
	Score        int            `json:"score"`
	Strengths    []Point        `json:"strengths"`
	Improvements []Point        `json:"improvements"`
	Found        []string       `json:"found"`
	Missing      []string       `json:"missing"`
	Summary      string         `json:"summary"`
	Source       FeedbackSource `json:"source,omitempty"`
}

// SessionType distinguishes question practice from case studies.
type SessionType string

const (
	SessionTypeQuestion SessionType = "question"
	SessionTypeCase     SessionType = "case"
)

// QuotaType returns the allowance a session of this type consumes.
func (s SessionType) QuotaType() QuotaType {
	if s == SessionTypeCase {
		return QuotaTypeCases
	}
	return QuotaTypeQuestions
}

// SessionRecord is one immutable entry of the practice history.
type SessionRecord struct {
	ID       int64       `json:"id"`
	Title    string      `json:"title"`
	Score    int         `json:"score"`
	Type     SessionType `json:"type"`
	Question string      `json:"question"`
	Answer   string      `json:"answer"`
	Feedback Feedback    `json:"feedback"`
	Date     time.Time   `json:"date"`
}

// WeakArea counts how often a concept was missed.
type WeakArea struct {
	Area  string `json:"area"`
	Count int    `json:"count"`
}
