package ai

import (
	"encoding/json"
	"math"

	"github.com/tidwall/gjson"

	"github.com/DukeRupert/readyhire/internal/domain"
)

// DecodeFeedback validates and decodes a grading object.
// score must be a number; list fields may be absent but must be arrays when present.
func DecodeFeedback(op string, obj json.RawMessage) (*domain.Feedback, error) {
	r := gjson.ParseBytes(obj)
	raw := string(obj)

	score := r.Get("score")
	if score.Type != gjson.Number {
		return nil, schemaError(op, raw, "score must be a number, got %s", score.Type)
	}
	for _, field := range []string{"strengths", "improvements", "found", "missing"} {
		if v := r.Get(field); v.Exists() && v.Type != gjson.Null && !v.IsArray() {
			return nil, schemaError(op, raw, "%s must be an array", field)
		}
	}
	if s := r.Get("summary"); s.Exists() && s.Type != gjson.String && s.Type != gjson.Null {
		return nil, schemaError(op, raw, "summary must be a string")
	}

	return &domain.Feedback{
		Score:        ClampScore(score.Float()),
		Strengths:    points(r.Get("strengths")),
		Improvements: points(r.Get("improvements")),
		Found:        stringsOf(r.Get("found")),
		Missing:      stringsOf(r.Get("missing")),
		Summary:      r.Get("summary").String(),
		Source:       domain.FeedbackSourceAI,
	}, nil
}

// ClampScore rounds half away from zero and clamps into 0..100.
func ClampScore(f float64) int {
	if math.IsNaN(f) {
		return 0
	}
	n := math.Round(f)
	switch {
	case n < 0:
		return 0
	case n > 100:
		return 100
	}
	return int(n)
}

// points accepts {t,d} objects or bare strings.
func points(v gjson.Result) []domain.Point {
	out := []domain.Point{}
	v.ForEach(func(_, item gjson.Result) bool {
		switch {
		case item.IsObject():
			out = append(out, domain.Point{Title: item.Get("t").String(), Detail: item.Get("d").String()})
		case item.Type == gjson.String:
			out = append(out, domain.Point{Title: item.String()})
		}
		return true
	})
	return out
}

func stringsOf(v gjson.Result) []string {
	out := []string{}
	v.ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			out = append(out, item.String())
		}
		return true
	})
	return out
}

// DecodeBank validates and decodes a question bank.
// questions must be a non-empty array of objects, each with a string q.
func DecodeBank(op string, obj json.RawMessage) (*domain.QuestionBank, error) {
	r := gjson.ParseBytes(obj)
	raw := string(obj)

	questions := r.Get("questions")
	if !questions.IsArray() {
		return nil, schemaError(op, raw, "questions must be an array")
	}
	items := questions.Array()
	if len(items) == 0 {
		return nil, schemaError(op, raw, "questions is empty")
	}
	for i, q := range items {
		if !q.IsObject() || q.Get("q").Type != gjson.String {
			return nil, schemaError(op, raw, "questions[%d].q must be a string", i)
		}
		if k := q.Get("keys"); k.Exists() && !k.IsArray() {
			return nil, schemaError(op, raw, "questions[%d].keys must be an array", i)
		}
	}
	if c := r.Get("cases"); c.Exists() && c.Type != gjson.Null && !c.IsArray() {
		return nil, schemaError(op, raw, "cases must be an array")
	}

	var bank domain.QuestionBank
	if err := json.Unmarshal(obj, &bank); err != nil {
		return nil, schemaError(op, raw, "decode bank: %v", err)
	}
	for i := range bank.Questions {
		if bank.Questions[i].ID == 0 {
			bank.Questions[i].ID = i + 1
		}
	}
	for i := range bank.Cases {
		if bank.Cases[i].ID == 0 {
			bank.Cases[i].ID = i + 1
		}
	}
	return &bank, nil
}

// DecodeCV validates and decodes extracted CV data.
func DecodeCV(op string, obj json.RawMessage) (*domain.CVData, error) {
	r := gjson.ParseBytes(obj)
	raw := string(obj)

	if !r.Get("candidate_profile").IsObject() {
		return nil, schemaError(op, raw, "candidate_profile must be an object")
	}
	if e := r.Get("employment_history"); e.Exists() && e.Type != gjson.Null && !e.IsArray() {
		return nil, schemaError(op, raw, "employment_history must be an array")
	}

	var cv domain.CVData
	if err := json.Unmarshal(obj, &cv); err != nil {
		return nil, schemaError(op, raw, "decode cv: %v", err)
	}
	return &cv, nil
}

// DecodeProblem validates and decodes a single generated problem.
func DecodeProblem(op string, obj json.RawMessage) (*domain.Problem, error) {
	r := gjson.ParseBytes(obj)
	raw := string(obj)

	if r.Get("t").Type != gjson.String {
		return nil, schemaError(op, raw, "t must be a string")
	}
	if r.Get("task").Type != gjson.String && r.Get("s").Type != gjson.String {
		return nil, schemaError(op, raw, "task or s must be a string")
	}

	var p domain.Problem
	if err := json.Unmarshal(obj, &p); err != nil {
		return nil, schemaError(op, raw, "decode problem: %v", err)
	}
	return &p, nil
}
