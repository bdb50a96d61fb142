package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DukeRupert/readyhire/internal/domain"
)

func TestHeuristic_FoundAndMissing(t *testing.T) {
	answer := strings.TrimSpace(strings.Repeat("word ", 47) + "NPV and IRR")
	fb := Heuristic(answer, []string{"npv", "irr", "wacc"})

	assert.Equal(t, []string{"npv", "irr"}, fb.Found)
	assert.Equal(t, []string{"wacc"}, fb.Missing)
	// 2/3*60 + min(50/5, 25) + 10 = 60
	assert.Equal(t, 60, fb.Score)
	assert.Equal(t, "Score: 60. Covered 2/3 concepts.", fb.Summary)
	assert.Equal(t, []domain.Point{{Title: "Good attempt", Detail: "Covered: npv, irr"}}, fb.Strengths)
	assert.Equal(t, []domain.Point{{Title: "Add concepts", Detail: "Consider: wacc"}}, fb.Improvements)
	assert.Equal(t, domain.FeedbackSourceHeuristic, fb.Source)
}

func TestHeuristic_Scores(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		keys   []string
		want   int
	}{
		{name: "empty answer no keys", answer: "", keys: nil, want: 10},
		{name: "no keys counts coverage as zero", answer: "one two three four five", keys: nil, want: 11},
		{name: "full coverage short", answer: "ebitda", keys: []string{"EBITDA"}, want: 70},
		{name: "length bonus caps at 25", answer: strings.Repeat("x ", 400), keys: []string{"y"}, want: 35},
		{name: "capped at 95", answer: "dcf " + strings.Repeat("x ", 200), keys: []string{"dcf"}, want: 95},
		{name: "rounds half up", answer: "alpha b c d e f g h i j", keys: []string{"alpha", "k1", "k2", "k3", "k4", "k5", "k6", "k7"}, want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Heuristic(tt.answer, tt.keys).Score)
		})
	}
}

func TestHeuristic_NothingFound(t *testing.T) {
	fb := Heuristic("I am not sure.", []string{"goodwill", "impairment", "ifrs 3"})
	assert.Empty(t, fb.Found)
	assert.Equal(t, "Keep practising", fb.Strengths[0].Detail)
	assert.Equal(t, "Consider: goodwill, impairment", fb.Improvements[0].Detail)
}

func TestHeuristic_AllFound(t *testing.T) {
	fb := Heuristic("Goodwill impairment under IFRS 3", []string{"goodwill", "impairment", "ifrs 3"})
	assert.Empty(t, fb.Missing)
	assert.Equal(t, "Review model", fb.Improvements[0].Detail)
	assert.Equal(t, "Covered: goodwill, impairment", fb.Strengths[0].Detail)
}

func TestHeuristic_Deterministic(t *testing.T) {
	keys := []string{"working capital", "dso", "dpo"}
	answer := "Reduce DSO and extend DPO to release working capital."
	assert.Equal(t, Heuristic(answer, keys), Heuristic(answer, keys))
}
