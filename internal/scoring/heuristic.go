// Package scoring grades answers locally when the remote grader is unavailable.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DukeRupert/readyhire/internal/domain"
)

const (
	coverageWeight = 60.0
	maxLengthBonus = 25.0
	wordsPerPoint  = 5.0
	baseline       = 10.0
	maxScore       = 95.0 // below 100 so local grades are recognisable
)

var lower = cases.Lower(language.Und)

// Heuristic grades answer by literal concept coverage and length.
// It is deterministic and never fails.
func Heuristic(answer string, keys []string) domain.Feedback {
	text := lower.String(answer)

	found, missing := []string{}, []string{}
	for _, k := range keys {
		if strings.Contains(text, lower.String(k)) {
			found = append(found, k)
		} else {
			missing = append(missing, k)
		}
	}

	coverage := float64(len(found)) / float64(max(len(keys), 1))
	words := float64(len(strings.Fields(answer)))
	raw := coverage*coverageWeight + math.Min(words/wordsPerPoint, maxLengthBonus) + baseline
	score := int(math.Round(math.Min(raw, maxScore)))

	strength := "Keep practising"
	if len(found) > 0 {
		strength = "Covered: " + strings.Join(firstN(found, 2), ", ")
	}
	improvement := "Review model"
	if len(missing) > 0 {
		improvement = "Consider: " + strings.Join(firstN(missing, 2), ", ")
	}

	return domain.Feedback{
		Score:        score,
		Strengths:    []domain.Point{{Title: "Good attempt", Detail: strength}},
		Improvements: []domain.Point{{Title: "Add concepts", Detail: improvement}},
		Found:        found,
		Missing:      missing,
		Summary:      fmt.Sprintf("Score: %d. Covered %d/%d concepts.", score, len(found), len(keys)),
		Source:       domain.FeedbackSourceHeuristic,
	}
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
