package domain

import (
	"fmt"
	"slices"
)

// ScoreFilter is a tagged choice: either no score restriction, or restrict to
// an explicit set. RestrictTo with no scores matches nothing; callers that
// want "empty multi-select means everything" must use NoScoreFilter.
type ScoreFilter struct {
	Restrict bool  `json:"restrict"`
	Scores   []int `json:"scores,omitempty"`
}

func NoScoreFilter() ScoreFilter { return ScoreFilter{} }

func RestrictTo(scores ...int) ScoreFilter {
	set := slices.Clone(scores)
	slices.Sort(set)
	return ScoreFilter{Restrict: true, Scores: slices.Compact(set)}
}

// ScoresFromSelect maps a UI multi-select to a filter: nothing selected means no restriction.
func ScoresFromSelect(selected []int) ScoreFilter {
	if len(selected) == 0 {
		return NoScoreFilter()
	}
	return RestrictTo(selected...)
}

func (f ScoreFilter) Allows(score int) bool {
	if !f.Restrict {
		return true
	}
	return slices.Contains(f.Scores, score)
}

// Selection is the user's current filter state.
type Selection struct {
	StartYear int         `json:"start_year"`
	EndYear   int         `json:"end_year"`
	Scores    ScoreFilter `json:"scores"`
	Behavior  string      `json:"behavior,omitempty"`
}

func (s Selection) Validate() error {
	if s.StartYear > s.EndYear {
		return fmt.Errorf("%w: start year %d is after end year %d", ErrInvalidRange, s.StartYear, s.EndYear)
	}
	return nil
}
