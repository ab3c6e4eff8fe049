package rules

import (
	"slices"
	"time"
)

// Evaluate checks the official and manual results against a rule set.
//
// Custom rules decide on their own. A nil or empty rule set imposes no
// requirement and yields qualify as the verdict. Otherwise the results are
// counted per requirement, official ones first, and every matching result is
// annotated with qualify. An alternative qualifies when each of its
// requirements reaches its count.
func Evaluate(set RuleSet, official, manual []QualifyingResult, entryEnd, qualificationStart time.Time, qualify bool) Outcome {
	switch rs := set.(type) {
	case CustomRules:
		if rs == nil {
			break
		}
		return rs(official, manual, entryEnd, qualificationStart)
	case FixedRules:
		if len(rs) > 0 {
			return evaluateFixed(rs, official, manual, qualify)
		}
	}
	return Outcome{Relevant: []QualifyingResult{}, Qualifies: qualify}
}

func evaluateFixed(rs FixedRules, official, manual []QualifyingResult, qualify bool) Outcome {
	relevant := []QualifyingResult{}
	counts := make([][]int, len(rs))
	qualifies := false

	collect := func(r QualifyingResult, isOfficial bool) {
		if slices.ContainsFunc(relevant, func(rel QualifyingResult) bool { return rel.Date.Equal(r.Date) }) {
			return
		}
		r.Qualifying = boolPtr(qualify)
		r.Official = isOfficial
		relevant = append(relevant, r)
	}

	for i, alt := range rs {
		counts[i] = make([]int, len(alt))
		for j, req := range alt {
			for _, r := range official {
				if req.Matches(r.Result) {
					collect(r, true)
					counts[i][j]++
				}
			}
			for _, r := range manual {
				if req.Matches(r.Result) {
					collect(r, false)
					counts[i][j]++
				}
			}
		}
		if alternativeMet(alt, counts[i]) {
			qualifies = true
		}
	}

	slices.SortStableFunc(relevant, byDate)
	return Outcome{Relevant: relevant, Qualifies: qualifies}
}

func alternativeMet(alt Alternative, counts []int) bool {
	for j, req := range alt {
		if counts[j] < req.Count {
			return false
		}
	}
	return true
}

func byDate(a, b QualifyingResult) int {
	return a.Date.Compare(b.Date)
}

func boolPtr(b bool) *bool {
	return &b
}
