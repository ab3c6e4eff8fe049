package rules

import (
	"slices"
	"strings"
	"time"
)

const (
	// Entry level result that moves a dog out of the entry class
	entryLevelPass = "NOU1"

	maxBestResults = 3
)

// FilterRelevantResults decides whether a dog qualifies for class of event and
// which of its results justify the decision.
//
// Incomplete manual results are ignored. A result of the event type in the
// next class, or an entry level pass, disqualifies immediately. A dog that
// qualifies for the class is still rejected when its results from previous
// years already qualify it for the next class. Otherwise the best results of
// the class are appended for display.
//
// The function is pure. Inputs are never modified.
func FilterRelevantResults(c *Catalog, event Event, class Class, official []Result, manual []QualifyingResult) Outcome {
	nextClass := NextClass(class)
	rules := c.rules(event.EventType, class, event.StartDate)
	var nextRules RuleSet
	if nextClass != ClassNone {
		nextRules = c.rules(event.EventType, nextClass, event.StartDate)
	}

	officialFacts := officialResults(official)
	manualFacts := completeManualResults(manual)

	if out, ok := findDisqualifying(officialFacts, manualFacts, event.EventType, nextClass); ok {
		return out
	}

	check := Evaluate(rules, officialFacts, manualFacts, event.entryEnd(), event.QualificationStartDate, true)
	if !check.Qualifies || len(check.Relevant) == 0 {
		return check
	}

	if nextClass != ClassNone {
		yearStart := startOfYear(event.StartDate, c.loc)
		dis := Evaluate(nextRules,
			excludeYear(officialFacts, yearStart),
			excludeYear(manualFacts, yearStart),
			event.entryEnd(), event.QualificationStartDate, false)
		if dis.Qualifies {
			relevant := slices.Concat(check.Relevant, dis.Relevant)
			slices.SortStableFunc(relevant, byDate)
			return Outcome{Relevant: relevant, Qualifies: false}
		}
	}

	check.Relevant = append(check.Relevant, bestResults(event.EventType, class, officialFacts, manualFacts)...)
	return check
}

// CompleteManualResult reports whether a manual result carries the fields
// needed for it to count
func CompleteManualResult(r Result) bool {
	return r.Type != "" && !r.Date.IsZero() && r.Location != "" && r.Judge != ""
}

func officialResults(results []Result) []QualifyingResult {
	out := make([]QualifyingResult, 0, len(results))
	for _, r := range results {
		r.Official = true
		out = append(out, QualifyingResult{Result: r})
	}
	return out
}

func completeManualResults(results []QualifyingResult) []QualifyingResult {
	out := make([]QualifyingResult, 0, len(results))
	for _, r := range results {
		if !CompleteManualResult(r.Result) {
			continue
		}
		r.Official = false
		out = append(out, r)
	}
	return out
}

// findDisqualifying returns the first result, official before manual, that
// rules the dog out of the class regardless of anything else
func findDisqualifying(official, manual []QualifyingResult, eventType string, nextClass Class) (Outcome, bool) {
	disqualifies := func(r QualifyingResult) bool {
		if r.Type != eventType {
			return false
		}
		return (r.Class != ClassNone && r.Class == nextClass) || r.Result.Result == entryLevelPass
	}

	for _, results := range [][]QualifyingResult{official, manual} {
		if i := slices.IndexFunc(results, disqualifies); i >= 0 {
			r := results[i]
			r.Qualifying = boolPtr(false)
			return Outcome{Relevant: []QualifyingResult{r}, Qualifies: false}, true
		}
	}
	return Outcome{}, false
}

// excludeYear drops results dated on or after yearStart
func excludeYear(results []QualifyingResult, yearStart time.Time) []QualifyingResult {
	out := make([]QualifyingResult, 0, len(results))
	for _, r := range results {
		if !r.Date.Before(yearStart) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// bestResults picks the earliest winning results of the class for display.
// They are informational, so a negative annotation is cleared.
func bestResults(eventType string, class Class, official, manual []QualifyingResult) []QualifyingResult {
	var best []QualifyingResult
	for _, r := range slices.Concat(official, manual) {
		if r.Type != eventType || r.Class != class || !strings.HasSuffix(r.Result.Result, "1") {
			continue
		}
		if r.Qualifying != nil && !*r.Qualifying {
			r.Qualifying = nil
		}
		best = append(best, r)
	}
	slices.SortStableFunc(best, byDate)
	if len(best) > maxBestResults {
		best = best[:maxBestResults]
	}
	return best
}
