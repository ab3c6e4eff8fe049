package rules

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

const maxChampionshipResults = 5

// Championship describes the qualification of a championship event: the
// results inside a window ending the day before the entry period closes are
// scored, and the dog qualifies when the scored results meet Qualifies.
type Championship struct {
	// Filter selects the results that count, see CompileResultFilter
	Filter string
	// Window returns the inclusive result window for the entry end date.
	// qualificationStart is zero when unknown.
	Window func(entryEnd, qualificationStart time.Time) (minDate, maxDate time.Time)
	// Points scores a selected result
	Points func(r Result) int
	// Qualifies decides on the results given and the scored ones, best first
	Qualifies func(official, manual, relevant []QualifyingResult) bool
}

// Compile turns the championship into a custom rule set
func (ch Championship) Compile() (CustomRules, error) {
	if ch.Window == nil || ch.Points == nil || ch.Qualifies == nil {
		return nil, fmt.Errorf("championship %q is incomplete", ch.Filter)
	}
	filter, err := CompileResultFilter(ch.Filter)
	if err != nil {
		return nil, err
	}

	return func(official, manual []QualifyingResult, entryEnd, qualificationStart time.Time) Outcome {
		minDate, maxDate := ch.Window(entryEnd, qualificationStart)

		relevant := []QualifyingResult{}
		score := func(results []QualifyingResult, isOfficial bool) {
			for _, r := range results {
				r.Official = isOfficial
				if !filter.Match(r.Result, minDate, maxDate) {
					continue
				}
				r.Qualifying = boolPtr(true)
				r.Points = ch.Points(r.Result)
				relevant = append(relevant, r)
			}
		}
		score(official, true)
		score(manual, false)

		slices.SortStableFunc(relevant, byPointsAndDate)

		qualifies := ch.Qualifies(official, manual, relevant)
		if len(relevant) > maxChampionshipResults {
			relevant = relevant[:maxChampionshipResults]
		}

		return Outcome{
			Relevant:      relevant,
			Qualifies:     qualifies,
			MinResultDate: &minDate,
			MaxResultDate: &maxDate,
		}
	}, nil
}

func byPointsAndDate(a, b QualifyingResult) int {
	if a.Points != b.Points {
		return cmp.Compare(b.Points, a.Points)
	}
	return b.Date.Compare(a.Date)
}

func dayBefore(t time.Time) time.Time {
	return t.AddDate(0, 0, -1)
}

func isResult(code string) func(r QualifyingResult) bool {
	return func(r QualifyingResult) bool { return r.Result.Result == code }
}

// NOME-B championship: VOI results since the previous championship
var nomeBChampionship = Championship{
	Filter: `resultType == "NOME-B" && class == "VOI" &&
		((date >= minDate && date <= maxDate && result in ["VOI1", "VOI2", "VOI3"]) || result.startsWith("FI KVA"))`,
	Window: func(entryEnd, qualificationStart time.Time) (time.Time, time.Time) {
		if qualificationStart.IsZero() {
			qualificationStart = time.Date(2023, time.August, 18, 0, 0, 0, 0, time.UTC)
		}
		return qualificationStart, dayBefore(entryEnd)
	},
	Points: func(r Result) int {
		switch r.Result {
		case "FI KVA-B", "VOI1":
			return 6
		case "VOI2":
			return 3
		case "VOI3":
			return 1
		}
		return 0
	},
	Qualifies: func(_, _, relevant []QualifyingResult) bool {
		return slices.ContainsFunc(relevant, isResult("VOI1"))
	},
}

// NOME-A championship: A and KV results of the last two years
var nomeAChampionship = Championship{
	Filter: `(resultType == "NOME-A" || resultType == "NOME-A KV") &&
		((date >= minDate && date <= maxDate && result in ["A1", "A2", "A3", "EXC", "VG", "G"]) || result == "FI KVA-FT")`,
	Window: func(entryEnd, _ time.Time) (time.Time, time.Time) {
		return entryEnd.AddDate(-2, 0, 0), dayBefore(entryEnd)
	},
	Points: func(r Result) int {
		switch r.Result {
		case "FI KVA-FT":
			return 6
		case "A1", "EXC":
			switch {
			case r.Cert || r.Cacit:
				return 6
			case r.ResCert || r.ResCacit:
				return 5
			}
			return 4
		case "A2", "VG":
			return 2
		case "A3", "G":
			return 1
		}
		return 0
	},
	// any A1 counts, even outside the window
	Qualifies: func(official, manual, _ []QualifyingResult) bool {
		a1 := func(r QualifyingResult) bool { return r.Type == "NOME-A" && r.Result.Result == "A1" }
		kvExc := func(r QualifyingResult) bool { return r.Type == "NOME-A KV" && r.Result.Result == "EXC" }
		return slices.ContainsFunc(official, a1) ||
			slices.ContainsFunc(manual, func(r QualifyingResult) bool { return a1(r) || kvExc(r) })
	},
}

// NOWT championship: VOI results of the last year
var nowtChampionship = Championship{
	Filter: `resultType == "NOWT" && class == "VOI" &&
		((date >= minDate && date <= maxDate && result in ["VOI1", "VOI2", "VOI3"]) || result == "FI KVA-WT")`,
	Window: func(entryEnd, _ time.Time) (time.Time, time.Time) {
		return entryEnd.AddDate(-1, 0, 0), dayBefore(entryEnd)
	},
	Points: func(r Result) int {
		switch r.Result {
		case "FI KVA-WT":
			return 6
		case "VOI1":
			switch {
			case r.Cert:
				return 6
			case r.ResCert:
				return 5
			}
			return 4
		case "VOI2":
			return 2
		case "VOI3":
			return 1
		}
		return 0
	},
	Qualifies: func(_, _, relevant []QualifyingResult) bool {
		return slices.ContainsFunc(relevant, isResult("VOI1"))
	},
}
