package rules

import (
	"fmt"
	"slices"
	"time"
)

// RuleDate is a calendar date (YYYY-MM-DD) from which a rule set version applies
type RuleDate string

const ruleDateLayout = "2006-01-02"

// Effective dates of the historical rule changes
const (
	RuleDate1977 RuleDate = "1977-01-01"
	RuleDate1986 RuleDate = "1986-01-01"
	RuleDate1991 RuleDate = "1991-01-01"
	RuleDate1999 RuleDate = "1999-01-01"
	RuleDate2006 RuleDate = "2006-04-01"
	RuleDate2009 RuleDate = "2009-01-01"
	RuleDate2016 RuleDate = "2016-04-01"
	RuleDate2023 RuleDate = "2023-04-15"
)

// RuleDates returns every known effective rule date in ascending order
func RuleDates() []RuleDate {
	return []RuleDate{
		RuleDate1977,
		RuleDate1986,
		RuleDate1991,
		RuleDate1999,
		RuleDate2006,
		RuleDate2009,
		RuleDate2016,
		RuleDate2023,
	}
}

// Known reports whether d is one of RuleDates
func (d RuleDate) Known() bool {
	return slices.Contains(RuleDates(), d)
}

// Time returns the start of the rule date in loc
func (d RuleDate) Time(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(ruleDateLayout, string(d), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid rule date %q: %w", d, err)
	}
	return t, nil
}

// ResolveRuleDate picks the rule date in effect on date.
// available must be sorted ascending. It returns the last date not after date,
// the earliest one when date precedes them all, and false when available is empty.
// Dates are compared as calendar days in loc.
func ResolveRuleDate(date time.Time, available []RuleDate, loc *time.Location) (RuleDate, bool) {
	if len(available) == 0 {
		return "", false
	}
	day := RuleDate(date.In(loc).Format(ruleDateLayout))
	resolved := available[0]
	for _, d := range available[1:] {
		if d > day {
			break
		}
		resolved = d
	}
	return resolved, true
}

// startOfYear returns January 1st of t's year in loc
func startOfYear(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.In(loc).Year(), time.January, 1, 0, 0, 0, 0, loc)
}
