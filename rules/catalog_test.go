package rules

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// TestResolveRuleDate verifies the last rule date not after the event date is picked
func TestResolveRuleDate(t *testing.T) {
	available := []RuleDate{RuleDate2006, RuleDate2009, RuleDate2016, RuleDate2023}

	tests := []struct {
		date string
		want RuleDate
	}{
		{"2022-08-01", RuleDate2016},
		{"2023-04-14", RuleDate2016},
		{"2023-04-15", RuleDate2023},
		{"2030-01-01", RuleDate2023},
		{"2009-01-01", RuleDate2009},
		{"2008-12-31", RuleDate2006},
		// earlier than every version
		{"1995-06-01", RuleDate2006},
	}

	for _, tt := range tests {
		got, ok := ResolveRuleDate(day(tt.date), available, time.UTC)
		if !ok || got != tt.want {
			t.Errorf("ResolveRuleDate(%s) = %q, %v, want %q", tt.date, got, ok, tt.want)
		}
	}

	if _, ok := ResolveRuleDate(day("2022-08-01"), nil, time.UTC); ok {
		t.Error("ResolveRuleDate with no dates should report false")
	}
}

// TestResolveRuleDate_Location verifies calendar days are taken in the given zone
func TestResolveRuleDate_Location(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	if err != nil {
		t.Fatalf("failed to load location: %v", err)
	}
	available := []RuleDate{RuleDate2016, RuleDate2023}

	// 2023-04-15 00:30 in Helsinki, still the 14th in UTC
	date := time.Date(2023, time.April, 14, 21, 30, 0, 0, time.UTC)

	if got, _ := ResolveRuleDate(date, available, helsinki); got != RuleDate2023 {
		t.Errorf("in Helsinki got %q, want %q", got, RuleDate2023)
	}
	if got, _ := ResolveRuleDate(date, available, time.UTC); got != RuleDate2016 {
		t.Errorf("in UTC got %q, want %q", got, RuleDate2016)
	}
}

// TestRuleDate verifies the known rule dates parse and are in order
func TestRuleDate(t *testing.T) {
	dates := RuleDates()
	for i, d := range dates {
		if !d.Known() {
			t.Errorf("%q should be known", d)
		}
		if _, err := d.Time(time.UTC); err != nil {
			t.Errorf("%q does not parse: %v", d, err)
		}
		if i > 0 && dates[i-1] >= d {
			t.Errorf("rule dates out of order at %q", d)
		}
	}

	if RuleDate("2020-01-01").Known() {
		t.Error("2020-01-01 should not be a known rule date")
	}
	if _, err := RuleDate("someday").Time(time.UTC); err == nil {
		t.Error("expected error for an invalid rule date")
	}
}

// TestNewCatalog_Validation verifies malformed entries are rejected with every problem listed
func TestNewCatalog_Validation(t *testing.T) {
	entries := map[string]Entry{
		"EMPTY":   {Results: Versions{}},
		"UNKNOWN": {Results: Versions{"2020-01-01": FixedRules{}}},
		"NILSET":  {Results: Versions{RuleDate2023: nil}},
		"NOALT":   {Classes: map[Class]Versions{ClassALO: {RuleDate2023: FixedRules{{}}}}},
		"COUNT":   {Results: Versions{RuleDate2023: FixedRules{{requirement("NOU", "NOU1", 0)}}}},
		"NOFUNC":  {Results: Versions{RuleDate2023: CustomRules(nil)}},
	}

	_, err := NewCatalog(time.UTC, entries)
	if err == nil {
		t.Fatal("expected validation error")
	}

	for _, want := range []string{
		"EMPTY: no rule dates",
		`UNKNOWN: unknown rule date "2020-01-01"`,
		"NILSET: 2023-04-15: missing rule set",
		"NOALT ALO: 2023-04-15: alternative 0 is empty",
		"COUNT: 2023-04-15: alternative 0: count must be positive",
		"NOFUNC: 2023-04-15: missing custom rule function",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

// TestCatalog_Requirements verifies class rules win and event rules are the fallback
func TestCatalog_Requirements(t *testing.T) {
	classRules := FixedRules{{requirement("X", "ALO1", 1)}}
	eventRules := FixedRules{{requirement("X", "NOU1", 1)}}

	c, err := NewCatalog(time.UTC, map[string]Entry{
		"X": {
			Results: Versions{RuleDate2009: eventRules},
			Classes: map[Class]Versions{ClassAVO: {RuleDate2016: classRules}},
		},
		"Y": {MinAgeMonths: 9},
	})
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}

	req, ok := c.Requirements("X", ClassAVO, day("2020-01-01"))
	if !ok || req.Date != RuleDate2016 {
		t.Fatalf("AVO requirements = %+v, %v", req, ok)
	}
	if diff := cmp.Diff(RuleSet(classRules), req.Rules); diff != "" {
		t.Errorf("AVO rules mismatch (-want +got):\n%s", diff)
	}

	req, ok = c.Requirements("X", ClassVOI, day("2020-01-01"))
	if !ok || req.Date != RuleDate2009 {
		t.Fatalf("VOI requirements = %+v, %v", req, ok)
	}
	if diff := cmp.Diff(RuleSet(eventRules), req.Rules); diff != "" {
		t.Errorf("VOI rules mismatch (-want +got):\n%s", diff)
	}

	if _, ok := c.Requirements("Y", ClassNone, day("2020-01-01")); ok {
		t.Error("Y has no result requirements")
	}
	if _, ok := c.Requirements("Z", ClassNone, day("2020-01-01")); ok {
		t.Error("Z is not in the catalog")
	}

	if diff := cmp.Diff([]string{"X", "Y"}, c.EventTypes()); diff != "" {
		t.Errorf("EventTypes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Class{ClassAVO}, c.Classes("X")); diff != "" {
		t.Errorf("Classes mismatch (-want +got):\n%s", diff)
	}
}

// TestDefaultCatalog verifies the built-in catalog resolves the rule versions in force
func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	if c.Location().String() != DefaultTimeZone {
		t.Errorf("Location() = %s, want %s", c.Location(), DefaultTimeZone)
	}

	tests := []struct {
		eventType string
		class     Class
		date      string
		want      FixedRules
	}{
		{"NOME-B", ClassAVO, "2022-08-01", FixedRules{{requirement("NOME-B", "ALO1", 2)}}},
		{"NOME-B", ClassAVO, "2023-08-01", FixedRules{{requirement("NOME-B", "ALO1", 1)}}},
		{"NOME-B", ClassVOI, "1990-08-01", FixedRules{{requirement("NOME-B", "AVO1", 2)}}},
		{"NOME-B", ClassALO, "1980-08-01", FixedRules{{requirement("NOU", "NOU1", 1)}}},
		{"NOWT", ClassVOI, "2024-08-01", FixedRules{{requirement("NOWT", "AVO1", 1)}}},
		{"NOME-A", ClassNone, "2012-08-01", FixedRules{
			{requirement("NOME-B", "AVO1", 1)},
			{requirement("NOWT", "AVO1", 1)},
		}},
	}

	for _, tt := range tests {
		req, ok := c.Requirements(tt.eventType, tt.class, day(tt.date))
		if !ok {
			t.Errorf("%s %s %s: no requirements", tt.eventType, tt.class, tt.date)
			continue
		}
		if diff := cmp.Diff(RuleSet(tt.want), req.Rules); diff != "" {
			t.Errorf("%s %s %s mismatch (-want +got):\n%s", tt.eventType, tt.class, tt.date, diff)
		}
	}

	for _, eventType := range []string{"NOME-B SM", "NOME-A SM", "NOWT SM"} {
		req, ok := c.Requirements(eventType, ClassNone, day("2024-08-01"))
		if !ok {
			t.Errorf("%s: no requirements", eventType)
			continue
		}
		if _, custom := req.Rules.(CustomRules); !custom {
			t.Errorf("%s: expected custom rules, got %T", eventType, req.Rules)
		}
		if e, _ := c.Entry(eventType); !e.FinnishRegistration {
			t.Errorf("%s should require a Finnish registration", eventType)
		}
	}

	if e, ok := c.Entry("NOU"); !ok || e.MinAgeMonths != 9 || len(e.BreedCodes) != 6 {
		t.Errorf("NOU entry = %+v, %v", e, ok)
	}
}

// TestCatalog_QualificationStartDate verifies the window starts the day after
// the previous entry period closed
func TestCatalog_QualificationStartDate(t *testing.T) {
	c := DefaultCatalog()

	previous := Event{
		EventType:        "NOME-B SM",
		StartDate:        day("2023-09-01"),
		EntryEndDate:     day("2023-08-20"),
		EntryOrigEndDate: day("2023-08-17"),
	}

	got, ok := c.QualificationStartDate(previous)
	if !ok {
		t.Fatal("expected a start date")
	}
	want := time.Date(2023, time.August, 18, 0, 0, 0, 0, c.Location())
	if !got.Equal(want) {
		t.Errorf("QualificationStartDate() = %v, want %v", got, want)
	}

	if _, ok := c.QualificationStartDate(Event{StartDate: day("2023-09-01")}); ok {
		t.Error("event without entry dates should report false")
	}
}

// TestCatalog_AfterPrevious verifies the qualification start is derived from
// the previous event unless already set
func TestCatalog_AfterPrevious(t *testing.T) {
	c := DefaultCatalog()
	previous := Event{EventType: "NOME-B SM", StartDate: day("2024-09-01"), EntryEndDate: day("2024-08-15")}
	ev := Event{EventType: "NOME-B SM", StartDate: day("2025-09-01"), EntryEndDate: day("2025-08-15")}

	got := c.AfterPrevious(ev, previous)
	want := time.Date(2024, time.August, 16, 0, 0, 0, 0, c.Location())
	if !got.QualificationStartDate.Equal(want) {
		t.Errorf("QualificationStartDate = %v, want %v", got.QualificationStartDate, want)
	}
	if !got.StartDate.Equal(ev.StartDate) {
		t.Errorf("StartDate changed to %v", got.StartDate)
	}

	set := day("2024-01-01")
	ev.QualificationStartDate = set
	if got := c.AfterPrevious(ev, previous); !got.QualificationStartDate.Equal(set) {
		t.Errorf("explicit start replaced with %v", got.QualificationStartDate)
	}

	ev.QualificationStartDate = time.Time{}
	if got := c.AfterPrevious(ev, Event{}); !got.QualificationStartDate.IsZero() {
		t.Errorf("previous event without entry dates gave %v", got.QualificationStartDate)
	}
}
