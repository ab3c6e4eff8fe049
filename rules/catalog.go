package rules

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Versions maps an effective rule date to the rule set in force from that date
type Versions map[RuleDate]RuleSet

// Entry holds the requirements of one event type
type Entry struct {
	// Minimum age of the dog in months at the event start, 0 for none
	MinAgeMonths int
	// Accepted breed codes, empty accepts every breed
	BreedCodes []string
	// Dog must carry a modern Finnish registration number and a kennel club id
	FinnishRegistration bool

	// Result requirements of the whole event type
	Results Versions
	// Result requirements per class, these take precedence over Results
	Classes map[Class]Versions
}

type catalogEntry struct {
	Entry
	resultDates []RuleDate
	classDates  map[Class][]RuleDate
}

// Requirements is the rule set resolved for an event type, class and date
type Requirements struct {
	Date  RuleDate
	Rules RuleSet
}

// Catalog is the immutable, versioned table of qualification requirements.
// It is safe for concurrent use.
type Catalog struct {
	loc     *time.Location
	entries map[string]catalogEntry
}

// NewCatalog validates entries and builds a catalog evaluated in loc.
// Every version map must be non-empty and keyed by known rule dates.
func NewCatalog(loc *time.Location, entries map[string]Entry) (*Catalog, error) {
	if loc == nil {
		loc = time.UTC
	}

	c := &Catalog{
		loc:     loc,
		entries: make(map[string]catalogEntry, len(entries)),
	}

	var errs []error
	for eventType, e := range entries {
		ce := catalogEntry{Entry: e}

		if e.Results != nil {
			dates, err := validateVersions(e.Results)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", eventType, err))
			}
			ce.resultDates = dates
		}

		if len(e.Classes) > 0 {
			ce.classDates = make(map[Class][]RuleDate, len(e.Classes))
			for class, versions := range e.Classes {
				dates, err := validateVersions(versions)
				if err != nil {
					errs = append(errs, fmt.Errorf("%s %s: %w", eventType, class, err))
				}
				ce.classDates[class] = dates
			}
		}

		c.entries[eventType] = ce
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

func validateVersions(versions Versions) ([]RuleDate, error) {
	if len(versions) == 0 {
		return nil, errors.New("no rule dates")
	}

	var errs []error
	for date, set := range versions {
		if !date.Known() {
			errs = append(errs, fmt.Errorf("unknown rule date %q", date))
		}
		if err := validateRuleSet(set); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", date, err))
		}
	}

	return slices.Sorted(maps.Keys(versions)), errors.Join(errs...)
}

func validateRuleSet(set RuleSet) error {
	switch rs := set.(type) {
	case nil:
		return errors.New("missing rule set")
	case CustomRules:
		if rs == nil {
			return errors.New("missing custom rule function")
		}
	case FixedRules:
		for i, alt := range rs {
			if len(alt) == 0 {
				return fmt.Errorf("alternative %d is empty", i)
			}
			for _, req := range alt {
				if req.Count < 1 {
					return fmt.Errorf("alternative %d: count must be positive, got %d", i, req.Count)
				}
			}
		}
	}
	return nil
}

// Location returns the time zone calendar dates are evaluated in
func (c *Catalog) Location() *time.Location {
	return c.loc
}

// EventTypes lists the event types of the catalog in sorted order
func (c *Catalog) EventTypes() []string {
	return slices.Sorted(maps.Keys(c.entries))
}

// Entry returns the requirements of eventType
func (c *Catalog) Entry(eventType string) (Entry, bool) {
	e, ok := c.entries[eventType]
	return e.Entry, ok
}

// Classes lists the classes eventType has class-level requirements for,
// in ladder order
func (c *Catalog) Classes(eventType string) []Class {
	e, ok := c.entries[eventType]
	if !ok {
		return nil
	}
	var classes []Class
	for _, class := range Classes() {
		if _, ok := e.Classes[class]; ok {
			classes = append(classes, class)
		}
	}
	return classes
}

// Requirements resolves the rule set in force for eventType and class on date.
// Class-level requirements win over event-level ones. It reports false
// when the event type imposes no result requirements.
func (c *Catalog) Requirements(eventType string, class Class, date time.Time) (Requirements, bool) {
	e, ok := c.entries[eventType]
	if !ok {
		return Requirements{}, false
	}

	versions, dates := e.Results, e.resultDates
	if class != ClassNone {
		if cv, ok := e.Classes[class]; ok {
			versions, dates = cv, e.classDates[class]
		}
	}

	ruleDate, ok := ResolveRuleDate(date, dates, c.loc)
	if !ok {
		return Requirements{}, false
	}
	return Requirements{Date: ruleDate, Rules: versions[ruleDate]}, true
}

// rules returns the rule set in force or nil
func (c *Catalog) rules(eventType string, class Class, date time.Time) RuleSet {
	req, ok := c.Requirements(eventType, class, date)
	if !ok {
		return nil
	}
	return req.Rules
}

// QualificationStartDate returns the start of the day after the entry period
// of the previous event of the same type closed, in the catalog time zone.
// It reports false when previous has no entry end date.
func (c *Catalog) QualificationStartDate(previous Event) (time.Time, bool) {
	end := previous.EntryOrigEndDate
	if end.IsZero() {
		end = previous.EntryEndDate
	}
	if end.IsZero() {
		return time.Time{}, false
	}
	y, m, d := end.In(c.loc).AddDate(0, 0, 1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc), true
}

// AfterPrevious returns event with its qualification start taken from the
// previous event of the same type. An event that already has one is
// returned unchanged.
func (c *Catalog) AfterPrevious(event, previous Event) Event {
	if !event.QualificationStartDate.IsZero() {
		return event
	}
	if start, ok := c.QualificationStartDate(previous.InZone(c.loc)); ok {
		event.QualificationStartDate = start
	}
	return event
}
