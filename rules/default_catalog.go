package rules

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata"
)

// DefaultTimeZone is the zone rule dates and calendar years are evaluated in
const DefaultTimeZone = "Europe/Helsinki"

var defaultCatalog = sync.OnceValue(func() *Catalog {
	loc, err := time.LoadLocation(DefaultTimeZone)
	if err != nil {
		panic(fmt.Sprintf("failed to load time zone %s: %v", DefaultTimeZone, err))
	}
	c, err := NewDefaultCatalog(loc)
	if err != nil {
		panic(err)
	}
	return c
})

// DefaultCatalog returns the built-in catalog in DefaultTimeZone.
// It panics if the built-in data is invalid.
func DefaultCatalog() *Catalog {
	return defaultCatalog()
}

// req is shorthand for a single requirement on type and result
func req(eventType, result string, count int) Requirement {
	return Requirement{Pattern: Pattern{Type: eventType, Result: result}, Count: count}
}

// single builds rule sets of one alternative with one requirement
func single(eventType, result string, counts map[RuleDate]int) Versions {
	v := make(Versions, len(counts))
	for date, count := range counts {
		v[date] = FixedRules{{req(eventType, result, count)}}
	}
	return v
}

// NewDefaultCatalog builds the built-in catalog in loc
func NewDefaultCatalog(loc *time.Location) (*Catalog, error) {
	championships := map[string]Championship{
		"NOME-B SM": nomeBChampionship,
		"NOME-A SM": nomeAChampionship,
		"NOWT SM":   nowtChampionship,
	}

	entries := map[string]Entry{
		"NOU": {
			MinAgeMonths: 9,
			BreedCodes:   []string{"122", "111", "121", "312", "110", "263"},
		},
		"NOME-B": {
			Classes: map[Class]Versions{
				ClassALO: single("NOU", "NOU1", map[RuleDate]int{RuleDate1991: 1}),
				ClassAVO: single("NOME-B", "ALO1", map[RuleDate]int{
					RuleDate1991: 1,
					RuleDate1999: 2,
					RuleDate2006: 1,
					RuleDate2009: 1,
					RuleDate2016: 2,
					RuleDate2023: 1,
				}),
				ClassVOI: single("NOME-B", "AVO1", map[RuleDate]int{
					RuleDate1977: 1,
					RuleDate1986: 2,
					RuleDate2006: 1,
					RuleDate2009: 2,
					RuleDate2016: 2,
					RuleDate2023: 1,
				}),
			},
		},
		"NOWT": {
			Classes: map[Class]Versions{
				ClassALO: single("NOU", "NOU1", sinceRuleDate2006(1)),
				ClassAVO: single("NOWT", "ALO1", sinceRuleDate2006(1)),
				ClassVOI: single("NOWT", "AVO1", sinceRuleDate2006(1)),
			},
		},
		"NOME-A": {
			Results: Versions{
				RuleDate2009: FixedRules{
					{req("NOME-B", "AVO1", 1)},
					{req("NOWT", "AVO1", 1)},
				},
				RuleDate2016: FixedRules{
					{req("NOME-B", "AVO1", 2)},
					{req("NOWT", "AVO1", 2)},
				},
				RuleDate2023: FixedRules{
					{req("NOME-B", "AVO1", 1)},
					{req("NOWT", "AVO1", 1)},
					{req("NOME-A KV", "EXC", 1)},
					{req("NOME-A KV", "VG", 1)},
					{req("NOME-A KV", "G", 1)},
				},
			},
		},
		"NKM": {
			Results: Versions{
				RuleDate2016: nkmRules(),
				RuleDate2023: nkmRules(),
			},
		},
	}

	for eventType, ch := range championships {
		rules, err := ch.Compile()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", eventType, err)
		}
		entries[eventType] = Entry{
			FinnishRegistration: true,
			Results:             Versions{RuleDate2023: rules},
		}
	}

	return NewCatalog(loc, entries)
}

func sinceRuleDate2006(count int) map[RuleDate]int {
	return map[RuleDate]int{
		RuleDate2006: count,
		RuleDate2009: count,
		RuleDate2016: count,
		RuleDate2023: count,
	}
}

func nkmRules() FixedRules {
	return FixedRules{
		{req("NOME-B", "VOI1", 2)},
		{{Pattern: Pattern{Type: "NOWT", Cert: true}, Count: 2}},
	}
}
