package rules

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Result types and codes a handler can enter for championship events
var championshipResults = map[string]map[string][]string{
	"NOME-B SM": {"NOME-B": {"FI KVA-B", "VOI1", "VOI2", "VOI3"}},
	"NOWT SM":   {"NOWT": {"FI KVA-WT", "VOI1", "VOI2", "VOI3"}},
	"NOME-A SM": {
		"NOME-A":    {"FI KVA-FT", "A1 CERT", "A1 RES-CERT", "A1", "A2", "A3"},
		"NOME-A KV": {"EXC CACIT", "EXC RES-CACIT", "EXC", "VG", "G"},
	},
}

// FirstMissing returns the first requirement pattern the results do not yet
// satisfy. It reports false when nothing is missing or the rules are custom.
func FirstMissing(set RuleSet, results []QualifyingResult) (Pattern, bool) {
	fixed, ok := set.(FixedRules)
	if !ok {
		return Pattern{}, false
	}
	for _, alt := range fixed {
		for _, req := range alt {
			n := 0
			for _, r := range results {
				if req.Matches(r.Result) {
					n++
				}
			}
			if n < req.Count {
				return req.Pattern, true
			}
		}
	}
	return Pattern{}, false
}

// NewMissingResult prepares a manual result for regNo pre-filled with the
// first missing requirement
func NewMissingResult(set RuleSet, results []QualifyingResult, regNo string, date time.Time) QualifyingResult {
	r := QualifyingResult{
		Result: Result{
			ID:    uuid.NewString(),
			RegNo: regNo,
			Date:  date,
		},
		Qualifying: boolPtr(true),
	}
	if p, ok := FirstMissing(set, results); ok {
		r.Type = p.Type
		r.Class = p.Class
		r.Result.Result = p.Result
		r.Cert, r.Cacit = p.Cert, p.Cacit
		r.ResCert, r.ResCacit = p.ResCert, p.ResCacit
	}
	return r
}

// MissingResult prepares a manual result for the first requirement the
// outcome of class still misses, dated date. It reports false unless fixed
// requirements remain unmet and nothing disqualified the dog.
func (c *Catalog) MissingResult(event Event, class Class, regNo string, out Outcome, date time.Time) (QualifyingResult, bool) {
	if out.Qualifies || slices.ContainsFunc(out.Relevant, func(r QualifyingResult) bool {
		return r.Qualifying != nil && !*r.Qualifying
	}) {
		return QualifyingResult{}, false
	}
	event = event.InZone(c.loc)
	set := c.rules(event.EventType, class, event.StartDate)
	if _, ok := FirstMissing(set, out.Relevant); !ok {
		return QualifyingResult{}, false
	}
	return NewMissingResult(set, out.Relevant, regNo, date), true
}

// AvailableTypes lists the result types that count towards set
func AvailableTypes(set RuleSet, eventType string) []string {
	fixed, ok := set.(FixedRules)
	if !ok || fixed == nil {
		types := make([]string, 0, len(championshipResults[eventType]))
		for t := range championshipResults[eventType] {
			types = append(types, t)
		}
		slices.Sort(types)
		return types
	}

	var types []string
	for _, alt := range fixed {
		for _, req := range alt {
			if !slices.Contains(types, req.Type) {
				types = append(types, req.Type)
			}
		}
	}
	return types
}

// AvailableResults lists the result codes of resultType that count towards
// set. An empty resultType lists the codes of every type. A handler that
// already has a FI KVA title is not offered another.
func AvailableResults(set RuleSet, resultType, eventType string, existing []QualifyingResult) []string {
	fixed, ok := set.(FixedRules)
	if !ok || fixed == nil {
		codes := championshipResults[eventType][resultType]
		hasKVA := slices.ContainsFunc(existing, func(r QualifyingResult) bool {
			return strings.HasPrefix(r.Result.Result, "FI KVA")
		})
		if !hasKVA {
			return slices.Clone(codes)
		}
		return slices.DeleteFunc(slices.Clone(codes), func(c string) bool {
			return strings.HasPrefix(c, "FI KVA")
		})
	}

	var codes []string
	for _, alt := range fixed {
		for _, req := range alt {
			if resultType != "" && req.Type != resultType {
				continue
			}
			code := req.Result
			if req.Cert {
				code = "CERT"
			}
			if !slices.Contains(codes, code) {
				codes = append(codes, code)
			}
		}
	}
	return codes
}
