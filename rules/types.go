package rules

import "time"

// Class is a registration class on the ALO -> AVO -> VOI ladder
type Class string

const (
	ClassNone Class = ""
	ClassALO  Class = "ALO"
	ClassAVO  Class = "AVO"
	ClassVOI  Class = "VOI"
)

// Classes returns the class ladder in ascending order
func Classes() []Class {
	return []Class{ClassALO, ClassAVO, ClassVOI}
}

// NextClass returns the class above c, or ClassNone when there is none
func NextClass(c Class) Class {
	switch c {
	case ClassALO:
		return ClassAVO
	case ClassAVO:
		return ClassVOI
	}
	return ClassNone
}

// Result represents a single competition outcome a dog has obtained.
// Official results come from the kennel club, manual ones are entered by the handler.
type Result struct {
	ID       string    `json:"id,omitempty" yaml:"id,omitempty"`
	RegNo    string    `json:"regNo,omitempty" yaml:"regNo,omitempty"`
	Type     string    `json:"type" yaml:"type"`
	Class    Class     `json:"class" yaml:"class"`
	Result   string    `json:"result" yaml:"result"`
	Date     time.Time `json:"date" yaml:"date"`
	Location string    `json:"location" yaml:"location"`
	Judge    string    `json:"judge" yaml:"judge"`
	Cert     bool      `json:"cert,omitempty" yaml:"cert,omitempty"`
	Cacit    bool      `json:"cacit,omitempty" yaml:"cacit,omitempty"`
	ResCert  bool      `json:"resCert,omitempty" yaml:"resCert,omitempty"`
	ResCacit bool      `json:"resCacit,omitempty" yaml:"resCacit,omitempty"`
	Official bool      `json:"official" yaml:"official"`
}

// QualifyingResult is a Result annotated in the context of one Outcome.
// Qualifying is nil when the result is informational only.
type QualifyingResult struct {
	Result     `yaml:",inline"`
	Qualifying *bool `json:"qualifying,omitempty" yaml:"qualifying,omitempty"`
	Points     int   `json:"rankingPoints,omitempty" yaml:"rankingPoints,omitempty"`
}

// Outcome is the result of a qualification check
type Outcome struct {
	Relevant  []QualifyingResult `json:"relevant" yaml:"relevant"`
	Qualifies bool               `json:"qualifies" yaml:"qualifies"`

	// Result window of championship rule sets, nil for regular rules
	MinResultDate *time.Time `json:"minResultDate,omitempty" yaml:"minResultDate,omitempty"`
	MaxResultDate *time.Time `json:"maxResultDate,omitempty" yaml:"maxResultDate,omitempty"`
}

// Event describes the event a dog is being registered to
type Event struct {
	EventType              string    `json:"eventType" yaml:"eventType"`
	StartDate              time.Time `json:"startDate" yaml:"startDate"`
	EntryEndDate           time.Time `json:"entryEndDate,omitzero" yaml:"entryEndDate,omitempty"`
	EntryOrigEndDate       time.Time `json:"entryOrigEndDate,omitzero" yaml:"entryOrigEndDate,omitempty"`
	QualificationStartDate time.Time `json:"qualificationStartDate,omitzero" yaml:"qualificationStartDate,omitempty"`
}

// entryEnd is the end of the entry period results are measured against.
// Extending the entry period does not move it.
func (e Event) entryEnd() time.Time {
	if !e.EntryOrigEndDate.IsZero() {
		return e.EntryOrigEndDate
	}
	if !e.EntryEndDate.IsZero() {
		return e.EntryEndDate
	}
	return e.StartDate
}

// Pattern is the partial result a Requirement matches.
// Empty strings match anything, flags only constrain when set.
type Pattern struct {
	Type     string `json:"type,omitempty" yaml:"type,omitempty"`
	Class    Class  `json:"class,omitempty" yaml:"class,omitempty"`
	Result   string `json:"result,omitempty" yaml:"result,omitempty"`
	Cert     bool   `json:"cert,omitempty" yaml:"cert,omitempty"`
	Cacit    bool   `json:"cacit,omitempty" yaml:"cacit,omitempty"`
	ResCert  bool   `json:"resCert,omitempty" yaml:"resCert,omitempty"`
	ResCacit bool   `json:"resCacit,omitempty" yaml:"resCacit,omitempty"`
}

// Matches reports whether every field set in p equals the field of r
func (p Pattern) Matches(r Result) bool {
	switch {
	case p.Type != "" && p.Type != r.Type:
		return false
	case p.Class != ClassNone && p.Class != r.Class:
		return false
	case p.Result != "" && p.Result != r.Result:
		return false
	case p.Cert && !r.Cert, p.Cacit && !r.Cacit:
		return false
	case p.ResCert && !r.ResCert, p.ResCacit && !r.ResCacit:
		return false
	}
	return true
}

// Requirement demands at least Count results matching the pattern
type Requirement struct {
	Pattern `yaml:",inline"`
	Count   int `json:"count" yaml:"count"`
}

// Alternative is a group of requirements that all have to be met.
// Alternatives of a rule set are OR-ed.
type Alternative []Requirement

// RuleSet is the requirement logic of one event type/class at one rule date.
// It is either FixedRules or CustomRules.
type RuleSet interface {
	ruleSet()
}

// FixedRules is an ordered list of requirement alternatives
type FixedRules []Alternative

// CustomRules decides qualification directly from the results.
// entryEnd and qualificationStart are zero when unknown.
type CustomRules func(official, manual []QualifyingResult, entryEnd, qualificationStart time.Time) Outcome

func (FixedRules) ruleSet()  {}
func (CustomRules) ruleSet() {}
