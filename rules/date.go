package rules

import (
	"encoding/json"
	"fmt"
	"time"
)

// calendarZone marks times decoded from a bare YYYY-MM-DD date. InZone moves
// them to midnight of the catalog zone.
var calendarZone = time.FixedZone("calendar", 0)

// ParseTime accepts RFC 3339 timestamps and YYYY-MM-DD calendar dates
func ParseTime(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(time.DateOnly, s, calendarZone); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// InZone returns a calendar date decoded without a zone as midnight in loc.
// Other times are returned unchanged.
func InZone(t time.Time, loc *time.Location) time.Time {
	if t.Location() != calendarZone {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// jsonTime decodes with ParseTime
type jsonTime time.Time

func (t *jsonTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTime(s)
	if err != nil {
		return err
	}
	*t = jsonTime(parsed)
	return nil
}

func (e *Event) UnmarshalJSON(data []byte) error {
	type event Event
	aux := struct {
		*event
		StartDate              jsonTime `json:"startDate"`
		EntryEndDate           jsonTime `json:"entryEndDate"`
		EntryOrigEndDate       jsonTime `json:"entryOrigEndDate"`
		QualificationStartDate jsonTime `json:"qualificationStartDate"`
	}{event: (*event)(e)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	e.StartDate = time.Time(aux.StartDate)
	e.EntryEndDate = time.Time(aux.EntryEndDate)
	e.EntryOrigEndDate = time.Time(aux.EntryOrigEndDate)
	e.QualificationStartDate = time.Time(aux.QualificationStartDate)
	return nil
}

func (r *Result) UnmarshalJSON(data []byte) error {
	type result Result
	aux := struct {
		*result
		Date jsonTime `json:"date"`
	}{result: (*result)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Date = time.Time(aux.Date)
	return nil
}

// UnmarshalJSON is needed so the annotations are not lost to the
// promoted Result.UnmarshalJSON
func (r *QualifyingResult) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Result); err != nil {
		return err
	}
	var annotations struct {
		Qualifying *bool `json:"qualifying"`
		Points     int   `json:"rankingPoints"`
	}
	if err := json.Unmarshal(data, &annotations); err != nil {
		return err
	}
	r.Qualifying, r.Points = annotations.Qualifying, annotations.Points
	return nil
}

// InZone anchors the calendar dates of e at midnight in loc
func (e Event) InZone(loc *time.Location) Event {
	e.StartDate = InZone(e.StartDate, loc)
	e.EntryEndDate = InZone(e.EntryEndDate, loc)
	e.EntryOrigEndDate = InZone(e.EntryOrigEndDate, loc)
	e.QualificationStartDate = InZone(e.QualificationStartDate, loc)
	return e
}

// InZone anchors the calendar dates of req at midnight in loc.
// The result slices are copies.
func (req QualifyRequest) InZone(loc *time.Location) QualifyRequest {
	req.Event = req.Event.InZone(loc)
	if req.Official != nil {
		official := make([]Result, len(req.Official))
		for i, r := range req.Official {
			r.Date = InZone(r.Date, loc)
			official[i] = r
		}
		req.Official = official
	}
	if req.Manual != nil {
		manual := make([]QualifyingResult, len(req.Manual))
		for i, r := range req.Manual {
			r.Date = InZone(r.Date, loc)
			manual[i] = r
		}
		req.Manual = manual
	}
	return req
}
