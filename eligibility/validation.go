package eligibility

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/koekalenteri/qualification/rules"
)

// Violation keys
const (
	KeyRequired = "required"
	KeyBreed    = "dogBreed"
	KeyAge      = "dogAge"
	KeySM       = "dogSM"
)

var (
	regNoRE       = regexp.MustCompile(`^[A-ZÖ]{2}[A-Z\-/ .]{0,8}[0-9/]{4,12}$`)
	modernRegNoRE = regexp.MustCompile(`^(FI|ER)[0-9]+/[0-9]{2}$`)
)

// Parent is the sire or dam of a dog
type Parent struct {
	Name   string `json:"name" yaml:"name"`
	Titles string `json:"titles,omitempty" yaml:"titles,omitempty"`
}

// Dog holds the dog details checked on registration
type Dog struct {
	RegNo     string    `json:"regNo" yaml:"regNo"`
	Name      string    `json:"name" yaml:"name"`
	RFID      string    `json:"rfid" yaml:"rfid"`
	BreedCode string    `json:"breedCode,omitempty" yaml:"breedCode,omitempty"`
	DOB       time.Time `json:"dob,omitzero" yaml:"dob,omitempty"`
	KCID      int       `json:"kcId,omitempty" yaml:"kcId,omitempty"`
	Sire      Parent    `json:"sire" yaml:"sire"`
	Dam       Parent    `json:"dam" yaml:"dam"`
}

// UnmarshalJSON accepts the date of birth as YYYY-MM-DD or RFC 3339
func (d *Dog) UnmarshalJSON(data []byte) error {
	type dog Dog
	aux := struct {
		*dog
		DOB string `json:"dob"`
	}{dog: (*dog)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	d.DOB = time.Time{}
	if aux.DOB == "" {
		return nil
	}
	dob, err := rules.ParseTime(aux.DOB)
	if err != nil {
		return fmt.Errorf("dob: %w", err)
	}
	d.DOB = dob
	return nil
}

// Violation is a dog that may not enter an event.
// Key is one of the Key constants, BreedCode and MinAgeMonths
// carry the details of breed and age violations.
type Violation struct {
	Key          string `json:"key"`
	BreedCode    string `json:"type,omitempty"`
	MinAgeMonths int    `json:"length,omitempty"`
}

func (v *Violation) Error() string {
	switch v.Key {
	case KeyBreed:
		return fmt.Sprintf("breed %s is not allowed", v.BreedCode)
	case KeyAge:
		return fmt.Sprintf("dog must be at least %d months old", v.MinAgeMonths)
	case KeySM:
		return "dog must have a Finnish registration number and a kennel club id"
	}
	return "dog details are incomplete"
}

// ValidateDog checks that dog may enter event.
// Returns a *Violation if validation fails, nil if the dog is eligible.
func ValidateDog(c *rules.Catalog, event rules.Event, dog Dog) error {
	if dog.RegNo == "" || dog.Name == "" || dog.RFID == "" || dog.Sire.Name == "" || dog.Dam.Name == "" {
		return &Violation{Key: KeyRequired}
	}

	event = event.InZone(c.Location())
	dob := rules.InZone(dog.DOB, c.Location())
	entry, _ := c.Entry(event.EventType)

	// An unknown breed code is allowed, it is checked again by the organizer
	if len(entry.BreedCodes) > 0 && dog.BreedCode != "" && !slices.Contains(entry.BreedCodes, dog.BreedCode) {
		return &Violation{Key: KeyBreed, BreedCode: strings.ReplaceAll(dog.BreedCode, ".", "-")}
	}

	if entry.MinAgeMonths > 0 {
		if dob.IsZero() || MonthsBetween(dob, event.StartDate, c.Location()) < entry.MinAgeMonths {
			return &Violation{Key: KeyAge, MinAgeMonths: entry.MinAgeMonths}
		}
	}

	if entry.FinnishRegistration && (dog.KCID == 0 || !IsModernFinnishRegNo(dog.RegNo)) {
		return &Violation{Key: KeySM}
	}

	return nil
}

// ValidRegNo reports whether regNo looks like a registration number of any
// kennel club
func ValidRegNo(regNo string) bool {
	return regNoRE.MatchString(regNo)
}

// IsModernFinnishRegNo reports whether regNo is a Finnish registration
// number of the current FI/ER format
func IsModernFinnishRegNo(regNo string) bool {
	return modernRegNoRE.MatchString(regNo)
}

// MonthsBetween returns the number of full months from from to to,
// counted on calendar dates in loc
func MonthsBetween(from, to time.Time, loc *time.Location) int {
	fy, fm, fd := from.In(loc).Date()
	ty, tm, td := to.In(loc).Date()

	months := (ty-fy)*12 + int(tm-fm)
	if td < fd {
		months--
	}
	return months
}
