package rules

import "errors"

var (
	// ErrResultNotFound is returned when a stored result does not exist
	ErrResultNotFound = errors.New("result not found")
	// ErrResultExists is returned when adding a result whose ID is taken
	ErrResultExists = errors.New("result already exists")
)
