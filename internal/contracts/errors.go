package contracts

import "errors"

// Error taxonomy shared by all stages.
// Numeric edge cases (zero or undefined operands) are not errors; they yield undefined metrics.
var (
	// ErrDataIncomplete: a raw record is missing a mandatory identity field.
	// The record is rejected; the batch continues.
	ErrDataIncomplete = errors.New("data incomplete")

	// ErrInvalidPeriodPairing: growth computation was given records of different
	// entities, different cadences, or non-adjacent periods.
	ErrInvalidPeriodPairing = errors.New("invalid period pairing")

	// ErrConfiguration: malformed ScreeningPolicy or UniverseBand. Raised at construction only.
	ErrConfiguration = errors.New("configuration error")
)
