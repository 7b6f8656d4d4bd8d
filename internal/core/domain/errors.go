package domain

import "errors"

// Validation errors. All are raised before any computation starts;
// a wrapped sentinel lets callers branch with errors.Is.
var (
	// ErrInvalidGeometry marks a malformed polygon (fewer than 3
	// vertices or a non-finite coordinate).
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidParameter marks a bad request parameter (radius <= 0,
	// spacing factor outside [0,1]).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidCoordinate marks a non-finite or out-of-range
	// latitude/longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")

	// ErrInvalidIndicator marks a candidate with a non-positive
	// desirability indicator.
	ErrInvalidIndicator = errors.New("invalid indicator")

	// ErrNoAreasProvided signals an empty polygon set. It is not a
	// failure: coverage generation yields an empty plan alongside it.
	ErrNoAreasProvided = errors.New("no areas provided")
)
