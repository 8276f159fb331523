package patterns

import "errors"

var (
	// ErrMalformed is returned by Load when the patterns file exists but
	// is not valid JSON.
	ErrMalformed = errors.New("patterns: invalid JSON in patterns file")

	// ErrSchema is returned by Load when the JSON parses but does not
	// match the patterns file schema.
	ErrSchema = errors.New("patterns: invalid patterns file schema")
)
