package clinicalcase

import "errors"

var (
	// ErrCaseNotFound indicates no case file exists for the identifier.
	ErrCaseNotFound = errors.New("case not found")
	// ErrInvalidCase indicates a case file failed schema validation.
	ErrInvalidCase = errors.New("invalid case definition")
)
