package roster

import "errors"

// Sentinel error kinds for this package.
var (
	ErrLoadRoster    = errors.New("load roster failed")
	ErrInvalidRoster = errors.New("invalid roster")
)
