package validation

import "errors"

// Sentinel kinds for form validation failures. Use errors.Is against these.
var (
	ErrIncompleteForm = errors.New("incomplete form")
	ErrDuplicateTeam  = errors.New("duplicate team")
)

// User-facing messages.
const (
	MsgIncompleteForm = "Please complete all fields."
	MsgDuplicateTeam  = "Teams must be different."
)

// IncompleteFormError reports a missing or unparseable field.
type IncompleteFormError struct {
	Field string
}

func (e *IncompleteFormError) Error() string { return MsgIncompleteForm }

// Is matches ErrIncompleteForm.
func (e *IncompleteFormError) Is(target error) bool { return target == ErrIncompleteForm }

// DuplicateTeamError reports that home and away name the same team.
type DuplicateTeamError struct {
	Team string
}

func (e *DuplicateTeamError) Error() string { return MsgDuplicateTeam }

// Is matches ErrDuplicateTeam.
func (e *DuplicateTeamError) Is(target error) bool { return target == ErrDuplicateTeam }
