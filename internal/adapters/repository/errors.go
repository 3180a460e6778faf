package repository

import "errors"

// Sentinel kinds for history store errors.
var (
	ErrInvalidLimit   = errors.New("invalid history limit")
	ErrClosed         = errors.New("history store closed")
	ErrUnknownBackend = errors.New("unknown history backend")
	ErrCorruptEntry   = errors.New("corrupt history entry")
)
