package controller

import (
	"errors"
)

// MsgServiceUnavailable is shown on the input view after a failed call.
const MsgServiceUnavailable = "Prediction Service Unavailable."

// Sentinel kinds for controller errors.
var (
	ErrBusy               = errors.New("controller busy")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrClosed             = errors.New("controller closed")
	ErrServiceUnavailable = errors.New("prediction service unavailable")
)

// ServiceUnavailableError wraps the predictor failure that sent the
// controller back to the input view.
type ServiceUnavailableError struct {
	Err error
}

func (e *ServiceUnavailableError) Error() string { return MsgServiceUnavailable }

// Unwrap returns the predictor error.
func (e *ServiceUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrServiceUnavailable.
func (e *ServiceUnavailableError) Is(target error) bool { return target == ErrServiceUnavailable }
