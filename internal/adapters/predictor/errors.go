package predictor

import "errors"

// Sentinel kinds for prediction service errors. Every failed call wraps
// ErrUnavailable; the others describe the cause.
var (
	ErrUnavailable      = errors.New("prediction service unavailable")
	ErrInvalidURL       = errors.New("invalid prediction service url")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInvalidResponse  = errors.New("invalid response")
)
