package outreach

import "errors"

var (
	ErrInvalidStatus = errors.New("invalid visit status")
	ErrNotNotified   = errors.New("cannot record a visit before the patient was notified")
)
