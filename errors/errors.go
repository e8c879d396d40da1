package formlayer_errors

import "errors"

var (
	ErrFormIDNotSet     = errors.New("form id not set on context")
	ErrSessionKeyNotSet = errors.New("session key not set on context")
	ErrFormIDRequired   = errors.New("form id is required")
)
