package contract

import "errors"

var (
	ErrConfig            = errors.New("invalid configuration")
	ErrProtocolViolation = errors.New("protocol violation")
	ErrIterationCap      = errors.New("iteration cap exceeded")
	ErrModelInvoke       = errors.New("model invoke failed")
	ErrSchemaViolation   = errors.New("model response violates schema")
	ErrPromptMissing     = errors.New("required prompt is missing")
	ErrValidation        = errors.New("validation failed")
)
