package contract

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrToolProtocol    = errors.New("tool invocation violates protocol")
	ErrTransport       = errors.New("medication api unreachable")
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
)
