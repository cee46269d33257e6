package tool

import "errors"

// Registry and execution errors.
var (
	ErrToolNameEmpty         = errors.New("tool name is empty")
	ErrToolExecuteNil        = errors.New("tool execute function is nil")
	ErrToolAlreadyRegistered = errors.New("tool already registered")
	ErrToolNotFound          = errors.New("tool not found")
	ErrMissingRequiredArg    = errors.New("missing required argument")
	ErrInvalidInput          = errors.New("invalid tool input")
)
