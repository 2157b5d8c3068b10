package record

import (
	"errors"
	"fmt"
)

// ErrInvalid is matched by every ValidationError.
var ErrInvalid = errors.New("invalid value")

type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// InvalidActionError is returned when a command's action token is neither ADD nor DEL.
type InvalidActionError struct {
	Action string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action %q: only %s or %s are supported", e.Action, Add.Code(), Delete.Code())
}
