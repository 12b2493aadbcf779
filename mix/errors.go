package mix

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is matched by every [ParamError].
var ErrInvalidParameter = errors.New("mix: invalid parameter")

// ParamError reports an out-of-range control value and names the field,
// e.g. "compressor.low.attackSec".
type ParamError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("mix: invalid parameter %s = %g: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidParameter) true for any ParamError.
func (e *ParamError) Is(target error) bool {
	return target == ErrInvalidParameter
}

func invalid(field string, value float64, format string, args ...any) error {
	return &ParamError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}
