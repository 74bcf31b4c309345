package generation

import (
	"errors"
	"fmt"
)

// ErrOracleUnavailable is the root of every generation failure. A call that
// fails, times out or returns output that cannot be parsed wraps it.
var ErrOracleUnavailable = errors.New("generation backend unavailable")

var (
	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed
	ErrInvalidResponse = fmt.Errorf("%w: invalid response from language model", ErrOracleUnavailable)

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = fmt.Errorf("%w: content blocked by language model safety filters", ErrOracleUnavailable)

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = fmt.Errorf("%w: transient error during generation", ErrOracleUnavailable)

	// ErrInvalidConfig is returned when the backend configuration is invalid
	ErrInvalidConfig = fmt.Errorf("%w: invalid generator configuration", ErrOracleUnavailable)
)
