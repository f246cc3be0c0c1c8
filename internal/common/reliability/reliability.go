// Package reliability separates operations whose failures are swallowed
// from operations whose failures abort the caller. Anything not essential
// to the requested state change goes through BestEffort; everything else
// goes through Required.
package reliability

import (
	"community-automation-bot/internal/common/logger"
)

// BestEffort runs op and discards its error after logging it. Used for
// confirmations, reactions and other cosmetic side effects.
func BestEffort(operation string, op func() error) {
	if err := op(); err != nil {
		logger.Warn().
			Str("operation", operation).
			Err(err).
			Msg("Best-effort operation failed")
	}
}

// Required runs op and propagates its error unchanged.
func Required(op func() error) error {
	return op()
}
