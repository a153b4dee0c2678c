package cli

import (
	"context"
	"errors"
)

// isInterrupt reports whether err unwraps to a context cancellation, the
// signal queuectl treats as a keyboard interrupt (exit code 130).
func isInterrupt(err error) bool {
	return errors.Is(err, context.Canceled)
}
