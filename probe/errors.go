package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrConfiguration indicates a probe is misconfigured.
	ErrConfiguration = errors.New("probe: invalid configuration")

	// ErrTimeout indicates an attempt did not complete within its deadline.
	ErrTimeout = errors.New("probe: timeout")

	// ErrConnection indicates the target could not be reached.
	ErrConnection = errors.New("probe: connection failed")

	// ErrValidation indicates the target responded but failed validation.
	ErrValidation = errors.New("probe: validation failed")

	// ErrUnsupportedKind indicates an unknown probe kind.
	ErrUnsupportedKind = errors.New("probe: unsupported kind")
)

// classify wraps a transport error with the sentinel matching its failure
// class. Deadline and net timeout errors become ErrTimeout, everything else
// becomes ErrConnection.
func classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrConnection, err)
}
