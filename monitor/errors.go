package monitor

import "errors"

var (
	// ErrMissingID indicates a service was registered without an id.
	ErrMissingID = errors.New("monitor: missing service id")

	// ErrDuplicateService indicates the service id is already registered.
	ErrDuplicateService = errors.New("monitor: service already registered")

	// ErrNilProbe indicates a service was registered without a probe.
	ErrNilProbe = errors.New("monitor: nil probe")

	// ErrServiceNotFound indicates the service id is not registered.
	ErrServiceNotFound = errors.New("monitor: service not found")
)
