package monitor

import (
	"time"

	"github.com/jonwraymond/vigil/probe"
)

// Status represents the reported health status of a monitored service.
type Status string

const (
	// StatusUnknown is the initial status before the first check completes.
	StatusUnknown Status = "unknown"
	// StatusHealthy indicates the service is responding normally.
	StatusHealthy Status = "healthy"
	// StatusDegraded indicates recent failures below the alert threshold.
	StatusDegraded Status = "degraded"
	// StatusDown indicates the alert threshold of consecutive failures was reached.
	StatusDown Status = "down"
)

// Overall represents the aggregate status across all monitored services.
type Overall string

const (
	// OverallHealthy indicates no service is degraded or down.
	OverallHealthy Overall = "healthy"
	// OverallDegraded indicates at least one service is degraded and none are down.
	OverallDegraded Overall = "degraded"
	// OverallUnhealthy indicates at least one service is down.
	OverallUnhealthy Overall = "unhealthy"
)

// ServiceState is the mutable per-service record owned by the Monitor.
// All instances returned from the public API are copies.
type ServiceState struct {
	// ID is the unique service id.
	ID string

	// Name is the human-readable service name.
	Name string

	// Kind is the probe kind checking this service.
	Kind probe.Kind

	// Status is the current reported status.
	Status Status

	// LastCheck is when the most recent check was performed.
	LastCheck time.Time

	// LastSuccess is when the most recent successful check was performed.
	LastSuccess time.Time

	// LastFailure is when the most recent failed check was performed.
	LastFailure time.Time

	// ConsecutiveFailures counts failures since the last success.
	// Mutually exclusive with ConsecutiveSuccesses.
	ConsecutiveFailures int

	// ConsecutiveSuccesses counts successes since the last failure.
	ConsecutiveSuccesses int

	// ResponseTime is the total elapsed time of the last logical check,
	// across all retry attempts.
	ResponseTime time.Duration

	// Error is the message of the last failure, empty after a success.
	Error string

	// Details is the last probe payload.
	Details map[string]any
}

// clone returns a deep copy safe to hand across the API boundary.
func (s *ServiceState) clone() *ServiceState {
	c := *s
	c.Details = cloneDetails(s.Details)
	return &c
}

// cloneDetails deep-copies a probe details payload. Probe payloads hold
// scalars, string slices and nested maps only.
func cloneDetails(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneDetails(val)
	case []string:
		cp := make([]string, len(val))
		copy(cp, val)
		return cp
	case []any:
		cp := make([]any, len(val))
		for i, e := range val {
			cp[i] = cloneValue(e)
		}
		return cp
	default:
		return v
	}
}

// advance applies one check outcome to a service state and returns the prior
// status plus the transition events that must fire, in emission order. The
// serviceDown event fires only on the failure that crosses the alert
// threshold, and serviceRecovered only on the down-to-healthy edge. The
// caller holds the registry write lock.
func advance(st *ServiceState, out probe.Outcome, alertThreshold, recoveryThreshold int) (Status, []EventType) {
	from := st.Status
	st.LastCheck = out.CheckedAt
	st.ResponseTime = out.Elapsed
	st.Details = out.Details

	var fired []EventType

	if out.OK {
		st.Error = ""
		st.LastSuccess = out.CheckedAt
		st.ConsecutiveSuccesses++
		st.ConsecutiveFailures = 0

		switch {
		case from == StatusUnknown:
			st.Status = StatusHealthy
		case (from == StatusDown || from == StatusDegraded) && st.ConsecutiveSuccesses >= recoveryThreshold:
			st.Status = StatusHealthy
			if from == StatusDown {
				fired = append(fired, EventServiceRecovered)
			}
		}
		return from, fired
	}

	if out.Err != nil {
		st.Error = out.Err.Error()
	}
	st.LastFailure = out.CheckedAt
	st.ConsecutiveFailures++
	st.ConsecutiveSuccesses = 0

	switch {
	case st.ConsecutiveFailures >= alertThreshold:
		st.Status = StatusDown
		if st.ConsecutiveFailures == alertThreshold {
			fired = append(fired, EventServiceDown)
		}
	case from == StatusHealthy:
		st.Status = StatusDegraded
		fired = append(fired, EventServiceDegraded)
	case from == StatusUnknown:
		st.Status = StatusDown
	}

	return from, fired
}
