package monitor

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the process is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// ReadinessHandler returns an HTTP handler for readiness probes. The status
// code follows the aggregate: 200 while every service is healthy or degraded,
// 503 once any service is down.
func ReadinessHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := m.Status()

		w.Header().Set("Content-Type", "text/plain")

		switch snap.Status {
		case OverallHealthy:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("OK"))
		case OverallDegraded:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("DEGRADED"))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("UNHEALTHY"))
		}
	}
}

// StatusResponse is the JSON response for the detailed status endpoint.
type StatusResponse struct {
	Status    string                     `json:"status"`
	Timestamp string                     `json:"timestamp"`
	Services  map[string]ServiceResponse `json:"services,omitempty"`
}

// ServiceResponse is the JSON shape of one service's state.
type ServiceResponse struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name,omitempty"`
	Kind                 string         `json:"kind"`
	Status               string         `json:"status"`
	LastCheck            string         `json:"last_check,omitempty"`
	LastSuccess          string         `json:"last_success,omitempty"`
	LastFailure          string         `json:"last_failure,omitempty"`
	ConsecutiveFailures  int            `json:"consecutive_failures"`
	ConsecutiveSuccesses int            `json:"consecutive_successes"`
	ResponseTimeMS       int64          `json:"response_time_ms"`
	Error                string         `json:"error,omitempty"`
	Details              map[string]any `json:"details,omitempty"`
}

// EntryResponse is the JSON shape of one history entry.
type EntryResponse struct {
	Timestamp      string `json:"timestamp"`
	Status         string `json:"status"`
	ResponseTimeMS int64  `json:"response_time_ms"`
	Error          string `json:"error,omitempty"`
}

// SummaryResponse is the JSON shape of a history summary.
type SummaryResponse struct {
	Checks            int     `json:"checks"`
	Failures          int     `json:"failures"`
	Uptime            float64 `json:"uptime"`
	AvgResponseTimeMS int64   `json:"avg_response_time_ms"`
}

// HistoryResponse is the JSON response for the history endpoint.
type HistoryResponse struct {
	ID      string          `json:"id"`
	History []EntryResponse `json:"history"`
	Summary SummaryResponse `json:"summary"`
}

// StatusHandler returns an HTTP handler that serves the full aggregate
// snapshot as JSON. The status code follows the aggregate the same way
// ReadinessHandler does.
func StatusHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := m.Status()

		response := StatusResponse{
			Status:    string(snap.Status),
			Timestamp: snap.Timestamp.UTC().Format(time.RFC3339),
			Services:  make(map[string]ServiceResponse, len(snap.Services)),
		}
		for id, st := range snap.Services {
			response.Services[id] = serviceResponse(st)
		}

		w.Header().Set("Content-Type", "application/json")

		switch snap.Status {
		case OverallHealthy, OverallDegraded:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// ServiceHandler returns an HTTP handler that serves one service's state as
// JSON. The service is selected with the id query parameter.
func ServiceHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id := r.URL.Query().Get("id")
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing id parameter"})
			return
		}

		st, ok := m.ServiceStatus(id)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown service: " + id})
			return
		}

		switch st.Status {
		case StatusHealthy, StatusDegraded, StatusUnknown:
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(serviceResponse(st))
	}
}

// HistoryHandler returns an HTTP handler that serves one service's recent
// check history as JSON. The service is selected with the id query parameter;
// limit caps the number of entries and defaults to 10.
func HistoryHandler(m *Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		id := r.URL.Query().Get("id")
		if id == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "missing id parameter"})
			return
		}

		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid limit parameter"})
				return
			}
			limit = n
		}

		entries, ok := m.History(id, limit)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown service: " + id})
			return
		}
		summary, _ := m.HistorySummary(id)

		response := HistoryResponse{
			ID:      id,
			History: make([]EntryResponse, 0, len(entries)),
			Summary: SummaryResponse{
				Checks:            summary.Checks,
				Failures:          summary.Failures,
				Uptime:            summary.Uptime,
				AvgResponseTimeMS: summary.AvgResponseTime.Milliseconds(),
			},
		}
		for _, e := range entries {
			entry := EntryResponse{
				Timestamp:      e.Timestamp.UTC().Format(time.RFC3339),
				Status:         string(e.Status),
				ResponseTimeMS: e.ResponseTime.Milliseconds(),
				Error:          e.Error,
			}
			response.History = append(response.History, entry)
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// RegisterHandlers registers all monitor handlers on the given mux.
func RegisterHandlers(mux *http.ServeMux, m *Monitor) {
	mux.HandleFunc("/healthz", LivenessHandler())
	mux.HandleFunc("/readyz", ReadinessHandler(m))
	mux.HandleFunc("/health", StatusHandler(m))
	mux.HandleFunc("/health/service", ServiceHandler(m))
	mux.HandleFunc("/health/history", HistoryHandler(m))
}

func serviceResponse(st *ServiceState) ServiceResponse {
	resp := ServiceResponse{
		ID:                   st.ID,
		Name:                 st.Name,
		Kind:                 string(st.Kind),
		Status:               string(st.Status),
		ConsecutiveFailures:  st.ConsecutiveFailures,
		ConsecutiveSuccesses: st.ConsecutiveSuccesses,
		ResponseTimeMS:       st.ResponseTime.Milliseconds(),
		Error:                st.Error,
		Details:              st.Details,
	}
	if !st.LastCheck.IsZero() {
		resp.LastCheck = st.LastCheck.UTC().Format(time.RFC3339)
	}
	if !st.LastSuccess.IsZero() {
		resp.LastSuccess = st.LastSuccess.UTC().Format(time.RFC3339)
	}
	if !st.LastFailure.IsZero() {
		resp.LastFailure = st.LastFailure.UTC().Format(time.RFC3339)
	}

	return resp
}
