package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/yusufkaya/waqt/internal/location"
	"github.com/yusufkaya/waqt/internal/solver"
)

// APIError is the envelope every non-2xx response is wrapped in.
type APIError struct {
	Error ErrorDetails `json:"error"`
}

// ErrorDetails carries the machine-readable code, a human message, and
// enough context (request ID, path, timestamp) to correlate a failure
// against server logs.
type ErrorDetails struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Candidates []candidateDTO         `json:"candidates,omitempty"`
	RequestID  string                 `json:"requestId"`
	Timestamp  string                 `json:"timestamp"`
	Path       string                 `json:"path"`
}

type candidateDTO struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	TZ      string  `json:"tz"`
}

// statusAndCode maps a resolver/solver error into an HTTP status and a
// short machine-readable code. Unrecognized errors fall back to a 500.
func statusAndCode(err error) (int, string, []candidateDTO) {
	var ambiguous *location.AmbiguousError
	var notFound *location.NotFoundError
	var noInput *location.NoInputError
	var invalidResp *location.InvalidResponseError
	var network *location.NetworkError
	var invalidInput *solver.InvalidInputError

	switch {
	case errors.As(err, &ambiguous):
		candidates := make([]candidateDTO, 0, len(ambiguous.Candidates))
		for _, c := range ambiguous.Candidates {
			candidates = append(candidates, candidateDTO{
				Name: c.Name, Country: c.Country, Lat: c.Lat, Lon: c.Lon, TZ: c.TZ,
			})
		}
		return http.StatusMultipleChoices, "AMBIGUOUS_LOCATION", candidates
	case errors.As(err, &notFound):
		return http.StatusNotFound, "LOCATION_NOT_FOUND", nil
	case errors.As(err, &noInput):
		return http.StatusBadRequest, "NO_LOCATION_SPECIFIED", nil
	case errors.As(err, &invalidInput):
		return http.StatusBadRequest, "INVALID_INPUT", nil
	case errors.As(err, &invalidResp):
		return http.StatusBadGateway, "UPSTREAM_INVALID_RESPONSE", nil
	case errors.As(err, &network):
		return http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", nil
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", nil
	}
}

// writeError renders err as a JSON APIError with the appropriate status.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, candidates := statusAndCode(err)
	writeErrorResponse(w, r, status, code, err.Error(), candidates)
}

// writeErrorResponse writes a standalone error, for cases (bad query
// params, method-not-allowed) that never reach a resolver/solver call.
func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string, candidates []candidateDTO) {
	requestID := requestIDFrom(r)

	resp := APIError{
		Error: ErrorDetails{
			Code:       code,
			Message:    message,
			Candidates: candidates,
			RequestID:  requestID,
			Timestamp:  time.Now().UTC().Format(time.RFC3339),
			Path:       r.URL.Path,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", requestID)
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(resp); encErr != nil {
		logger.WithError(encErr).Error("failed to encode error response")
	}
}
