package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"ringroad/pkg/catalog"
	"ringroad/pkg/navigation"
	"ringroad/pkg/sheet"
	"ringroad/pkg/tour"
)

var (
	errBadRequest = errors.New("bad request")
	errNotLoaded  = catalog.ErrNotLoaded
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, sheet.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, navigation.ErrNotFound), errors.Is(err, navigation.ErrOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, navigation.ErrNoCurrentSelection), errors.Is(err, tour.ErrEmptyCatalog):
		return http.StatusConflict
	case errors.Is(err, errNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 && status != http.StatusServiceUnavailable {
		slog.Error("Request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeBody reads a JSON body into v. Failures wrap errBadRequest.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
