package server

import (
	"encoding/json"
	"net/http"

	"github.com/teranos/wander/errors"
	"github.com/teranos/wander/logger"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorw("Failed to encode JSON response", "error", err)
	}
}

// writeError writes a JSON error body with the given status code.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeWrappedError logs the full wrapped error and writes a response
// whose status follows the error class. Internal detail stays in the log;
// the body carries the message and any user-facing details.
func writeWrappedError(w http.ResponseWriter, err error, message string) {
	wrapped := errors.Wrap(err, message)
	logger.Errorw(message, "error", err)

	status := http.StatusInternalServerError
	switch {
	case errors.IsNotFoundError(err):
		status = http.StatusNotFound
	case errors.IsInvalidRequestError(err):
		status = http.StatusBadRequest
	case errors.Is(err, errors.ErrServiceUnavailable):
		status = http.StatusServiceUnavailable
	}

	body := map[string]interface{}{"error": wrapped.Error()}
	if details := errors.GetAllDetails(err); len(details) > 0 {
		body["details"] = details
	}
	writeJSON(w, status, body)
}

// readJSON decodes a request body into v, rejecting unknown fields.
func readJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrInvalidRequest, err.Error())
	}
	return nil
}

// requireMethod writes 405 and returns false when the request method
// doesn't match.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// requireMethods is requireMethod over a set.
func requireMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
