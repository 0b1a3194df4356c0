package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
)

// swapped in handler tests
var timeNow = time.Now

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr surfaces taxonomy errors verbatim; anything unclassified is a 500 with
// a generic body so internals do not leak.
func writeErr(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}
