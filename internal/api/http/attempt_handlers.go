package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assess-hub/assesshub-backend/internal/attempt"
	"github.com/assess-hub/assesshub-backend/internal/rbac"
)

// POST /attempts/start/{examID}
func StartAttemptHandler(tracker *attempt.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		a, err := tracker.Start(r.Context(), sub, chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		now := timeNow()
		writeJSON(w, http.StatusOK, map[string]any{
			"attempt_id":     a.ID,
			"started_at":     a.StartedAt,
			"time_limit":     a.TimeLimit,
			"remaining_time": a.RemainingTime(now),
			"time_elapsed":   a.TimeElapsed(now),
		})
	}
}

// GET /attempts/status/{examID}
func AttemptStatusHandler(tracker *attempt.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		st, err := tracker.Status(r.Context(), sub, chi.URLParam(r, "examID"))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// POST /attempts/complete/{attemptID}
func CompleteAttemptHandler(tracker *attempt.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		if _, err := tracker.Complete(r.Context(), sub, chi.URLParam(r, "attemptID")); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
