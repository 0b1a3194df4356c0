package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/grading"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/rbac"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

// POST /submissions
func CreateSubmissionHandler(engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req grading.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		if strings.TrimSpace(req.ExamID) == "" {
			writeErr(w, apperr.New(apperr.ValidationFailed, "exam_id required"))
			return
		}
		s, err := engine.Submit(r.Context(), rbac.SubjectFromContext(r.Context()), req)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, s)
	}
}

// PATCH /submissions/{submissionID}/evaluate
func EvaluateSubmissionHandler(engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var dec grading.Decision
		if err := json.NewDecoder(r.Body).Decode(&dec); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		s, err := engine.Evaluate(r.Context(), rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "submissionID"), dec)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// PATCH /submissions/{submissionID}/status {status}
func SubmissionStatusHandler(engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		s, err := engine.SetStatus(r.Context(), chi.URLParam(r, "submissionID"), req.Status)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// GET /submissions/pending
func PendingSubmissionsHandler(engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
		offset := parseIntDefault(r.URL.Query().Get("offset"), 0)
		list, err := engine.ListPending(r.Context(), limit, offset)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /submissions?exam_id=&student_id=&status=
// Learners are forced onto their own records regardless of query params.
func ListSubmissionsHandler(engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := rbac.RoleFromContext(r.Context())
		sub := rbac.SubjectFromContext(r.Context())

		opts := storage.SubmissionListOpts{
			ExamID:    strings.TrimSpace(r.URL.Query().Get("exam_id")),
			StudentID: strings.TrimSpace(r.URL.Query().Get("student_id")),
			Status:    strings.TrimSpace(r.URL.Query().Get("status")),
			Limit:     parseIntDefault(r.URL.Query().Get("limit"), 50),
			Offset:    parseIntDefault(r.URL.Query().Get("offset"), 0),
		}
		switch role {
		case model.RoleLearner:
			opts.StudentID = sub
		case model.RoleEvaluator:
			if r.URL.Query().Get("mine") == "1" {
				opts.EvaluatedBy = sub
			}
		}
		list, err := engine.List(r.Context(), opts)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /submissions/{submissionID}
func GetSubmissionHandler(engine *grading.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := engine.Get(r.Context(), chi.URLParam(r, "submissionID"),
			rbac.SubjectFromContext(r.Context()), rbac.RoleFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

// POST /speech/score {accuracy, fluency, pronunciation}
// The analyzer's metrics are opaque inputs; this endpoint only mixes them.
func SpeechScoreHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m grading.VoiceMetrics
		if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		overall, passed := grading.ScoreVoice(m)
		writeJSON(w, http.StatusOK, map[string]any{"overall_score": overall, "passed": passed})
	}
}
