package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/exam"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/rbac"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

// GET /exams
// Learners get published+active exams with their own completion flags; trainers get
// the exams they authored.
func ListExamsHandler(catalog *exam.Catalog, sel *storage.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())

		if role == model.RoleTrainer || role == model.RoleAdmin {
			list, err := sel.Backend(r.Context(), sub).ListExamsByTrainer(r.Context(), sub)
			if err != nil {
				writeErr(w, err)
				return
			}
			writeJSON(w, http.StatusOK, list)
			return
		}
		list, err := catalog.GetPublished(r.Context(), sub)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /exams/{examID}
func GetExamHandler(catalog *exam.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := catalog.GetByID(r.Context(), chi.URLParam(r, "examID"),
			rbac.SubjectFromContext(r.Context()), rbac.RoleFromContext(r.Context()))
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// POST /exams
func CreateExamHandler(catalog *exam.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e model.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		created, err := catalog.Create(r.Context(), rbac.SubjectFromContext(r.Context()), e)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// PUT /exams/{examID}
func UpdateExamHandler(catalog *exam.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var e model.Exam
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		e.ID = chi.URLParam(r, "examID")
		updated, err := catalog.Update(r.Context(), rbac.SubjectFromContext(r.Context()), e)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

// POST /exams/{examID}/publish {published}
func PublishExamHandler(catalog *exam.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Published *bool `json:"published"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		published := true
		if req.Published != nil {
			published = *req.Published
		}
		e, err := catalog.Publish(r.Context(), rbac.SubjectFromContext(r.Context()),
			chi.URLParam(r, "examID"), published)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}
