package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/rbac"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

// POST /users — a trainer adds learners and evaluators into their own scope.
func CreateUserHandler(sel *storage.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainerID := rbac.SubjectFromContext(r.Context())
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Role     string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		req.Username = strings.TrimSpace(req.Username)
		if req.Username == "" || len(req.Password) < 8 {
			writeErr(w, apperr.New(apperr.ValidationFailed, "username and a password of at least 8 characters required"))
			return
		}
		if req.Role != model.RoleLearner && req.Role != model.RoleEvaluator {
			writeErr(w, apperr.New(apperr.ValidationFailed, "role must be learner or evaluator"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			writeErr(w, err)
			return
		}
		b := sel.Backend(r.Context(), trainerID)
		u := model.User{
			ID:           b.NewID(),
			Username:     req.Username,
			PasswordHash: string(hash),
			Role:         req.Role,
			TrainerID:    trainerID,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if err := b.CreateUser(r.Context(), u); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

// GET /users — the trainer's own staff and students.
func ListUsersHandler(sel *storage.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainerID := rbac.SubjectFromContext(r.Context())
		list, err := sel.Backend(r.Context(), trainerID).ListUsersByTrainer(r.Context(), trainerID)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// DELETE /users/{userID} — soft delete: clears isActive and the trainer scope. The
// record itself stays for the audit trail.
func DeactivateUserHandler(sel *storage.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trainerID := rbac.SubjectFromContext(r.Context())
		role := rbac.RoleFromContext(r.Context())
		id := chi.URLParam(r, "userID")

		b := sel.Backend(r.Context(), id)
		u, err := b.GetUser(r.Context(), id)
		if err != nil {
			writeErr(w, err)
			return
		}
		if role != model.RoleAdmin && u.TrainerID != trainerID {
			writeErr(w, apperr.New(apperr.Forbidden, "user is not in your scope"))
			return
		}
		u.Deactivate()
		if err := b.UpdateUser(r.Context(), u); err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
