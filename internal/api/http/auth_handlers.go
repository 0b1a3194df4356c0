package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	authmw "github.com/assess-hub/assesshub-backend/internal/auth/middleware"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

// POST /auth/login {username, password} -> {access_token, user}
func LoginHandler(authSvc *authmw.AuthService, sel *storage.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, apperr.New(apperr.ValidationFailed, "bad json"))
			return
		}
		u, err := sel.Backend(r.Context()).GetUserByUsername(r.Context(), req.Username)
		if apperr.IsKind(err, apperr.NotFound) && sel.DurableAuthoritative(r.Context()) {
			// account may predate the durable store; the fallback keeps its own users
			u, err = sel.Fallback().GetUserByUsername(r.Context(), req.Username)
		}
		if err != nil {
			writeErr(w, apperr.New(apperr.Unauthenticated, "invalid credentials"))
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			writeErr(w, apperr.New(apperr.Unauthenticated, "invalid credentials"))
			return
		}
		tok, err := authSvc.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": tok, "user": u})
	}
}

// POST /auth/register {username, password} -> trainer account + token.
// Self-registration only creates trainers; staff and learners are added by their
// trainer through /users.
func RegisterHandler(authSvc *authmw.AuthService, sel *storage.Selector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
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
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			writeErr(w, err)
			return
		}
		b := sel.Backend(r.Context())
		u := model.User{
			ID:           b.NewID(),
			Username:     req.Username,
			PasswordHash: string(hash),
			Role:         model.RoleTrainer,
			IsActive:     true,
			CreatedAt:    time.Now(),
		}
		if err := b.CreateUser(r.Context(), u); err != nil {
			writeErr(w, err)
			return
		}
		tok, err := authSvc.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"access_token": tok, "user": u})
	}
}
