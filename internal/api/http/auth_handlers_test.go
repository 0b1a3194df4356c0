package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmw "github.com/assess-hub/assesshub-backend/internal/auth/middleware"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

func authEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := storage.NewMemoryBackend()
	sel := storage.NewSelector(nil, mem, nil)
	svc := authmw.NewAuthService("test-secret")

	r := chi.NewRouter()
	r.Post("/auth/register", RegisterHandler(svc, sel))
	r.Post("/auth/login", LoginHandler(svc, sel))
	return &testEnv{router: r, mem: mem}
}

func TestRegisterAndLogin(t *testing.T) {
	env := authEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "trainer1", "password": "longenough",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var reg struct {
		AccessToken string     `json:"access_token"`
		User        model.User `json:"user"`
	}
	decode(t, rec, &reg)
	assert.NotEmpty(t, reg.AccessToken)
	assert.Equal(t, model.RoleTrainer, reg.User.Role, "self-registration only creates trainers")
	assert.True(t, reg.User.IsActive)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "trainer1", "password": "longenough",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, rec, &login)
	assert.NotEmpty(t, login.AccessToken)
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	env := authEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "x", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "   ", "password": "longenough",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := authEnv(t)
	body := map[string]string{"username": "trainer1", "password": "longenough"}

	rec := env.do(t, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := authEnv(t)

	rec := env.do(t, http.MethodPost, "/auth/register", map[string]string{
		"username": "trainer1", "password": "longenough",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "trainer1", "password": "wrongwrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/login", map[string]string{
		"username": "nobody", "password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
