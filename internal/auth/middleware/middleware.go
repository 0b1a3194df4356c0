package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/rbac"
)

type AuthService struct{ hmac []byte }

func NewAuthService(secret string) *AuthService { return &AuthService{hmac: []byte(secret)} }

type Claims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (a *AuthService) IssueJWT(sub, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Sub:  sub,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "assesshub",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(8 * time.Hour)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(a.hmac)
}

func (a *AuthService) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.hmac, nil
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.InvalidCredential, err, "bad token")
	}
	if !token.Valid {
		return nil, apperr.New(apperr.InvalidCredential, "bad token")
	}
	c, _ := token.Claims.(*Claims)
	return c, nil
}

// IdentityResolver confirms a bearer credential against whichever store is
// authoritative. Implemented by identity.Resolver.
type IdentityResolver interface {
	Resolve(ctx context.Context, credential string) (model.User, error)
}

// ResolveMiddleware authenticates the request and attaches subject and role to the
// context. Role comes from the resolved record, not the raw claim.
func ResolveMiddleware(res IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer", http.StatusUnauthorized)
				return
			}
			u, err := res.Resolve(r.Context(), strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, err.Error(), apperr.HTTPStatus(err))
				return
			}
			ctx := rbac.WithSubject(r.Context(), u.ID)
			ctx = rbac.WithRole(ctx, u.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
