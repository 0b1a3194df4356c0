// Package identity resolves bearer credentials to canonical user records across
// both persistence backends.
package identity

import (
	"context"
	"log"
	"strings"

	"github.com/assess-hub/assesshub-backend/internal/apperr"
	authmw "github.com/assess-hub/assesshub-backend/internal/auth/middleware"
	"github.com/assess-hub/assesshub-backend/internal/model"
	"github.com/assess-hub/assesshub-backend/internal/storage"
)

// LegacyPrefix marks the plain-text credential encoding used when the signing
// mechanism is bypassed: "fallback-<id>-<role>".
const LegacyPrefix = "fallback-"

type Resolver struct {
	auth *authmw.AuthService
	sel  *storage.Selector

	// AllowLegacy accepts the unsigned credential encoding.
	AllowLegacy bool
	// AllowRoleFallback enables the any-user-with-same-role last resort. It papers
	// over identity discontinuity across backend switches and should stay off
	// outside development deployments.
	AllowRoleFallback bool
}

func NewResolver(auth *authmw.AuthService, sel *storage.Selector) *Resolver {
	return &Resolver{auth: auth, sel: sel}
}

// Resolve decodes the credential and confirms the identity exists in whichever
// store is authoritative. The resolver does not check IsActive; that is left to
// downstream authorization on purpose.
func (r *Resolver) Resolve(ctx context.Context, credential string) (model.User, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return model.User{}, apperr.New(apperr.Unauthenticated, "missing credential")
	}

	id, role, err := r.decode(credential)
	if err != nil {
		return model.User{}, err
	}
	if !model.ValidRole(role) {
		return model.User{}, apperr.New(apperr.InvalidCredential, "unknown role in credential")
	}

	// Durable store first, but only when it is authoritative and the id has its
	// native shape. A fallback-shaped id can never resolve durably.
	if r.sel.DurableAuthoritative(ctx) && storage.IsDurableID(id) {
		if u, err := r.sel.Durable().GetUser(ctx, id); err == nil {
			return u, nil
		} else if !apperr.IsKind(err, apperr.NotFound) {
			return model.User{}, err
		}
	}

	if u, err := r.sel.Fallback().GetUser(ctx, id); err == nil {
		return u, nil
	} else if !apperr.IsKind(err, apperr.NotFound) {
		return model.User{}, err
	}

	if r.AllowRoleFallback {
		if u, err := r.sel.Backend(ctx).FindAnyByRole(ctx, role); err == nil {
			log.Printf("identity: role-fallback resolution for sub=%s role=%s -> user=%s", id, role, u.ID)
			return u, nil
		}
	}

	return model.User{}, apperr.New(apperr.Unauthenticated, "account not found")
}

func (r *Resolver) decode(credential string) (id, role string, err error) {
	if c, perr := r.auth.Parse(credential); perr == nil {
		return c.Sub, c.Role, nil
	}
	if r.AllowLegacy && strings.HasPrefix(credential, LegacyPrefix) {
		rest := credential[len(LegacyPrefix):]
		// the id may itself contain dashes; the role never does
		i := strings.LastIndex(rest, "-")
		if i <= 0 || i == len(rest)-1 {
			return "", "", apperr.New(apperr.InvalidCredential, "malformed legacy credential")
		}
		return rest[:i], rest[i+1:], nil
	}
	return "", "", apperr.New(apperr.InvalidCredential, "malformed credential")
}
