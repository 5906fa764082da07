package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/security"
)

// UserLookup is the read port the Resolver needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*domain.User, error)
}

// Resolver maps a bearer token to the user it was issued for.
// It implements middleware.PrincipalResolver.
type Resolver struct {
	tokens security.TokenService
	users  UserLookup
}

// NewResolver creates a Resolver.
func NewResolver(tokens security.TokenService, users UserLookup) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns the authenticated user, or a *domain.AuthError of kind
// Malformed, BadSignature, Expired or PrincipalNotFound. Lookup failures
// other than a missing row are returned unchanged.
func (r *Resolver) Resolve(ctx context.Context, token string) (*domain.User, error) {
	subject, err := r.tokens.Validate(token)
	if err != nil {
		return nil, err
	}

	id, err := strconv.ParseUint(subject, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return nil, domain.NewAuthError(domain.AuthMalformed, errors.New("subject is not a user id"))
	}

	user, err := r.users.GetByID(ctx, uint(id))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewAuthError(domain.AuthPrincipalNotFound, err)
		}
		return nil, err
	}
	return user, nil
}
