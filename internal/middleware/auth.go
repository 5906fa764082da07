package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simp-lee/logger"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/pkg"
)

const currentUserContextKey = "current_user"

// PrincipalResolver turns a raw bearer token into the authenticated user.
// Failures are *domain.AuthError values; other errors are infrastructure faults.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// Auth returns a gin middleware that rejects requests without a valid bearer
// token. On success the user is stored in the gin context (see CurrentUser)
// and user_id is added to the request's log attributes.
func Auth(resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			pkg.Error(c, domain.NewAuthError(domain.AuthMissingToken, nil))
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			pkg.Error(c, err)
			return
		}

		c.Set(currentUserContextKey, user)
		ctx := logger.WithContextAttrs(c.Request.Context(), slog.Uint64("user_id", uint64(user.ID)))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// CurrentUser returns the user stored by Auth.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(currentUserContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok && user != nil
}

// bearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
