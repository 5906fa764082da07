package user

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/middleware"
	"github.com/simp-lee/microblog/internal/pkg"
)

// UserHandler handles REST API requests for the user resource.
type UserHandler struct {
	svc domain.UserService
}

// NewUserHandler creates a new UserHandler with the given service.
func NewUserHandler(svc domain.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me handles GET /api/v1/users/me.
func (h *UserHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		pkg.Error(c, domain.NewAuthError(domain.AuthMissingToken, nil))
		return
	}
	pkg.Success(c, newProfileResponse(user))
}

// Get handles GET /api/v1/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	user, err := h.svc.GetUser(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, newProfileResponse(user))
}

// DeleteMe handles DELETE /api/v1/users/me.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		pkg.Error(c, domain.NewAuthError(domain.AuthMissingToken, nil))
		return
	}

	if err := h.svc.DeleteUser(c.Request.Context(), user.ID); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.NoContent(c)
}
