package user

import "github.com/gin-gonic/gin"

// UserModule implements the app.Module interface for the user domain.
type UserModule struct {
	handler *UserHandler
}

// NewModule creates a new UserModule with the given handler.
// Panics if h is nil.
func NewModule(h *UserHandler) *UserModule {
	if h == nil {
		panic("user.NewModule: handler must not be nil")
	}
	return &UserModule{handler: h}
}

// RegisterRoutes registers user API routes. The /users/me routes require
// authentication; public profiles do not.
func (m *UserModule) RegisterRoutes(api *gin.RouterGroup, authed *gin.RouterGroup) {
	authed.GET("/users/me", m.handler.Me)
	authed.DELETE("/users/me", m.handler.DeleteMe)

	api.GET("/users/:id", m.handler.Get)
}
