package post

import "github.com/gin-gonic/gin"

// PostModule implements the app.Module interface for the post domain.
type PostModule struct {
	handler *PostHandler
}

// NewModule creates a new PostModule with the given handler.
// Panics if h is nil.
func NewModule(h *PostHandler) *PostModule {
	if h == nil {
		panic("post.NewModule: handler must not be nil")
	}
	return &PostModule{handler: h}
}

// RegisterRoutes registers post API routes. Reads are public; writes
// require authentication.
func (m *PostModule) RegisterRoutes(api *gin.RouterGroup, authed *gin.RouterGroup) {
	api.GET("/posts", m.handler.List)
	api.GET("/posts/:id", m.handler.Get)

	authed.POST("/posts", m.handler.Create)
	authed.PUT("/posts/:id", m.handler.Update)
	authed.DELETE("/posts/:id", m.handler.Delete)
}
