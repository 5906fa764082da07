package post

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/middleware"
	"github.com/simp-lee/microblog/internal/pkg"
)

// PostHandler handles REST API requests for the post resource.
type PostHandler struct {
	svc domain.PostService
}

// NewPostHandler creates a new PostHandler with the given service.
func NewPostHandler(svc domain.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// Create handles POST /api/v1/posts.
func (h *PostHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		pkg.Error(c, domain.NewAuthError(domain.AuthMissingToken, nil))
		return
	}

	var req PostRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	post, err := h.svc.CreatePost(c.Request.Context(), user.ID, req.Title, req.Content)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, post)
}

// Get handles GET /api/v1/posts/:id.
func (h *PostHandler) Get(c *gin.Context) {
	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	post, err := h.svc.GetPost(c.Request.Context(), id)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, post)
}

// List handles GET /api/v1/posts.
func (h *PostHandler) List(c *gin.Context) {
	req, err := pkg.ParsePageRequest(c, Collection)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	result, err := h.svc.ListPosts(c.Request.Context(), req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, result)
}

// Update handles PUT /api/v1/posts/:id.
func (h *PostHandler) Update(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		pkg.Error(c, domain.NewAuthError(domain.AuthMissingToken, nil))
		return
	}

	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req PostRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	post, err := h.svc.UpdatePost(c.Request.Context(), user.ID, id, req.Title, req.Content)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, post)
}

// Delete handles DELETE /api/v1/posts/:id.
func (h *PostHandler) Delete(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		pkg.Error(c, domain.NewAuthError(domain.AuthMissingToken, nil))
		return
	}

	id, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	if err := h.svc.DeletePost(c.Request.Context(), user.ID, id); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.NoContent(c)
}
