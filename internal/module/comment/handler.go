package comment

import (
	"github.com/gin-gonic/gin"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/middleware"
	"github.com/simp-lee/microblog/internal/pkg"
)

// CommentHandler handles REST API requests for comments on a post.
type CommentHandler struct {
	svc domain.CommentService
}

// NewCommentHandler creates a new CommentHandler with the given service.
func NewCommentHandler(svc domain.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// Create handles POST /api/v1/posts/:id/comments.
func (h *CommentHandler) Create(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		pkg.Error(c, domain.NewAuthError(domain.AuthMissingToken, nil))
		return
	}

	postID, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	var req CommentRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	comment, err := h.svc.CreateComment(c.Request.Context(), user.ID, postID, req.Content)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Created(c, comment)
}

// List handles GET /api/v1/posts/:id/comments.
func (h *CommentHandler) List(c *gin.Context) {
	postID, err := pkg.ParseID(c, "id")
	if err != nil {
		pkg.Error(c, err)
		return
	}

	req, err := pkg.ParsePageRequest(c, Collection)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	result, err := h.svc.ListComments(c.Request.Context(), postID, req)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, result)
}
