package comment

// CommentRequest is the body of a create request.
type CommentRequest struct {
	Content string `json:"content" form:"content" binding:"required,max=2000"`
}
