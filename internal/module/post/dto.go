package post

// PostRequest is the body of create and update requests.
type PostRequest struct {
	Title   string `json:"title" form:"title" binding:"required,max=200"`
	Content string `json:"content" form:"content" binding:"required,max=10000"`
}
