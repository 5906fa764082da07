package domain

import "context"

// Comment is a reply attached to a post.
type Comment struct {
	BaseModel
	PostID  uint   `gorm:"index;not null" json:"post_id"`
	UserID  uint   `gorm:"index;not null" json:"user_id"`
	Content string `gorm:"type:text;not null" json:"content"`
}

// CommentRepository defines the data access interface for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	ListByPost(ctx context.Context, postID uint, req PageRequest) (*PageResult[Comment], error)
}

// CommentService defines the business logic interface for comments.
type CommentService interface {
	CreateComment(ctx context.Context, authorID, postID uint, content string) (*Comment, error)
	ListComments(ctx context.Context, postID uint, req PageRequest) (*PageResult[Comment], error)
}
