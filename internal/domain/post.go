package domain

import "context"

// Post is a blog entry. UserID is nil once its author has been deleted.
type Post struct {
	BaseModel
	UserID      *uint  `gorm:"index" json:"user_id"`
	Title       string `gorm:"type:text;not null" json:"title"`
	Content     string `gorm:"type:text;not null" json:"content"`
	Likes       int    `gorm:"not null;default:0" json:"likes"`
	IsPublished bool   `gorm:"not null" json:"is_published"`
}

// OwnedBy reports whether userID is the post's author.
func (p *Post) OwnedBy(userID uint) bool {
	return p.UserID != nil && *p.UserID == userID
}

// PostRepository defines the data access interface for posts.
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id uint) (*Post, error)
	List(ctx context.Context, req PageRequest) (*PageResult[Post], error)
	Update(ctx context.Context, post *Post) error
	// Delete removes the post together with its comments.
	Delete(ctx context.Context, id uint) error
}

// PostService defines the business logic interface for posts.
type PostService interface {
	CreatePost(ctx context.Context, authorID uint, title, content string) (*Post, error)
	GetPost(ctx context.Context, id uint) (*Post, error)
	ListPosts(ctx context.Context, req PageRequest) (*PageResult[Post], error)
	UpdatePost(ctx context.Context, actorID, id uint, title, content string) (*Post, error)
	DeletePost(ctx context.Context, actorID, id uint) error
}
