package comment

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/pkg"
)

// Collection describes how comment listings are searched, sorted and
// filtered. Comments have no title, so they only sort by creation time.
var Collection = pkg.Collection{
	SearchColumns: []string{"content"},
	SortColumns: map[domain.SortField]string{
		domain.SortByCreatedAt: "created_at",
	},
	OwnerColumn: "user_id",
}

// commentRepository implements domain.CommentRepository using GORM.
type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository backed by the given GORM database.
func NewCommentRepository(db *gorm.DB) domain.CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a new comment.
func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	return pkg.MapDBError(r.db.WithContext(ctx).Create(comment).Error)
}

// ListByPost returns one page of the comments on postID.
func (r *commentRepository) ListByPost(ctx context.Context, postID uint, req domain.PageRequest) (*domain.PageResult[domain.Comment], error) {
	return pkg.Query[domain.Comment](ctx, r.db, Collection, req, onPost(postID))
}

func onPost(postID uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("post_id = ?", postID)
	}
}
