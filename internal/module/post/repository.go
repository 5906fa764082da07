package post

import (
	"context"

	"gorm.io/gorm"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/pkg"
)

// Collection describes how post listings are searched, sorted and filtered.
var Collection = pkg.Collection{
	SearchColumns: []string{"title", "content"},
	SortColumns: map[domain.SortField]string{
		domain.SortByCreatedAt: "created_at",
		domain.SortByTitle:     "title",
	},
	OwnerColumn: "user_id",
}

// postRepository implements domain.PostRepository using GORM.
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository backed by the given GORM database.
func NewPostRepository(db *gorm.DB) domain.PostRepository {
	return &postRepository{db: db}
}

// Create inserts a new post.
func (r *postRepository) Create(ctx context.Context, post *domain.Post) error {
	return pkg.MapDBError(r.db.WithContext(ctx).Create(post).Error)
}

// GetByID retrieves a post by its primary key.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*domain.Post, error) {
	var post domain.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, pkg.MapDBError(err)
	}
	return &post, nil
}

// List returns one page of posts matching req.
func (r *postRepository) List(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Post], error) {
	return pkg.Query[domain.Post](ctx, r.db, Collection, req)
}

// Update saves the title and content of an existing post.
func (r *postRepository) Update(ctx context.Context, post *domain.Post) error {
	result := r.db.WithContext(ctx).Model(post).
		Select("title", "content", "updated_at").
		Updates(post)
	if result.Error != nil {
		return pkg.MapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete removes a post and its comments in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := pkg.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&domain.Comment{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&domain.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	return pkg.MapDBError(err)
}
