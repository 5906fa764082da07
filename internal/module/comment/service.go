package comment

import (
	"context"
	"strings"

	"github.com/simp-lee/microblog/internal/domain"
)

// PostLookup is the read port used to check that a post exists.
type PostLookup interface {
	GetByID(ctx context.Context, id uint) (*domain.Post, error)
}

// commentService implements domain.CommentService.
type commentService struct {
	repo  domain.CommentRepository
	posts PostLookup
}

// NewCommentService creates a new CommentService.
func NewCommentService(repo domain.CommentRepository, posts PostLookup) domain.CommentService {
	return &commentService{repo: repo, posts: posts}
}

// CreateComment adds a comment by authorID to postID.
// It returns a not-found error when the post does not exist.
func (s *commentService) CreateComment(ctx context.Context, authorID, postID uint, content string) (*domain.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.NewValidationError("validation error", map[string]any{"content": "required"})
	}

	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{PostID: postID, UserID: authorID, Content: content}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// ListComments returns one page of the comments on postID.
func (s *commentService) ListComments(ctx context.Context, postID uint, req domain.PageRequest) (*domain.PageResult[domain.Comment], error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.repo.ListByPost(ctx, postID, req)
}
