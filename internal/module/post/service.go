package post

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/simp-lee/microblog/internal/cache"
	"github.com/simp-lee/microblog/internal/domain"
)

// DefaultCacheTTL is used when the service is built with a zero TTL.
const DefaultCacheTTL = 5 * time.Minute

// postService implements domain.PostService. Single posts are read through
// the cache; writes invalidate it.
type postService struct {
	repo     domain.PostRepository
	cache    domain.JSONCache
	ttl      time.Duration
	notifier domain.PostNotifier
}

// NewPostService creates a new PostService. A nil cache disables caching
// and a nil notifier disables new-post notifications.
func NewPostService(repo domain.PostRepository, c domain.JSONCache, ttl time.Duration, notifier domain.PostNotifier) domain.PostService {
	if c == nil {
		c = cache.Nop{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &postService{repo: repo, cache: c, ttl: ttl, notifier: notifier}
}

func cacheKey(id uint) string {
	return "post:" + strconv.FormatUint(uint64(id), 10)
}

// CreatePost stores a post owned by authorID and dispatches a notification.
// A failed dispatch is logged and does not fail the call.
func (s *postService) CreatePost(ctx context.Context, authorID uint, title, content string) (*domain.Post, error) {
	title, content, err := validatePostInput(title, content)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		UserID:      &authorID,
		Title:       title,
		Content:     content,
		IsPublished: true,
	}
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.NotifyNewPost(ctx, post.ID, post.Title); err != nil {
			slog.ErrorContext(ctx, "failed to dispatch new post notification",
				slog.Uint64("post_id", uint64(post.ID)),
				slog.String("error", err.Error()),
			)
		}
	}

	return post, nil
}

// GetPost returns a post, serving it from the cache when possible.
// Cache failures fall back to the repository.
func (s *postService) GetPost(ctx context.Context, id uint) (*domain.Post, error) {
	key := cacheKey(id)

	var cached domain.Post
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "post cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if hit {
		return &cached, nil
	}

	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, key, post, s.ttl); err != nil {
		slog.WarnContext(ctx, "post cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return post, nil
}

// ListPosts returns one page of posts.
func (s *postService) ListPosts(ctx context.Context, req domain.PageRequest) (*domain.PageResult[domain.Post], error) {
	return s.repo.List(ctx, req)
}

// UpdatePost replaces the title and content of a post owned by actorID.
func (s *postService) UpdatePost(ctx context.Context, actorID, id uint, title, content string) (*domain.Post, error) {
	title, content, err := validatePostInput(title, content)
	if err != nil {
		return nil, err
	}

	post, err := s.ownedPost(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	post.Title = title
	post.Content = content
	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.invalidate(ctx, id)
	return post, nil
}

// DeletePost removes a post owned by actorID together with its comments.
func (s *postService) DeletePost(ctx context.Context, actorID, id uint) error {
	if _, err := s.ownedPost(ctx, actorID, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, id)
	return nil
}

// ownedPost loads the post bypassing the cache and checks its owner.
func (s *postService) ownedPost(ctx context.Context, actorID, id uint) (*domain.Post, error) {
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(actorID) {
		return nil, domain.NewAppError(domain.CodeForbidden, "not the owner of this post", nil)
	}
	return post, nil
}

func (s *postService) invalidate(ctx context.Context, id uint) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		slog.WarnContext(ctx, "post cache invalidation failed",
			slog.String("key", cacheKey(id)),
			slog.String("error", err.Error()),
		)
	}
}

func validatePostInput(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)

	details := make(map[string]any)
	if title == "" {
		details["title"] = "required"
	}
	if content == "" {
		details["content"] = "required"
	}
	if len(details) > 0 {
		return "", "", domain.NewValidationError("validation error", details)
	}
	return title, content, nil
}
