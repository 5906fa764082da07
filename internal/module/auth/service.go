package auth

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/simp-lee/microblog/internal/domain"
	"github.com/simp-lee/microblog/internal/security"
)

const tokenTypeBearer = "bearer"

// Service defines the authentication operations.
type Service interface {
	Signup(ctx context.Context, username, email, password string) (*domain.User, error)
	Login(ctx context.Context, identifier, password string) (*LoginResponse, error)
}

// authService implements Service.
type authService struct {
	users  domain.UserRepository
	hasher security.PasswordHasher
	tokens security.TokenService
}

// NewService creates a new auth Service.
func NewService(users domain.UserRepository, hasher security.PasswordHasher, tokens security.TokenService) Service {
	return &authService{users: users, hasher: hasher, tokens: tokens}
}

func errDuplicateAccount(err error) error {
	return domain.NewAppError(domain.CodeAlreadyExists, "username or email already registered", err)
}

func errPasswordTooLong() error {
	return domain.NewValidationError("validation error", map[string]any{
		"password": "max=72 bytes",
	})
}

// Signup registers a new account. Username and email must both be unused.
func (s *authService) Signup(ctx context.Context, username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, domain.NewValidationError("validation error", map[string]any{
			"username": "required",
			"email":    "required",
		})
	}
	if strings.Contains(username, "@") {
		return nil, domain.NewValidationError("validation error", map[string]any{
			"username": "excludes=@",
		})
	}
	if len(password) > security.MaxPasswordBytes {
		return nil, errPasswordTooLong()
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errDuplicateAccount(nil)
	}

	digest, err := s.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return nil, errPasswordTooLong()
	}
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to hash password", err)
	}

	user := &domain.User{Username: username, Email: email, PasswordHash: digest}
	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent signup can win between the check and the insert.
		if domain.IsAlreadyExists(err) {
			return nil, errDuplicateAccount(err)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "user signed up", slog.Uint64("new_user_id", uint64(user.ID)))
	return user, nil
}

// Login verifies the credentials and issues an access token. Unknown
// identifiers and wrong passwords fail identically.
func (s *authService) Login(ctx context.Context, identifier, password string) (*LoginResponse, error) {
	user, err := s.users.GetByIdentifier(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewAuthError(domain.AuthBadCredentials, nil)
		}
		return nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, domain.NewAuthError(domain.AuthBadCredentials, nil)
	}

	token, expiresAt, err := s.tokens.Issue(strconv.FormatUint(uint64(user.ID), 10))
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "failed to issue token", err)
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   tokenTypeBearer,
		ExpiresAt:   expiresAt,
		User:        NewUserResponse(user),
	}, nil
}
