package auth

import (
	"time"

	"github.com/simp-lee/microblog/internal/domain"
)

// SignupRequest represents the input for account registration. Usernames
// never contain "@" so a login identifier names at most one account.
type SignupRequest struct {
	Username string `json:"username" form:"username" binding:"required,min=3,max=50,excludes=@"`
	Email    string `json:"email" form:"email" binding:"required,email,max=255"`
	Password string `json:"password" form:"password" binding:"required,min=8,max=72"`
}

// LoginRequest represents the input for login. JSON clients send
// "identifier"; OAuth2 password-form clients send "username".
// Either may hold a username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" form:"username" binding:"required"`
	Password   string `json:"password" form:"password" binding:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// NewUserResponse builds a UserResponse from u.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Username: u.Username, Email: u.Email}
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}
