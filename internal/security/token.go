package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/simp-lee/microblog/internal/domain"
)

// TokenService issues and validates signed, time-bounded access tokens.
type TokenService interface {
	// Issue signs a token for subject and returns it with its expiry.
	Issue(subject string) (string, time.Time, error)
	// Validate returns the token's subject or a *domain.AuthError of kind
	// Malformed, BadSignature or Expired.
	Validate(token string) (string, error)
}

// JWTService implements TokenService with HS256 JWTs.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// TokenOption configures a JWTService.
type TokenOption func(*JWTService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *JWTService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIssuer sets the iss claim on issued tokens and requires it on validation.
func WithIssuer(issuer string) TokenOption {
	return func(s *JWTService) {
		s.issuer = issuer
	}
}

// NewJWTService creates a JWTService signing with secret; tokens live for ttl.
func NewJWTService(secret string, ttl time.Duration, opts ...TokenOption) (*JWTService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid token ttl %s: must be greater than 0", ttl)
	}

	s := &JWTService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue implements TokenService.
func (s *JWTService) Issue(subject string) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("token subject is empty")
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt.Truncate(time.Second), nil
}

// Validate implements TokenService. Any decode failure is reported as
// Malformed; nothing unparsable is ever accepted.
func (s *JWTService) Validate(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", domain.NewAuthError(domain.AuthMalformed, errors.New("empty token"))
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, s.keyFunc, opts...)
	if err != nil {
		return "", classifyTokenError(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", domain.NewAuthError(domain.AuthMalformed, errors.New("token has no subject"))
	}

	return claims.Subject, nil
}

func (s *JWTService) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.NewAuthError(domain.AuthExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return domain.NewAuthError(domain.AuthBadSignature, err)
	default:
		return domain.NewAuthError(domain.AuthMalformed, err)
	}
}
