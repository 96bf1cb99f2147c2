package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Guest sessions are a single short-lived HS256 access token. There is no
// refresh token: when the token expires the client asks for a new guest
// session and starts with an empty trip history.

// AccessTokenExpiry is how long access tokens are valid.
const AccessTokenExpiry = 1 * time.Hour

// ScopeGuest is the only scope GreenRoute issues.
const ScopeGuest = "guest"

// Predefined JWT errors.
var (
	ErrInvalidAccessToken = errors.New("invalid access token")
	ErrAccessTokenExpired = errors.New("access token has expired")
)

// JWTClaims are the claims of a guest access token. The user ID is the
// subject.
type JWTClaims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope"`
}

// JWTConfig holds configuration for the JWT service.
type JWTConfig struct {
	// SigningKey is the HS256 secret.
	SigningKey string
	Issuer     string
	Audience   string

	// Now overrides time.Now.
	Now func() time.Time
}

// JWTService signs and verifies guest access tokens.
type JWTService struct {
	key    []byte
	issuer string
	aud    string
	now    func() time.Time
	parser *jwt.Parser
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg JWTConfig) *JWTService {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &JWTService{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		aud:    cfg.Audience,
		now:    now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer),
			jwt.WithAudience(cfg.Audience),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithTimeFunc(now),
		),
	}
}

// GenerateAccessToken signs a guest token for userID and returns it with
// its expiry.
func (s *JWTService) GenerateAccessToken(userID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(AccessTokenExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{s.aud},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Scope: ScopeGuest,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateAccessToken verifies signature, issuer, audience and expiry and
// requires a guest scope with a subject. Expiry is reported as
// ErrAccessTokenExpired, every other failure wraps ErrInvalidAccessToken.
func (s *JWTService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrAccessTokenExpired
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	case claims.Subject == "":
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidAccessToken)
	case claims.Scope != ScopeGuest:
		return nil, fmt.Errorf("%w: unexpected scope %q", ErrInvalidAccessToken, claims.Scope)
	}
	return claims, nil
}
