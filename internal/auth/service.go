// Package auth issues and validates guest session tokens.
package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Session is a freshly issued guest session.
type Session struct {
	UserID      string    `json:"userId"`
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	ExpiresIn   int       `json:"expiresIn"`
}

// ServiceConfig holds configuration for the auth service.
type ServiceConfig struct {
	JWTService *JWTService
	Logger     zerolog.Logger
}

// Service creates guest sessions.
type Service struct {
	jwt    *JWTService
	logger zerolog.Logger
}

// NewService creates a new auth service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		jwt:    cfg.JWTService,
		logger: cfg.Logger,
	}
}

// NewGuestSession mints a new user ID and an access token for it.
func (s *Service) NewGuestSession() (*Session, error) {
	userID := "usr_" + uuid.New().String()[:22]

	token, expiresAt, err := s.jwt.GenerateAccessToken(userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Msg("guest session issued")

	return &Session{
		UserID:      userID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		ExpiresIn:   int(AccessTokenExpiry.Seconds()),
	}, nil
}

// ValidateAccessToken validates a token and returns its user ID.
func (s *Service) ValidateAccessToken(token string) (string, error) {
	claims, err := s.jwt.ValidateAccessToken(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}
