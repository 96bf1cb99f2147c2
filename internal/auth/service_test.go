package auth_test

import (
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenroute/greenroute/internal/auth"
)

func TestService_NewGuestSession(t *testing.T) {
	svc := auth.NewService(auth.ServiceConfig{
		JWTService: newJWT("key", "greenroute", "greenroute-web", nil),
		Logger:     zerolog.New(io.Discard),
	})

	session, err := svc.NewGuestSession()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(session.UserID, "usr_"))
	assert.Equal(t, "Bearer", session.TokenType)
	assert.Equal(t, 3600, session.ExpiresIn)

	userID, err := svc.ValidateAccessToken(session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.UserID, userID)

	other, err := svc.NewGuestSession()
	require.NoError(t, err)
	assert.NotEqual(t, session.UserID, other.UserID)
}

func TestService_ValidateAccessTokenRejectsGarbage(t *testing.T) {
	svc := auth.NewService(auth.ServiceConfig{
		JWTService: newJWT("key", "greenroute", "greenroute-web", nil),
		Logger:     zerolog.New(io.Discard),
	})

	_, err := svc.ValidateAccessToken("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidAccessToken)
}
