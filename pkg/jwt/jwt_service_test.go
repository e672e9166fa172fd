package jwt

import (
	"Prazo-Certo/domain"
	"Prazo-Certo/entities"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_RoundTrip(t *testing.T) {
	svc := NewJWTServiceWithSecret("secret")

	token, err := svc.GenerateTokenUser(entities.UserID(1710000000000), domain.RoleAdmin)
	require.NoError(t, err)

	id, role, err := svc.GetUserIDByToken(token)
	require.NoError(t, err)
	assert.Equal(t, entities.UserID(1710000000000), id)
	assert.Equal(t, domain.RoleAdmin, role)
}

func TestJWTService_Rejects(t *testing.T) {
	svc := NewJWTServiceWithSecret("secret")
	token, err := svc.GenerateTokenUser(7, domain.RoleUser)
	require.NoError(t, err)

	_, _, err = NewJWTServiceWithSecret("other").GetUserIDByToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	_, _, err = svc.GetUserIDByToken("not-a-token")
	assert.ErrorIs(t, err, domain.ErrTokenInvalid)

	expired := &jwtService{
		secretKey: "secret",
		issuer:    "PRAZO-CERTO",
		now:       func() time.Time { return time.Now().Add(-3 * time.Hour) },
	}
	token, err = expired.GenerateTokenUser(7, domain.RoleUser)
	require.NoError(t, err)
	_, _, err = svc.GetUserIDByToken(token)
	assert.ErrorIs(t, err, domain.ErrTokenExpired)
}
