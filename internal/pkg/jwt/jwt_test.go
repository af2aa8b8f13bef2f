package jwt

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTService_Errors(t *testing.T) {
	_, err := NewJWTService("", "1h")
	assert.Error(t, err)

	_, err = NewJWTService("secret", "soon")
	assert.Error(t, err)
}

func TestGenerateAccessToken(t *testing.T) {
	svc, err := NewJWTService("secret", "1h")
	require.NoError(t, err)

	token, expiresAt, err := svc.GenerateAccessToken("user-1", "company-1", user.RoleManager)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), expiresAt, 5)

	decoded, err := svc.JWTAuth().Decode(token)
	require.NoError(t, err)

	claims, err := decoded.AsMap(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims["user_id"])
	assert.Equal(t, "company-1", claims["company_id"])
	assert.Equal(t, "manager", claims["role"])
	assert.Equal(t, "access", claims["type"])
}
