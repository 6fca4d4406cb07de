package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GenerateAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	token, err := m.GenerateAccessToken("3f1f8a4e-9c57-4a43-9b39-0f4c8a1d2b11", RoleShipper)
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "3f1f8a4e-9c57-4a43-9b39-0f4c8a1d2b11", claims.UserID)
	assert.Equal(t, RoleShipper, claims.Role)
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	token, err := NewManager("secret-a", time.Hour).GenerateAccessToken("u1", RoleCustomer)
	require.NoError(t, err)

	_, err = NewManager("secret-b", time.Hour).ValidateAccessToken(token)
	assert.Error(t, err)
}
