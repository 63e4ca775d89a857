package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateInitialPassword(t *testing.T) {
	a, err := GenerateInitialPassword()
	require.NoError(t, err)
	b, err := GenerateInitialPassword()
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-password", hash)

	assert.True(t, CheckPasswordHash("secret-password", hash))
	assert.False(t, CheckPasswordHash("wrong-password", hash))
}

func TestProfileIsProvisioned(t *testing.T) {
	p := &Profile{Email: "jamie@example.com"}
	assert.False(t, p.IsProvisioned())

	now := time.Now()
	p.ProvisionedAt = &now
	assert.True(t, p.IsProvisioned())
}

func TestProfileValidate(t *testing.T) {
	p := &Profile{Email: "jamie@example.com", Name: "Jamie"}
	require.NoError(t, p.Validate())

	p.Email = "nope"
	assert.Error(t, p.Validate())
}
