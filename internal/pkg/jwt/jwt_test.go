package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateToken_RoundTrip(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	token, err := GenerateStateToken(key, "abc", time.Minute)
	require.NoError(t, err)

	state, err := ParseStateToken(key, token)
	require.NoError(t, err)
	assert.Equal(t, "abc", state)
}

func TestStateToken_Rejects(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	expired, err := GenerateStateToken(key, "abc", -time.Minute)
	require.NoError(t, err)
	_, err = ParseStateToken(key, expired)
	assert.Error(t, err)

	valid, err := GenerateStateToken(key, "abc", time.Minute)
	require.NoError(t, err)
	_, err = ParseStateToken([]byte("another-key-another-key-another-k"), valid)
	assert.Error(t, err)

	_, err = ParseStateToken(key, "not-a-jwt")
	assert.Error(t, err)
}
