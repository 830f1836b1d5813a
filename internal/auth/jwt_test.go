package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	token, err := Issue("door-1", "bodysharing", "secret", time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, token.Value)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := Parse(token.Value, "secret", "bodysharing")
	require.NoError(t, err)
	assert.Equal(t, "door-1", claims.ScannerID)
	assert.Equal(t, "scanner", claims.Role)
}

func TestParseRejectsWrongKey(t *testing.T) {
	token, err := Issue("door-1", "bodysharing", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token.Value, "other-key", "bodysharing")
	assert.Error(t, err)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := Issue("door-1", "someone-else", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token.Value, "secret", "bodysharing")
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	token, err := Issue("door-1", "bodysharing", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token.Value, "secret", "bodysharing")
	assert.Error(t, err)
}
