package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("CS101", RoleCourse, "rollcall", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(tok.Value, "secret", "rollcall")
	require.NoError(t, err)
	assert.Equal(t, "CS101", claims.Subject)
	assert.Equal(t, RoleCourse, claims.Role)
}

func TestParseRejectsWrongKeyAndIssuer(t *testing.T) {
	tok, err := Issue("admin", RoleAdmin, "rollcall", "secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(tok.Value, "other-secret", "rollcall")
	assert.Error(t, err)

	_, err = Parse(tok.Value, "secret", "someone-else")
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("1234")
	require.NoError(t, err)
	assert.True(t, CheckPassword("1234", hash))
	assert.False(t, CheckPassword("wrong", hash))
}
