package utils_test

import (
	"testing"

	"github.com/TeamUpApp/teamup_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := utils.GenerateToken(42)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := utils.ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, userID)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := utils.ParseToken("not-a-token")
	assert.Error(t, err)

	_, err = utils.ParseToken("")
	assert.Error(t, err)
}
