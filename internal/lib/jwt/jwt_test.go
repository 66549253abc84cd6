package jwt_test

import (
	"testing"
	"time"

	"curve_service/internal/lib/jwt"
	"curve_service/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func testAccount() models.Account {
	return models.Account{
		ID:    uuid.New(),
		Email: "a@x.com",
	}
}

func TestNewToken_RoundTrip(t *testing.T) {
	account := testAccount()

	token, expiresAt, err := jwt.NewToken(account, time.Hour, testSecret)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	accountID, err := jwt.ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, account.ID, accountID)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, _, err := jwt.NewToken(testAccount(), time.Hour, testSecret)
	require.NoError(t, err)

	_, err = jwt.ParseToken(token, "other-secret")
	assert.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	token, _, err := jwt.NewToken(testAccount(), -time.Minute, testSecret)
	require.NoError(t, err)

	_, err = jwt.ParseToken(token, testSecret)
	assert.Error(t, err)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := jwt.ParseToken("not-a-token", testSecret)
	assert.Error(t, err)
}
