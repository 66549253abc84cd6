package verification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"testing"

	"curve_service/internal/lib/verification"
	"curve_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingPublisher struct {
	messages []models.Message
	fail     bool
}

func (p *capturingPublisher) SendMessage(_ context.Context, msg models.Message) error {
	if p.fail {
		return errors.New("broker unavailable")
	}

	p.messages = append(p.messages, msg)

	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token, err := verification.NewToken()
		require.NoError(t, err)
		assert.Len(t, token, 64)
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}

func TestSendVerificationEmail(t *testing.T) {
	pub := &capturingPublisher{}

	token, err := verification.NewToken()
	require.NoError(t, err)

	err = verification.SendVerificationEmail(
		context.Background(), discardLogger(), pub, token, "http://localhost:8080", "a@x.com",
	)
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "a@x.com", msg.Email)
	assert.Equal(t, "email_verification", msg.Purpose)
	assert.Contains(t, msg.Link, token)
	assert.Contains(t, msg.Link, "http://localhost:8080/verify")
}

func TestSendVerificationEmail_EncodesAddress(t *testing.T) {
	pub := &capturingPublisher{}

	err := verification.SendVerificationEmail(
		context.Background(), discardLogger(), pub, "token", "http://localhost:8080", "a+tag@x.com",
	)
	require.NoError(t, err)

	require.Len(t, pub.messages, 1)

	// The plus sign must survive a round trip through the query string.
	parsed, err := url.Parse(pub.messages[0].Link)
	require.NoError(t, err)
	assert.Equal(t, "a+tag@x.com", parsed.Query().Get("email"))
	assert.Equal(t, "token", parsed.Query().Get("token"))
}

func TestSendVerificationEmail_PublishFailure(t *testing.T) {
	pub := &capturingPublisher{fail: true}

	err := verification.SendVerificationEmail(
		context.Background(), discardLogger(), pub, "token", "http://localhost:8080", "a@x.com",
	)
	assert.Error(t, err)
}
