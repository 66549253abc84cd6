package verification

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"

	sl "curve_service/internal/lib/logger"
	"curve_service/internal/models"
)

const tokenBytes = 32

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// NewToken returns an opaque single-use verification token.
func NewToken() (string, error) {
	const op = "verification.NewToken"

	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return hex.EncodeToString(buf), nil
}

// SendVerificationEmail publishes the verification link for delivery.
// The token itself is never handed back to the registering caller.
func SendVerificationEmail(
	ctx context.Context,
	log *slog.Logger,
	pub Publisher,
	token string,
	baseURL, email string,
) error {
	const op = "verification.SendVerificationEmail"

	params := url.Values{}
	params.Set("email", email)
	params.Set("token", token)

	verifyLink := fmt.Sprintf("%s/verify?%s", baseURL, params.Encode())

	msg := models.Message{
		Email:   email,
		Link:    verifyLink,
		Purpose: "email_verification",
	}

	if err := pub.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish verification link", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
