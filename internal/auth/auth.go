package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curve_service/internal/lib/jwt"
	sl "curve_service/internal/lib/logger"
	"curve_service/internal/lib/verification"
	"curve_service/internal/models"
	"curve_service/internal/storage"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountNotVerified = errors.New("account not verified")
	ErrAccountLocked      = errors.New("account locked")
	ErrInvalidToken       = errors.New("invalid or expired verification token")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrNotificationFailed = errors.New("failed to dispatch verification notification")
)

// LockedError carries the lockout expiry alongside ErrAccountLocked.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

func (e *LockedError) Unwrap() error { return ErrAccountLocked }

type AccountSaver interface {
	SaveAccount(ctx context.Context, email string, passHash []byte, token models.VerificationToken) (uuid.UUID, error)
	SaveVerificationToken(ctx context.Context, token models.VerificationToken) error
	RecordFailedAttempt(ctx context.Context, id uuid.UUID, threshold int32, lockedUntil time.Time) (int32, *time.Time, error)
	ResetLoginState(ctx context.Context, id uuid.UUID) error
	VerifyAccount(ctx context.Context, accountID uuid.UUID, token string) error
}

type AccountProvider interface {
	Account(ctx context.Context, email string) (models.Account, error)
}

type LoginResult struct {
	AccountID uuid.UUID
	Token     string
	ExpiresAt time.Time
}

type Auth struct {
	log             *slog.Logger
	accSaver        AccountSaver
	accProvider     AccountProvider
	notifier        verification.Publisher
	sessionTTL      time.Duration
	sessionSecret   string
	verificationTTL time.Duration
	maxFailedLogins int32
	lockoutDuration time.Duration
	baseURL         string
}

func New(
	log *slog.Logger,
	accountSaver AccountSaver,
	accountProvider AccountProvider,
	notifier verification.Publisher,
	sessionTTL time.Duration,
	sessionSecret string,
	verificationTTL time.Duration,
	maxFailedLogins int32,
	lockoutDuration time.Duration,
	baseURL string,
) *Auth {
	return &Auth{
		log:             log,
		accSaver:        accountSaver,
		accProvider:     accountProvider,
		notifier:        notifier,
		sessionTTL:      sessionTTL,
		sessionSecret:   sessionSecret,
		verificationTTL: verificationTTL,
		maxFailedLogins: maxFailedLogins,
		lockoutDuration: lockoutDuration,
		baseURL:         baseURL,
	}
}

// Register creates an inactive account and its verification token in one
// transaction, then dispatches the verification notification. A failed
// dispatch is reported as ErrNotificationFailed; the account stays and
// the caller may retry delivery. The token is never returned directly.
func (a *Auth) Register(ctx context.Context, email, password string) (uuid.UUID, error) {
	const op = "auth.Register"

	log := a.log.With(slog.String("op", op))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := verification.NewToken()
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	verificationToken := models.VerificationToken{
		Token:     token,
		ExpiresAt: time.Now().Add(a.verificationTTL),
	}

	accountID, err := a.accSaver.SaveAccount(ctx, email, passHash, verificationToken)
	if err != nil {
		if errors.Is(err, storage.ErrAccountExists) {
			log.Warn("account already exists")
			return uuid.Nil, ErrAccountExists
		}

		log.Error("failed to save account", sl.Err(err))
		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account registered", slog.String("account_id", accountID.String()))

	err = verification.SendVerificationEmail(ctx, log, a.notifier, token, a.baseURL, email)
	if err != nil {
		return accountID, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	return accountID, nil
}

// VerifyEmail consumes a matching unused, unexpired token and activates
// the account. Re-submitting a consumed or expired token always fails.
func (a *Auth) VerifyEmail(ctx context.Context, email, token string) error {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.Account(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("account not found")
			return ErrAccountNotFound
		}

		log.Error("failed to get account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.accSaver.VerifyAccount(ctx, account.ID, token); err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			log.Warn("invalid or expired verification token")
			return ErrInvalidToken
		}

		log.Error("failed to verify account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account verified", slog.String("account_id", account.ID.String()))

	return nil
}

// ResendVerification issues a fresh token for a pending account and
// dispatches it again. Earlier tokens stay valid until they expire.
func (a *Auth) ResendVerification(ctx context.Context, email string) error {
	const op = "auth.ResendVerification"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.Account(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("account not found")
			return ErrAccountNotFound
		}

		log.Error("failed to get account", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if account.IsActive {
		log.Warn("account already verified")
		return ErrAlreadyVerified
	}

	token, err := verification.NewToken()
	if err != nil {
		log.Error("failed to generate verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	verificationToken := models.VerificationToken{
		Token:     token,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(a.verificationTTL),
	}

	if err := a.accSaver.SaveVerificationToken(ctx, verificationToken); err != nil {
		log.Error("failed to save verification token", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	err = verification.SendVerificationEmail(ctx, log, a.notifier, token, a.baseURL, account.Email)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}

	return nil
}

// Login drives the per-account security state machine: unknown account
// and bad password collapse to the same generic failure, a lockout wins
// over credential correctness, and an unverified account never receives
// a session credential even with a correct password.
func (a *Auth) Login(ctx context.Context, email, password string) (LoginResult, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	account, err := a.accProvider.Account(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrAccountNotFound) {
			log.Warn("account not found")
			return LoginResult{}, ErrInvalidCredentials
		}

		log.Error("failed to get account", sl.Err(err))
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now()

	if account.IsLocked(now) {
		log.Warn("login rejected: account locked")
		return LoginResult{}, &LockedError{Until: *account.LockedUntil}
	}

	if err := bcrypt.CompareHashAndPassword(account.PassHash, []byte(password)); err != nil {
		attempts, lockedUntil, recErr := a.accSaver.RecordFailedAttempt(
			ctx, account.ID, a.maxFailedLogins, now.Add(a.lockoutDuration),
		)
		if recErr != nil {
			log.Error("failed to record failed attempt", sl.Err(recErr))
			return LoginResult{}, fmt.Errorf("%s: %w", op, recErr)
		}

		if lockedUntil != nil && lockedUntil.After(now) {
			log.Warn("account locked after failed attempts", slog.Int("attempts", int(attempts)))
			return LoginResult{}, &LockedError{Until: *lockedUntil}
		}

		log.Info("invalid credentials", slog.Int("attempts", int(attempts)))
		return LoginResult{}, ErrInvalidCredentials
	}

	if !account.IsActive {
		log.Warn("login rejected: account not verified")
		return LoginResult{}, ErrAccountNotVerified
	}

	if err := a.accSaver.ResetLoginState(ctx, account.ID); err != nil {
		log.Error("failed to reset login state", sl.Err(err))
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	token, expiresAt, err := jwt.NewToken(account, a.sessionTTL, a.sessionSecret)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("login successful", slog.String("account_id", account.ID.String()))

	return LoginResult{
		AccountID: account.ID,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}
