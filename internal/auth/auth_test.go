package auth_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"curve_service/internal/auth"
	"curve_service/internal/lib/jwt"
	"curve_service/internal/models"
	"curve_service/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSecret   = "test-secret"
	testEmail    = "a@x.com"
	testPassword = "Passw0rd!"
)

type fakeStore struct {
	accounts map[string]*models.Account
	tokens   map[string]*models.VerificationToken
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: make(map[string]*models.Account),
		tokens:   make(map[string]*models.VerificationToken),
	}
}

func (s *fakeStore) SaveAccount(_ context.Context, email string, passHash []byte, token models.VerificationToken) (uuid.UUID, error) {
	key := strings.ToLower(email)

	if _, exists := s.accounts[key]; exists {
		return uuid.Nil, storage.ErrAccountExists
	}

	account := &models.Account{
		ID:        uuid.New(),
		Email:     email,
		PassHash:  passHash,
		CreatedAt: time.Now(),
	}
	s.accounts[key] = account

	token.AccountID = account.ID
	s.tokens[token.Token] = &token

	return account.ID, nil
}

func (s *fakeStore) Account(_ context.Context, email string) (models.Account, error) {
	account, ok := s.accounts[strings.ToLower(email)]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return *account, nil
}

func (s *fakeStore) SaveVerificationToken(_ context.Context, token models.VerificationToken) error {
	s.tokens[token.Token] = &token

	return nil
}

func (s *fakeStore) RecordFailedAttempt(_ context.Context, id uuid.UUID, threshold int32, lockedUntil time.Time) (int32, *time.Time, error) {
	account := s.byID(id)
	if account == nil {
		return 0, nil, storage.ErrAccountNotFound
	}

	account.FailedLoginAttempts++
	if account.FailedLoginAttempts >= threshold {
		account.FailedLoginAttempts = 0
		account.LockedUntil = &lockedUntil
	}

	return account.FailedLoginAttempts, account.LockedUntil, nil
}

func (s *fakeStore) ResetLoginState(_ context.Context, id uuid.UUID) error {
	account := s.byID(id)
	if account == nil {
		return storage.ErrAccountNotFound
	}

	now := time.Now()
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	account.LastLoginAt = &now

	return nil
}

func (s *fakeStore) VerifyAccount(_ context.Context, accountID uuid.UUID, token string) error {
	vt, ok := s.tokens[token]
	if !ok || vt.AccountID != accountID || !vt.IsConsumable(time.Now()) {
		return storage.ErrTokenNotFound
	}

	vt.Used = true
	s.byID(accountID).IsActive = true

	return nil
}

func (s *fakeStore) byID(id uuid.UUID) *models.Account {
	for _, account := range s.accounts {
		if account.ID == id {
			return account
		}
	}

	return nil
}

// issuedToken returns the latest verification token issued for the account.
func (s *fakeStore) issuedToken(accountID uuid.UUID) string {
	for token, vt := range s.tokens {
		if vt.AccountID == accountID {
			return token
		}
	}

	return ""
}

type fakePublisher struct {
	messages []models.Message
	fail     bool
}

func (p *fakePublisher) SendMessage(_ context.Context, msg models.Message) error {
	if p.fail {
		return errors.New("broker unavailable")
	}

	p.messages = append(p.messages, msg)

	return nil
}

func newAuth(store *fakeStore, pub *fakePublisher) *auth.Auth {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return auth.New(
		log,
		store,
		store,
		pub,
		time.Hour,
		testSecret,
		24*time.Hour,
		5,
		15*time.Minute,
		"http://localhost:8080",
	)
}

func TestRegister_CreatesPendingAccountAndDispatchesToken(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a := newAuth(store, pub)

	accountID, err := a.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, accountID)

	account, err := store.Account(context.Background(), testEmail)
	require.NoError(t, err)
	assert.False(t, account.IsActive, "registered account must not be active before verification")
	assert.NoError(t, bcrypt.CompareHashAndPassword(account.PassHash, []byte(testPassword)))

	token := store.issuedToken(accountID)
	require.NotEmpty(t, token)

	require.Len(t, pub.messages, 1)
	assert.Equal(t, testEmail, pub.messages[0].Email)
	assert.Contains(t, pub.messages[0].Link, token)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	_, err := a.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	_, err = a.Register(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, auth.ErrAccountExists)
	assert.Len(t, store.accounts, 1)
}

func TestRegister_NotificationFailureKeepsAccount(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{fail: true})

	_, err := a.Register(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, auth.ErrNotificationFailed)

	_, err = store.Account(context.Background(), testEmail)
	assert.NoError(t, err, "account must persist when only the notification fails")
}

func TestVerifyEmail(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	accountID, err := a.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	token := store.issuedToken(accountID)

	t.Run("unknown email", func(t *testing.T) {
		err := a.VerifyEmail(context.Background(), "nobody@x.com", token)
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("wrong token", func(t *testing.T) {
		err := a.VerifyEmail(context.Background(), testEmail, "wrong-token")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("valid token activates account", func(t *testing.T) {
		require.NoError(t, a.VerifyEmail(context.Background(), testEmail, token))

		account, err := store.Account(context.Background(), testEmail)
		require.NoError(t, err)
		assert.True(t, account.IsActive)
	})

	t.Run("consumed token never succeeds again", func(t *testing.T) {
		err := a.VerifyEmail(context.Background(), testEmail, token)
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})
}

func TestVerifyEmail_ExpiredToken(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	accountID, err := a.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	token := store.issuedToken(accountID)
	store.tokens[token].ExpiresAt = time.Now().Add(-time.Minute)

	err = a.VerifyEmail(context.Background(), testEmail, token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestResendVerification(t *testing.T) {
	store := newFakeStore()
	pub := &fakePublisher{}
	a := newAuth(store, pub)

	accountID, err := a.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	firstToken := store.issuedToken(accountID)

	require.NoError(t, a.ResendVerification(context.Background(), testEmail))
	require.Len(t, pub.messages, 2)
	assert.Equal(t, testEmail, pub.messages[1].Email)

	// A second token now exists alongside the first.
	var resentToken string
	for token, vt := range store.tokens {
		if vt.AccountID == accountID && token != firstToken {
			resentToken = token
		}
	}
	require.NotEmpty(t, resentToken)
	assert.Contains(t, pub.messages[1].Link, resentToken)

	// The re-issued token verifies the account just like the first one.
	require.NoError(t, a.VerifyEmail(context.Background(), testEmail, resentToken))

	t.Run("unknown email", func(t *testing.T) {
		err := a.ResendVerification(context.Background(), "nobody@x.com")
		assert.ErrorIs(t, err, auth.ErrAccountNotFound)
	})

	t.Run("already verified", func(t *testing.T) {
		err := a.ResendVerification(context.Background(), testEmail)
		assert.ErrorIs(t, err, auth.ErrAlreadyVerified)
	})
}

func TestLogin_UnknownAccount(t *testing.T) {
	a := newAuth(newFakeStore(), &fakePublisher{})

	_, err := a.Login(context.Background(), "nobody@x.com", testPassword)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials,
		"unknown account must be indistinguishable from wrong password")
}

func TestLogin_UnverifiedAccountGetsNoCredential(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	_, err := a.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	result, err := a.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, auth.ErrAccountNotVerified)
	assert.Empty(t, result.Token)
}

func TestLogin_LockoutAfterFiveFailures(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	registerAndVerify(t, a, store)

	for i := 0; i < 4; i++ {
		_, err := a.Login(context.Background(), testEmail, "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials, "attempt %d must not lock yet", i+1)
	}

	_, err := a.Login(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, auth.ErrAccountLocked, "5th failed attempt must lock the account")

	var lockedErr *auth.LockedError
	require.ErrorAs(t, err, &lockedErr)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), lockedErr.Until, 5*time.Second)

	// Even the correct password is rejected while locked.
	_, err = a.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, auth.ErrAccountLocked)
}

func TestLogin_SuccessResetsCounterAndIssuesToken(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	registerAndVerify(t, a, store)

	_, err := a.Login(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)

	result, err := a.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))

	parsedID, err := jwt.ParseToken(result.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, result.AccountID, parsedID)

	account, err := store.Account(context.Background(), testEmail)
	require.NoError(t, err)
	assert.EqualValues(t, 0, account.FailedLoginAttempts)
	assert.Nil(t, account.LockedUntil)
	assert.NotNil(t, account.LastLoginAt)
}

func TestLogin_ExpiredLockoutGrantsFreshAttempts(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	registerAndVerify(t, a, store)

	for i := 0; i < 5; i++ {
		_, err := a.Login(context.Background(), testEmail, "wrong")
		require.Error(t, err)
	}

	_, err := a.Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, auth.ErrAccountLocked)

	// Lockout window passes.
	past := time.Now().Add(-time.Minute)
	store.accounts[testEmail].LockedUntil = &past

	// The first failure after expiry is an ordinary failure, not a re-lock.
	_, err = a.Login(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.NotErrorIs(t, err, auth.ErrAccountLocked)

	for i := 0; i < 3; i++ {
		_, err := a.Login(context.Background(), testEmail, "wrong")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials, "attempt %d after expiry must not lock yet", i+2)
	}

	// Only a full set of five fresh failures locks again.
	_, err = a.Login(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, auth.ErrAccountLocked)
}

func TestLogin_ExpiredLockoutAllowsLogin(t *testing.T) {
	store := newFakeStore()
	a := newAuth(store, &fakePublisher{})

	registerAndVerify(t, a, store)

	past := time.Now().Add(-time.Minute)
	account := store.accounts[testEmail]
	account.FailedLoginAttempts = 5
	account.LockedUntil = &past

	result, err := a.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	refreshed, err := store.Account(context.Background(), testEmail)
	require.NoError(t, err)
	assert.EqualValues(t, 0, refreshed.FailedLoginAttempts)
	assert.Nil(t, refreshed.LockedUntil)
}

func registerAndVerify(t *testing.T, a *auth.Auth, store *fakeStore) {
	t.Helper()

	accountID, err := a.Register(context.Background(), testEmail, testPassword)
	require.NoError(t, err)

	token := store.issuedToken(accountID)
	require.NotEmpty(t, token)
	require.NoError(t, a.VerifyEmail(context.Background(), testEmail, token))
}
