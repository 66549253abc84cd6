package login_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"curve_service/internal/auth"
	"curve_service/internal/http_server/handlers/login"
	"curve_service/internal/lib/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	result auth.LoginResult
	err    error
}

func (f *fakeAuthenticator) Login(_ context.Context, _, _ string) (auth.LoginResult, error) {
	return f.result, f.err
}

func do(t *testing.T, authenticator login.AccountAuthenticator, body string) *httptest.ResponseRecorder {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := login.New(log, validation.New(), authenticator)

	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	return rec
}

func TestLogin_Success(t *testing.T) {
	expiresAt := time.Now().Add(time.Hour)
	authenticator := &fakeAuthenticator{
		result: auth.LoginResult{
			AccountID: uuid.New(),
			Token:     "session-token",
			ExpiresAt: expiresAt,
		},
	}

	rec := do(t, authenticator, `{"email":"a@x.com","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp login.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "session-token", resp.Token)
	assert.Equal(t, authenticator.result.AccountID, resp.AccountID)
}

func TestLogin_MissingFields(t *testing.T) {
	rec := do(t, &fakeAuthenticator{}, `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp login.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "Password")
}

func TestLogin_InvalidCredentials(t *testing.T) {
	rec := do(t, &fakeAuthenticator{err: auth.ErrInvalidCredentials},
		`{"email":"a@x.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_LockedCarriesExpiry(t *testing.T) {
	until := time.Now().Add(15 * time.Minute).Truncate(time.Second)

	rec := do(t, &fakeAuthenticator{err: &auth.LockedError{Until: until}},
		`{"email":"a@x.com","password":"Passw0rd!"}`)
	require.Equal(t, http.StatusLocked, rec.Code)

	var resp login.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.LockedUntil)
	assert.True(t, resp.LockedUntil.Equal(until))
	assert.Empty(t, resp.Token)
}

func TestLogin_NotVerified(t *testing.T) {
	rec := do(t, &fakeAuthenticator{err: auth.ErrAccountNotVerified},
		`{"email":"a@x.com","password":"Passw0rd!"}`)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
