package models_test

import (
	"testing"
	"time"

	"curve_service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAccountIsLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	tests := []struct {
		name        string
		lockedUntil *time.Time
		want        bool
	}{
		{"never locked", nil, false},
		{"lockout open", &future, true},
		{"lockout elapsed", &past, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := models.Account{LockedUntil: tt.lockedUntil}
			assert.Equal(t, tt.want, a.IsLocked(now))
		})
	}
}

func TestVerificationTokenIsConsumable(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		used      bool
		expiresAt time.Time
		want      bool
	}{
		{"fresh token", false, now.Add(time.Hour), true},
		{"used token", true, now.Add(time.Hour), false},
		{"expired token", false, now.Add(-time.Hour), false},
		{"used and expired", true, now.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := models.VerificationToken{Used: tt.used, ExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.want, token.IsConsumable(now))
		})
	}
}
