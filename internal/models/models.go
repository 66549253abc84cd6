package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID                  uuid.UUID
	Email               string
	PassHash            []byte
	IsActive            bool
	FailedLoginAttempts int32
	LockedUntil         *time.Time
	CreatedAt           time.Time
	LastLoginAt         *time.Time
}

// IsLocked reports whether the lockout window is still open.
func (a *Account) IsLocked(now time.Time) bool {
	return a.LockedUntil != nil && a.LockedUntil.After(now)
}

type VerificationToken struct {
	Token     string
	AccountID uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
}

func (t *VerificationToken) IsExpired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// IsConsumable reports whether the token may still be redeemed.
func (t *VerificationToken) IsConsumable(now time.Time) bool {
	return !t.Used && !t.IsExpired(now)
}

type Scope struct {
	ID        uuid.UUID  `json:"id"`
	OwnerID   uuid.UUID  `json:"owner_id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type Topic struct {
	ID         uuid.UUID  `json:"id"`
	ScopeID    uuid.UUID  `json:"scope_id"`
	OwnerID    uuid.UUID  `json:"owner_id"`
	Name       string     `json:"name"`
	StartDate  time.Time  `json:"start_date"`
	Notes      *string    `json:"notes,omitempty"`
	IsMastered bool       `json:"is_mastered"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at,omitempty"`
}

// Repetition dates are caller-supplied; the service never computes a schedule.
type Repetition struct {
	ID            uuid.UUID  `json:"id"`
	TopicID       uuid.UUID  `json:"topic_id"`
	ScheduledDate time.Time  `json:"scheduled_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty"`
	IntervalDays  *int32     `json:"interval_days,omitempty"`
}

type Message struct {
	Email   string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}
