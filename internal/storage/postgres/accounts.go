package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curve_service/internal/models"
	"curve_service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveAccount inserts the account together with its verification token in
// one transaction, so a reachable account always has a token to verify.
func (r *PostgresRepo) SaveAccount(
	ctx context.Context,
	email string,
	passHash []byte,
	token models.VerificationToken,
) (uuid.UUID, error) {
	const op = "storage.postgres.SaveAccount"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx)

	accountID := uuid.New()

	query := `
		INSERT INTO accounts (id, email, pass_hash)
		VALUES ($1, $2, $3);
	`

	_, err = tx.Exec(ctx, query, accountID, email, passHash)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return uuid.Nil, storage.ErrAccountExists
		}

		return uuid.Nil, fmt.Errorf("%s: failed to save account: %w", op, err)
	}

	tokenQuery := `
		INSERT INTO verification_tokens (token, account_id, expires_at)
		VALUES ($1, $2, $3);
	`

	_, err = tx.Exec(ctx, tokenQuery, token.Token, accountID, token.ExpiresAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: failed to save verification token: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("%s: failed to commit tx: %w", op, err)
	}

	return accountID, nil
}

func (r *PostgresRepo) Account(ctx context.Context, email string) (models.Account, error) {
	query := `
		SELECT id, email, pass_hash, is_active, failed_login_attempts, locked_until, created_at, last_login_at
		FROM accounts
		WHERE lower(email) = lower($1);
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, email))
}

func (r *PostgresRepo) AccountByID(ctx context.Context, id uuid.UUID) (models.Account, error) {
	query := `
		SELECT id, email, pass_hash, is_active, failed_login_attempts, locked_until, created_at, last_login_at
		FROM accounts
		WHERE id = $1;
	`

	return r.scanAccount(r.pool.QueryRow(ctx, query, id))
}

func (r *PostgresRepo) scanAccount(row pgx.Row) (models.Account, error) {
	var a models.Account

	err := row.Scan(
		&a.ID,
		&a.Email,
		&a.PassHash,
		&a.IsActive,
		&a.FailedLoginAttempts,
		&a.LockedUntil,
		&a.CreatedAt,
		&a.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrAccountNotFound
		}

		return models.Account{}, err
	}

	return a, nil
}

// SaveVerificationToken stores a fresh token for an existing account,
// used when the original notification never arrived.
func (r *PostgresRepo) SaveVerificationToken(ctx context.Context, token models.VerificationToken) error {
	const op = "storage.postgres.SaveVerificationToken"

	query := `
		INSERT INTO verification_tokens (token, account_id, expires_at)
		VALUES ($1, $2, $3);
	`

	_, err := r.pool.Exec(ctx, query, token.Token, token.AccountID, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RecordFailedAttempt bumps the failed-attempt counter in a single
// statement, so concurrent attempts against one account cannot both read
// a pre-increment value. The row decides whether the lockout triggers;
// triggering it zeroes the counter, so an expired lockout grants a full
// set of fresh attempts instead of re-locking on the first failure.
func (r *PostgresRepo) RecordFailedAttempt(
	ctx context.Context,
	id uuid.UUID,
	threshold int32,
	lockedUntil time.Time,
) (int32, *time.Time, error) {
	const op = "storage.postgres.RecordFailedAttempt"

	query := `
		UPDATE accounts
		SET failed_login_attempts = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN 0
		        ELSE failed_login_attempts + 1
		    END,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN $3
		        ELSE locked_until
		    END
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until;
	`

	var (
		attempts int32
		until    *time.Time
	)

	err := r.pool.QueryRow(ctx, query, id, threshold, lockedUntil).Scan(&attempts, &until)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil, storage.ErrAccountNotFound
		}

		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}

	return attempts, until, nil
}

// ResetLoginState clears the attempt counter and lockout after a
// successful login and stamps the login time.
func (r *PostgresRepo) ResetLoginState(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.ResetLoginState"

	query := `
		UPDATE accounts
		SET failed_login_attempts = 0, locked_until = NULL, last_login_at = now()
		WHERE id = $1;
	`

	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrAccountNotFound
	}

	return nil
}

// VerifyAccount consumes the token and activates the account in one
// transaction; a used or expired token never activates anything.
func (r *PostgresRepo) VerifyAccount(ctx context.Context, accountID uuid.UUID, token string) error {
	const op = "storage.postgres.VerifyAccount"

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer tx.Rollback(ctx)

	consumeQuery := `
		UPDATE verification_tokens
		SET used = TRUE
		WHERE token = $1 AND account_id = $2 AND NOT used AND expires_at > now();
	`

	tag, err := tx.Exec(ctx, consumeQuery, token, accountID)
	if err != nil {
		return fmt.Errorf("%s: failed to consume token: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTokenNotFound
	}

	activateQuery := `UPDATE accounts SET is_active = TRUE WHERE id = $1;`

	if _, err := tx.Exec(ctx, activateQuery, accountID); err != nil {
		return fmt.Errorf("%s: failed to activate account: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit tx: %w", op, err)
	}

	return nil
}
