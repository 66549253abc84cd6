package postgres

import (
	"context"
	"errors"
	"fmt"

	"curve_service/internal/models"
	"curve_service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (r *PostgresRepo) SaveScope(ctx context.Context, scope models.Scope) error {
	const op = "storage.postgres.SaveScope"

	query := `
		INSERT INTO scopes (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4);
	`

	_, err := r.pool.Exec(ctx, query, scope.ID, scope.OwnerID, scope.Name, scope.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) ScopesByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Scope, error) {
	const op = "storage.postgres.ScopesByOwner"

	query := `
		SELECT id, owner_id, name, created_at, updated_at
		FROM scopes
		WHERE owner_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	scopes := []models.Scope{}

	for rows.Next() {
		var s models.Scope

		if err := rows.Scan(&s.ID, &s.OwnerID, &s.Name, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		scopes = append(scopes, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return scopes, nil
}

func (r *PostgresRepo) Scope(ctx context.Context, id uuid.UUID) (models.Scope, error) {
	query := `
		SELECT id, owner_id, name, created_at, updated_at
		FROM scopes
		WHERE id = $1;
	`

	var s models.Scope

	err := r.pool.QueryRow(ctx, query, id).Scan(&s.ID, &s.OwnerID, &s.Name, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Scope{}, storage.ErrScopeNotFound
		}

		return models.Scope{}, err
	}

	return s, nil
}

// UpdateScopeName leaves owner_id untouched: ownership is immutable.
func (r *PostgresRepo) UpdateScopeName(ctx context.Context, id uuid.UUID, name string) error {
	const op = "storage.postgres.UpdateScopeName"

	query := `UPDATE scopes SET name = $2, updated_at = now() WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrScopeNotFound
	}

	return nil
}

func (r *PostgresRepo) DeleteScope(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteScope"

	tag, err := r.pool.Exec(ctx, `DELETE FROM scopes WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrScopeNotFound
	}

	return nil
}

// ScopeIsOwner is a pure read-side check; an unknown id is simply not owned.
func (r *PostgresRepo) ScopeIsOwner(ctx context.Context, resourceID, accountID uuid.UUID) (bool, error) {
	const op = "storage.postgres.ScopeIsOwner"

	query := `SELECT EXISTS (SELECT 1 FROM scopes WHERE id = $1 AND owner_id = $2);`

	var isOwner bool

	if err := r.pool.QueryRow(ctx, query, resourceID, accountID).Scan(&isOwner); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return isOwner, nil
}
