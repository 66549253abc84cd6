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

func (r *PostgresRepo) SaveTopic(ctx context.Context, topic models.Topic) error {
	const op = "storage.postgres.SaveTopic"

	query := `
		INSERT INTO topics (id, scope_id, owner_id, name, start_date, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`

	_, err := r.pool.Exec(ctx, query,
		topic.ID, topic.ScopeID, topic.OwnerID, topic.Name, topic.StartDate, topic.Notes, topic.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) TopicsByScope(ctx context.Context, scopeID uuid.UUID) ([]models.Topic, error) {
	const op = "storage.postgres.TopicsByScope"

	query := `
		SELECT id, scope_id, owner_id, name, start_date, notes, is_mastered, created_at, updated_at
		FROM topics
		WHERE scope_id = $1
		ORDER BY created_at DESC;
	`

	rows, err := r.pool.Query(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	topics := []models.Topic{}

	for rows.Next() {
		var t models.Topic

		err := rows.Scan(
			&t.ID, &t.ScopeID, &t.OwnerID, &t.Name, &t.StartDate,
			&t.Notes, &t.IsMastered, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		topics = append(topics, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return topics, nil
}

func (r *PostgresRepo) Topic(ctx context.Context, id uuid.UUID) (models.Topic, error) {
	query := `
		SELECT id, scope_id, owner_id, name, start_date, notes, is_mastered, created_at, updated_at
		FROM topics
		WHERE id = $1;
	`

	var t models.Topic

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.ScopeID, &t.OwnerID, &t.Name, &t.StartDate,
		&t.Notes, &t.IsMastered, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Topic{}, storage.ErrTopicNotFound
		}

		return models.Topic{}, err
	}

	return t, nil
}

func (r *PostgresRepo) UpdateTopic(ctx context.Context, id uuid.UUID, name string, notes *string) error {
	const op = "storage.postgres.UpdateTopic"

	query := `UPDATE topics SET name = $2, notes = $3, updated_at = now() WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, query, id, name, notes)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTopicNotFound
	}

	return nil
}

func (r *PostgresRepo) SetTopicMastered(ctx context.Context, id uuid.UUID, mastered bool) error {
	const op = "storage.postgres.SetTopicMastered"

	query := `UPDATE topics SET is_mastered = $2, updated_at = now() WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, query, id, mastered)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTopicNotFound
	}

	return nil
}

func (r *PostgresRepo) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteTopic"

	tag, err := r.pool.Exec(ctx, `DELETE FROM topics WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrTopicNotFound
	}

	return nil
}

func (r *PostgresRepo) TopicIsOwner(ctx context.Context, resourceID, accountID uuid.UUID) (bool, error) {
	const op = "storage.postgres.TopicIsOwner"

	query := `SELECT EXISTS (SELECT 1 FROM topics WHERE id = $1 AND owner_id = $2);`

	var isOwner bool

	if err := r.pool.QueryRow(ctx, query, resourceID, accountID).Scan(&isOwner); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return isOwner, nil
}
