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
)

func (r *PostgresRepo) SaveRepetition(ctx context.Context, rep models.Repetition) error {
	const op = "storage.postgres.SaveRepetition"

	query := `
		INSERT INTO repetitions (id, topic_id, scheduled_date, interval_days)
		VALUES ($1, $2, $3, $4);
	`

	_, err := r.pool.Exec(ctx, query, rep.ID, rep.TopicID, rep.ScheduledDate, rep.IntervalDays)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (r *PostgresRepo) RepetitionsByTopic(ctx context.Context, topicID uuid.UUID) ([]models.Repetition, error) {
	const op = "storage.postgres.RepetitionsByTopic"

	query := `
		SELECT id, topic_id, scheduled_date, completed_date, interval_days
		FROM repetitions
		WHERE topic_id = $1
		ORDER BY scheduled_date;
	`

	rows, err := r.pool.Query(ctx, query, topicID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reps := []models.Repetition{}

	for rows.Next() {
		var rep models.Repetition

		err := rows.Scan(&rep.ID, &rep.TopicID, &rep.ScheduledDate, &rep.CompletedDate, &rep.IntervalDays)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		reps = append(reps, rep)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return reps, nil
}

func (r *PostgresRepo) Repetition(ctx context.Context, id uuid.UUID) (models.Repetition, error) {
	query := `
		SELECT id, topic_id, scheduled_date, completed_date, interval_days
		FROM repetitions
		WHERE id = $1;
	`

	var rep models.Repetition

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rep.ID, &rep.TopicID, &rep.ScheduledDate, &rep.CompletedDate, &rep.IntervalDays,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Repetition{}, storage.ErrRepetitionNotFound
		}

		return models.Repetition{}, err
	}

	return rep, nil
}

func (r *PostgresRepo) UpdateRepetition(ctx context.Context, id uuid.UUID, scheduledDate time.Time, intervalDays *int32) error {
	const op = "storage.postgres.UpdateRepetition"

	query := `UPDATE repetitions SET scheduled_date = $2, interval_days = $3 WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, query, id, scheduledDate, intervalDays)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrRepetitionNotFound
	}

	return nil
}

func (r *PostgresRepo) CompleteRepetition(ctx context.Context, id uuid.UUID, completedDate time.Time) error {
	const op = "storage.postgres.CompleteRepetition"

	query := `UPDATE repetitions SET completed_date = $2 WHERE id = $1;`

	tag, err := r.pool.Exec(ctx, query, id, completedDate)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrRepetitionNotFound
	}

	return nil
}

func (r *PostgresRepo) DeleteRepetition(ctx context.Context, id uuid.UUID) error {
	const op = "storage.postgres.DeleteRepetition"

	tag, err := r.pool.Exec(ctx, `DELETE FROM repetitions WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrRepetitionNotFound
	}

	return nil
}

// RepetitionIsOwner resolves ownership through the parent topic; a
// repetition has no owner column of its own.
func (r *PostgresRepo) RepetitionIsOwner(ctx context.Context, resourceID, accountID uuid.UUID) (bool, error) {
	const op = "storage.postgres.RepetitionIsOwner"

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM repetitions r
			JOIN topics t ON t.id = r.topic_id
			WHERE r.id = $1 AND t.owner_id = $2
		);
	`

	var isOwner bool

	if err := r.pool.QueryRow(ctx, query, resourceID, accountID).Scan(&isOwner); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return isOwner, nil
}
