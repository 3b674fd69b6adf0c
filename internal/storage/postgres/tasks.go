package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"task_manager/internal/models"
	"task_manager/internal/storage"

	"github.com/jackc/pgx/v5"
)

func (s *Storage) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	const op = "storage.postgres.CreateTask"

	query, args, err := psql.Insert("tasks").
		SetMap(map[string]interface{}{
			"user_id":     t.UserID,
			"title":       t.Title,
			"description": t.Description,
			"due_date":    t.DueDate,
			"priority":    string(t.Priority),
			"status":      string(t.Status),
			"created_at":  t.CreatedAt,
			"updated_at":  t.UpdatedAt,
		}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return created, nil
}

func (s *Storage) Task(ctx context.Context, userID, taskID int64) (models.Task, error) {
	const op = "storage.postgres.Task"

	t, err := getTask(ctx, s.pool, userID, taskID)
	if err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return t, nil
}

// UpdateTask loads the owned task, lets apply mutate it and writes every column
// back inside one transaction. Concurrent updates are last-write-wins.
func (s *Storage) UpdateTask(
	ctx context.Context,
	userID, taskID int64,
	apply func(t *models.Task),
) (models.Task, error) {
	const op = "storage.postgres.UpdateTask"

	var updated models.Task

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		t, err := getTask(ctx, tx, userID, taskID)
		if err != nil {
			return err
		}

		apply(&t)

		query, args, err := psql.Update("tasks").
			SetMap(map[string]interface{}{
				"title":        t.Title,
				"description":  t.Description,
				"due_date":     t.DueDate,
				"priority":     string(t.Priority),
				"status":       string(t.Status),
				"updated_at":   t.UpdatedAt,
				"completed_at": t.CompletedAt,
			}).
			Where(ownedBy(userID, taskID)).
			Suffix("RETURNING " + columnList()).
			ToSql()
		if err != nil {
			return err
		}

		updated, err = scanTask(tx.QueryRow(ctx, query, args...))
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrTaskNotFound
		}

		return err
	})
	if err != nil {
		if errors.Is(err, storage.ErrTaskNotFound) {
			return models.Task{}, err
		}
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	return updated, nil
}

func (s *Storage) DeleteTask(ctx context.Context, userID, taskID int64) error {
	const op = "storage.postgres.DeleteTask"

	query, args, err := psql.Delete("tasks").Where(ownedBy(userID, taskID)).ToSql()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if res.RowsAffected() == 0 {
		return storage.ErrTaskNotFound
	}

	return nil
}

// ListTasks returns one page and the size of the whole filtered set.
// The total comes from a separate COUNT over the same predicate.
func (s *Storage) ListTasks(ctx context.Context, userID int64, f models.TaskFilter) ([]models.Task, int, error) {
	const op = "storage.postgres.ListTasks"

	countSQL, countArgs, err := countTasksQuery(userID, f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	var total int
	if err := s.pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	listSQL, listArgs, err := listTasksQuery(userID, f).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	items := make([]models.Task, 0, f.PageSize)

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return items, total, nil
}

func (s *Storage) TaskSummary(ctx context.Context, userID int64, today time.Time) (models.Summary, error) {
	const op = "storage.postgres.TaskSummary"

	query, args, err := summaryQuery(userID, today).ToSql()
	if err != nil {
		return models.Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	var sum models.Summary
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&sum.Active, &sum.Done, &sum.Overdue); err != nil {
		return models.Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	return sum, nil
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getTask(ctx context.Context, q querier, userID, taskID int64) (models.Task, error) {
	query, args, err := psql.Select(taskColumns...).
		From("tasks").
		Where(ownedBy(userID, taskID)).
		ToSql()
	if err != nil {
		return models.Task{}, err
	}

	t, err := scanTask(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Task{}, storage.ErrTaskNotFound
		}
		return models.Task{}, err
	}

	return t, nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var (
		t        models.Task
		priority string
		status   string
	)

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Title,
		&t.Description,
		&t.DueDate,
		&priority,
		&status,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.CompletedAt,
	)
	if err != nil {
		return models.Task{}, err
	}

	t.Priority = models.Priority(priority)
	t.Status = models.Status(status)

	if t.DueDate != nil {
		d := dateOnly(*t.DueDate)
		t.DueDate = &d
	}

	return t, nil
}

func columnList() string {
	return strings.Join(taskColumns, ", ")
}
