package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/models"
	"task_manager/internal/storage"
)

// ErrNotFound covers both a missing task and a task owned by someone else.
var ErrNotFound = errors.New("task not found")

type Storage interface {
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	Task(ctx context.Context, userID, taskID int64) (models.Task, error)
	UpdateTask(ctx context.Context, userID, taskID int64, apply func(t *models.Task)) (models.Task, error)
	DeleteTask(ctx context.Context, userID, taskID int64) error
	ListTasks(ctx context.Context, userID int64, f models.TaskFilter) ([]models.Task, int, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event models.Event) error
}

type Service struct {
	log     *slog.Logger
	storage Storage
	events  EventPublisher
	now     func() time.Time
}

func New(log *slog.Logger, storage Storage, events EventPublisher) *Service {
	return &Service{
		log:     log,
		storage: storage,
		events:  events,
		now:     time.Now,
	}
}

// WithClock replaces the time source used for timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Create always starts a task in todo. Priority falls back to medium.
func (s *Service) Create(ctx context.Context, userID int64, in models.TaskInput) (models.Task, error) {
	const op = "tasks.Create"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("uid", userID),
	)

	priority := in.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	now := s.now().UTC()

	t, err := s.storage.CreateTask(ctx, models.Task{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    priority,
		Status:      models.StatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		log.Error("failed to create task", sl.Err(err))
		return models.Task{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("task created", slog.Int64("task_id", t.ID))

	return t, nil
}

func (s *Service) Get(ctx context.Context, userID, taskID int64) (models.Task, error) {
	const op = "tasks.Get"

	t, err := s.storage.Task(ctx, userID, taskID)
	if err != nil {
		return models.Task{}, s.wrap(op, err)
	}

	return t, nil
}

// Update applies only the fields present in p. Setting status to done stamps
// CompletedAt with the server time. CompletedAt is left as is otherwise.
func (s *Service) Update(ctx context.Context, userID, taskID int64, p models.TaskPatch) (models.Task, error) {
	const op = "tasks.Update"

	log := s.log.With(
		slog.String("op", op),
		slog.Int64("uid", userID),
		slog.Int64("task_id", taskID),
	)

	var completed bool

	t, err := s.storage.UpdateTask(ctx, userID, taskID, func(t *models.Task) {
		completed = applyPatch(t, p, s.now().UTC())
	})
	if err != nil {
		return models.Task{}, s.wrap(op, err)
	}

	log.Info("task updated")

	if completed {
		event := models.Event{
			Type:       models.EventTaskCompleted,
			UserID:     userID,
			TaskID:     t.ID,
			TaskTitle:  t.Title,
			OccurredAt: *t.CompletedAt,
		}
		if err := s.events.Publish(ctx, event); err != nil {
			log.Warn("failed to publish event", sl.Err(err))
		}
	}

	return t, nil
}

func (s *Service) Delete(ctx context.Context, userID, taskID int64) error {
	const op = "tasks.Delete"

	if err := s.storage.DeleteTask(ctx, userID, taskID); err != nil {
		return s.wrap(op, err)
	}

	s.log.Info("task deleted",
		slog.String("op", op),
		slog.Int64("uid", userID),
		slog.Int64("task_id", taskID),
	)

	return nil
}

// List normalizes paging and returns one page plus the filtered total.
func (s *Service) List(ctx context.Context, userID int64, f models.TaskFilter) (models.TaskPage, error) {
	const op = "tasks.List"

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > models.MaxPage {
		f.Page = models.MaxPage
	}
	if f.PageSize < 1 {
		f.PageSize = models.DefaultPageSize
	}
	if f.PageSize > models.MaxPageSize {
		f.PageSize = models.MaxPageSize
	}

	items, total, err := s.storage.ListTasks(ctx, userID, f)
	if err != nil {
		s.log.Error("failed to list tasks", slog.String("op", op), sl.Err(err))
		return models.TaskPage{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.TaskPage{
		Items:    items,
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

func (s *Service) wrap(op string, err error) error {
	if errors.Is(err, storage.ErrTaskNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	s.log.Error("storage failure", slog.String("op", op), sl.Err(err))

	return fmt.Errorf("%s: %w", op, err)
}

// applyPatch mutates t in place and reports whether the task moved into done.
// Null title, priority or status are rejected before reaching here.
func applyPatch(t *models.Task, p models.TaskPatch, now time.Time) bool {
	wasDone := t.Status == models.StatusDone

	if p.Title.Set && !p.Title.Null {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = p.Description.Ptr()
	}
	if p.DueDate.Set {
		t.DueDate = p.DueDate.Ptr()
	}
	if p.Priority.Set && !p.Priority.Null {
		t.Priority = p.Priority.Value
	}

	setDone := false
	if p.Status.Set && !p.Status.Null {
		t.Status = p.Status.Value
		if t.Status == models.StatusDone {
			completedAt := now
			t.CompletedAt = &completedAt
			setDone = true
		}
	}

	t.UpdatedAt = now

	return setDone && !wasDone
}
