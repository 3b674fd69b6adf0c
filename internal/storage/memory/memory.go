package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"task_manager/internal/analytics"
	"task_manager/internal/models"
	"task_manager/internal/storage"
)

// Storage keeps users and tasks in process memory. It mirrors the postgres
// storage semantics (ownership scoping, ordering, NULL due dates) and is used
// for local runs and handler tests.
type Storage struct {
	mu sync.RWMutex

	users    map[string]models.User
	tasks    map[int64]models.Task
	nextUser int64
	nextTask int64
	now      func() time.Time
}

func New() *Storage {
	return &Storage{
		users: make(map[string]models.User),
		tasks: make(map[int64]models.Task),
		now:   time.Now,
	}
}

func (s *Storage) SaveUser(_ context.Context, email string, fullName *string, passHash []byte) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[email]; ok {
		return models.User{}, storage.ErrUserExists
	}

	s.nextUser++
	u := models.User{
		ID:        s.nextUser,
		Email:     email,
		FullName:  fullName,
		PassHash:  passHash,
		CreatedAt: s.now().UTC(),
	}
	s.users[email] = u

	return u, nil
}

func (s *Storage) User(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[email]
	if !ok {
		return models.User{}, storage.ErrUserNotFound
	}

	return u, nil
}

// DeleteUser removes the user together with every task they own.
func (s *Storage) DeleteUser(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[email]
	if !ok {
		return storage.ErrUserNotFound
	}

	delete(s.users, email)
	for id, t := range s.tasks {
		if t.UserID == u.ID {
			delete(s.tasks, id)
		}
	}

	return nil
}

func (s *Storage) CreateTask(_ context.Context, t models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTask++
	t.ID = s.nextTask
	t.DueDate = dateOnly(t.DueDate)
	s.tasks[t.ID] = t

	return t, nil
}

func (s *Storage) Task(_ context.Context, userID, taskID int64) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.owned(userID, taskID)
}

func (s *Storage) UpdateTask(
	_ context.Context,
	userID, taskID int64,
	apply func(t *models.Task),
) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.owned(userID, taskID)
	if err != nil {
		return models.Task{}, err
	}

	apply(&t)
	t.DueDate = dateOnly(t.DueDate)
	s.tasks[t.ID] = t

	return t, nil
}

func (s *Storage) DeleteTask(_ context.Context, userID, taskID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.owned(userID, taskID); err != nil {
		return err
	}

	delete(s.tasks, taskID)

	return nil
}

func (s *Storage) ListTasks(_ context.Context, userID int64, f models.TaskFilter) ([]models.Task, int, error) {
	s.mu.RLock()
	matched := make([]models.Task, 0)
	for _, t := range s.tasks {
		if t.UserID == userID && matches(t, f) {
			matched = append(matched, t)
		}
	}
	s.mu.RUnlock()

	if f.Sort == models.SortDueDate {
		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return a.ID < b.ID
			case a.DueDate == nil:
				return false
			case b.DueDate == nil:
				return true
			case !a.DueDate.Equal(*b.DueDate):
				return a.DueDate.Before(*b.DueDate)
			}
			return a.ID < b.ID
		})
	} else {
		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		})
	}

	total := len(matched)

	start := f.Offset()
	if start < 0 || start > total {
		start = total
	}
	end := start + f.PageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

func (s *Storage) TaskSummary(_ context.Context, userID int64, today time.Time) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make([]models.Task, 0)
	for _, t := range s.tasks {
		if t.UserID == userID {
			owned = append(owned, t)
		}
	}

	return analytics.Summarize(owned, today), nil
}

func (s *Storage) Close() {}

func (s *Storage) owned(userID, taskID int64) (models.Task, error) {
	t, ok := s.tasks[taskID]
	if !ok || t.UserID != userID {
		return models.Task{}, storage.ErrTaskNotFound
	}

	return t, nil
}

func matches(t models.Task, f models.TaskFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		inTitle := strings.Contains(strings.ToLower(t.Title), q)
		inDesc := t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)
		if !inTitle && !inDesc {
			return false
		}
	}
	// A task without a due date never satisfies a due date bound.
	if f.DueFrom != nil && (t.DueDate == nil || t.DueDate.Before(*dateOnly(f.DueFrom))) {
		return false
	}
	if f.DueTo != nil && (t.DueDate == nil || t.DueDate.After(*dateOnly(f.DueTo))) {
		return false
	}

	return true
}

func dateOnly(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &out
}
