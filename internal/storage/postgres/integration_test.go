package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"task_manager/internal/models"
	"task_manager/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDSNEnv = "TASK_MANAGER_TEST_DSN"

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDSNEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(ctx))

	t.Cleanup(s.Close)

	return s
}

func newTestUser(t *testing.T, s *Storage) models.User {
	t.Helper()

	email := fmt.Sprintf("%s@example.com", uuid.NewString())

	u, err := s.SaveUser(context.Background(), email, nil, []byte("hash"))
	require.NoError(t, err)

	return u
}

func newTestTask(t *testing.T, s *Storage, userID int64, title string, due *time.Time, status models.Status) models.Task {
	t.Helper()

	now := time.Now().UTC()

	task, err := s.CreateTask(context.Background(), models.Task{
		UserID:    userID,
		Title:     title,
		DueDate:   due,
		Priority:  models.PriorityMedium,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	return task
}

func TestIntegration_DuplicateEmail(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	u := newTestUser(t, s)

	_, err := s.SaveUser(ctx, u.Email, nil, []byte("other"))
	assert.ErrorIs(t, err, storage.ErrUserExists)

	got, err := s.User(ctx, u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestIntegration_Pagination(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	u := newTestUser(t, s)
	for i := 0; i < 25; i++ {
		newTestTask(t, s, u.ID, fmt.Sprintf("task %d", i), nil, models.StatusTodo)
	}

	items, total, err := s.ListTasks(ctx, u.ID, models.TaskFilter{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, items, 20)
	assert.Equal(t, 25, total)

	items, total, err = s.ListTasks(ctx, u.ID, models.TaskFilter{Page: 2, PageSize: 20})
	require.NoError(t, err)
	assert.Len(t, items, 5)
	assert.Equal(t, 25, total)
}

func TestIntegration_SummaryPartition(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	today := dateOnly(time.Now().UTC())
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)

	u := newTestUser(t, s)
	newTestTask(t, s, u.ID, "a", &yesterday, models.StatusTodo)
	newTestTask(t, s, u.ID, "b", &tomorrow, models.StatusInProgress)
	newTestTask(t, s, u.ID, "c", &yesterday, models.StatusDone)
	newTestTask(t, s, u.ID, "d", &yesterday, models.StatusTodo)

	sum, err := s.TaskSummary(ctx, u.ID, today)
	require.NoError(t, err)
	assert.Equal(t, models.Summary{Active: 1, Done: 1, Overdue: 2}, sum)

	empty := newTestUser(t, s)
	sum, err = s.TaskSummary(ctx, empty.ID, today)
	require.NoError(t, err)
	assert.Equal(t, models.Summary{}, sum)
}

func TestIntegration_QueryFilter(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	u := newTestUser(t, s)
	newTestTask(t, s, u.ID, "Buy MILK", nil, models.StatusTodo)
	newTestTask(t, s, u.ID, "Write report", nil, models.StatusTodo)

	items, total, err := s.ListTasks(ctx, u.ID, models.TaskFilter{Query: "milk", Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Buy MILK", items[0].Title)

	items, total, err = s.ListTasks(ctx, u.ID, models.TaskFilter{Query: "zzz", Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestIntegration_Ownership(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	owner := newTestUser(t, s)
	other := newTestUser(t, s)

	task := newTestTask(t, s, owner.ID, "mine", nil, models.StatusTodo)

	_, err := s.Task(ctx, other.ID, task.ID)
	assert.ErrorIs(t, err, storage.ErrTaskNotFound)

	_, err = s.UpdateTask(ctx, other.ID, task.ID, func(t *models.Task) { t.Title = "stolen" })
	assert.ErrorIs(t, err, storage.ErrTaskNotFound)

	assert.ErrorIs(t, s.DeleteTask(ctx, other.ID, task.ID), storage.ErrTaskNotFound)

	updated, err := s.UpdateTask(ctx, owner.ID, task.ID, func(t *models.Task) { t.Title = "renamed" })
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)

	require.NoError(t, s.DeleteTask(ctx, owner.ID, task.ID))

	_, err = s.Task(ctx, owner.ID, task.ID)
	assert.ErrorIs(t, err, storage.ErrTaskNotFound)
}
