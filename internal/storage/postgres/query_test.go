package postgres

import (
	"testing"
	"time"

	"task_manager/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListTasksQuery_Defaults(t *testing.T) {
	f := models.TaskFilter{Page: 2, PageSize: 20}

	query, args, err := listTasksQuery(7, f).ToSql()
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT id, user_id, title, description, due_date, priority, status, created_at, updated_at, completed_at "+
			"FROM tasks WHERE (user_id = $1) ORDER BY created_at DESC, id DESC LIMIT 20 OFFSET 20",
		query,
	)
	assert.Equal(t, []interface{}{int64(7)}, args)
}

func TestListTasksQuery_SortByDueDate(t *testing.T) {
	f := models.TaskFilter{Sort: models.SortDueDate, Page: 1, PageSize: 5}

	query, _, err := listTasksQuery(1, f).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "ORDER BY due_date ASC, id ASC")
	assert.Contains(t, query, "LIMIT 5 OFFSET 0")
}

func TestTaskPredicate_AllFilters(t *testing.T) {
	status := models.StatusTodo
	priority := models.PriorityHigh
	from := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	to := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	f := models.TaskFilter{
		Status:   &status,
		Priority: &priority,
		Query:    "50%_Off",
		DueFrom:  &from,
		DueTo:    &to,
		Page:     1,
		PageSize: 20,
	}

	query, args, err := countTasksQuery(3, f).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "SELECT COUNT(*) FROM tasks WHERE (user_id = $1 AND status = $2 AND priority = $3")
	assert.Contains(t, query, "(title ILIKE $4 OR description ILIKE $5)")
	assert.Contains(t, query, "due_date >= $6")
	assert.Contains(t, query, "due_date <= $7")
	assert.NotContains(t, query, "LIMIT")

	pattern := `%50\%\_Off%`
	assert.Equal(t, []interface{}{
		int64(3),
		"todo",
		"high",
		pattern,
		pattern,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		to,
	}, args)
}

func TestOwnedBy(t *testing.T) {
	query, args, err := psql.Delete("tasks").Where(ownedBy(2, 9)).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", query)
	assert.Equal(t, []interface{}{int64(9), int64(2)}, args)
}

func TestSummaryQuery(t *testing.T) {
	today := time.Date(2024, 5, 10, 23, 59, 0, 0, time.UTC)
	day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	query, args, err := summaryQuery(4, today).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "due_date >= $1)) AS active")
	assert.Contains(t, query, "FILTER (WHERE status = 'done') AS done")
	assert.Contains(t, query, "due_date < $2) AS overdue")
	assert.Contains(t, query, "FROM tasks WHERE user_id = $3")
	assert.Equal(t, []interface{}{day, day, int64(4)}, args)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "plain", escapeLike("plain"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
}

func TestListTasksQuery_LastPageOffset(t *testing.T) {
	query, _, err := listTasksQuery(1, models.TaskFilter{
		Page:     models.MaxPage,
		PageSize: models.MaxPageSize,
	}).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "LIMIT 100 OFFSET 2147483500")
}
