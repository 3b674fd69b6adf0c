package postgres

import (
	"strings"
	"time"

	"task_manager/internal/models"

	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var taskColumns = []string{
	"id",
	"user_id",
	"title",
	"description",
	"due_date",
	"priority",
	"status",
	"created_at",
	"updated_at",
	"completed_at",
}

// ownedBy is the only predicate used to address a single task. A task that
// exists but belongs to someone else matches nothing, exactly like a missing one.
func ownedBy(userID, taskID int64) sq.Eq {
	return sq.Eq{"id": taskID, "user_id": userID}
}

// taskPredicate scopes to the owner and ANDs every filter that is set.
func taskPredicate(userID int64, f models.TaskFilter) sq.And {
	where := sq.And{sq.Eq{"user_id": userID}}

	if f.Status != nil {
		where = append(where, sq.Eq{"status": string(*f.Status)})
	}
	if f.Priority != nil {
		where = append(where, sq.Eq{"priority": string(*f.Priority)})
	}
	if f.Query != "" {
		pattern := "%" + escapeLike(f.Query) + "%"
		where = append(where, sq.Or{
			sq.ILike{"title": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if f.DueFrom != nil {
		where = append(where, sq.GtOrEq{"due_date": dateOnly(*f.DueFrom)})
	}
	if f.DueTo != nil {
		where = append(where, sq.LtOrEq{"due_date": dateOnly(*f.DueTo)})
	}

	return where
}

func listTasksQuery(userID int64, f models.TaskFilter) sq.SelectBuilder {
	q := psql.Select(taskColumns...).
		From("tasks").
		Where(taskPredicate(userID, f))

	if f.Sort == models.SortDueDate {
		q = q.OrderBy("due_date ASC", "id ASC")
	} else {
		q = q.OrderBy("created_at DESC", "id DESC")
	}

	return q.Limit(uint64(f.PageSize)).Offset(uint64(f.Offset()))
}

func countTasksQuery(userID int64, f models.TaskFilter) sq.SelectBuilder {
	return psql.Select("COUNT(*)").
		From("tasks").
		Where(taskPredicate(userID, f))
}

// summaryQuery counts the three analytics buckets in one pass. The predicates
// partition the owner's tasks: each row lands in exactly one bucket.
func summaryQuery(userID int64, today time.Time) sq.SelectBuilder {
	today = dateOnly(today)

	return psql.Select().
		Column(sq.Expr(
			"COUNT(*) FILTER (WHERE status IN ('todo', 'in_progress') AND (due_date IS NULL OR due_date >= ?)) AS active",
			today,
		)).
		Column("COUNT(*) FILTER (WHERE status = 'done') AS done").
		Column(sq.Expr(
			"COUNT(*) FILTER (WHERE status <> 'done' AND due_date IS NOT NULL AND due_date < ?) AS overdue",
			today,
		)).
		From("tasks").
		Where(sq.Eq{"user_id": userID})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes q match literally inside an ILIKE pattern.
func escapeLike(q string) string {
	return likeEscaper.Replace(q)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
