package view

import (
	"time"

	"task_manager/internal/models"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUser(u models.User) User {
	return User{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

type Task struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description *string         `json:"description"`
	DueDate     *string         `json:"due_date"`
	Priority    models.Priority `json:"priority"`
	Status      models.Status   `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	CompletedAt *time.Time      `json:"completed_at"`
}

func NewTask(t models.Task) Task {
	out := Task{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}

	if t.DueDate != nil {
		d := t.DueDate.Format(models.DateLayout)
		out.DueDate = &d
	}
	if t.CompletedAt != nil {
		c := t.CompletedAt.UTC()
		out.CompletedAt = &c
	}

	return out
}

type TaskPage struct {
	Items    []Task `json:"items"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

func NewTaskPage(p models.TaskPage) TaskPage {
	items := make([]Task, 0, len(p.Items))
	for _, t := range p.Items {
		items = append(items, NewTask(t))
	}

	return TaskPage{
		Items:    items,
		Total:    p.Total,
		Page:     p.Page,
		PageSize: p.PageSize,
	}
}

type Summary struct {
	Active  int `json:"active"`
	Done    int `json:"done"`
	Overdue int `json:"overdue"`
}

func NewSummary(s models.Summary) Summary {
	return Summary{Active: s.Active, Done: s.Done, Overdue: s.Overdue}
}
