package models

import (
	"math"
	"time"
)

// DateLayout is the wire format of due dates.
const DateLayout = "2006-01-02"

type User struct {
	ID        int64
	Email     string
	FullName  *string
	PassHash  []byte
	CreatedAt time.Time
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Task is owned by exactly one user.
// CompletedAt is stamped whenever an update sets status to done and is never cleared.
type Task struct {
	ID          int64
	UserID      int64
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    Priority
	Status      Status
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

type TaskInput struct {
	Title       string
	Description *string
	DueDate     *time.Time
	Priority    Priority
}

// TaskPatch carries only the fields a client sent. Unset fields are left untouched.
type TaskPatch struct {
	Title       Optional[string]
	Description Optional[string]
	DueDate     Optional[time.Time]
	Priority    Optional[Priority]
	Status      Optional[Status]
}

const (
	SortCreatedAt = "created_at"
	SortDueDate   = "due_date"

	DefaultPageSize = 20
	MaxPageSize     = 100

	// MaxPage keeps (page-1)*page_size inside int32.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// TaskFilter holds the ANDed list predicates plus ordering and paging.
// Nil pointers and empty strings mean "no constraint".
type TaskFilter struct {
	Status   *Status
	Priority *Priority
	Query    string
	DueFrom  *time.Time
	DueTo    *time.Time
	Sort     string
	Page     int
	PageSize int
}

func (f TaskFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

type TaskPage struct {
	Items    []Task
	Total    int
	Page     int
	PageSize int
}

type Summary struct {
	Active  int
	Done    int
	Overdue int
}

const (
	EventUserRegistered = "user.registered"
	EventTaskCompleted  = "task.completed"
)

type Event struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"full_name,omitempty"`
	TaskID     int64     `json:"task_id,omitempty"`
	TaskTitle  string    `json:"task_title,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
