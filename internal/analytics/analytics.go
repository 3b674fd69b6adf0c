package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sl "task_manager/internal/lib/logger/sl"
	"task_manager/internal/models"
)

// Bucket is one of the three mutually exclusive analytics categories.
type Bucket int

const (
	BucketActive Bucket = iota
	BucketDone
	BucketOverdue
)

func (b Bucket) String() string {
	switch b {
	case BucketActive:
		return "active"
	case BucketDone:
		return "done"
	case BucketOverdue:
		return "overdue"
	}
	return "unknown"
}

// Today truncates now to the UTC calendar day that the buckets are computed against.
func Today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify places t in exactly one bucket.
// Done wins over overdue: a finished task with a past due date is only done.
func Classify(t models.Task, today time.Time) Bucket {
	if t.Status == models.StatusDone {
		return BucketDone
	}

	if t.DueDate != nil && t.DueDate.Before(Today(today)) {
		return BucketOverdue
	}

	return BucketActive
}

func Summarize(tasks []models.Task, today time.Time) models.Summary {
	var s models.Summary

	for _, t := range tasks {
		switch Classify(t, today) {
		case BucketActive:
			s.Active++
		case BucketDone:
			s.Done++
		case BucketOverdue:
			s.Overdue++
		}
	}

	return s
}

type SummaryProvider interface {
	TaskSummary(ctx context.Context, userID int64, today time.Time) (models.Summary, error)
}

type Aggregator struct {
	log      *slog.Logger
	provider SummaryProvider
	now      func() time.Time
}

func New(log *slog.Logger, provider SummaryProvider) *Aggregator {
	return &Aggregator{
		log:      log,
		provider: provider,
		now:      time.Now,
	}
}

// WithClock replaces the time source used to pick "today".
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

func (a *Aggregator) Summary(ctx context.Context, userID int64) (models.Summary, error) {
	const op = "analytics.Summary"

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("uid", userID),
	)

	sum, err := a.provider.TaskSummary(ctx, userID, Today(a.now()))
	if err != nil {
		log.Error("failed to compute summary", sl.Err(err))
		return models.Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("summary computed",
		slog.Int("active", sum.Active),
		slog.Int("done", sum.Done),
		slog.Int("overdue", sum.Overdue),
	)

	return sum, nil
}
