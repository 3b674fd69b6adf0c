package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"task_manager/internal/models"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublishing(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	event := models.Event{
		Type:       models.EventUserRegistered,
		UserID:     7,
		Email:      "a@example.com",
		OccurredAt: now,
	}

	msg, err := newPublishing(event, now)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, models.EventUserRegistered, msg.Type)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, now, msg.Timestamp)

	_, err = uuid.Parse(msg.MessageId)
	assert.NoError(t, err)

	var decoded models.Event
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, event, decoded)
}

func TestNewPublishing_UniqueIDs(t *testing.T) {
	a, err := newPublishing(models.Event{Type: "x"}, time.Now())
	require.NoError(t, err)
	b, err := newPublishing(models.Event{Type: "x"}, time.Now())
	require.NoError(t, err)

	assert.NotEqual(t, a.MessageId, b.MessageId)
}

func TestHandleBody(t *testing.T) {
	var got models.Event
	handle := func(_ context.Context, e models.Event) error {
		got = e
		return nil
	}

	err := handleBody(context.Background(), []byte(`{"type":"task.completed","task_id":3}`), handle)
	require.NoError(t, err)
	assert.Equal(t, models.EventTaskCompleted, got.Type)
	assert.Equal(t, int64(3), got.TaskID)

	assert.Error(t, handleBody(context.Background(), []byte("{broken"), handle))

	boom := errors.New("smtp down")
	err = handleBody(context.Background(), []byte(`{"type":"user.registered"}`), func(context.Context, models.Event) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNop(t *testing.T) {
	assert.NoError(t, Nop{}.Publish(context.Background(), models.Event{Type: "x"}))
}
