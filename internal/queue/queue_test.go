package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	q := NewInMemory(2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body, _ := json.Marshal(map[string]string{"email": "a@example.com"})
	require.NoError(t, q.Publish(ctx, Message{Type: "attendance_confirmation", Body: body}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "attendance_confirmation", msg.Type)
		assert.JSONEq(t, string(body), string(msg.Body))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestInMemoryPublishHonorsCancellation(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Publish(ctx, Message{Type: "x"}))
	cancel()
	// Queue is full and the context is gone; publish must not block.
	assert.Error(t, q.Publish(ctx, Message{Type: "y"}))
}
