package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollcall/internal/queue"
)

type captureQueue struct {
	published []queue.Message
}

func (q *captureQueue) Publish(_ context.Context, msg queue.Message) error {
	q.published = append(q.published, msg)
	return nil
}

func (q *captureQueue) Consume(context.Context) (<-chan queue.Message, error) {
	return nil, errors.New("not consumable")
}

type failingQueue struct{}

func (failingQueue) Publish(context.Context, queue.Message) error {
	return errors.New("redis down")
}

func (failingQueue) Consume(context.Context) (<-chan queue.Message, error) {
	return nil, errors.New("redis down")
}

type recordingMailer struct {
	sent []string
	err  error
}

func (m *recordingMailer) Send(_ context.Context, to, _, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	return nil
}

func TestConfirmEnqueuesJob(t *testing.T) {
	q := &captureQueue{}
	d := NewDispatcher(q, "uni.edu", zerolog.Nop())

	at := time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local)
	d.Confirm(context.Background(), "amina@example.com", "Amina Khalid", "Intro to Computing", at)

	require.Len(t, q.published, 1)
	msg := q.published[0]
	assert.Equal(t, MessageType, msg.Type)

	var job Job
	require.NoError(t, json.Unmarshal(msg.Body, &job))
	assert.Equal(t, "amina@example.com", job.Email)
	assert.Equal(t, "Intro to Computing", job.CourseName)
}

func TestConfirmSkipsMissingAndPlaceholderEmails(t *testing.T) {
	q := &captureQueue{}
	d := NewDispatcher(q, "uni.edu", zerolog.Nop())
	ctx := context.Background()

	d.Confirm(ctx, "", "Amina Khalid", "Intro", time.Now())
	d.Confirm(ctx, "someone@uni.edu", "Omar Farouk", "Intro", time.Now())

	assert.Empty(t, q.published)
}

func TestConfirmSwallowsPublishFailure(t *testing.T) {
	d := NewDispatcher(failingQueue{}, "uni.edu", zerolog.Nop())
	// Must not panic or surface the error.
	d.Confirm(context.Background(), "amina@example.com", "Amina Khalid", "Intro", time.Now())
}

func TestSenderDeliversJob(t *testing.T) {
	m := &recordingMailer{}
	s := NewSender(m, zerolog.Nop())

	body, _ := json.Marshal(Job{Email: "amina@example.com", StudentName: "Amina", CourseName: "Intro", MarkedAt: time.Now()})
	s.Handle(context.Background(), queue.Message{Type: MessageType, Body: body})

	require.Len(t, m.sent, 1)
	assert.Equal(t, "amina@example.com", m.sent[0])
}

func TestSenderIgnoresOtherTypesAndBadPayloads(t *testing.T) {
	m := &recordingMailer{}
	s := NewSender(m, zerolog.Nop())
	ctx := context.Background()

	s.Handle(ctx, queue.Message{Type: "something_else", Body: []byte(`{}`)})
	s.Handle(ctx, queue.Message{Type: MessageType, Body: []byte(`{not json`)})
	assert.Empty(t, m.sent)
}

func TestSenderLogsAndSwallowsSendFailure(t *testing.T) {
	m := &recordingMailer{err: errors.New("smtp refused")}
	s := NewSender(m, zerolog.Nop())

	body, _ := json.Marshal(Job{Email: "amina@example.com"})
	// Must not panic; the failure stays inside the worker.
	s.Handle(context.Background(), queue.Message{Type: MessageType, Body: body})
	assert.Empty(t, m.sent)
}
