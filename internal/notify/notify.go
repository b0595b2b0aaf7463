package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"rollcall/internal/queue"
)

// MessageType tags confirmation jobs on the work queue.
const MessageType = "attendance_confirmation"

// Job is the unit handed from the API process to the worker.
type Job struct {
	Email       string    `json:"email"`
	StudentName string    `json:"student_name"`
	CourseName  string    `json:"course_name"`
	MarkedAt    time.Time `json:"marked_at"`
}

// Dispatcher schedules confirmation emails after an attendance record has
// been committed. It is fire-and-forget: every failure is logged and
// swallowed, nothing propagates back into the marking path.
type Dispatcher struct {
	q                 queue.Queue
	placeholderDomain string
	log               zerolog.Logger
}

// NewDispatcher creates a dispatcher. Addresses under placeholderDomain are
// institutional placeholders and are skipped silently.
func NewDispatcher(q queue.Queue, placeholderDomain string, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{q: q, placeholderDomain: placeholderDomain, log: log}
}

// Confirm enqueues a confirmation for a successful mark. Safe to call with an
// empty email.
func (d *Dispatcher) Confirm(ctx context.Context, email, studentName, courseName string, markedAt time.Time) {
	if email == "" {
		return
	}
	if d.placeholderDomain != "" && strings.Contains(email, d.placeholderDomain) {
		return
	}

	body, err := json.Marshal(Job{
		Email:       email,
		StudentName: studentName,
		CourseName:  courseName,
		MarkedAt:    markedAt,
	})
	if err != nil {
		d.log.Error().Err(err).Msg("encoding notification job")
		return
	}
	if err := d.q.Publish(ctx, queue.Message{Type: MessageType, Body: body}); err != nil {
		d.log.Error().Err(err).Str("email", email).Msg("queueing notification")
	}
}

// Sender is the worker-side half: it decodes jobs and sends mail.
type Sender struct {
	mailer Mailer
	log    zerolog.Logger
}

// NewSender creates a sender over the given mailer.
func NewSender(mailer Mailer, log zerolog.Logger) *Sender {
	return &Sender{mailer: mailer, log: log}
}

// Handle sends the confirmation for one queued message. Failures are logged,
// never returned to the attendance path.
func (s *Sender) Handle(ctx context.Context, msg queue.Message) {
	if msg.Type != MessageType {
		return
	}
	var job Job
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		s.log.Error().Err(err).Msg("decoding notification job")
		return
	}

	subject := "Attendance Confirmed: " + job.CourseName
	text, html := renderBody(job)
	if err := s.mailer.Send(ctx, job.Email, subject, text, html); err != nil {
		s.log.Error().Err(err).Str("email", job.Email).Msg("sending confirmation email")
		return
	}
	s.log.Info().Str("email", job.Email).Str("course", job.CourseName).Msg("confirmation sent")
}

func renderBody(job Job) (text, html string) {
	when := job.MarkedAt.Format("2006-01-02 15:04")
	text = fmt.Sprintf(
		"Hello %s,\n\nYour attendance for %s has been recorded at %s.\nStatus: Present\n\nThis is an automated message, please do not reply.\n",
		job.StudentName, job.CourseName, when,
	)
	html = fmt.Sprintf(
		`<html><body>
<p>Hello <b>%s</b>,</p>
<p>This is an automated notification to confirm that your attendance has been recorded.</p>
<table>
<tr><td>Course</td><td><b>%s</b></td></tr>
<tr><td>Time Recorded</td><td><b>%s</b></td></tr>
<tr><td>Status</td><td><b>Present</b></td></tr>
</table>
<p style="color:#888;font-size:12px">This is an automated message, please do not reply.</p>
</body></html>`,
		job.StudentName, job.CourseName, when,
	)
	return text, html
}
