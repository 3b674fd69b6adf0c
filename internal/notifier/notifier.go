package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"task_manager/internal/models"

	"gopkg.in/gomail.v2"
)

const welcomeSubject = "Welcome to Task Manager"

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (m *Mailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.From)
	msg.SetHeader("Subject", subject)

	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}

type Sender interface {
	Send(to, subject, body string) error
}

type Notifier struct {
	log    *slog.Logger
	sender Sender
}

func New(log *slog.Logger, sender Sender) *Notifier {
	return &Notifier{log: log, sender: sender}
}

// Handle sends a welcome e-mail for new registrations. Every other event type
// is only logged.
func (n *Notifier) Handle(_ context.Context, event models.Event) error {
	const op = "notifier.Handle"

	log := n.log.With(
		slog.String("op", op),
		slog.String("type", event.Type),
	)

	switch event.Type {
	case models.EventUserRegistered:
		if event.Email == "" {
			return fmt.Errorf("%s: event without recipient", op)
		}

		if err := n.sender.Send(event.Email, welcomeSubject, welcomeBody(event)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		log.Info("welcome e-mail sent")
	case models.EventTaskCompleted:
		log.Info("task completed",
			slog.Int64("uid", event.UserID),
			slog.Int64("task_id", event.TaskID),
		)
	default:
		log.Warn("unknown event type")
	}

	return nil
}

func welcomeBody(event models.Event) string {
	name := event.FullName
	if name == "" {
		name = event.Email
	}

	return fmt.Sprintf("Hi %s,\n\nyour Task Manager account is ready. Sign in and create your first task.\n", name)
}
