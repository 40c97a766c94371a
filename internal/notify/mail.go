// Package notify delivers reminder completion notices. Delivery is best
// effort: failures are logged and never reach the caller.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"github.com/adanyl0v/go-reminders/internal/services"
)

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

func (c MailConfig) configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type MailNotifier struct {
	logger zerolog.Logger
	from   string
	client sender
}

// New returns a MailNotifier, or a notifier that only logs when SMTP
// credentials are not configured.
func New(logger zerolog.Logger, cfg MailConfig) (services.Notifier, error) {
	if !cfg.configured() {
		logger.Warn().Msg("mail credentials not configured, completion emails are disabled")
		return LogNotifier{logger: logger}, nil
	}

	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &MailNotifier{
		logger: logger,
		from:   from,
		client: client,
	}, nil
}

func (n *MailNotifier) NotifyCompletion(ctx context.Context, completion services.Completion) {
	msg, err := newCompletionMessage(n.from, completion)
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("reminder_id", completion.ReminderID).
			Msg("failed to build completion email")
		return
	}

	err = n.client.DialAndSendWithContext(ctx, msg)
	if err != nil {
		n.logger.Error().
			Err(err).
			Str("reminder_id", completion.ReminderID).
			Msg("failed to send completion email")
		return
	}
	n.logger.Info().
		Str("reminder_id", completion.ReminderID).
		Str("email", completion.Email).
		Msg("sent completion email")
}

var completionBody = template.Must(template.New("completion").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #10b981;">Reminder Completed!</h2>
  <p>Your reminder has been completed:</p>
  <div style="background-color: #f3f4f6; padding: 20px; border-radius: 8px; margin: 20px 0;">
    <p style="margin: 0;"><strong>Title:</strong> {{.Title}}</p>
    <p style="margin: 10px 0 0 0;"><strong>Category:</strong> {{.Category}}</p>
  </div>
</div>
`))

func subjectFor(completion services.Completion) string {
	return "Reminder Completed: " + displayTitle(completion)
}

func displayTitle(completion services.Completion) string {
	if completion.Title != "" {
		return completion.Title
	}
	return completion.Category
}

func renderBody(completion services.Completion) (string, error) {
	var buf bytes.Buffer
	err := completionBody.Execute(&buf, struct {
		Title    string
		Category string
	}{
		Title:    displayTitle(completion),
		Category: completion.Category,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func newCompletionMessage(from string, completion services.Completion) (*mail.Msg, error) {
	body, err := renderBody(completion)
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender: %w", err)
	}
	if err := msg.To(completion.Email); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	msg.Subject(subjectFor(completion))
	msg.SetBodyString(mail.TypeTextHTML, body)
	return msg, nil
}

// LogNotifier records completions in the log only.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) LogNotifier {
	return LogNotifier{logger: logger}
}

func (n LogNotifier) NotifyCompletion(_ context.Context, completion services.Completion) {
	n.logger.Info().
		Str("reminder_id", completion.ReminderID).
		Str("title", displayTitle(completion)).
		Str("category", completion.Category).
		Msg("reminder completed")
}
