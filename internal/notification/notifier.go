package notification

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/psyeval/recruitment/internal/config"
	"github.com/psyeval/recruitment/pkg/metrics"
	"go.uber.org/zap"
)

const (
	AccountCreatedKind string = "recruitment.notifications.account_created"
	TestAssignmentKind string = "recruitment.notifications.test_assignment"
	defaultTopic       string = "recruitment.notifications"
	eventSource        string = "recruitment.core"
)

// Writer delivers rendered notifications. Implementations own the transport.
type Writer interface {
	Write(ctx context.Context, topic string, e cloudevents.Event) error
	Close(ctx context.Context) error
}

// Message is the payload carried by every notification event.
type Message struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type AccountCreated struct {
	Email        string
	Name         string
	TempPassword string
}

type TestAssignment struct {
	Email    string
	Name     string
	Tests    []string
	ExamDate *time.Time
}

// Notifier renders and hands notifications to a Writer. Sends are
// best-effort: failures are logged and reported as false.
type Notifier struct {
	writer   Writer
	sender   string
	loginURL string
	topic    string
}

type NotifierOptions func(n *Notifier)

func WithTopic(topic string) NotifierOptions {
	return func(n *Notifier) {
		n.topic = topic
	}
}

func NewNotifier(w Writer, cfg *config.Config, opts ...NotifierOptions) *Notifier {
	n := &Notifier{
		writer:   w,
		sender:   cfg.Notification.Sender,
		loginURL: cfg.Notification.LoginURL,
		topic:    defaultTopic,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

var accountCreatedTmpl = template.Must(template.New("account_created").Parse(
	`Hello {{ .Name }},

An account was created for you on the recruitment platform.

Login: {{ .Email }}
Temporary password: {{ .TempPassword }}

Sign in at {{ .LoginURL }} and choose a new password.
`))

var testAssignmentTmpl = template.Must(template.New("test_assignment").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(
	`Hello {{ .Name }},

The following tests were assigned to you: {{ join .Tests ", " }}.
{{- if .ExamDate }}
Your exam is scheduled on {{ .ExamDate.Format "2006-01-02 15:04" }}.
{{- end }}

Sign in at {{ .LoginURL }} to get started.
`))

func (n *Notifier) SendAccountCreated(ctx context.Context, a AccountCreated) bool {
	body, err := render(accountCreatedTmpl, struct {
		AccountCreated
		LoginURL string
	}{a, n.loginURL})
	if err != nil {
		return n.failed(AccountCreatedKind, a.Email, err)
	}
	return n.send(ctx, AccountCreatedKind, Message{
		From:    n.sender,
		To:      a.Email,
		Subject: "Your recruitment account",
		Body:    body,
	})
}

func (n *Notifier) SendTestAssignment(ctx context.Context, t TestAssignment) bool {
	body, err := render(testAssignmentTmpl, struct {
		TestAssignment
		LoginURL string
	}{t, n.loginURL})
	if err != nil {
		return n.failed(TestAssignmentKind, t.Email, err)
	}
	return n.send(ctx, TestAssignmentKind, Message{
		From:    n.sender,
		To:      t.Email,
		Subject: "Tests assigned to you",
		Body:    body,
	})
}

func (n *Notifier) Close(ctx context.Context) error {
	return n.writer.Close(ctx)
}

func (n *Notifier) send(ctx context.Context, kind string, msg Message) bool {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(eventSource)
	e.SetType(kind)
	if err := e.SetData(cloudevents.ApplicationJSON, msg); err != nil {
		return n.failed(kind, msg.To, err)
	}

	if err := n.writer.Write(ctx, n.topic, e); err != nil {
		return n.failed(kind, msg.To, err)
	}

	metrics.IncreaseNotificationsTotalMetric(kind, metrics.NotificationSent)
	return true
}

func (n *Notifier) failed(kind, recipient string, err error) bool {
	metrics.IncreaseNotificationsTotalMetric(kind, metrics.NotificationFailed)
	zap.S().Named("notifier").Warnw("failed to send notification", "kind", kind, "recipient", recipient, "error", err)
	return false
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}
