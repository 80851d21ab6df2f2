// Package notify fires deadline reminders for calendar events. A fixed
// interval poller scans the store; firing is gated by the event's persisted
// notified marker, so a reminder goes out at most once even across restarts.
package notify

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Notifier is the platform notification surface. Granted mirrors the
// platform permission check: when it reports false the scheduler skips
// silently, it never errors.
type Notifier interface {
	Granted() bool
	Fire(title, body, tag string) error
}

// LogNotifier writes reminders to the process log. Used when no real
// notification channel is configured, and in tests.
type LogNotifier struct{}

func (LogNotifier) Granted() bool { return true }

func (LogNotifier) Fire(title, body, tag string) error {
	log.Printf("notify: [%s] %s: %s", tag, title, body)
	return nil
}

// SMTPConfig holds the mail relay settings for the email notifier.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	To       string
}

// SMTPNotifier delivers reminders by plain-text email.
type SMTPNotifier struct {
	config SMTPConfig
	server string
	auth   smtp.Auth
}

func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   smtp.PlainAuth("", config.Username, config.Password, config.Host),
	}
}

// Granted reports whether the relay is configured. An unconfigured notifier
// is the "permission denied" case: the scheduler skips without error.
func (n *SMTPNotifier) Granted() bool {
	return n.config.Host != "" && n.config.Port != "" && n.config.From != "" && n.config.To != ""
}

func (n *SMTPNotifier) Fire(title, body, tag string) error {
	if !n.Granted() {
		return fmt.Errorf("smtp notifier not configured")
	}

	from := n.config.From
	if n.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.config.FromName, n.config.From)
	}
	to := strings.Split(n.config.To, ",")
	for i := range to {
		to[i] = strings.TrimSpace(to[i])
	}

	msg := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Subject: %s\r\n"+
			"X-Bidtrack-Event: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		strings.Join(to, ", "),
		from,
		title,
		tag,
		body,
	))

	return smtp.SendMail(n.server, n.auth, n.config.From, to, msg)
}
