package mailer

import (
	"context"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/awardwatch/mailer")

type SmtpConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

type Options struct {
	Smtp          SmtpConfig `json:"smtp"`
	Recipients    []string   `json:"recipients"`
	SenderName    string     `json:"sender_name"`
	SubjectPrefix string     `json:"subject_prefix"`
}

// Section is one tracked entity's portion of the digest: the entity
// name and its already-formatted change lines.
type Section struct {
	Entity string
	Lines  []string
}

type Mailer struct {
	config Options
}

func NewMailer(options Options) Mailer {
	if options.SenderName == "" {
		options.SenderName = "USAspending Watcher"
	}
	if options.SubjectPrefix == "" {
		options.SubjectPrefix = "[Award Watch]"
	}
	return Mailer{config: options}
}

// SendDigest delivers one consolidated change report. It is called at
// most once per run, and only when at least one section has lines.
func (m Mailer) SendDigest(ctx context.Context, at time.Time, sections []Section) error {
	ctx, span := tracer.Start(ctx, "SendDigest")
	defer span.End()
	span.SetAttributes(attribute.Int("sections", len(sections)))

	if len(m.config.Recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", m.config.SenderName, m.config.Smtp.EmailAddress)
	mail.To = m.config.Recipients
	mail.Subject = fmt.Sprintf(
		"%s USAspending Award Changes — %s",
		m.config.SubjectPrefix,
		at.Format("2006-01-02"),
	)
	mail.Text = []byte(textBody(sections))
	mail.HTML = []byte(htmlBody(at, sections))

	addr := fmt.Sprintf("%s:%d", m.config.Smtp.Server, m.config.Smtp.Port)
	auth := smtp.PlainAuth("", m.config.Smtp.EmailAddress, m.config.Smtp.Password, m.config.Smtp.Server)

	err := mail.Send(addr, auth)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send digest")
		return err
	}
	return nil
}

func textBody(sections []Section) string {
	var b strings.Builder
	for _, section := range sections {
		if len(section.Lines) == 0 {
			continue
		}
		b.WriteString(section.Entity)
		b.WriteByte('\n')
		for _, line := range section.Lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if b.Len() == 0 {
		return "Changes detected."
	}
	return b.String()
}

func htmlBody(at time.Time, sections []Section) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<p>Detected changes at %s:</p>\n",
		at.UTC().Format("2006-01-02 15:04:05 UTC"))
	for _, section := range sections {
		if len(section.Lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "<p><strong>%s</strong></p>\n<ul>\n", html.EscapeString(section.Entity))
		for _, line := range section.Lines {
			fmt.Fprintf(&b, "<li>%s</li>\n", html.EscapeString(strings.TrimPrefix(line, " - ")))
		}
		b.WriteString("</ul>\n")
	}
	return b.String()
}
