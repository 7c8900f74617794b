package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/legalize/backoffice/internal/logging"
	"github.com/legalize/backoffice/internal/timex"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	ReplyTo  string
}

// SMTPSender delivers mail through gomail. After a client message goes out,
// a copy is sent to the office (reply-to and from addresses) with the
// original text attached.
type SMTPSender struct {
	from    string
	replyTo string
	staff   []string
	clock   timex.Clock
	log     logging.Logger

	send func(m ...*gomail.Message) error
}

func NewSMTPSender(cfg SMTPConfig, log logging.Logger) *SMTPSender {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	return &SMTPSender{
		from:    cfg.From,
		replyTo: cfg.ReplyTo,
		staff:   staffRecipients(cfg.ReplyTo, cfg.From),
		clock:   time.Now,
		log:     log.With("module", "smtp"),
		send:    d.DialAndSend,
	}
}

func staffRecipients(addrs ...string) []string {
	var out []string
	seen := map[string]bool{}
	for _, a := range addrs {
		if a != "" && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

func (s *SMTPSender) Send(ctx context.Context, subject, body string, recipients []string) (int, error) {
	if len(recipients) == 0 {
		return 0, errors.New("no recipients")
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", recipients...)
	if s.replyTo != "" {
		m.SetHeader("Reply-To", s.replyTo)
	}
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.send(m); err != nil {
		return 0, fmt.Errorf("smtp: %w", err)
	}
	s.sendCopy(ctx, subject, body, recipients)
	return len(recipients), nil
}

const copySubject = "Potwierdzenie wysłania wiadomości do klienta"

func (s *SMTPSender) sendCopy(ctx context.Context, subject, body string, recipients []string) {
	if len(s.staff) == 0 {
		return
	}
	text := strings.Join([]string{
		copySubject + ".",
		"Czas wysłania: " + s.clock().Format("02.01.2006 15:04"),
		"Do: " + strings.Join(recipients, ", "),
		"Temat: " + subject,
		"",
		"Treść wiadomości:",
		body,
	}, "\n")

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.staff...)
	m.SetHeader("Subject", copySubject)
	m.SetBody("text/plain", "Wiadomość do klienta została wysłana. W załączniku znajduje się jej treść.")
	m.Attach("sent-email.txt", gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := io.WriteString(w, text)
		return err
	}))
	if err := s.send(m); err != nil {
		s.log.Warn(ctx, "staff copy failed", "error", err)
	}
}
