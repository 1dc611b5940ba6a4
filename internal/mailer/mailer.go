package mailer

import (
	"bytes"
	"html/template"
	"net/smtp"
	"os"
	"strconv"

	"github.com/jordan-wright/email"
)

// Config holds SMTP transport settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// ConfigFromEnv reads SMTP config from environment variables.
func ConfigFromEnv() Config {
	port := 587
	if raw := os.Getenv("SMTP_PORT"); raw != "" {
		if p, err := strconv.Atoi(raw); err == nil {
			port = p
		}
	}
	return Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// SMTP sends mail over a plain SMTP connection.
type SMTP struct {
	cfg Config
}

func NewSMTP(cfg Config) *SMTP { return &SMTP{cfg: cfg} }

// Send dispatches a single HTML message. An empty from falls back to the
// configured sender.
func (m *SMTP) Send(from, to, subject, htmlBody string) error {
	if from == "" {
		from = m.cfg.From
	}
	e := email.NewEmail()
	e.From = from
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(htmlBody)

	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	return e.Send(addr, auth)
}

var resetEmailTmpl = template.Must(template.New("reset-password-email").Parse(`<!DOCTYPE html>
<html>
  <body>
    <p>Hello {{.Name}},</p>
    <p>We received a request to reset the password for your account.</p>
    <p><a href="{{.Link}}">Click here to set a new password.</a></p>
    <p>The link is valid for 5 minutes. If you did not request a reset, you can ignore this message.</p>
  </body>
</html>
`))

// RenderResetEmail renders the reset-password message for the given recipient
// name and link, returning the subject and HTML body.
func RenderResetEmail(name, link string) (subject, htmlBody string, err error) {
	var buf bytes.Buffer
	data := struct{ Name, Link string }{Name: name, Link: link}
	if err := resetEmailTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return "Reset Password", buf.String(), nil
}
