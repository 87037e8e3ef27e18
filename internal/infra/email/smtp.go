// Package email sends account mail over SMTP.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/calicode24/calicode/internal/config"
	"github.com/calicode24/calicode/internal/logger"
)

const verificationSubject = "Verify your CaliCode 24 account"

type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
	name   string
	log    logger.Interface
}

func NewSMTPMailer(cfg config.EmailConfig, log logger.Interface) *SMTPMailer {
	if log == nil {
		log = logger.Nop()
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:   cfg.FromAddress,
		name:   cfg.FromName,
		log:    log.Named("email"),
	}
}

// SendVerification mails the confirmation link to a new account
func (s *SMTPMailer) SendVerification(ctx context.Context, to, name, link string) error {
	m, err := s.verificationMessage(to, name, link)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.log.Info("sending verification email", "to", to, "host", s.dialer.Host, "port", s.dialer.Port)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func (s *SMTPMailer) verificationMessage(to, name, link string) (*gomail.Message, error) {
	html, text, err := renderVerification(name, link)
	if err != nil {
		return nil, err
	}
	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.name)
	m.SetHeader("To", to)
	m.SetHeader("Subject", verificationSubject)
	m.SetBody("text/plain", text)
	m.AddAlternative("text/html", html)
	return m, nil
}

func greetingName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "there"
	}
	return name
}

func renderVerification(name, link string) (string, string, error) {
	data := struct {
		Name string
		URL  string
	}{greetingName(name), link}

	var buf bytes.Buffer
	if err := verificationHTML.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render verification email: %w", err)
	}
	text := fmt.Sprintf("Hey %s,\n\nThanks for signing up for CaliCode 24. Verify your email by visiting:\n%s\n\nThis link expires in 24 hours.\n\n— CaliCode 24", data.Name, link)
	return buf.String(), text, nil
}

// NopMailer logs instead of sending; used when email is disabled.
type NopMailer struct {
	Log logger.Interface
}

func (n NopMailer) SendVerification(_ context.Context, to, _, link string) error {
	if n.Log != nil {
		n.Log.Info("email disabled, verification link not sent", "to", to, "link_length", len(link))
	}
	return nil
}

var verificationHTML = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#F0F4F8;font-family:'Helvetica Neue',Arial,sans-serif;">
  <div style="max-width:480px;margin:40px auto;background:#ffffff;border-radius:8px;border:1px solid #D0DAE4;overflow:hidden;">
    <div style="background:#FF6B00;padding:24px 32px;text-align:center;">
      <h1 style="margin:0;color:#ffffff;font-size:20px;font-weight:700;letter-spacing:-0.3px;">CaliCode 24</h1>
    </div>
    <div style="padding:32px;">
      <p style="margin:0 0 16px;font-size:15px;color:#1a2332;">Hey {{.Name}},</p>
      <p style="margin:0 0 24px;font-size:15px;color:#4a5568;line-height:1.6;">
        Thanks for signing up for CaliCode 24. Click the button below to verify your email and start checking Title 24 compliance.
      </p>
      <div style="text-align:center;margin:32px 0;">
        <a href="{{.URL}}" style="display:inline-block;background:#FF6B00;color:#ffffff;font-size:15px;font-weight:600;text-decoration:none;padding:12px 32px;border-radius:6px;">Verify My Email</a>
      </div>
      <p style="margin:0 0 8px;font-size:13px;color:#718096;line-height:1.5;">Or copy and paste this link into your browser:</p>
      <p style="margin:0 0 24px;font-size:12px;color:#FF6B00;word-break:break-all;">{{.URL}}</p>
      <hr style="border:none;border-top:1px solid #E8EEF4;margin:24px 0;" />
      <p style="margin:0;font-size:12px;color:#A0AEC0;line-height:1.5;">
        If you didn't create a CaliCode 24 account, you can safely ignore this email. This link expires in 24 hours.
      </p>
    </div>
    <div style="background:#F0F4F8;padding:16px 32px;text-align:center;">
      <p style="margin:0;font-size:11px;color:#A0AEC0;">CaliCode 24 — Instant Title 24 Compliance for California Contractors</p>
    </div>
  </div>
</body>
</html>`))
