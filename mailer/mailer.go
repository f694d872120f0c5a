// Package mailer sends transactional email over SMTP. Delivery is
// best-effort: lifecycle transitions never roll back on a send failure.
package mailer

import (
	"fmt"
	"net/smtp"
	"os"
)

// Mailer is what the order lifecycle depends on; tests swap in a fake.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	Host string
	Port string
	User string
	Pass string
	From string
}

func NewFromEnv() *SMTPMailer {
	m := &SMTPMailer{
		Host: os.Getenv("SMTP_HOST"),
		Port: os.Getenv("SMTP_PORT"),
		User: os.Getenv("SMTP_USER"),
		Pass: os.Getenv("SMTP_PASS"),
	}
	m.From = fmt.Sprintf("Boutique App <%s>", m.User)
	return m
}

func (m *SMTPMailer) addr() string {
	port := m.Port
	if port == "" {
		port = "587"
	}
	return m.Host + ":" + port
}

// Verify dials the server and issues a NOOP so misconfiguration shows
// up before the first send.
func (m *SMTPMailer) Verify() error {
	c, err := smtp.Dial(m.addr())
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	defer c.Close()
	return c.Noop()
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	if err := m.Verify(); err != nil {
		return err
	}

	msg := []byte("From: " + m.From + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"\r\n" +
		body)

	auth := smtp.PlainAuth("", m.User, m.Pass, m.Host)
	if err := smtp.SendMail(m.addr(), auth, m.User, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
