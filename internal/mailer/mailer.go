// Package mailer dispatches the email that notifies a vacancy's publisher
// about a newly created application. Delivery is synchronous and best
// effort: a failed send never rolls the application record back.
package mailer

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	// Load env
	_ "github.com/joho/godotenv/autoload"
	"gopkg.in/gomail.v2"
)

// Notice carries everything the notification email needs.
type Notice struct {
	StudentName   string
	VacancyTitle  string
	TeacherEmail  string
	AppliedAt     time.Time
	ResumeName    string
	ResumeContent []byte
}

// Subject renders the message subject line.
func (n Notice) Subject() string {
	return fmt.Sprintf("New application for vacancy: %s", n.VacancyTitle)
}

// Body renders the plain text message body.
func (n Notice) Body() string {
	return fmt.Sprintf(
		"Student %s applied to the vacancy.\n\n"+
			"Vacancy: %s\n"+
			"Date: %s\n\n"+
			"Internship placement system.",
		n.StudentName, n.VacancyTitle, n.AppliedAt.Format("2006-01-02 15:04"),
	)
}

// Dispatcher sends application notices. The application controller depends
// on this interface so tests can capture notices without an SMTP server.
type Dispatcher interface {
	SendApplicationNotice(n Notice) error
}

// SMTPMailer sends notices through a configured SMTP account.
type SMTPMailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// NewSMTPMailerFromEnv reads MAIL_HOST, MAIL_PORT, MAIL_USERNAME,
// MAIL_PASSWORD and MAIL_FROM. It returns nil when no host is configured,
// which disables notification dispatch without failing anything else.
func NewSMTPMailerFromEnv() *SMTPMailer {
	host := os.Getenv("MAIL_HOST")
	if host == "" {
		return nil
	}

	port, err := strconv.Atoi(os.Getenv("MAIL_PORT"))
	if err != nil || port <= 0 {
		port = 587
	}

	username := os.Getenv("MAIL_USERNAME")
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = username
	}

	return &SMTPMailer{
		Host:     host,
		Port:     port,
		Username: username,
		Password: os.Getenv("MAIL_PASSWORD"),
		From:     from,
	}
}

// SendApplicationNotice builds and delivers the notification email, with the
// resume attached when present.
func (m *SMTPMailer) SendApplicationNotice(n Notice) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", n.TeacherEmail)
	msg.SetHeader("Subject", n.Subject())
	msg.SetBody("text/plain", n.Body())

	if len(n.ResumeContent) > 0 && n.ResumeName != "" {
		msg.Attach(n.ResumeName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(n.ResumeContent)
			return err
		}))
	}

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send application notice: %w", err)
	}
	return nil
}
