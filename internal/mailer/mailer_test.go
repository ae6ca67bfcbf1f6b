package mailer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoticeSubject(t *testing.T) {
	n := Notice{VacancyTitle: "Backend Intern"}
	assert.Equal(t, "New application for vacancy: Backend Intern", n.Subject())
}

func TestNoticeBody(t *testing.T) {
	applied := time.Date(2025, 9, 1, 12, 30, 0, 0, time.UTC)
	n := Notice{
		StudentName:  "Ivan Petrov",
		VacancyTitle: "Backend Intern",
		AppliedAt:    applied,
	}

	body := n.Body()
	assert.Contains(t, body, "Student Ivan Petrov applied to the vacancy.")
	assert.Contains(t, body, "Vacancy: Backend Intern")
	assert.Contains(t, body, "Date: 2025-09-01 12:30")
}

func TestNewSMTPMailerFromEnvDisabled(t *testing.T) {
	t.Setenv("MAIL_HOST", "")
	assert.Nil(t, NewSMTPMailerFromEnv())
}

func TestNewSMTPMailerFromEnvDefaults(t *testing.T) {
	t.Setenv("MAIL_HOST", "smtp.example.com")
	t.Setenv("MAIL_PORT", "")
	t.Setenv("MAIL_USERNAME", "noreply@example.com")
	t.Setenv("MAIL_FROM", "")

	m := NewSMTPMailerFromEnv()
	assert.NotNil(t, m)
	assert.Equal(t, 587, m.Port)
	assert.Equal(t, "noreply@example.com", m.From)
}
