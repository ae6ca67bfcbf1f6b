// Package model contain gorm model for recording data to database
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// RoleStudent marks an account that browses vacancies and submits applications
	RoleStudent = "student"
	// RoleTeacher marks an account that publishes vacancies and reviews applicants
	RoleTeacher = "teacher"
)

// User is gorm model for an account. Role is fixed at registration and
// gates which endpoints the account may call.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Username  string    `gorm:"type:text;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"type:text" json:"email"`
	FirstName string    `gorm:"type:text" json:"first_name"`
	LastName  string    `gorm:"type:text" json:"last_name"`
	Password  string    `gorm:"type:text" json:"-"`
	Role      string    `gorm:"type:text;not null" json:"role"`

	// TelegramUsername is the handle as supplied at registration (without "@").
	// TelegramChatID is only set when the handle was resolved through the Bot API.
	TelegramUsername *string `gorm:"type:text" json:"telegram_username,omitempty"`
	TelegramChatID   *string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
}

// DisplayName returns "First Last", falling back to the username when the
// name fields are empty.
func (u *User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// IsStudent reports whether the account has the student role.
func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}

// IsTeacher reports whether the account has the teacher role.
func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}
