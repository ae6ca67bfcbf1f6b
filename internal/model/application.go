package model

import (
	"time"

	"github.com/google/uuid"
)

// Application represents a student's submission of interest in a vacancy.
// The (vacancy, student) pair is unique: a student may apply to a given
// vacancy at most once, enforced by the composite unique index so that
// concurrent duplicate submissions resolve at the database rather than in
// process.
type Application struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	VacancyID uint     `gorm:"not null;uniqueIndex:idx_applications_vacancy_student" json:"vacancy_id"`
	Vacancy   *Vacancy `gorm:"foreignKey:VacancyID;constraint:OnDelete:CASCADE;" json:"vacancy,omitempty"`

	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_applications_vacancy_student" json:"student_id"`
	Student   *User     `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE;" json:"student,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`

	// NotifiedAt is stamped exactly once, when the record is first created
	// and the publisher notification is dispatched.
	NotifiedAt *time.Time `gorm:"type:timestamp" json:"notified_at"`

	Note string `gorm:"type:text" json:"note"`

	ResumeID *int  `json:"resume_id"`
	Resume   *File `gorm:"foreignKey:ResumeID;references:ID" json:"-"`
}
