package model

import (
	"time"

	"github.com/google/uuid"
)

// Vacancy is gorm model for a published job/internship posting.
type Vacancy struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	Title       string `gorm:"type:text;not null" json:"title"`
	Company     string `gorm:"type:text;not null" json:"company"`
	Description string `gorm:"type:text" json:"description"`

	Categories []Category `gorm:"many2many:vacancy_categories;" json:"categories"`

	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`

	// PublishedByID is nullable so vacancies survive deletion of their owner.
	PublishedByID *uuid.UUID `gorm:"type:uuid;index" json:"published_by_id"`
	PublishedBy   *User      `gorm:"foreignKey:PublishedByID;constraint:OnDelete:SET NULL;" json:"-"`

	Active bool `gorm:"not null;default:true" json:"active"`

	Applications []Application `gorm:"foreignKey:VacancyID;constraint:OnDelete:CASCADE;" json:"-"`
}

// OwnedBy reports whether the vacancy was published by the given user.
func (v *Vacancy) OwnedBy(userID uuid.UUID) bool {
	return v.PublishedByID != nil && *v.PublishedByID == userID
}
