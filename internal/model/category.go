package model

import (
	"fmt"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Category is a tag used to classify vacancies. Name and slug are both
// unique; the slug is derived from the name on creation and never changes
// afterwards unless explicitly cleared.
type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"type:text;uniqueIndex;not null" json:"name"`
	Slug string `gorm:"type:text;uniqueIndex" json:"slug"`

	Vacancies []Vacancy `gorm:"many2many:vacancy_categories;" json:"-"`
}

// BeforeCreate derives a URL-safe slug from the name when none was given,
// resolving collisions with numeric suffixes: "data", "data-1", "data-2", ...
func (cat *Category) BeforeCreate(tx *gorm.DB) error {
	if cat.Slug != "" {
		return nil
	}

	base := slug.Make(cat.Name)
	if base == "" {
		base = "category"
	}

	candidate := base
	for counter := 1; ; counter++ {
		var count int64
		if err := tx.Model(&Category{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			break
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}

	cat.Slug = candidate
	return nil
}
