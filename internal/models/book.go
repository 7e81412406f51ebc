package models

import (
	"time"

	"gorm.io/gorm"
)

// Book represents a catalog entry. The recommendation engine treats books
// as read-only snapshots; only the CRUD handlers mutate them.
type Book struct {
	ID            string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Title         string `gorm:"not null;index" json:"title"`
	Author        string `gorm:"not null;index" json:"author"`
	Genre         string `gorm:"not null;index" json:"genre"`
	YearPublished *int   `json:"year_published,omitempty"`
	Summary       string `gorm:"type:text" json:"summary,omitempty"`

	// Relationships
	Reviews []Review `gorm:"foreignKey:BookID" json:"reviews,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (Book) TableName() string {
	return "books"
}
