package models

import (
	"time"

	"gorm.io/gorm"
)

// Review represents a user's rating and write-up for a book.
// Rating is constrained to [1,5] by request validation before it gets here.
type Review struct {
	ID         string  `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BookID     string  `gorm:"not null;index" json:"book_id"`
	Book       Book    `gorm:"foreignKey:BookID" json:"book,omitempty"`
	UserID     string  `gorm:"not null;index" json:"user_id"`
	User       User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	ReviewText string  `gorm:"type:text;not null" json:"review_text"`
	Rating     float64 `gorm:"not null" json:"rating"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (Review) TableName() string {
	return "reviews"
}
