package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole controls what a user is allowed to do
type UserRole string

const (
	RoleAdmin     UserRole = "admin"
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
)

// User represents a Bookery reader account
type User struct {
	ID       string   `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username string   `gorm:"uniqueIndex;not null" json:"username"`
	Email    string   `gorm:"uniqueIndex;not null" json:"email"`
	Role     UserRole `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	IsActive bool     `gorm:"default:true" json:"is_active"`

	// Bcrypt hash, never serialized
	PasswordHash string `gorm:"type:text;not null" json:"-"`

	// Activity tracking
	LastActiveAt *time.Time `json:"last_active_at"`

	// Relationships
	Reviews []Review `gorm:"foreignKey:UserID" json:"reviews,omitempty"`

	// GORM fields
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
