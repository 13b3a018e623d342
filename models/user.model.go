package models

import (
	"time"

	"gorm.io/gorm"
)

// User mirrors the identity record issued by the auth provider.
// Credentials never live here; tokens arrive already signed.
type User struct {
	gorm.Model
	Name       string     `json:"name" gorm:"default:''"`
	Email      string     `json:"email" gorm:"unique;not null"`
	Mobile     string     `json:"mobile" gorm:"default:''"`
	Role       string     `json:"role" gorm:"default:'STUDENT'"` // STUDENT, INSTRUCTOR, ADMIN
	IsActive   bool       `json:"is_active" gorm:"default:true"`
	LastSeenAt *time.Time `json:"last_seen_at"`
	IsDeleted  bool       `gorm:"default:false"`
}
