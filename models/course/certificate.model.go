package course

import (
	"time"

	"gorm.io/gorm"
)

// Certificate represents an issued certificate for course completion.
// The credential id is the public lookup key for verification.
type Certificate struct {
	gorm.Model
	UserID       uint       `json:"user_id" gorm:"uniqueIndex:ux_certificates_user_course;not null"`
	CourseID     uint       `json:"course_id" gorm:"uniqueIndex:ux_certificates_user_course;not null"`
	EnrollmentID uint       `json:"enrollment_id" gorm:"index;not null"`
	CredentialID string     `json:"credential_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	IssuedAt     time.Time  `json:"issued_at"`
	IsRevoked    bool       `json:"is_revoked" gorm:"default:false"`
	RevokedAt    *time.Time `json:"revoked_at"`
	IsDeleted    bool       `gorm:"default:false"`
}
