package course

import "gorm.io/gorm"

// Course represents a learning course
type Course struct {
	gorm.Model
	Title       string `json:"title"`
	Slug        string `json:"slug" gorm:"uniqueIndex;not null"`
	Description string `json:"description"`
	Author      string `json:"author"`
	PriceCents  int64  `json:"price_cents" gorm:"default:0"` // 0 means free
	Currency    string `json:"currency" gorm:"type:varchar(10);default:'usd'"`
	Status      string `json:"status" gorm:"default:'DRAFT'"` // DRAFT, ACTIVE, INACTIVE
	IsPublished bool   `json:"is_published" gorm:"default:false"`

	// Denormalized count of non-cancelled enrollments. Maintained by the
	// enrollment reconciler and corrected by the nightly recount sweep.
	EnrollmentCount int64 `json:"enrollment_count" gorm:"default:0"`

	IsDeleted bool `gorm:"default:false"`
}
