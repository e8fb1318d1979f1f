package models

import (
	"time"

	"gorm.io/gorm"
)

// Donation is a logical pledge: one originating PaymentTransaction per
// donation. Recurring re-bills create new Donation+Transaction pairs
// linked back through PaymentDetails.OriginalDonationID.
type Donation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrganizationID uint  `gorm:"index" json:"organization_id"`
	ProjectID      *uint `gorm:"index" json:"project_id,omitempty"`
	StageID        *uint `json:"stage_id,omitempty"`

	Amount   int64  `json:"amount"` // minor units
	Currency string `gorm:"type:varchar(10);default:'RUB'" json:"currency"`

	DonorName   string `gorm:"type:varchar(255)" json:"donor_name"`
	DonorEmail  string `gorm:"type:varchar(255)" json:"donor_email"`
	DonorPhone  string `gorm:"type:varchar(50)" json:"donor_phone"`
	IsAnonymous bool   `gorm:"default:false" json:"is_anonymous"`
	Message     string `gorm:"type:text" json:"message"`
	IsRecurring bool   `gorm:"default:false;index" json:"is_recurring"`

	// Relationships
	Organization Organization        `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Project      *Project            `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Transaction  *PaymentTransaction `gorm:"foreignKey:DonationID" json:"transaction,omitempty"`
}
