package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is a fundraising project of an organization
type Project struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrganizationID uint   `gorm:"index" json:"organization_id"`
	Name           string `gorm:"type:varchar(255)" json:"name"`
	Description    string `gorm:"type:text" json:"description"`
	IsPublished    bool   `gorm:"default:false" json:"is_published"`

	// PaymentSettings may override site/org-level payment settings
	// (monthly_goal, collected_override)
	PaymentSettings datatypes.JSONMap `gorm:"type:jsonb" json:"payment_settings"`

	// Relationships
	Organization Organization   `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Stages       []ProjectStage `gorm:"foreignKey:ProjectID" json:"stages,omitempty"`
}

// ProjectStage is a phase of a project with its own target amount
type ProjectStage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ProjectID    uint   `gorm:"index" json:"project_id"`
	Name         string `gorm:"type:varchar(255)" json:"name"`
	TargetAmount int64  `json:"target_amount"` // minor units
	Position     int    `json:"position"`

	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}
