package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Organization is a tenant: it owns sites, projects and donations
type Organization struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name     string `gorm:"type:varchar(255)" json:"name"`
	Slug     string `gorm:"type:varchar(100);uniqueIndex" json:"slug"`
	Currency string `gorm:"type:varchar(10);default:'RUB'" json:"currency"`

	// Settings holds payment_settings (monthly_goal, collected_override,
	// gateway) and other org-level configuration
	Settings datatypes.JSONMap `gorm:"type:jsonb" json:"settings"`

	// Relationships
	Sites     []Site     `gorm:"foreignKey:OrganizationID" json:"sites,omitempty"`
	Projects  []Project  `gorm:"foreignKey:OrganizationID" json:"projects,omitempty"`
	Donations []Donation `gorm:"foreignKey:OrganizationID" json:"donations,omitempty"`
}

// Site is a public site of an organization
type Site struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	OrganizationID uint   `gorm:"index" json:"organization_id"`
	Domain         string `gorm:"type:varchar(255);uniqueIndex" json:"domain"`
	Title          string `gorm:"type:varchar(255)" json:"title"`
	IsPublished    bool   `gorm:"default:false" json:"is_published"`

	// CustomSettings may override org-level payment settings
	// (monthly_goal, collected_override)
	CustomSettings datatypes.JSONMap `gorm:"type:jsonb" json:"custom_settings"`

	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
}
