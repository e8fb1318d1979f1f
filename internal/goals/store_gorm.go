package goals

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"fundbox/internal/models"
)

// GormStore reads payment settings out of the JSONB settings maps on
// organizations, sites and projects
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) ProjectPaymentSetting(ctx context.Context, projectID uint, key string) (*int64, error) {
	var project models.Project
	err := s.db.WithContext(ctx).Select("payment_settings").First(&project, projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return settingInt64(project.PaymentSettings, key), nil
}

func (s *GormStore) SitePaymentSetting(ctx context.Context, siteID uint, key string) (*int64, error) {
	var site models.Site
	err := s.db.WithContext(ctx).Select("custom_settings").First(&site, siteID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return settingInt64(site.CustomSettings, key), nil
}

func (s *GormStore) FirstSitePaymentSetting(ctx context.Context, orgID uint, key string) (*int64, error) {
	var site models.Site
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("id ASC").
		Select("custom_settings").
		First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return settingInt64(site.CustomSettings, key), nil
}

func (s *GormStore) OrganizationPaymentSetting(ctx context.Context, orgID uint, key string) (*int64, error) {
	var org models.Organization
	err := s.db.WithContext(ctx).Select("settings").First(&org, orgID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	// org-level settings nest payment settings one level deeper
	return settingInt64(org.Settings, "payment_settings", key), nil
}

func (s *GormStore) MonthCollected(ctx context.Context, orgID uint, projectID *uint, month time.Time) (int64, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	query := s.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Joins("JOIN donations ON donations.id = payment_transactions.donation_id").
		Where("payment_transactions.organization_id = ?", orgID).
		Where("payment_transactions.status = ?", models.TransactionStatusCompleted).
		Where("payment_transactions.paid_at >= ? AND payment_transactions.paid_at < ?", start, end)
	if projectID != nil {
		query = query.Where("donations.project_id = ?", *projectID)
	}

	var total *int64
	if err := query.Select("SUM(payment_transactions.amount)").Scan(&total).Error; err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// settingInt64 walks nested JSONB maps and coerces the leaf to int64.
// JSON numbers decode as float64; strings are not accepted.
func settingInt64(m datatypes.JSONMap, path ...string) *int64 {
	var current interface{} = map[string]interface{}(m)
	for _, key := range path {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		current, ok = node[key]
		if !ok {
			return nil
		}
	}

	switch v := current.(type) {
	case float64:
		n := int64(v)
		return &n
	case int64:
		return &v
	case int:
		n := int64(v)
		return &n
	default:
		return nil
	}
}
