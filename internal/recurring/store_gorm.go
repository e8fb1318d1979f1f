package recurring

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"fundbox/internal/models"
)

// GormStore is the Postgres-backed TransactionStore
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) LastCompleted(ctx context.Context, key SubscriptionKey) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND saved_payment_method_id = ? AND status = ?",
			key.OrganizationID, key.SavedPaymentMethodID, models.TransactionStatusCompleted).
		Order("paid_at DESC NULLS LAST").
		Order("created_at DESC").
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func (s *GormStore) ExistingForDay(ctx context.Context, key SubscriptionKey, day time.Time) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND saved_payment_method_id = ? AND charge_day = ? AND status <> ?",
			key.OrganizationID, key.SavedPaymentMethodID, DayOf(day), models.TransactionStatusCancelled).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// ListRecurringCandidates returns donations that initiated a recurring
// series. Re-bill donations have IsRecurring=false at the donation
// level (only their PaymentDetails carry is_recurring), so the flag
// alone selects originals.
func (s *GormStore) ListRecurringCandidates(ctx context.Context) ([]models.Donation, error) {
	var donations []models.Donation
	err := s.db.WithContext(ctx).
		Joins("JOIN payment_transactions ON payment_transactions.donation_id = donations.id").
		Where("donations.is_recurring = ?", true).
		Where("payment_transactions.saved_payment_method_id <> ''").
		Where("payment_transactions.status NOT IN ?", []models.TransactionStatus{
			models.TransactionStatusCancelled, models.TransactionStatusRefunded,
		}).
		Preload("Transaction").
		Find(&donations).Error
	if err != nil {
		return nil, err
	}
	return donations, nil
}
