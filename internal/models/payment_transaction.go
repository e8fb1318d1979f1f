package models

import (
	"time"

	"gorm.io/gorm"
)

// TransactionStatus tracks the lifecycle of a charge attempt
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusRefunded  TransactionStatus = "refunded"
)

// PaymentDetails is the structured payload persisted with a transaction.
// For recurring charges it carries the saved token and back-references
// to the originating donation/transaction.
type PaymentDetails struct {
	IsRecurring           bool   `json:"is_recurring,omitempty"`
	RecurringPeriod       string `json:"recurring_period,omitempty"`
	SavedPaymentMethodID  string `json:"saved_payment_method_id,omitempty"`
	OriginalDonationID    uint   `json:"original_donation_id,omitempty"`
	OriginalTransactionID uint   `json:"original_transaction_id,omitempty"`
	GatewayPaymentID      string `json:"gateway_payment_id,omitempty"`
	ConfirmationURL       string `json:"confirmation_url,omitempty"`
}

// PaymentTransaction records one attempted/completed charge.
//
// SavedPaymentMethodID is duplicated out of PaymentDetails into a
// dedicated indexed column so subscription lookups do not need JSON
// path extraction, and so the uniqueness constraint below is
// enforceable: at most one recurring charge per (organization, token)
// per calendar day.
type PaymentTransaction struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	DonationID     uint `gorm:"uniqueIndex" json:"donation_id"`
	OrganizationID uint `gorm:"index:idx_tx_subscription,priority:1;uniqueIndex:idx_tx_charge_day,priority:1" json:"organization_id"`

	Status            TransactionStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Amount            int64             `json:"amount"` // minor units
	Currency          string            `gorm:"type:varchar(10)" json:"currency"`
	PaymentMethodSlug string            `gorm:"type:varchar(50)" json:"payment_method_slug"`
	PaidAt            *time.Time        `json:"paid_at"`

	SavedPaymentMethodID string `gorm:"type:varchar(100);index:idx_tx_subscription,priority:2;uniqueIndex:idx_tx_charge_day,priority:2,where:saved_payment_method_id <> ''" json:"saved_payment_method_id"`
	// ChargeDay is the calendar day (UTC, truncated) this charge covers
	ChargeDay time.Time `gorm:"type:date;uniqueIndex:idx_tx_charge_day,priority:3" json:"charge_day"`

	PaymentDetails PaymentDetails `gorm:"serializer:json" json:"payment_details"`

	Donation Donation `gorm:"foreignKey:DonationID" json:"donation,omitempty"`
}

// AnchorDate is the base date for computing the next due date
func (t PaymentTransaction) AnchorDate() time.Time {
	if t.PaidAt != nil {
		return *t.PaidAt
	}
	return t.CreatedAt
}

// IsRecurringOrigin reports whether this transaction can seed a
// recurring series: it must carry both a period and a saved token
func (t PaymentTransaction) IsRecurringOrigin() bool {
	return t.PaymentDetails.RecurringPeriod != "" && t.PaymentDetails.SavedPaymentMethodID != ""
}
