package recurring

import (
	"context"
	"fmt"
	"time"

	"fundbox/internal/models"
)

// SubscriptionKey identifies a recurring series. There is no dedicated
// subscription entity: all transactions of one organization sharing a
// saved payment-method token belong to the same series.
type SubscriptionKey struct {
	OrganizationID       uint
	SavedPaymentMethodID string
}

// KeyFromTransaction extracts the subscription key from a transaction.
// Returns false when the transaction carries no saved token.
func KeyFromTransaction(tx models.PaymentTransaction) (SubscriptionKey, bool) {
	token := tx.PaymentDetails.SavedPaymentMethodID
	if token == "" {
		token = tx.SavedPaymentMethodID
	}
	if token == "" {
		return SubscriptionKey{}, false
	}
	return SubscriptionKey{
		OrganizationID:       tx.OrganizationID,
		SavedPaymentMethodID: token,
	}, true
}

// LockName returns the advisory-lock key for one billing day of this
// subscription
func (k SubscriptionKey) LockName(day time.Time) string {
	return fmt.Sprintf("recurring:charge:%d:%s:%s", k.OrganizationID, k.SavedPaymentMethodID, day.Format("2006-01-02"))
}

// TransactionStore is the query surface the recurring core needs. The
// GORM implementation lives in store_gorm.go; tests use fakes.
type TransactionStore interface {
	// LastCompleted returns the most recent completed transaction of the
	// series (paid_at DESC, created_at DESC tiebreak), or nil when the
	// series has no completed charge yet.
	LastCompleted(ctx context.Context, key SubscriptionKey) (*models.PaymentTransaction, error)

	// ExistingForDay returns any non-cancelled transaction of the series
	// whose charge day equals the given calendar day, or nil.
	ExistingForDay(ctx context.Context, key SubscriptionKey, day time.Time) (*models.PaymentTransaction, error)

	// ListRecurringCandidates returns original recurring donations with
	// their transactions preloaded, for the scheduled sweep.
	ListRecurringCandidates(ctx context.Context) ([]models.Donation, error)
}

// Gateway submits an assembled charge to the payment provider and
// persists the resulting Donation+Transaction pair. Implemented by
// services.PaymentService.
type Gateway interface {
	CreatePayment(ctx context.Context, req ChargeRequest) (string, error)
}

// Locker guards the check-then-create sequence of one billing day
// against concurrent sweep runs
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// ChargeRequest is the assembled re-bill submitted through the Gateway
type ChargeRequest struct {
	OrganizationID uint
	ProjectID      *uint
	StageID        *uint

	Amount   int64
	Currency string

	DonorName   string
	DonorEmail  string
	DonorPhone  string
	IsAnonymous bool
	Description string

	// ChargeDay is the computed due day this charge covers
	ChargeDay time.Time

	Details models.PaymentDetails
}
