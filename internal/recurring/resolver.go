package recurring

import (
	"context"
	"time"

	"fundbox/internal/models"
)

// Resolver decides whether a recurring donation is due for its next
// automatic charge. It is a pure function of stored state: evaluating
// it twice without intervening writes yields the same answer.
type Resolver struct {
	store TransactionStore
	now   func() time.Time
}

func NewResolver(store TransactionStore) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// ShouldCreateNextPayment reports whether the next automatic charge of
// the donation's subscription is due: the next due date (anchor date
// advanced by one period) lies strictly in the past and no transaction
// already covers that day.
func (r *Resolver) ShouldCreateNextPayment(ctx context.Context, donation *models.Donation) (bool, error) {
	due, _, err := r.nextDue(ctx, donation)
	if err != nil || due == nil {
		return false, err
	}
	if !due.Before(r.now()) {
		return false, nil
	}

	key, _ := KeyFromTransaction(*donation.Transaction)
	existing, err := r.ExistingPaymentForDate(ctx, key, *due)
	if err != nil {
		return false, err
	}
	return existing == nil, nil
}

// NextDueDate exposes the computed due date for the processor, which
// needs it for the charge day and the advisory lock. Returns nil when
// the donation is not a valid recurring origin.
func (r *Resolver) NextDueDate(ctx context.Context, donation *models.Donation) (*time.Time, error) {
	due, _, err := r.nextDue(ctx, donation)
	return due, err
}

// ExistingPaymentForDate is the duplicate guard: any non-cancelled
// transaction of the series on the same calendar day blocks a charge
func (r *Resolver) ExistingPaymentForDate(ctx context.Context, key SubscriptionKey, date time.Time) (*models.PaymentTransaction, error) {
	return r.store.ExistingForDay(ctx, key, DayOf(date))
}

func (r *Resolver) nextDue(ctx context.Context, donation *models.Donation) (*time.Time, Period, error) {
	tx := donation.Transaction
	if tx == nil {
		return nil, "", nil
	}
	period, ok := ParsePeriod(tx.PaymentDetails.RecurringPeriod)
	if !ok {
		return nil, "", nil
	}
	key, ok := KeyFromTransaction(*tx)
	if !ok {
		return nil, "", nil
	}

	anchor, err := r.store.LastCompleted(ctx, key)
	if err != nil {
		return nil, "", err
	}
	if anchor == nil {
		// series has no completed charge yet, the original transaction
		// anchors the schedule
		anchor = tx
	}

	due := period.Next(anchor.AnchorDate())
	return &due, period, nil
}
