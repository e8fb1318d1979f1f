package recurring

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fundbox/internal/models"
)

// ErrMissingSavedMethod is reported when the original transaction
// carries no saved payment-method token. Kept in Russian: it is shown
// to organization administrators in the billing log.
const ErrMissingSavedMethod = "Отсутствует saved_payment_method_id"

// ErrNonPositiveAmount is reported when the original donation amount
// cannot be charged
const ErrNonPositiveAmount = "Сумма платежа должна быть положительной"

// ErrBillingInProgress is reported when another sweep run holds the
// billing lock for the same subscription and day
const ErrBillingInProgress = "Платеж за этот период уже обрабатывается"

const lockTTL = 5 * time.Minute

// Result is the outcome of a re-bill attempt. Failures are reported
// values, never errors escaping to the scheduler.
type Result struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id,omitempty"`
	Error         string `json:"error,omitempty"`
}

func failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Processor assembles and submits the next automatic charge of a
// recurring donation
type Processor struct {
	store   TransactionStore
	gateway Gateway
	locker  Locker
	log     *logrus.Entry
}

func NewProcessor(store TransactionStore, gateway Gateway, locker Locker) *Processor {
	return &Processor{
		store:   store,
		gateway: gateway,
		locker:  locker,
		log:     logrus.WithField("component", "recurring"),
	}
}

// CreateRecurringPayment builds a new charge from the original
// donation's attributes and submits it through the gateway. The new
// Donation+Transaction pair carries back-references to the original
// ids so future anchor lookups land on it.
func (p *Processor) CreateRecurringPayment(ctx context.Context, donation *models.Donation) Result {
	tx := donation.Transaction
	if tx == nil {
		return failure(ErrMissingSavedMethod)
	}
	key, ok := KeyFromTransaction(*tx)
	if !ok {
		return failure(ErrMissingSavedMethod)
	}
	if donation.Amount <= 0 {
		return failure(ErrNonPositiveAmount)
	}

	period, ok := ParsePeriod(tx.PaymentDetails.RecurringPeriod)
	if !ok {
		return failure("Не задан период регулярного платежа")
	}

	anchor, err := p.store.LastCompleted(ctx, key)
	if err != nil {
		return failure(fmt.Sprintf("поиск последнего платежа: %v", err))
	}
	if anchor == nil {
		anchor = tx
	}
	dueDay := DayOf(period.Next(anchor.AnchorDate()))

	if p.locker != nil {
		lock := key.LockName(dueDay)
		acquired, err := p.locker.Acquire(ctx, lock, lockTTL)
		if err != nil {
			return failure(fmt.Sprintf("блокировка платежа: %v", err))
		}
		if !acquired {
			return failure(ErrBillingInProgress)
		}
		defer p.locker.Release(ctx, lock)
	}

	// re-check under the lock: a parallel run may have charged this day
	// between the caller's resolver pass and here
	if existing, err := p.store.ExistingForDay(ctx, key, dueDay); err != nil {
		return failure(fmt.Sprintf("проверка дубликатов: %v", err))
	} else if existing != nil {
		return failure(ErrBillingInProgress)
	}

	req := p.buildRequest(donation, key, period, dueDay)

	txID, err := p.gateway.CreatePayment(ctx, req)
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"organization_id": key.OrganizationID,
			"donation_id":     donation.ID,
			"due_day":         dueDay.Format("2006-01-02"),
		}).Error("recurring charge failed")
		return failure(err.Error())
	}

	p.log.WithFields(logrus.Fields{
		"organization_id": key.OrganizationID,
		"donation_id":     donation.ID,
		"transaction_id":  txID,
		"due_day":         dueDay.Format("2006-01-02"),
	}).Info("recurring charge submitted")

	return Result{Success: true, TransactionID: txID}
}

func (p *Processor) buildRequest(donation *models.Donation, key SubscriptionKey, period Period, dueDay time.Time) ChargeRequest {
	donorName := donation.DonorName
	donorPhone := donation.DonorPhone
	description := fmt.Sprintf("Регулярное пожертвование от %s", donation.DonorName)
	if donation.IsAnonymous {
		donorName = "Аноним"
		donorPhone = ""
		description = "Регулярное пожертвование (анонимно)"
	}

	return ChargeRequest{
		OrganizationID: donation.OrganizationID,
		ProjectID:      donation.ProjectID,
		StageID:        donation.StageID,
		Amount:         donation.Amount,
		Currency:       donation.Currency,
		DonorName:      donorName,
		DonorEmail:     donation.DonorEmail,
		DonorPhone:     donorPhone,
		IsAnonymous:    donation.IsAnonymous,
		Description:    description,
		ChargeDay:      dueDay,
		Details: models.PaymentDetails{
			IsRecurring:           true,
			RecurringPeriod:       string(period),
			SavedPaymentMethodID:  key.SavedPaymentMethodID,
			OriginalDonationID:    donation.ID,
			OriginalTransactionID: donation.Transaction.ID,
		},
	}
}
