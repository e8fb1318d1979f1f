package recurring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fundbox/internal/models"
)

type fakeGateway struct {
	calls []ChargeRequest
	txID  string
	err   error
}

func (f *fakeGateway) CreatePayment(_ context.Context, req ChargeRequest) (string, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	return f.txID, nil
}

type fakeLocker struct {
	deny     bool
	acquired []string
	released []string
}

func (f *fakeLocker) Acquire(_ context.Context, name string, _ time.Duration) (bool, error) {
	if f.deny {
		return false, nil
	}
	f.acquired = append(f.acquired, name)
	return true, nil
}

func (f *fakeLocker) Release(_ context.Context, name string) error {
	f.released = append(f.released, name)
	return nil
}

func TestCreateRecurringPayment_MissingToken(t *testing.T) {
	gateway := &fakeGateway{txID: "201"}
	p := NewProcessor(newFakeStore(), gateway, nil)

	donation := recurringDonation("monthly", "", date(2024, time.January, 15))
	result := p.CreateRecurringPayment(context.Background(), donation)

	assert.False(t, result.Success)
	assert.Equal(t, "Отсутствует saved_payment_method_id", result.Error)
	assert.Empty(t, gateway.calls)
}

func TestCreateRecurringPayment_NoTransaction(t *testing.T) {
	gateway := &fakeGateway{txID: "201"}
	p := NewProcessor(newFakeStore(), gateway, nil)

	result := p.CreateRecurringPayment(context.Background(), &models.Donation{ID: 5, Amount: 1000})

	assert.False(t, result.Success)
	assert.Equal(t, ErrMissingSavedMethod, result.Error)
	assert.Empty(t, gateway.calls)
}

func TestCreateRecurringPayment_NonPositiveAmount(t *testing.T) {
	gateway := &fakeGateway{txID: "201"}
	p := NewProcessor(newFakeStore(), gateway, nil)

	donation := recurringDonation("monthly", "pm-1", date(2024, time.January, 15))
	donation.Amount = 0
	result := p.CreateRecurringPayment(context.Background(), donation)

	assert.False(t, result.Success)
	assert.Equal(t, ErrNonPositiveAmount, result.Error)
	assert.Empty(t, gateway.calls)
}

func TestCreateRecurringPayment_Success(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{txID: "201"}
	locker := &fakeLocker{}
	p := NewProcessor(store, gateway, locker)

	donation := recurringDonation("monthly", "pm-1", date(2024, time.January, 15))
	result := p.CreateRecurringPayment(context.Background(), donation)

	require.True(t, result.Success, "unexpected error: %s", result.Error)
	assert.Equal(t, "201", result.TransactionID)

	require.Len(t, gateway.calls, 1)
	req := gateway.calls[0]
	assert.Equal(t, uint(1), req.OrganizationID)
	assert.Equal(t, int64(50000), req.Amount)
	assert.Equal(t, date(2024, time.February, 15), req.ChargeDay)
	assert.Equal(t, "Регулярное пожертвование от Иван Петров", req.Description)
	assert.True(t, req.Details.IsRecurring)
	assert.Equal(t, "monthly", req.Details.RecurringPeriod)
	assert.Equal(t, "pm-1", req.Details.SavedPaymentMethodID)
	assert.Equal(t, donation.ID, req.Details.OriginalDonationID)
	assert.Equal(t, donation.Transaction.ID, req.Details.OriginalTransactionID)

	// lock is taken for the due day and released afterwards
	require.Len(t, locker.acquired, 1)
	assert.Equal(t, locker.acquired, locker.released)
	assert.Contains(t, locker.acquired[0], "2024-02-15")
}

func TestCreateRecurringPayment_AnonymousDescription(t *testing.T) {
	gateway := &fakeGateway{txID: "202"}
	p := NewProcessor(newFakeStore(), gateway, nil)

	donation := recurringDonation("monthly", "pm-1", date(2024, time.January, 15))
	donation.IsAnonymous = true
	donation.DonorPhone = "+79990001122"

	result := p.CreateRecurringPayment(context.Background(), donation)
	require.True(t, result.Success)

	req := gateway.calls[0]
	assert.Equal(t, "Регулярное пожертвование (анонимно)", req.Description)
	assert.Equal(t, "Аноним", req.DonorName)
	assert.Empty(t, req.DonorPhone)
	assert.True(t, req.IsAnonymous)
}

func TestCreateRecurringPayment_GatewayErrorIsReported(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("insufficient funds")}
	p := NewProcessor(newFakeStore(), gateway, nil)

	donation := recurringDonation("monthly", "pm-1", date(2024, time.January, 15))
	result := p.CreateRecurringPayment(context.Background(), donation)

	assert.False(t, result.Success)
	assert.Equal(t, "insufficient funds", result.Error)
}

func TestCreateRecurringPayment_LockContention(t *testing.T) {
	gateway := &fakeGateway{txID: "203"}
	locker := &fakeLocker{deny: true}
	p := NewProcessor(newFakeStore(), gateway, locker)

	donation := recurringDonation("monthly", "pm-1", date(2024, time.January, 15))
	result := p.CreateRecurringPayment(context.Background(), donation)

	assert.False(t, result.Success)
	assert.Equal(t, ErrBillingInProgress, result.Error)
	assert.Empty(t, gateway.calls)
}

func TestCreateRecurringPayment_DuplicateUnderLock(t *testing.T) {
	store := newFakeStore()
	store.addExisting(date(2024, time.February, 15), &models.PaymentTransaction{ID: 300})
	gateway := &fakeGateway{txID: "204"}
	p := NewProcessor(store, gateway, &fakeLocker{})

	donation := recurringDonation("monthly", "pm-1", date(2024, time.January, 15))
	result := p.CreateRecurringPayment(context.Background(), donation)

	assert.False(t, result.Success)
	assert.Empty(t, gateway.calls)
}

// After a successful re-bill the new transaction becomes the anchor,
// pushing the next due date one period forward.
func TestCreateRecurringPayment_RoundTrip(t *testing.T) {
	store := newFakeStore()
	gateway := &fakeGateway{txID: "205"}
	p := NewProcessor(store, gateway, nil)

	donation := recurringDonation("monthly", "pm-1", date(2024, time.January, 15))
	result := p.CreateRecurringPayment(context.Background(), donation)
	require.True(t, result.Success)

	// simulate the gateway persisting and completing the charge
	req := gateway.calls[0]
	paid := date(2024, time.February, 16)
	store.lastCompleted = &models.PaymentTransaction{
		ID:                   205,
		OrganizationID:       req.OrganizationID,
		Status:               models.TransactionStatusCompleted,
		PaidAt:               &paid,
		SavedPaymentMethodID: req.Details.SavedPaymentMethodID,
		PaymentDetails:       req.Details,
	}
	store.addExisting(req.ChargeDay, store.lastCompleted)

	assert.Equal(t, donation.ID, store.lastCompleted.PaymentDetails.OriginalDonationID)

	r := resolverAt(store, date(2024, time.February, 17))
	due, err := r.ShouldCreateNextPayment(context.Background(), donation)
	require.NoError(t, err)
	assert.False(t, due, "next charge must anchor on the new transaction")

	next, err := r.NextDueDate(context.Background(), donation)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, date(2024, time.March, 16), *next)
}
