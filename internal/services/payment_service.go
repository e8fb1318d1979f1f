package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fundbox/internal/models"
	"fundbox/internal/money"
	"fundbox/internal/recurring"
)

// PaymentService persists Donation+Transaction pairs and submits them
// to the organization's configured gateway. It is the Gateway
// collaborator of the recurring billing core.
type PaymentService struct {
	db        *gorm.DB
	yookassa  *YooKassaService
	midtrans  *MidtransService
	returnURL string
	log       *logrus.Entry
}

func NewPaymentService(db *gorm.DB, yookassa *YooKassaService, midtrans *MidtransService) *PaymentService {
	return &PaymentService{
		db:        db,
		yookassa:  yookassa,
		midtrans:  midtrans,
		returnURL: os.Getenv("DONATION_RETURN_URL"),
		log:       logrus.WithField("component", "payments"),
	}
}

// DonationRequest is a validated first-time donation submission
type DonationRequest struct {
	OrganizationID  uint
	ProjectID       *uint
	StageID         *uint
	Amount          int64
	Currency        string
	DonorName       string
	DonorEmail      string
	DonorPhone      string
	IsAnonymous     bool
	Message         string
	RecurringPeriod string
}

// InitiateDonation creates the Donation and its pending originating
// Transaction, submits the payment to the gateway and returns the
// confirmation URL the donor must be redirected to.
func (s *PaymentService) InitiateDonation(ctx context.Context, req DonationRequest) (*models.Donation, string, error) {
	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, req.OrganizationID).Error; err != nil {
		return nil, "", fmt.Errorf("organization lookup: %w", err)
	}

	currency := req.Currency
	if currency == "" {
		currency = org.Currency
	}

	_, isRecurring := recurring.ParsePeriod(req.RecurringPeriod)

	donation := models.Donation{
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		StageID:        req.StageID,
		Amount:         req.Amount,
		Currency:       currency,
		DonorName:      req.DonorName,
		DonorEmail:     req.DonorEmail,
		DonorPhone:     req.DonorPhone,
		IsAnonymous:    req.IsAnonymous,
		Message:        req.Message,
		IsRecurring:    isRecurring,
	}

	tx := models.PaymentTransaction{
		OrganizationID: req.OrganizationID,
		Status:         models.TransactionStatusPending,
		Amount:         req.Amount,
		Currency:       currency,
		ChargeDay:      recurring.DayOf(time.Now()),
		PaymentDetails: models.PaymentDetails{
			IsRecurring:     isRecurring,
			RecurringPeriod: req.RecurringPeriod,
		},
	}

	if err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Create(&donation).Error; err != nil {
			return err
		}
		tx.DonationID = donation.ID
		return dbtx.Create(&tx).Error
	}); err != nil {
		return nil, "", fmt.Errorf("donation create: %w", err)
	}
	donation.Transaction = &tx

	confirmationURL, err := s.submit(ctx, &org, &donation, &tx, isRecurring)
	if err != nil {
		s.db.WithContext(ctx).Model(&tx).Update("status", models.TransactionStatusFailed)
		return nil, "", err
	}

	s.log.WithFields(logrus.Fields{
		"organization_id": org.ID,
		"donation_id":     donation.ID,
		"amount":          money.Amount(req.Amount).Format(currency),
		"recurring":       isRecurring,
	}).Info("donation initiated")

	return &donation, confirmationURL, nil
}

// CreatePayment implements recurring.Gateway: it persists the re-bill
// Donation+Transaction pair and charges the saved payment method. The
// re-bill donation carries IsRecurring=false so candidate enumeration
// only picks up series originals.
func (s *PaymentService) CreatePayment(ctx context.Context, req recurring.ChargeRequest) (string, error) {
	donation := models.Donation{
		OrganizationID: req.OrganizationID,
		ProjectID:      req.ProjectID,
		StageID:        req.StageID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		DonorName:      req.DonorName,
		DonorEmail:     req.DonorEmail,
		DonorPhone:     req.DonorPhone,
		IsAnonymous:    req.IsAnonymous,
		Message:        req.Description,
		IsRecurring:    false,
	}

	tx := models.PaymentTransaction{
		OrganizationID:       req.OrganizationID,
		Status:               models.TransactionStatusPending,
		Amount:               req.Amount,
		Currency:             req.Currency,
		ChargeDay:            recurring.DayOf(req.ChargeDay),
		SavedPaymentMethodID: req.Details.SavedPaymentMethodID,
		PaymentDetails:       req.Details,
	}

	// the unique (organization, token, charge day) index makes this the
	// hard stop against double billing when two sweeps race
	if err := s.db.WithContext(ctx).Transaction(func(dbtx *gorm.DB) error {
		if err := dbtx.Create(&donation).Error; err != nil {
			return err
		}
		tx.DonationID = donation.ID
		return dbtx.Create(&tx).Error
	}); err != nil {
		return "", fmt.Errorf("запись платежа: %w", err)
	}

	payment, err := s.yookassa.CreatePayment(ctx, &YooKassaPaymentRequest{
		Amount: YooKassaAmount{
			Value:    money.Amount(req.Amount).GatewayValue(),
			Currency: req.Currency,
		},
		Capture:         true,
		Description:     req.Description,
		PaymentMethodID: req.Details.SavedPaymentMethodID,
		Metadata: map[string]interface{}{
			"donation_id":    donation.ID,
			"transaction_id": tx.ID,
		},
		Receipt: receiptFor(req.DonorEmail, req.DonorPhone),
	})
	if err != nil {
		s.db.WithContext(ctx).Model(&tx).Update("status", models.TransactionStatusFailed)
		return "", err
	}

	updates := map[string]interface{}{
		"payment_details": withGatewayID(tx.PaymentDetails, payment.ID),
	}
	if payment.Status == "succeeded" {
		now := time.Now()
		if payment.CapturedAt != nil {
			now = *payment.CapturedAt
		}
		updates["status"] = models.TransactionStatusCompleted
		updates["paid_at"] = &now
	}
	if err := s.db.WithContext(ctx).Model(&tx).Updates(updates).Error; err != nil {
		return "", fmt.Errorf("обновление платежа: %w", err)
	}

	return strconv.FormatUint(uint64(tx.ID), 10), nil
}

func (s *PaymentService) submit(ctx context.Context, org *models.Organization, donation *models.Donation, tx *models.PaymentTransaction, saveMethod bool) (string, error) {
	switch GatewayFor(org) {
	case models.PaymentGatewayMidtrans:
		orderID := fmt.Sprintf("donation-%d-%d", donation.ID, time.Now().Unix())
		resp, err := s.midtrans.CreateTransaction(orderID, money.Amount(donation.Amount).Major(), &snap.Request{
			TransactionDetails: midtrans.TransactionDetails{
				OrderID:  orderID,
				GrossAmt: money.Amount(donation.Amount).Major(),
			},
			CustomerDetail: &midtrans.CustomerDetails{
				FName: donation.DonorName,
				Email: donation.DonorEmail,
			},
		})
		if err != nil {
			return "", err
		}
		details := withGatewayID(tx.PaymentDetails, orderID)
		details.ConfirmationURL = resp.RedirectURL
		if err := s.db.WithContext(ctx).Model(tx).Update("payment_details", details).Error; err != nil {
			return "", err
		}
		return resp.RedirectURL, nil

	default:
		payment, err := s.yookassa.CreatePayment(ctx, &YooKassaPaymentRequest{
			Amount: YooKassaAmount{
				Value:    money.Amount(donation.Amount).GatewayValue(),
				Currency: donation.Currency,
			},
			Capture:           true,
			Description:       donationDescription(donation),
			SavePaymentMethod: saveMethod,
			Confirmation: &YooKassaConfirmation{
				Type:      "redirect",
				ReturnURL: s.returnURL,
			},
			Metadata: map[string]interface{}{
				"donation_id":    donation.ID,
				"transaction_id": tx.ID,
			},
			Receipt: receiptFor(donation.DonorEmail, donation.DonorPhone),
		})
		if err != nil {
			return "", err
		}
		details := withGatewayID(tx.PaymentDetails, payment.ID)
		confirmationURL := ""
		if payment.Confirmation != nil {
			confirmationURL = payment.Confirmation.ConfirmationURL
		}
		details.ConfirmationURL = confirmationURL
		if err := s.db.WithContext(ctx).Model(tx).Update("payment_details", details).Error; err != nil {
			return "", err
		}
		return confirmationURL, nil
	}
}

// GatewayFor reads the organization's configured gateway, defaulting
// to YooKassa
func GatewayFor(org *models.Organization) models.PaymentGateway {
	if ps, ok := org.Settings["payment_settings"].(map[string]interface{}); ok {
		if gw, ok := ps["gateway"].(string); ok && gw != "" {
			return models.PaymentGateway(gw)
		}
	}
	return models.PaymentGatewayYooKassa
}

func donationDescription(d *models.Donation) string {
	if d.IsAnonymous {
		return "Пожертвование (анонимно)"
	}
	return fmt.Sprintf("Пожертвование от %s", d.DonorName)
}

func withGatewayID(details models.PaymentDetails, gatewayID string) models.PaymentDetails {
	details.GatewayPaymentID = gatewayID
	return details
}

func receiptFor(email, phone string) *YooKassaReceipt {
	if email == "" && phone == "" {
		return nil
	}
	return &YooKassaReceipt{Customer: YooKassaCustomer{Email: email, Phone: phone}}
}
