package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fundbox/internal/models"
	"fundbox/internal/services"
	"fundbox/internal/tasks"
)

// WebhookHandler processes asynchronous gateway notifications. Every
// raw payload is persisted to PaymentCallbackHistory before being
// interpreted.
type WebhookHandler struct {
	db       *gorm.DB
	yookassa *services.YooKassaService
	midtrans *services.MidtransService
	log      *logrus.Entry
}

func NewWebhookHandler(db *gorm.DB, yookassa *services.YooKassaService, midtrans *services.MidtransService) *WebhookHandler {
	return &WebhookHandler{
		db:       db,
		yookassa: yookassa,
		midtrans: midtrans,
		log:      logrus.WithField("component", "webhooks"),
	}
}

// YooKassa handles payment.* notifications. The payload is not
// trusted: the payment is re-fetched from the API before any status
// transition.
func (h *WebhookHandler) YooKassa(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	var notification services.YooKassaNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification")
	}

	history := models.PaymentCallbackHistory{
		PaymentGateway: models.PaymentGatewayYooKassa,
		RemoteAddr:     c.RealIP(),
		Metadata:       body,
	}

	ctx := c.Request().Context()
	payment, err := h.yookassa.GetPayment(ctx, notification.Object.ID)
	if err != nil {
		h.log.WithError(err).WithField("payment_id", notification.Object.ID).Error("payment re-check failed")
		h.db.Create(&history)
		return echo.NewHTTPError(http.StatusBadGateway, "payment check failed")
	}

	tx, err := h.findTransaction(payment.Metadata)
	if err != nil {
		h.log.WithField("payment_id", payment.ID).Warn("notification for unknown transaction")
		h.db.Create(&history)
		return c.NoContent(http.StatusOK)
	}
	history.OrganizationID = tx.OrganizationID
	h.db.Create(&history)

	switch payment.Status {
	case "succeeded":
		h.markCompleted(tx, payment)
	case "canceled":
		h.db.Model(tx).Update("status", models.TransactionStatusFailed)
	}

	return c.NoContent(http.StatusOK)
}

func (h *WebhookHandler) findTransaction(metadata map[string]interface{}) (*models.PaymentTransaction, error) {
	raw, ok := metadata["transaction_id"]
	if !ok {
		return nil, fmt.Errorf("no transaction_id in metadata")
	}

	var txID uint64
	switch v := raw.(type) {
	case float64:
		txID = uint64(v)
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, err
		}
		txID = parsed
	default:
		return nil, fmt.Errorf("unexpected transaction_id type %T", raw)
	}

	var tx models.PaymentTransaction
	if err := h.db.Preload("Donation").First(&tx, uint(txID)).Error; err != nil {
		return nil, err
	}
	return &tx, nil
}

func (h *WebhookHandler) markCompleted(tx *models.PaymentTransaction, payment *services.YooKassaPayment) {
	paidAt := time.Now()
	if payment.CapturedAt != nil {
		paidAt = *payment.CapturedAt
	}

	details := tx.PaymentDetails
	updates := map[string]interface{}{
		"status":  models.TransactionStatusCompleted,
		"paid_at": &paidAt,
	}
	// persist the saved token so the series becomes chargeable; both
	// the indexed column and the details payload carry it
	if payment.PaymentMethod != nil && payment.PaymentMethod.Saved {
		details.SavedPaymentMethodID = payment.PaymentMethod.ID
		updates["saved_payment_method_id"] = payment.PaymentMethod.ID
	}
	updates["payment_details"] = details

	if err := h.db.Model(tx).Updates(updates).Error; err != nil {
		h.log.WithError(err).WithField("transaction_id", tx.ID).Error("status update failed")
		return
	}

	h.enqueueReceipt(tx)
}

func (h *WebhookHandler) enqueueReceipt(tx *models.PaymentTransaction) {
	if tx.Donation.DonorEmail == "" {
		return
	}
	var org models.Organization
	if err := h.db.First(&org, tx.OrganizationID).Error; err != nil {
		return
	}
	task, err := tasks.SendReceiptTask.CreateTask(tasks.SendReceiptArgs{
		Email:    tx.Donation.DonorEmail,
		OrgName:  org.Name,
		Amount:   tx.Amount,
		Currency: tx.Currency,
	})
	if err != nil {
		return
	}
	h.db.Create(task)
}

// Midtrans handles HTTP(S) notifications from Midtrans. The signature
// key is verified before any state change.
func (h *WebhookHandler) Midtrans(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}

	var payload struct {
		OrderID           string `json:"order_id"`
		StatusCode        string `json:"status_code"`
		GrossAmount       string `json:"gross_amount"`
		SignatureKey      string `json:"signature_key"`
		TransactionStatus string `json:"transaction_status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification")
	}

	if !h.midtrans.VerifySignature(payload.OrderID, payload.StatusCode, payload.GrossAmount, payload.SignatureKey) {
		return echo.NewHTTPError(http.StatusForbidden, "invalid signature")
	}

	donationID, err := donationIDFromOrder(payload.OrderID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown order id format")
	}

	var tx models.PaymentTransaction
	if err := h.db.Preload("Donation").Where("donation_id = ?", donationID).First(&tx).Error; err != nil {
		return c.NoContent(http.StatusOK)
	}

	h.db.Create(&models.PaymentCallbackHistory{
		OrganizationID: tx.OrganizationID,
		PaymentGateway: models.PaymentGatewayMidtrans,
		RemoteAddr:     c.RealIP(),
		Metadata:       body,
	})

	switch payload.TransactionStatus {
	case "settlement", "capture":
		now := time.Now()
		h.db.Model(&tx).Updates(map[string]interface{}{
			"status":  models.TransactionStatusCompleted,
			"paid_at": &now,
		})
		h.enqueueReceipt(&tx)
	case "deny", "expire", "cancel", "failure":
		h.db.Model(&tx).Update("status", models.TransactionStatusFailed)
	}

	return c.NoContent(http.StatusOK)
}

// donationIDFromOrder parses order ids of the form
// "donation-<id>-<unix>"
func donationIDFromOrder(orderID string) (uint, error) {
	parts := strings.Split(orderID, "-")
	if len(parts) < 2 || parts[0] != "donation" {
		return 0, fmt.Errorf("unexpected order id %q", orderID)
	}
	id, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
