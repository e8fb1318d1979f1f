package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

// YooKassaService is a thin client for the YooKassa payments API.
// There is no official Go SDK, so requests are issued directly against
// /v3 with basic auth and an Idempotence-Key per mutation.
type YooKassaService struct {
	baseURL   string
	shopID    string
	secretKey string
	client    *http.Client
}

func NewYooKassaService() *YooKassaService {
	url := os.Getenv("YOOKASSA_BASE_URL")
	if url == "" {
		url = "https://api.yookassa.ru"
	}
	return &YooKassaService{
		baseURL:   url,
		shopID:    os.Getenv("YOOKASSA_SHOP_ID"),
		secretKey: os.Getenv("YOOKASSA_SECRET_KEY"),
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// YooKassaAmount is a decimal amount as the API renders it
type YooKassaAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// YooKassaPaymentRequest is the body of POST /v3/payments
type YooKassaPaymentRequest struct {
	Amount            YooKassaAmount         `json:"amount"`
	Capture           bool                   `json:"capture"`
	Description       string                 `json:"description,omitempty"`
	PaymentMethodID   string                 `json:"payment_method_id,omitempty"`
	SavePaymentMethod bool                   `json:"save_payment_method,omitempty"`
	Confirmation      *YooKassaConfirmation  `json:"confirmation,omitempty"`
	Metadata          map[string]interface{} `json:"metadata,omitempty"`
	Receipt           *YooKassaReceipt       `json:"receipt,omitempty"`
}

type YooKassaConfirmation struct {
	Type            string `json:"type"`
	ReturnURL       string `json:"return_url,omitempty"`
	ConfirmationURL string `json:"confirmation_url,omitempty"`
}

type YooKassaReceipt struct {
	Customer YooKassaCustomer `json:"customer"`
}

type YooKassaCustomer struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// YooKassaPayment is the payment object returned by the API
type YooKassaPayment struct {
	ID            string                 `json:"id"`
	Status        string                 `json:"status"` // pending, waiting_for_capture, succeeded, canceled
	Paid          bool                   `json:"paid"`
	Amount        YooKassaAmount         `json:"amount"`
	Description   string                 `json:"description"`
	Confirmation  *YooKassaConfirmation  `json:"confirmation,omitempty"`
	PaymentMethod *YooKassaPaymentMethod `json:"payment_method,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	CapturedAt    *time.Time             `json:"captured_at,omitempty"`
}

type YooKassaPaymentMethod struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Saved bool   `json:"saved"`
}

// YooKassaNotification is the webhook envelope
type YooKassaNotification struct {
	Type   string          `json:"type"`
	Event  string          `json:"event"` // payment.succeeded, payment.canceled, ...
	Object YooKassaPayment `json:"object"`
}

// CreatePayment submits a payment. For recurring re-bills the request
// carries PaymentMethodID (the saved token) and no confirmation; for
// first-time donations it carries a redirect confirmation and
// SavePaymentMethod when the donor opted into a subscription.
func (s *YooKassaService) CreatePayment(ctx context.Context, req *YooKassaPaymentRequest) (*YooKassaPayment, error) {
	var payment YooKassaPayment
	if err := s.do(ctx, http.MethodPost, "/v3/payments", req, &payment); err != nil {
		return nil, fmt.Errorf("yookassa create payment: %w", err)
	}
	return &payment, nil
}

// GetPayment fetches the current state of a payment, used to verify
// webhook notifications instead of trusting their payload
func (s *YooKassaService) GetPayment(ctx context.Context, paymentID string) (*YooKassaPayment, error) {
	var payment YooKassaPayment
	if err := s.do(ctx, http.MethodGet, "/v3/payments/"+paymentID, nil, &payment); err != nil {
		return nil, fmt.Errorf("yookassa get payment: %w", err)
	}
	return &payment, nil
}

func (s *YooKassaService) do(ctx context.Context, method, endpoint string, payload, dest interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(s.shopID, s.secretKey)
	if method != http.MethodGet {
		req.Header.Set("Idempotence-Key", uuid.New().String())
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
