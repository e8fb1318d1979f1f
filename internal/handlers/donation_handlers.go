package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"fundbox/internal/models"
	"fundbox/internal/services"
)

type DonationHandler struct {
	db       *gorm.DB
	payments *services.PaymentService
}

func NewDonationHandler(db *gorm.DB, payments *services.PaymentService) *DonationHandler {
	return &DonationHandler{db: db, payments: payments}
}

type createDonationRequest struct {
	OrganizationID  uint   `json:"organization_id" validate:"required"`
	ProjectID       *uint  `json:"project_id"`
	StageID         *uint  `json:"stage_id"`
	Amount          int64  `json:"amount" validate:"required,gt=0"` // minor units
	Currency        string `json:"currency" validate:"omitempty,len=3"`
	DonorName       string `json:"donor_name" validate:"max=255"`
	DonorEmail      string `json:"donor_email" validate:"omitempty,email"`
	DonorPhone      string `json:"donor_phone" validate:"max=50"`
	IsAnonymous     bool   `json:"is_anonymous"`
	Message         string `json:"message" validate:"max=2000"`
	RecurringPeriod string `json:"recurring_period" validate:"omitempty,oneof=daily weekly monthly"`
}

// CreateDonation accepts a public donation submission and returns the
// gateway confirmation URL the donor is redirected to
func (h *DonationHandler) CreateDonation(c echo.Context) error {
	var req createDonationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	donation, confirmationURL, err := h.payments.InitiateDonation(c.Request().Context(), services.DonationRequest{
		OrganizationID:  req.OrganizationID,
		ProjectID:       req.ProjectID,
		StageID:         req.StageID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		DonorName:       req.DonorName,
		DonorEmail:      req.DonorEmail,
		DonorPhone:      req.DonorPhone,
		IsAnonymous:     req.IsAnonymous,
		Message:         req.Message,
		RecurringPeriod: req.RecurringPeriod,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "Не удалось создать платеж")
	}

	return respondCreated(c, map[string]interface{}{
		"donation_id":      donation.ID,
		"confirmation_url": confirmationURL,
	})
}

// ListDonations returns an organization's donations, newest first.
// Admin-protected route.
func (h *DonationHandler) ListDonations(c echo.Context) error {
	orgID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid organization id")
	}

	page := 1
	if p, err := strconv.Atoi(c.QueryParam("page")); err == nil && p > 0 {
		page = p
	}
	pageSize := 20

	query := h.db.Model(&models.Donation{}).
		Where("organization_id = ?", uint(orgID)).
		Preload("Transaction")

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to count donations")
	}

	var donations []models.Donation
	if err := query.Order("id DESC").Limit(pageSize).Offset((page - 1) * pageSize).Find(&donations).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to fetch donations")
	}

	return respondOK(c, map[string]interface{}{
		"donations":   donations,
		"page":        page,
		"total_count": totalCount,
	})
}
