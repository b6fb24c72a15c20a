package handler

import (
	"net/http"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BudgetHandler handles budget alert HTTP requests
type BudgetHandler struct {
	alertService *service.BudgetAlertService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(alertService *service.BudgetAlertService) *BudgetHandler {
	return &BudgetHandler{alertService: alertService}
}

// BudgetAlertResponse represents an exceeded-budget alert
type BudgetAlertResponse struct {
	Categories []string `json:"categories"`
	Message    string   `json:"message"`
}

// GetAlert handles GET /api/v1/budgets/alert
// Returns 204 when no budget is exceeded
func (h *BudgetHandler) GetAlert(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	alert, err := h.alertService.CheckBudgets(c.Request().Context(), ownerID)
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID).Msg("Failed to check budgets")
		return NewInternalError(c, "Failed to check budgets")
	}

	if alert == nil {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, BudgetAlertResponse{
		Categories: alert.Categories,
		Message:    alert.Message,
	})
}
