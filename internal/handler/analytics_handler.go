package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AnalyticsHandler handles chart and report HTTP requests
type AnalyticsHandler struct {
	reportService *service.ReportService
}

// NewAnalyticsHandler creates a new AnalyticsHandler
func NewAnalyticsHandler(reportService *service.ReportService) *AnalyticsHandler {
	return &AnalyticsHandler{
		reportService: reportService,
	}
}

// CategoryTotalResponse represents one category slice in API responses
type CategoryTotalResponse struct {
	Category   string `json:"category"`
	Amount     string `json:"amount"`
	ColorIndex int    `json:"colorIndex"`
	Color      string `json:"color"`
}

// MonthlyTotalResponse represents one month of the trailing series
type MonthlyTotalResponse struct {
	MonthKey string `json:"monthKey"`
	Label    string `json:"label"`
	Amount   string `json:"amount"`
}

// CategorySeriesResponse represents one category line of the matrix
type CategorySeriesResponse struct {
	Category   string   `json:"category"`
	Values     []string `json:"values"`
	ColorIndex int      `json:"colorIndex"`
	Color      string   `json:"color"`
}

// CategoryMatrixResponse represents the month by category grid
type CategoryMatrixResponse struct {
	Labels []string                 `json:"labels"`
	Series []CategorySeriesResponse `json:"series"`
}

// ReportResponse bundles every chart structure for one transaction type
type ReportResponse struct {
	Type           string                  `json:"type"`
	CategoryTotals []CategoryTotalResponse `json:"categoryTotals"`
	MonthlySeries  []MonthlyTotalResponse  `json:"monthlySeries"`
	CategoryMatrix CategoryMatrixResponse  `json:"categoryMatrix"`
	Skipped        int                     `json:"skipped"`
	GeneratedAt    time.Time               `json:"generatedAt"`
}

// BalanceResponse represents the account balance summary
type BalanceResponse struct {
	TotalIncome    string `json:"totalIncome"`
	TotalExpenses  string `json:"totalExpenses"`
	TotalSavings   string `json:"totalSavings"`
	AccountBalance string `json:"accountBalance"`
}

// ForecastResponse is the next-month net earnings forecast
type ForecastResponse struct {
	Month       string                  `json:"month,omitempty"`
	Prediction  string                  `json:"prediction"`
	Message     string                  `json:"message"`
	BasisMonths []string                `json:"basisMonths"`
	Details     ForecastDetailsResponse `json:"details"`
}

// ForecastDetailsResponse holds each stream's latest monthly total
type ForecastDetailsResponse struct {
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Savings string `json:"savings"`
}

// ExportResponse describes an exported report snapshot
type ExportResponse struct {
	ObjectPath string    `json:"objectPath"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// BuildReportRequest is the body of POST /api/v1/analytics/report
type BuildReportRequest struct {
	Type         string                  `json:"type"`
	Transactions []domain.RawTransaction `json:"transactions"`
}

// GetCategoryTotals handles GET /api/v1/analytics/categories
func (h *AnalyticsHandler) GetCategoryTotals(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	txType, err := domain.ParseTransactionType(c.QueryParam("type"))
	if err != nil {
		return typeValidationError(c, err)
	}

	totals, err := h.reportService.GetCategoryTotals(c.Request().Context(), ownerID, txType)
	if err != nil {
		return h.serviceError(c, err, ownerID, "Failed to get category totals")
	}

	return c.JSON(http.StatusOK, toCategoryTotalResponses(totals))
}

// GetMonthlySeries handles GET /api/v1/analytics/monthly
func (h *AnalyticsHandler) GetMonthlySeries(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	txType, err := domain.ParseTransactionType(c.QueryParam("type"))
	if err != nil {
		return typeValidationError(c, err)
	}

	series, err := h.reportService.GetMonthlySeries(c.Request().Context(), ownerID, txType)
	if err != nil {
		return h.serviceError(c, err, ownerID, "Failed to get monthly series")
	}

	return c.JSON(http.StatusOK, toMonthlyTotalResponses(series))
}

// GetCategoryMatrix handles GET /api/v1/analytics/category-matrix
func (h *AnalyticsHandler) GetCategoryMatrix(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	txType, err := domain.ParseTransactionType(c.QueryParam("type"))
	if err != nil {
		return typeValidationError(c, err)
	}

	matrix, err := h.reportService.GetCategoryMatrix(c.Request().Context(), ownerID, txType)
	if err != nil {
		return h.serviceError(c, err, ownerID, "Failed to get category matrix")
	}

	return c.JSON(http.StatusOK, toCategoryMatrixResponse(matrix))
}

// GetReport handles GET /api/v1/analytics/report
func (h *AnalyticsHandler) GetReport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	txType, err := domain.ParseTransactionType(c.QueryParam("type"))
	if err != nil {
		return typeValidationError(c, err)
	}

	report, err := h.reportService.GetReport(c.Request().Context(), ownerID, txType)
	if err != nil {
		return h.serviceError(c, err, ownerID, "Failed to get report")
	}

	return c.JSON(http.StatusOK, toReportResponse(report))
}

// BuildReport handles POST /api/v1/analytics/report
// Aggregates client-supplied records without touching the store
func (h *AnalyticsHandler) BuildReport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req BuildReportRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	txType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		return typeValidationError(c, err)
	}

	report, err := h.reportService.BuildReport(c.Request().Context(), txType, req.Transactions)
	if err != nil {
		return h.serviceError(c, err, ownerID, "Failed to build report")
	}

	return c.JSON(http.StatusOK, toReportResponse(report))
}

// GetBalance handles GET /api/v1/analytics/balance
func (h *AnalyticsHandler) GetBalance(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	balance, err := h.reportService.GetBalance(c.Request().Context(), ownerID)
	if err != nil {
		return h.serviceError(c, err, ownerID, "Failed to get balance")
	}

	return c.JSON(http.StatusOK, BalanceResponse{
		TotalIncome:    balance.TotalIncome.StringFixed(2),
		TotalExpenses:  balance.TotalExpenses.StringFixed(2),
		TotalSavings:   balance.TotalSavings.StringFixed(2),
		AccountBalance: balance.AccountBalance.StringFixed(2),
	})
}

// GetForecast handles GET /api/v1/analytics/forecast
func (h *AnalyticsHandler) GetForecast(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	forecast, err := h.reportService.GetForecast(c.Request().Context(), ownerID)
	if err != nil {
		return h.serviceError(c, err, ownerID, "Failed to get forecast")
	}

	return c.JSON(http.StatusOK, ForecastResponse{
		Month:       forecast.Month,
		Prediction:  forecast.Prediction.StringFixed(2),
		Message:     forecast.Message,
		BasisMonths: forecast.BasisMonths,
		Details: ForecastDetailsResponse{
			Income:  forecast.Details.Income.StringFixed(2),
			Expense: forecast.Details.Expense.StringFixed(2),
			Savings: forecast.Details.Savings.StringFixed(2),
		},
	})
}

// ExportReport handles POST /api/v1/analytics/report/export
func (h *AnalyticsHandler) ExportReport(c echo.Context) error {
	ownerID := middleware.GetOwnerID(c)
	if ownerID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	txType, err := domain.ParseTransactionType(c.QueryParam("type"))
	if err != nil {
		return typeValidationError(c, err)
	}

	export, err := h.reportService.ExportReport(c.Request().Context(), ownerID, txType)
	if err != nil {
		if errors.Is(err, domain.ErrExportDisabled) {
			return NewServiceUnavailableError(c, "Report export is not configured")
		}
		return h.serviceError(c, err, ownerID, "Failed to export report")
	}

	return c.JSON(http.StatusCreated, ExportResponse{
		ObjectPath: export.ObjectPath,
		URL:        export.URL,
		ExpiresAt:  export.ExpiresAt,
	})
}

func (h *AnalyticsHandler) serviceError(c echo.Context, err error, ownerID, msg string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidTransactionType):
		return typeValidationError(c, err)
	case errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	}
	log.Error().Err(err).Str("owner_id", ownerID).Msg(msg)
	return NewInternalError(c, msg)
}

func typeValidationError(c echo.Context, err error) error {
	return NewValidationError(c, "Invalid transaction type", []ValidationError{
		{Field: "type", Message: err.Error()},
	})
}

func toCategoryTotalResponses(totals []domain.CategoryTotal) []CategoryTotalResponse {
	resp := make([]CategoryTotalResponse, len(totals))
	for i, t := range totals {
		resp[i] = CategoryTotalResponse{
			Category:   t.Category,
			Amount:     t.Amount.StringFixed(2),
			ColorIndex: t.ColorIndex,
			Color:      t.Color,
		}
	}
	return resp
}

func toMonthlyTotalResponses(series []domain.MonthlyTotal) []MonthlyTotalResponse {
	resp := make([]MonthlyTotalResponse, len(series))
	for i, m := range series {
		resp[i] = MonthlyTotalResponse{
			MonthKey: m.MonthKey,
			Label:    m.Label,
			Amount:   m.Amount.StringFixed(2),
		}
	}
	return resp
}

func toCategoryMatrixResponse(matrix domain.CategoryMatrix) CategoryMatrixResponse {
	labels := matrix.Labels
	if labels == nil {
		labels = []string{}
	}
	series := make([]CategorySeriesResponse, len(matrix.Series))
	for i, s := range matrix.Series {
		series[i] = CategorySeriesResponse{
			Category:   s.Category,
			Values:     fixedStrings(s.Values),
			ColorIndex: s.ColorIndex,
			Color:      s.Color,
		}
	}
	return CategoryMatrixResponse{Labels: labels, Series: series}
}

func toReportResponse(report *domain.Report) ReportResponse {
	return ReportResponse{
		Type:           string(report.Type),
		CategoryTotals: toCategoryTotalResponses(report.CategoryTotals),
		MonthlySeries:  toMonthlyTotalResponses(report.MonthlySeries),
		CategoryMatrix: toCategoryMatrixResponse(report.CategoryMatrix),
		Skipped:        report.Skipped,
		GeneratedAt:    report.GeneratedAt,
	}
}

func fixedStrings(values []decimal.Decimal) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.StringFixed(2)
	}
	return out
}
