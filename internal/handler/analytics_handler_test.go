package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/analytics"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/domain"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/middleware"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/service"
	"github.com/dafibh/fortuna/fortuna-analytics/internal/testutil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const testOwner = "auth0|test"

// Helper to set up auth context the way Authenticate does
func setupAuthContext(c echo.Context, ownerID string) {
	claims := &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Subject: ownerID,
		},
		CustomClaims: &middleware.CustomClaims{Email: "test@example.com", Name: "Test User"},
	}
	ctx := context.WithValue(c.Request().Context(), middleware.ClaimsKey, claims)
	ctx = context.WithValue(ctx, middleware.OwnerIDKey, ownerID)
	c.SetRequest(c.Request().WithContext(ctx))
}

func addTx(repo *testutil.MockTransactionRepository, category, amount string, txType domain.TransactionType, date string) {
	d, _ := time.Parse("2006-01-02", date)
	repo.AddTransaction(testOwner, domain.Transaction{
		ID:       uuid.New(),
		Name:     category,
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Type:     txType,
		Date:     d,
	})
}

func newAnalyticsHandler(repo *testutil.MockTransactionRepository) (*AnalyticsHandler, *service.ReportService) {
	reportService := service.NewReportService(repo, analytics.NewAggregator(analytics.DefaultOptions()))
	return NewAnalyticsHandler(reportService), reportService
}

func doRequest(t *testing.T, method, target, body string, ownerID string, h echo.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if ownerID != "" {
		setupAuthContext(c, ownerID)
	}
	if err := h(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	return rec
}

func TestGetCategoryTotals_Success(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	addTx(repo, "Food", "10", domain.TransactionTypeExpense, "2024-01-05")
	addTx(repo, "Rent", "500", domain.TransactionTypeExpense, "2024-01-01")
	addTx(repo, "Food", "5.5", domain.TransactionTypeExpense, "2024-02-03")
	addTx(repo, "Salary", "2000", domain.TransactionTypeIncome, "2024-01-31")
	h, _ := newAnalyticsHandler(repo)

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/categories", "", testOwner, h.GetCategoryTotals)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp []CategoryTotalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("Expected 2 categories, got %d", len(resp))
	}
	if resp[0].Category != "Food" || resp[0].Amount != "15.50" || resp[0].Color != analytics.DefaultPalette[0] {
		t.Errorf("Unexpected first category: %+v", resp[0])
	}
	if resp[1].Category != "Rent" || resp[1].Amount != "500.00" || resp[1].ColorIndex != 1 {
		t.Errorf("Unexpected second category: %+v", resp[1])
	}
}

func TestGetCategoryTotals_IncomeType(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	addTx(repo, "Food", "10", domain.TransactionTypeExpense, "2024-01-05")
	addTx(repo, "Salary", "2000", domain.TransactionTypeIncome, "2024-01-31")
	h, _ := newAnalyticsHandler(repo)

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/categories?type=income", "", testOwner, h.GetCategoryTotals)

	var resp []CategoryTotalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if len(resp) != 1 || resp[0].Category != "Salary" || resp[0].Amount != "2000.00" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestGetCategoryTotals_EmptyIsArray(t *testing.T) {
	h, _ := newAnalyticsHandler(testutil.NewMockTransactionRepository())

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/categories", "", testOwner, h.GetCategoryTotals)

	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("Expected empty JSON array, got %s", rec.Body.String())
	}
}

func TestAnalyticsHandler_Unauthorized(t *testing.T) {
	h, _ := newAnalyticsHandler(testutil.NewMockTransactionRepository())

	handlers := map[string]echo.HandlerFunc{
		"categories": h.GetCategoryTotals,
		"monthly":    h.GetMonthlySeries,
		"matrix":     h.GetCategoryMatrix,
		"report":     h.GetReport,
		"balance":    h.GetBalance,
		"forecast":   h.GetForecast,
		"export":     h.ExportReport,
	}
	for name, fn := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := doRequest(t, http.MethodGet, "/api/v1/analytics/"+name, "", "", fn)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("Expected status 401, got %d", rec.Code)
			}
		})
	}
}

func TestAnalyticsHandler_InvalidType(t *testing.T) {
	h, _ := newAnalyticsHandler(testutil.NewMockTransactionRepository())

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/monthly?type=transfer", "", testOwner, h.GetMonthlySeries)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", rec.Code)
	}
	var problem ProblemDetails
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if problem.Type != ErrorTypeValidation || len(problem.Errors) != 1 || problem.Errors[0].Field != "type" {
		t.Errorf("Unexpected problem details: %+v", problem)
	}
}

func TestAnalyticsHandler_RepositoryError(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.Err = errors.New("database unavailable")
	h, _ := newAnalyticsHandler(repo)

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/report", "", testOwner, h.GetReport)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "database unavailable") {
		t.Error("Internal error detail should not leak to the client")
	}
}

func TestGetMonthlySeries_Success(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	addTx(repo, "Food", "10", domain.TransactionTypeExpense, "2024-01-05")
	addTx(repo, "Food", "20", domain.TransactionTypeExpense, "2024-01-20")
	addTx(repo, "Food", "5", domain.TransactionTypeExpense, "2024-02-03")
	h, _ := newAnalyticsHandler(repo)

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/monthly?type=expense", "", testOwner, h.GetMonthlySeries)

	var resp []MonthlyTotalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	want := []MonthlyTotalResponse{
		{MonthKey: "2024-01", Label: "Jan", Amount: "30.00"},
		{MonthKey: "2024-02", Label: "Feb", Amount: "5.00"},
	}
	if len(resp) != len(want) {
		t.Fatalf("Expected %d months, got %d", len(want), len(resp))
	}
	for i := range want {
		if resp[i] != want[i] {
			t.Errorf("Month %d: expected %+v, got %+v", i, want[i], resp[i])
		}
	}
}

func TestGetCategoryMatrix_Success(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	repo.AddCell(testOwner, domain.TransactionTypeExpense, domain.CategoryMonthTotal{Category: "A", Month: "2024-01", Total: decimal.NewFromInt(10)})
	repo.AddCell(testOwner, domain.TransactionTypeExpense, domain.CategoryMonthTotal{Category: "B", Month: "2024-02", Total: decimal.NewFromInt(5)})
	h, _ := newAnalyticsHandler(repo)

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/category-matrix", "", testOwner, h.GetCategoryMatrix)

	var resp CategoryMatrixResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if strings.Join(resp.Labels, ",") != "2024-01,2024-02" {
		t.Errorf("Unexpected labels: %v", resp.Labels)
	}
	if len(resp.Series) != 2 {
		t.Fatalf("Expected 2 series, got %d", len(resp.Series))
	}
	if strings.Join(resp.Series[0].Values, ",") != "10.00,0.00" || strings.Join(resp.Series[1].Values, ",") != "0.00,5.00" {
		t.Errorf("Unexpected values: %+v", resp.Series)
	}
}

func TestGetCategoryMatrix_EmptyShape(t *testing.T) {
	h, _ := newAnalyticsHandler(testutil.NewMockTransactionRepository())

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/category-matrix", "", testOwner, h.GetCategoryMatrix)

	if strings.TrimSpace(rec.Body.String()) != `{"labels":[],"series":[]}` {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestBuildReport_SkipsMalformed(t *testing.T) {
	h, _ := newAnalyticsHandler(testutil.NewMockTransactionRepository())
	body := `{"type":"expense","transactions":[
		{"id":"1","name":"Lunch","amount":"12.5","category":"Food","date":"2024-01-15"},
		{"id":"2","name":"Bus","amount":"oops","category":"Transport","date":"2024-01-16"},
		{"id":"3","name":"Cinema","amount":"20","category":"Entertainment","date":"2024-02-30"}
	]}`

	rec := doRequest(t, http.MethodPost, "/api/v1/analytics/report", body, testOwner, h.BuildReport)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Skipped != 2 {
		t.Errorf("Expected 2 skipped, got %d", resp.Skipped)
	}
	if len(resp.CategoryTotals) != 1 || resp.CategoryTotals[0].Amount != "12.50" {
		t.Errorf("Unexpected totals: %+v", resp.CategoryTotals)
	}
	if resp.Type != "expense" {
		t.Errorf("Expected type expense, got %s", resp.Type)
	}
}

func TestBuildReport_InvalidBody(t *testing.T) {
	h, _ := newAnalyticsHandler(testutil.NewMockTransactionRepository())

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"type":`},
		{"unknown type", `{"type":"loan","transactions":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, http.MethodPost, "/api/v1/analytics/report", tt.body, testOwner, h.BuildReport)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected status 400, got %d", rec.Code)
			}
		})
	}
}

func TestGetBalance_Success(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	addTx(repo, "Salary", "3000", domain.TransactionTypeIncome, "2024-01-31")
	addTx(repo, "Rent", "1200.455", domain.TransactionTypeExpense, "2024-01-01")
	addTx(repo, "Emergency", "300", domain.TransactionTypeSaving, "2024-01-15")
	h, _ := newAnalyticsHandler(repo)

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/balance", "", testOwner, h.GetBalance)

	var resp BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	want := BalanceResponse{TotalIncome: "3000.00", TotalExpenses: "1200.46", TotalSavings: "300.00", AccountBalance: "1499.55"}
	if resp != want {
		t.Errorf("Expected %+v, got %+v", want, resp)
	}
}

func TestGetForecast_Success(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	addTx(repo, "Salary", "2000", domain.TransactionTypeIncome, "2024-04-30")
	addTx(repo, "Rent", "1850.50", domain.TransactionTypeExpense, "2024-04-01")
	addTx(repo, "Salary", "2000", domain.TransactionTypeIncome, "2024-05-31")
	addTx(repo, "Rent", "1900", domain.TransactionTypeExpense, "2024-05-01")
	addTx(repo, "Holiday", "120", domain.TransactionTypeSaving, "2024-05-20")
	h, _ := newAnalyticsHandler(repo)

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/forecast", "", testOwner, h.GetForecast)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp ForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	// (149.50 + 100) / 2
	if resp.Month != "2024-06" || resp.Prediction != "124.75" {
		t.Errorf("Expected 124.75 for 2024-06, got %s for %s", resp.Prediction, resp.Month)
	}
	if resp.Message != "Next month: You will likely gain £124.75" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	wantDetails := ForecastDetailsResponse{Income: "2000.00", Expense: "1900.00", Savings: "120.00"}
	if resp.Details != wantDetails {
		t.Errorf("Expected details %+v, got %+v", wantDetails, resp.Details)
	}
}

func TestGetForecast_NoData(t *testing.T) {
	h, _ := newAnalyticsHandler(testutil.NewMockTransactionRepository())

	rec := doRequest(t, http.MethodGet, "/api/v1/analytics/forecast", "", testOwner, h.GetForecast)

	var resp ForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Prediction != "0.00" || resp.Message != "Next month: Your net earnings will be neutral" {
		t.Errorf("Unexpected forecast %+v", resp)
	}
	if strings.Contains(rec.Body.String(), `"month"`) {
		t.Errorf("Expected month to be omitted, got %s", rec.Body.String())
	}
}

func TestExportReport(t *testing.T) {
	repo := testutil.NewMockTransactionRepository()
	addTx(repo, "Food", "10", domain.TransactionTypeExpense, "2024-01-05")

	t.Run("disabled", func(t *testing.T) {
		h, _ := newAnalyticsHandler(repo)
		rec := doRequest(t, http.MethodPost, "/api/v1/analytics/report/export", "", testOwner, h.ExportReport)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("Expected status 503, got %d", rec.Code)
		}
	})

	t.Run("configured", func(t *testing.T) {
		h, reportService := newAnalyticsHandler(repo)
		reportService.SetStorage(testutil.NewMockReportStorage(), time.Minute)

		rec := doRequest(t, http.MethodPost, "/api/v1/analytics/report/export?type=expense", "", testOwner, h.ExportReport)
		if rec.Code != http.StatusCreated {
			t.Fatalf("Expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp ExportResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to parse response: %v", err)
		}
		if !strings.HasPrefix(resp.ObjectPath, "reports/"+testOwner+"/expense/") || resp.URL == "" {
			t.Errorf("Unexpected export: %+v", resp)
		}
	})
}
