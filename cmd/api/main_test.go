package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/muthuraman/pawnbook/pkg/interest"
	"github.com/muthuraman/pawnbook/pkg/models"
	"github.com/muthuraman/pawnbook/pkg/store"
	"github.com/shopspring/decimal"
)

func setupTestServer(t *testing.T) *Server {
	dbFile := "test_api.db"
	os.Remove(dbFile)
	t.Cleanup(func() { os.Remove(dbFile) })

	s, err := store.NewSQLiteStore(dbFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return NewServer(s)
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func createTestLoan(t *testing.T, router http.Handler) models.Loan {
	t.Helper()
	rr := doJSON(t, router, "POST", "/loans", map[string]any{
		"customer_key":     "test_cust",
		"item_description": "gold bangle pair",
		"principal":        10000,
		"start_date":       "2025-06-01",
		"monthly_rate":     2,
		"validity_months":  2,
		"interest_prepaid": false,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}
	var loan models.Loan
	json.Unmarshal(rr.Body.Bytes(), &loan)
	return loan
}

func TestAPI_CreateAndGetLoan(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	loan := createTestLoan(t, router)
	if !loan.Principal.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected principal 10000, got %s", loan.Principal)
	}

	req := httptest.NewRequest("GET", "/loans/"+loan.ID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	var fetched models.Loan
	json.Unmarshal(rr.Body.Bytes(), &fetched)
	if fetched.ID != loan.ID {
		t.Errorf("Expected ID %s, got %s", loan.ID, fetched.ID)
	}
	// 2025-06-01 + 2 months is long past: the displayed status is derived
	// from dates, not from the stored column.
	if fetched.Status != models.StatusOverdue {
		t.Errorf("Expected resolved status overdue, got %s", fetched.Status)
	}
}

func TestAPI_PreviewSettlement(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()
	loan := createTestLoan(t, router)

	rr := doJSON(t, router, "POST", "/loans/"+loan.ID.String()+"/settlement/preview", map[string]any{
		"method":               1,
		"end_date":             "2025-08-05",
		"additional_reduction": 0,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var result interest.Result
	json.Unmarshal(rr.Body.Bytes(), &result)
	if !result.Payable.Equal(decimal.NewFromInt(10650)) {
		t.Errorf("Expected payable 10650, got %s", result.Payable)
	}
	if result.DurationLabel != "3 Months" {
		t.Errorf("Expected duration label %q, got %q", "3 Months", result.DurationLabel)
	}

	// Preview writes nothing.
	req := httptest.NewRequest("GET", "/loans/"+loan.ID.String()+"/calculations", nil)
	recRR := httptest.NewRecorder()
	router.ServeHTTP(recRR, req)
	var records []models.CalculationRecord
	json.Unmarshal(recRR.Body.Bytes(), &records)
	if len(records) != 0 {
		t.Errorf("Expected no calculation records after preview, got %d", len(records))
	}
}

func TestAPI_SettleLoan(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()
	loan := createTestLoan(t, router)

	rr := doJSON(t, router, "POST", "/loans/"+loan.ID.String()+"/settlement", map[string]any{
		"method":               1,
		"end_date":             "2025-08-05",
		"additional_reduction": 200,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d. Body: %s", rr.Code, rr.Body.String())
	}

	var record models.CalculationRecord
	json.Unmarshal(rr.Body.Bytes(), &record)
	if !record.TotalPayable.Equal(decimal.NewFromInt(10450)) {
		t.Errorf("Expected total payable 10450, got %s", record.TotalPayable)
	}

	// The loan now reads closed.
	req := httptest.NewRequest("GET", "/loans/"+loan.ID.String(), nil)
	getRR := httptest.NewRecorder()
	router.ServeHTTP(getRR, req)
	var fetched models.Loan
	json.Unmarshal(getRR.Body.Bytes(), &fetched)
	if fetched.Status != models.StatusClosed {
		t.Errorf("Expected status closed, got %s", fetched.Status)
	}

	// Settling again is rejected: closed is terminal.
	again := doJSON(t, router, "POST", "/loans/"+loan.ID.String()+"/settlement", map[string]any{
		"method":   1,
		"end_date": "2025-08-06",
	})
	if again.Code != http.StatusConflict {
		t.Errorf("Expected status 409 on second settlement, got %d", again.Code)
	}
}

func TestAPI_SettleUnknownLoan(t *testing.T) {
	server := setupTestServer(t)
	router := server.routes()

	rr := doJSON(t, router, "POST", "/loans/3f1d9a2e-0000-4000-8000-000000000000/settlement", map[string]any{
		"method":   1,
		"end_date": "2025-08-05",
	})
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rr.Code)
	}
}
