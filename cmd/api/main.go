package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/muthuraman/pawnbook/pkg/config"
	"github.com/muthuraman/pawnbook/pkg/interest"
	"github.com/muthuraman/pawnbook/pkg/ledger"
	"github.com/muthuraman/pawnbook/pkg/models"
	"github.com/muthuraman/pawnbook/pkg/store"
)

const dateLayout = "2006-01-02"

// Server holds the ledger instance.
type Server struct {
	ledger  *ledger.Ledger
	storage store.Storage // Keep a reference to the storage to close it
}

func NewServer(s store.Storage) *Server {
	return &Server{
		ledger:  ledger.NewLedger(s),
		storage: s,
	}
}

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

func (s *Server) createLoanHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerKey     string          `json:"customer_key"`
		ItemDescription string          `json:"item_description"`
		Principal       decimal.Decimal `json:"principal"`
		StartDate       string          `json:"start_date"` // YYYY-MM-DD, defaults to today
		MonthlyRate     decimal.Decimal `json:"monthly_rate"`
		ValidityMonths  int             `json:"validity_months"`
		InterestPrepaid bool            `json:"interest_prepaid"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var startDate time.Time
	if req.StartDate != "" {
		var err error
		startDate, err = parseDate(req.StartDate)
		if err != nil {
			http.Error(w, "Invalid start_date, want YYYY-MM-DD", http.StatusBadRequest)
			return
		}
	}

	loan, err := s.ledger.CreateLoan(req.CustomerKey, req.ItemDescription, req.Principal, startDate, req.MonthlyRate, req.ValidityMonths, req.InterestPrepaid)
	if err != nil {
		log.Printf("Error creating loan: %v\n", err)
		http.Error(w, fmt.Sprintf("Failed to create loan: %v", err), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(loan)
}

func (s *Server) getLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	loan, err := s.ledger.GetLoan(loanID)
	if err != nil {
		if errors.Is(err, store.ErrLoanNotFound) {
			http.Error(w, "Loan not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loan)
}

func (s *Server) listLoansHandler(w http.ResponseWriter, r *http.Request) {
	loans, err := s.ledger.GetAllLoans()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(loans)
}

// settlementRequest is shared by the preview and settle endpoints.
type settlementRequest struct {
	Method              models.SettlementMethod `json:"method"`
	EndDate             string                  `json:"end_date"` // YYYY-MM-DD
	AdditionalReduction decimal.Decimal         `json:"additional_reduction"`
}

func decodeSettlementRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, settlementRequest, time.Time, bool) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return uuid.Nil, settlementRequest{}, time.Time{}, false
	}

	var req settlementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return uuid.Nil, settlementRequest{}, time.Time{}, false
	}

	endDate, err := parseDate(req.EndDate)
	if err != nil {
		http.Error(w, "Invalid end_date, want YYYY-MM-DD", http.StatusBadRequest)
		return uuid.Nil, settlementRequest{}, time.Time{}, false
	}

	if req.AdditionalReduction.IsNegative() {
		http.Error(w, "additional_reduction must not be negative", http.StatusBadRequest)
		return uuid.Nil, settlementRequest{}, time.Time{}, false
	}

	return loanID, req, endDate, true
}

func (s *Server) previewSettlementHandler(w http.ResponseWriter, r *http.Request) {
	loanID, req, endDate, ok := decodeSettlementRequest(w, r)
	if !ok {
		return
	}

	// A reversed date range is not an error here: the result carries a
	// zero-amount sentinel the UI renders as-is.
	result, err := s.ledger.PreviewSettlement(loanID, req.Method, endDate, req.AdditionalReduction)
	if err != nil {
		if errors.Is(err, store.ErrLoanNotFound) {
			http.Error(w, "Loan not found", http.StatusNotFound)
		} else {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func (s *Server) settleLoanHandler(w http.ResponseWriter, r *http.Request) {
	loanID, req, endDate, ok := decodeSettlementRequest(w, r)
	if !ok {
		return
	}

	record, err := s.ledger.CloseLoan(loanID, endDate, req.AdditionalReduction, req.Method)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrLoanNotFound):
			http.Error(w, "Loan not found", http.StatusNotFound)
		case errors.Is(err, ledger.ErrLoanClosed):
			http.Error(w, "Loan already closed", http.StatusConflict)
		default:
			log.Printf("Error settling loan %s: %v\n", loanID, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(record)
}

func (s *Server) listCalculationsHandler(w http.ResponseWriter, r *http.Request) {
	loanID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid loan ID", http.StatusBadRequest)
		return
	}

	records, err := s.ledger.GetCalculations(loanID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.CalculationRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/loans", s.listLoansHandler).Methods("GET")
	router.HandleFunc("/loans", s.createLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}", s.getLoanHandler).Methods("GET")
	router.HandleFunc("/loans/{id}/settlement/preview", s.previewSettlementHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/settlement", s.settleLoanHandler).Methods("POST")
	router.HandleFunc("/loans/{id}/calculations", s.listCalculationsHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	return router
}

func main() {
	cfg := config.Load()

	sqliteStore, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize SQLite store: %v", err)
	}
	defer sqliteStore.Close()

	var storage store.Storage = sqliteStore
	if cfg.RedisAddr != "" {
		storage = store.NewCachedStorage(sqliteStore, store.NewRedisCache(cfg.RedisAddr))
		log.Printf("Loan cache enabled via Redis at %s", cfg.RedisAddr)
	}

	server := NewServer(storage)
	server.ledger.Policy = interest.Policy{
		FloorAfterAdditionalReduction: cfg.FloorAfterAdditionalReduction,
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Server starting on %s", addr)
	log.Fatal(http.ListenAndServe(addr, server.routes()))
}
