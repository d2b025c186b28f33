package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/muthuraman/pawnbook/pkg/interest"
	"github.com/muthuraman/pawnbook/pkg/metrics"
	"github.com/muthuraman/pawnbook/pkg/models"
	"github.com/muthuraman/pawnbook/pkg/store"
	"github.com/shopspring/decimal"
)

// ErrLoanClosed is returned when a settlement is attempted on a loan that
// is already closed. Closed is terminal.
var ErrLoanClosed = errors.New("loan already closed")

// Ledger handles the business logic for pledges and their settlement.
type Ledger struct {
	storage store.Storage
	Policy  interest.Policy  // reduction behavior knobs
	now     func() time.Time // injectable for tests
}

// NewLedger creates a new Ledger with a given Storage implementation.
func NewLedger(s store.Storage) *Ledger {
	return &Ledger{
		storage: s,
		now:     time.Now,
	}
}

// CreateLoan originates a new pledge for a customer.
func (l *Ledger) CreateLoan(customerKey, itemDescription string, principal decimal.Decimal, startDate time.Time, monthlyRate decimal.Decimal, validityMonths int, interestPrepaid bool) (*models.Loan, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("principal must be positive")
	}
	if monthlyRate.IsNegative() {
		return nil, fmt.Errorf("monthly rate must not be negative")
	}
	if validityMonths <= 0 {
		return nil, fmt.Errorf("validity months must be positive")
	}
	if startDate.IsZero() {
		startDate = l.now()
	}

	loan := &models.Loan{
		ID:              uuid.New(),
		CustomerKey:     customerKey,
		ItemDescription: itemDescription,
		Principal:       principal,
		StartDate:       startDate,
		MonthlyRate:     monthlyRate,
		ValidityMonths:  validityMonths,
		InterestPrepaid: interestPrepaid,
		Status:          models.StatusActive,
		CreatedAt:       l.now(),
		UpdatedAt:       l.now(),
	}

	if err := l.storage.CreateLoan(loan); err != nil {
		return nil, fmt.Errorf("failed to store loan: %w", err)
	}
	return loan, nil
}

// GetLoan retrieves a loan with its display status resolved from dates.
// The persisted status column is only trusted once it says closed; anything
// else is recomputed. A loan that already has a calculation record is
// treated as closed even if the status write behind it was lost.
func (l *Ledger) GetLoan(id uuid.UUID) (*models.Loan, error) {
	loan, err := l.storage.GetLoan(id)
	if err != nil {
		return nil, err
	}

	loan.Status = interest.ResolveStatus(loan.StartDate, loan.ValidityMonths, loan.Status, l.now())
	if loan.Status != models.StatusClosed {
		records, err := l.storage.GetCalculationsForLoan(id)
		if err == nil && len(records) > 0 {
			loan.Status = models.StatusClosed
		}
	}

	metrics.LoanReads.WithLabelValues(string(loan.Status)).Inc()
	return loan, nil
}

// GetAllLoans retrieves all loans with display statuses resolved.
func (l *Ledger) GetAllLoans() ([]*models.Loan, error) {
	loans, err := l.storage.GetAllLoans()
	if err != nil {
		return nil, err
	}
	for _, loan := range loans {
		loan.Status = interest.ResolveStatus(loan.StartDate, loan.ValidityMonths, loan.Status, l.now())
	}
	return loans, nil
}

// GetCalculations retrieves the settlement audit trail for a loan.
func (l *Ledger) GetCalculations(loanID uuid.UUID) ([]*models.CalculationRecord, error) {
	return l.storage.GetCalculationsForLoan(loanID)
}

// PreviewSettlement computes what a settlement would look like without
// writing anything. Bad dates come back as a zero-amount result, not an
// error.
func (l *Ledger) PreviewSettlement(loanID uuid.UUID, method models.SettlementMethod, endDate time.Time, additionalReduction decimal.Decimal) (interest.Result, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		return interest.Result{}, err
	}
	return l.compute(loan, method, endDate, additionalReduction), nil
}

func (l *Ledger) compute(loan *models.Loan, method models.SettlementMethod, endDate time.Time, additionalReduction decimal.Decimal) interest.Result {
	return l.Policy.Compute(method, loan.StartDate, endDate,
		loan.Principal, loan.MonthlyRate, loan.ValidityMonths,
		loan.InterestPrepaid, additionalReduction)
}

// CloseLoan runs a settlement end to end: load the loan, compute the
// payable, persist the calculation record, and flip the loan to closed.
//
// When the store can settle transactionally both writes happen atomically.
// Otherwise they run in sequence, and a failure of the status update leaves
// the already-written record in place; reads reconcile that divergence by
// treating a loan with a calculation record as closed.
func (l *Ledger) CloseLoan(loanID uuid.UUID, endDate time.Time, additionalReduction decimal.Decimal, method models.SettlementMethod) (*models.CalculationRecord, error) {
	loan, err := l.storage.GetLoan(loanID)
	if err != nil {
		metrics.SettlementFailures.WithLabelValues("load").Inc()
		l.countSettlement(method, "failed")
		if errors.Is(err, store.ErrLoanNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	if loan.Status == models.StatusClosed {
		l.countSettlement(method, "rejected")
		return nil, ErrLoanClosed
	}

	// An invalid date range still produces (and persists) a zero-amount
	// record; it is not an error at this step.
	result := l.compute(loan, method, endDate, additionalReduction)

	record := &models.CalculationRecord{
		ID:                  uuid.New(),
		LoanID:              loan.ID,
		EndDate:             endDate,
		Method:              method,
		DurationLabel:       result.DurationLabel,
		RateLabel:           result.RateLabel,
		GrossInterest:       result.GrossInterest,
		InterestReduction:   result.InterestReduction,
		AdditionalReduction: result.AdditionalReduction,
		TotalPayable:        result.Payable,
		CreatedAt:           l.now(),
	}

	if settler, ok := l.storage.(store.Settler); ok {
		if err := settler.SettleLoan(record); err != nil {
			metrics.SettlementFailures.WithLabelValues("settle").Inc()
			l.countSettlement(method, "failed")
			return nil, err
		}
	} else {
		if err := l.storage.CreateCalculation(record); err != nil {
			metrics.SettlementFailures.WithLabelValues("persist").Inc()
			l.countSettlement(method, "failed")
			return nil, fmt.Errorf("failed to save calculation: %w", err)
		}
		if err := l.storage.UpdateLoanStatus(loan.ID, models.StatusClosed); err != nil {
			metrics.SettlementFailures.WithLabelValues("close").Inc()
			l.countSettlement(method, "failed")
			return nil, fmt.Errorf("failed to update loan status: %w", err)
		}
	}

	loan.Status = models.StatusClosed
	l.countSettlement(method, "ok")
	return record, nil
}

func (l *Ledger) countSettlement(method models.SettlementMethod, status string) {
	metrics.Settlements.WithLabelValues(strconv.Itoa(int(method)), status).Inc()
}
