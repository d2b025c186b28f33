package store

import (
	"errors"

	"github.com/google/uuid"
	"github.com/muthuraman/pawnbook/pkg/models"
)

// ErrLoanNotFound is returned when a loan id has no row behind it.
var ErrLoanNotFound = errors.New("loan not found")

// Storage defines the persistence operations for loans and their
// settlement calculation records.
type Storage interface {
	CreateLoan(loan *models.Loan) error
	GetLoan(id uuid.UUID) (*models.Loan, error)
	GetAllLoans() ([]*models.Loan, error)
	UpdateLoanStatus(id uuid.UUID, status models.LoanStatus) error

	CreateCalculation(record *models.CalculationRecord) error
	GetCalculationsForLoan(loanID uuid.UUID) ([]*models.CalculationRecord, error)

	Close() error
}

// Settler is implemented by stores that can write the calculation record
// and flip the loan to closed atomically. Stores without transactions fall
// back to the two sequential writes, which can leave a record behind when
// the status update fails.
type Settler interface {
	SettleLoan(record *models.CalculationRecord) error
}
