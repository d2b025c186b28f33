package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a pledge. Closed is terminal:
// nothing in this codebase ever moves a loan out of it.
type LoanStatus string

const (
	StatusActive  LoanStatus = "active"
	StatusOverdue LoanStatus = "overdue"
	StatusClosed  LoanStatus = "closed"
)

// SettlementMethod selects one of the four duration-and-rate conventions
// used when a pledge is settled.
type SettlementMethod int

const (
	MethodMax        SettlementMethod = 1 // calendar months, rounded up
	MethodEnhanced   SettlementMethod = 2 // month walk, 0.5/0.75/1.0 final fraction
	MethodSimplified SettlementMethod = 3 // month walk, 0.5/1.0 final fraction
	MethodDaily      SettlementMethod = 4 // day count against a 360-day year
)

// Loan is a pledge: a cash advance against collateral with a monthly rate
// and a validity window after which a surcharge rate applies.
type Loan struct {
	ID              uuid.UUID       `json:"id"`
	CustomerKey     string          `json:"customer_key"`     // Link to external customer system
	ItemDescription string          `json:"item_description"` // Pledged item summary
	Principal       decimal.Decimal `json:"principal"`
	StartDate       time.Time       `json:"start_date"`
	MonthlyRate     decimal.Decimal `json:"monthly_rate"` // Base interest rate, % per month
	ValidityMonths  int             `json:"validity_months"`
	InterestPrepaid bool            `json:"interest_prepaid"` // First period's interest collected at origination
	Status          LoanStatus      `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CalculationRecord is the audit row written when a settlement is computed.
// Records are append-only; a loan may accumulate more than one if settlement
// is attempted more than once.
type CalculationRecord struct {
	ID                  uuid.UUID        `json:"id"`
	LoanID              uuid.UUID        `json:"loan_id"`
	EndDate             time.Time        `json:"end_date"`
	Method              SettlementMethod `json:"method"`
	DurationLabel       string           `json:"duration_label"`
	RateLabel           string           `json:"rate_label"`
	GrossInterest       decimal.Decimal  `json:"gross_interest"`
	InterestReduction   decimal.Decimal  `json:"interest_reduction"`
	AdditionalReduction decimal.Decimal  `json:"additional_reduction"`
	TotalPayable        decimal.Decimal  `json:"total_payable"`
	CreatedAt           time.Time        `json:"created_at"`
}
