package interest

import (
	"time"

	"github.com/muthuraman/pawnbook/pkg/models"
	"github.com/shopspring/decimal"
)

// Result is the final settlement figure presented to the borrower.
// All amounts are whole currency units.
type Result struct {
	Method              models.SettlementMethod `json:"method"`
	DurationLabel       string                  `json:"duration_label"`
	RateLabel           string                  `json:"rate_label"`
	GrossInterest       decimal.Decimal         `json:"gross_interest"`
	InterestReduction   decimal.Decimal         `json:"interest_reduction"`
	AdditionalReduction decimal.Decimal         `json:"additional_reduction"`
	Payable             decimal.Decimal         `json:"payable"`
}

// Policy controls how reductions are applied on top of gross interest.
//
// The historical behavior floors the payable at principal after the prepaid
// reduction but NOT after the additional reduction, so a large additional
// reduction can push the payable below principal. FloorAfterAdditionalReduction
// re-applies the floor at the end; it defaults to off to match that behavior.
type Policy struct {
	FloorAfterAdditionalReduction bool
}

// Compute runs the duration scheme for method and applies the reduction
// policy. It never fails: bad dates and unknown methods come back as a
// zero-amount result whose duration label describes the problem.
func (p Policy) Compute(method models.SettlementMethod, startDate, endDate time.Time,
	principal, baseRate decimal.Decimal, validityMonths int,
	interestPrepaid bool, additionalReduction decimal.Decimal) Result {

	a := accrue(method, Input{
		Principal:      principal,
		StartDate:      startDate,
		EndDate:        endDate,
		BaseRate:       baseRate,
		ValidityMonths: validityMonths,
	})
	if a.Invalid {
		return Result{
			Method:              method,
			DurationLabel:       a.DurationLabel,
			RateLabel:           a.RateLabel,
			GrossInterest:       decimal.Zero,
			InterestReduction:   decimal.Zero,
			AdditionalReduction: decimal.Zero,
			Payable:             decimal.Zero,
		}
	}

	payable := principal.Add(a.Gross)

	reduction := decimal.Zero
	if interestPrepaid {
		reduction = principal.Mul(baseRate).Div(hundred).Round(0)
		payable = payable.Sub(reduction)
	}
	if payable.LessThan(principal) {
		payable = principal
	}

	payable = payable.Sub(additionalReduction)
	if p.FloorAfterAdditionalReduction && payable.LessThan(principal) {
		payable = principal
	}

	return Result{
		Method:              method,
		DurationLabel:       a.DurationLabel,
		RateLabel:           a.RateLabel,
		GrossInterest:       a.Gross,
		InterestReduction:   reduction,
		AdditionalReduction: additionalReduction,
		Payable:             payable.Round(0),
	}
}

// ComputeSettlement computes a settlement under the default policy
// (no floor after the additional reduction).
func ComputeSettlement(method models.SettlementMethod, startDate, endDate time.Time,
	principal, baseRate decimal.Decimal, validityMonths int,
	interestPrepaid bool, additionalReduction decimal.Decimal) Result {
	return Policy{}.Compute(method, startDate, endDate,
		principal, baseRate, validityMonths, interestPrepaid, additionalReduction)
}
