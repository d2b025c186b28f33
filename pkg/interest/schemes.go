package interest

import (
	"fmt"
	"math"
	"time"

	"github.com/muthuraman/pawnbook/pkg/models"
	"github.com/shopspring/decimal"
)

var (
	hundred       = decimal.NewFromInt(100)
	twelve        = decimal.NewFromInt(12)
	daysInYear360 = decimal.NewFromInt(360)

	half          = decimal.RequireFromString("0.5")
	threeQuarters = decimal.RequireFromString("0.75")
	one           = decimal.NewFromInt(1)

	// Surcharge steps applied once a loan runs past its validity window:
	// half a point per month for the monthly schemes, six points per annum
	// for the day-count scheme.
	monthlySurchargeStep = decimal.RequireFromString("0.5")
	annualSurchargeStep  = decimal.NewFromInt(6)
)

// Input carries the loan terms a settlement is computed from.
type Input struct {
	Principal      decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	BaseRate       decimal.Decimal // % per month
	ValidityMonths int
}

// accrual is the raw outcome of a duration scheme before reductions.
type accrual struct {
	Gross         decimal.Decimal // whole currency units
	DurationLabel string
	RateLabel     string
	Invalid       bool
}

func invalidAccrual(label string) accrual {
	return accrual{Gross: decimal.Zero, DurationLabel: label, Invalid: true}
}

// accrue runs the duration scheme for the given method. An end date before
// the start date short-circuits every method with a zero-value sentinel.
func accrue(method models.SettlementMethod, in Input) accrual {
	if in.EndDate.Before(in.StartDate) {
		return invalidAccrual("Invalid date range")
	}

	switch method {
	case models.MethodMax:
		return accrueMax(in)
	case models.MethodEnhanced:
		return accrueStepwise(in, enhancedFraction)
	case models.MethodSimplified:
		return accrueStepwise(in, simplifiedFraction)
	case models.MethodDaily:
		return accrueDaily(in)
	default:
		return invalidAccrual("Unknown method")
	}
}

// monthSpan is the calendar month difference, ignoring days.
func monthSpan(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// accrueMax counts every started month as a full one: the calendar month
// difference, plus one more if the end day has passed the start day.
func accrueMax(in Input) accrual {
	months := monthSpan(in.StartDate, in.EndDate)
	if in.EndDate.Day() > in.StartDate.Day() {
		months++
	}
	if months < 0 {
		return invalidAccrual("Negative duration")
	}

	surcharge := in.BaseRate.Add(monthlySurchargeStep)
	validity := decimal.NewFromInt(int64(in.ValidityMonths))
	perMonth := in.Principal.Mul(in.BaseRate).Div(hundred)

	var gross decimal.Decimal
	rateLabel := fmt.Sprintf("%s%% per month", in.BaseRate)
	if months <= in.ValidityMonths {
		gross = perMonth.Mul(decimal.NewFromInt(int64(months)))
	} else {
		extra := decimal.NewFromInt(int64(months - in.ValidityMonths))
		gross = perMonth.Mul(validity).
			Add(in.Principal.Mul(surcharge).Div(hundred).Mul(extra))
		rateLabel = fmt.Sprintf("%s%% + %s%% per month", in.BaseRate, surcharge)
	}

	return accrual{
		Gross:         gross.Round(0),
		DurationLabel: fmt.Sprintf("%d Months", months),
		RateLabel:     rateLabel,
	}
}

// enhancedFraction maps the final partial period's day count to a month
// fraction for the enhanced scheme.
func enhancedFraction(days int) decimal.Decimal {
	switch {
	case days < 7:
		return half
	case days < 15:
		return threeQuarters
	default:
		return one
	}
}

// simplifiedFraction is the coarser rule used by the simplified scheme.
func simplifiedFraction(days int) decimal.Decimal {
	if days < 10 {
		return half
	}
	return one
}

// accrueStepwise walks whole months from start to end, then converts the
// trailing partial period to a fraction via the scheme's day rule. The rate
// for each step is picked from the cumulative total INCLUDING that step, so
// accrual switches from base to surcharge mid-walk once the running total
// crosses the validity window.
func accrueStepwise(in Input, fraction func(days int) decimal.Decimal) accrual {
	surcharge := in.BaseRate.Add(monthlySurchargeStep)
	validity := decimal.NewFromInt(int64(in.ValidityMonths))

	totm := decimal.Zero
	gross := decimal.Zero
	surcharged := false

	step := func(frac decimal.Decimal) {
		totm = totm.Add(frac)
		rate := in.BaseRate
		if totm.GreaterThan(validity) {
			rate = surcharge
			surcharged = true
		}
		gross = gross.Add(in.Principal.Mul(rate).Div(hundred).Mul(frac))
	}

	fullMonths := 0
	for !in.StartDate.AddDate(0, fullMonths+1, 0).After(in.EndDate) {
		fullMonths++
		step(one)
	}

	cursor := in.StartDate.AddDate(0, fullMonths, 0)
	if cursor.Before(in.EndDate) {
		days := int(in.EndDate.Sub(cursor).Hours() / 24)
		step(fraction(days))
	}

	rateLabel := fmt.Sprintf("%s%% per month", in.BaseRate)
	if surcharged {
		rateLabel = fmt.Sprintf("%s%% + %s%% per month", in.BaseRate, surcharge)
	}

	return accrual{
		Gross:         gross.Round(0),
		DurationLabel: fmt.Sprintf("%s Months", totm),
		RateLabel:     rateLabel,
	}
}

// accrueDaily charges by actual days against a 360-day year at annualized
// rates. The day count is padded by one, with a ten-day minimum for short
// loans; which rate bucket applies is decided separately, from the calendar
// month difference.
func accrueDaily(in Input) accrual {
	totalDays := int(math.Ceil(in.EndDate.Sub(in.StartDate).Hours() / 24))
	daysToUse := totalDays + 1
	if totalDays > 0 && totalDays < 10 {
		daysToUse = 10
	}

	interestMonths := monthSpan(in.StartDate, in.EndDate)
	if in.EndDate.Day() > in.StartDate.Day() {
		interestMonths++
	}
	if interestMonths < 0 {
		interestMonths = 0
	}

	annualBase := in.BaseRate.Mul(twelve)
	annualSurcharge := annualBase.Add(annualSurchargeStep)

	var gross decimal.Decimal
	rateLabel := fmt.Sprintf("%s%% per annum", annualBase)
	if interestMonths <= in.ValidityMonths {
		gross = in.Principal.Mul(annualBase).Div(hundred).
			Mul(decimal.NewFromInt(int64(daysToUse))).Div(daysInYear360)
	} else {
		baseDays := in.ValidityMonths * 30
		surchargeDays := daysToUse - baseDays
		gross = in.Principal.Mul(annualBase).Div(hundred).
			Mul(decimal.NewFromInt(int64(baseDays))).Div(daysInYear360).
			Add(in.Principal.Mul(annualSurcharge).Div(hundred).
				Mul(decimal.NewFromInt(int64(surchargeDays))).Div(daysInYear360))
		rateLabel = fmt.Sprintf("%s%% + %s%% per annum", annualBase, annualSurcharge)
	}

	return accrual{
		Gross:         gross.Round(0),
		DurationLabel: fmt.Sprintf("%d Days (Original: %d Days)", daysToUse, totalDays),
		RateLabel:     rateLabel,
	}
}
