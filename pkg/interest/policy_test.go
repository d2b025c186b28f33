package interest

import (
	"strings"
	"testing"
	"time"

	"github.com/muthuraman/pawnbook/pkg/models"
	"github.com/shopspring/decimal"
)

func computeStandard(prepaid bool, additional int64) Result {
	return ComputeSettlement(models.MethodMax,
		date(2025, time.June, 1), date(2025, time.August, 5),
		decimal.NewFromInt(10000), decimal.NewFromInt(2), 2,
		prepaid, decimal.NewFromInt(additional))
}

func TestComputeSettlementBaseline(t *testing.T) {
	res := computeStandard(false, 0)

	if res.DurationLabel != "3 Months" {
		t.Errorf("Expected duration label %q, got %q", "3 Months", res.DurationLabel)
	}
	if !res.GrossInterest.Equal(decimal.NewFromInt(650)) {
		t.Errorf("Expected gross interest 650, got %s", res.GrossInterest)
	}
	if !res.Payable.Equal(decimal.NewFromInt(10650)) {
		t.Errorf("Expected payable 10650, got %s", res.Payable)
	}
	if !res.InterestReduction.IsZero() {
		t.Errorf("Expected no interest reduction, got %s", res.InterestReduction)
	}
}

func TestPrepaidInterestReduction(t *testing.T) {
	res := computeStandard(true, 0)

	if !res.InterestReduction.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected interest reduction 200, got %s", res.InterestReduction)
	}
	if !res.Payable.Equal(decimal.NewFromInt(10450)) {
		t.Errorf("Expected payable 10450, got %s", res.Payable)
	}

	// Prepaid never increases the bill.
	baseline := computeStandard(false, 0)
	if res.Payable.GreaterThan(baseline.Payable) {
		t.Errorf("Prepaid payable %s exceeds baseline %s", res.Payable, baseline.Payable)
	}
}

func TestAdditionalReductionIsExact(t *testing.T) {
	baseline := computeStandard(false, 0)
	reduced := computeStandard(false, 200)

	if !reduced.Payable.Equal(decimal.NewFromInt(10450)) {
		t.Errorf("Expected payable 10450, got %s", reduced.Payable)
	}
	diff := baseline.Payable.Sub(reduced.Payable)
	if !diff.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected additional reduction to lower payable by exactly 200, got %s", diff)
	}
	if !reduced.AdditionalReduction.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected additional reduction echoed as 200, got %s", reduced.AdditionalReduction)
	}
}

// The payable floor applies after the prepaid reduction but not after the
// additional reduction, so a large additional reduction can push the payable
// below principal.
func TestFloorAsymmetry(t *testing.T) {
	// Zero duration: gross is 0, so the prepaid reduction alone would put
	// the payable at 9800 and the floor lifts it back to principal.
	floored := ComputeSettlement(models.MethodMax,
		date(2025, time.June, 1), date(2025, time.June, 1),
		decimal.NewFromInt(10000), decimal.NewFromInt(2), 2,
		true, decimal.Zero)
	if !floored.Payable.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected payable floored at 10000, got %s", floored.Payable)
	}

	// The additional reduction then applies with no re-floor.
	below := ComputeSettlement(models.MethodMax,
		date(2025, time.June, 1), date(2025, time.June, 1),
		decimal.NewFromInt(10000), decimal.NewFromInt(2), 2,
		true, decimal.NewFromInt(300))
	if !below.Payable.Equal(decimal.NewFromInt(9700)) {
		t.Errorf("Expected payable 9700 below principal, got %s", below.Payable)
	}
}

func TestFloorAfterAdditionalReduction(t *testing.T) {
	p := Policy{FloorAfterAdditionalReduction: true}
	res := p.Compute(models.MethodMax,
		date(2025, time.June, 1), date(2025, time.June, 1),
		decimal.NewFromInt(10000), decimal.NewFromInt(2), 2,
		true, decimal.NewFromInt(300))
	if !res.Payable.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Expected payable re-floored at 10000, got %s", res.Payable)
	}
}

func TestInvalidRangeSentinel(t *testing.T) {
	res := ComputeSettlement(models.MethodMax,
		date(2025, time.August, 5), date(2025, time.June, 1),
		decimal.NewFromInt(10000), decimal.NewFromInt(2), 2,
		true, decimal.NewFromInt(500))

	if !res.GrossInterest.IsZero() || !res.Payable.IsZero() {
		t.Errorf("Expected zero amounts, got gross %s payable %s", res.GrossInterest, res.Payable)
	}
	if !strings.Contains(res.DurationLabel, "Invalid") {
		t.Errorf("Expected duration label containing Invalid, got %q", res.DurationLabel)
	}
	if !res.InterestReduction.IsZero() || !res.AdditionalReduction.IsZero() {
		t.Errorf("Expected no reductions on sentinel, got %s / %s", res.InterestReduction, res.AdditionalReduction)
	}
}
