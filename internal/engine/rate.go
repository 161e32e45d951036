package engine

import (
	"fmt"
	"math"

	"loanwise/internal/domain"
)

// Round2 rounds a currency amount to two decimals. The engine applies
// it at every period so rounding error stays within one cent per row
// instead of accumulating over the life of the loan.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ConvertRate turns an annual nominal rate in percent into a per-period
// rate and the total period count for the chosen frequency. Tenure is
// already period-denominated; it is not re-derived from years.
func ConvertRate(annualRatePercent float64, freq domain.Frequency, tenurePeriods int) (periodRate float64, periodCount int, err error) {
	if annualRatePercent < 0 || math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) {
		return 0, 0, fmt.Errorf("%w: annual rate %.4f%% must be a finite number >= 0", ErrInvalidRate, annualRatePercent)
	}
	if tenurePeriods <= 0 {
		return 0, 0, fmt.Errorf("%w: tenure must be at least 1 period, got %d", ErrInvalidTenure, tenurePeriods)
	}

	periodRate = annualRatePercent / 100 / float64(freq.PeriodsPerYear())
	return periodRate, tenurePeriods, nil
}

// Payment computes the fixed installment for a loan. With a zero rate
// the installment degenerates to straight principal division.
func Payment(principal, periodRate float64, periodCount int) float64 {
	if periodCount <= 0 {
		return 0
	}
	if periodRate == 0 {
		return principal / float64(periodCount)
	}
	return principal * periodRate / (1 - math.Pow(1+periodRate, -float64(periodCount)))
}
