package engine

import (
	"fmt"

	"loanwise/internal/domain"
)

// Summarize folds a schedule into its totals and yearly roll-ups and
// layers the adjustments (deposit, fee, insurance) on top. The rows
// themselves are never touched.
func Summarize(schedule domain.Schedule, adj domain.Adjustments) (domain.Summary, error) {
	if len(schedule) == 0 {
		return domain.Summary{}, fmt.Errorf("%w: nothing to summarize", ErrEmptySchedule)
	}

	var s domain.Summary
	s.PeriodsToPayoff = len(schedule)
	s.PeriodicPayment = schedule[0].Payment

	var yearly []domain.YearTotals
	byYear := make(map[int]int)

	for _, row := range schedule {
		s.TotalInterest = Round2(s.TotalInterest + row.InterestPortion)
		s.TotalPrincipal = Round2(s.TotalPrincipal + row.PrincipalPortion)
		s.TotalExtra = Round2(s.TotalExtra + row.ExtraPayment)
		s.TotalPayments = Round2(s.TotalPayments + row.Payment + row.ExtraPayment)

		year := row.DueDate.Year()
		idx, ok := byYear[year]
		if !ok {
			idx = len(yearly)
			byYear[year] = idx
			yearly = append(yearly, domain.YearTotals{Year: year})
		}
		yearly[idx].Interest = Round2(yearly[idx].Interest + row.InterestPortion)
		yearly[idx].Principal = Round2(yearly[idx].Principal + row.PrincipalPortion)
		yearly[idx].Extra = Round2(yearly[idx].Extra + row.ExtraPayment)
	}

	s.Yearly = yearly
	s.Deposit = Round2(adj.Deposit)

	// A financed fee is already inside the principal and therefore
	// inside the rows; counting it again would double it.
	if !adj.FinanceFees {
		s.FeeTotal = Round2(adj.FeeWithTax())
	}

	switch adj.InsuranceMode {
	case domain.InsurancePerPeriod:
		s.InsuranceTotal = Round2(adj.Insurance * float64(len(schedule)))
	default:
		s.InsuranceTotal = Round2(adj.Insurance)
	}

	s.GrandTotal = Round2(s.TotalPayments + s.FeeTotal + s.InsuranceTotal)
	return s, nil
}
