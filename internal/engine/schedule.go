package engine

import (
	"time"

	"loanwise/internal/domain"
)

// GenerateSchedule produces the period-by-period repayment schedule.
//
// The installment is computed once from the original principal and the
// nominal period count: prepayments shorten the payoff tail, they do
// not re-amortize the stated installment. Each period's amounts are
// rounded to cents before they feed the next period, and the closing
// balance never goes negative: prepayments that would overshoot are
// capped at the remaining balance and the surplus discarded.
//
// The function is pure: identical inputs yield an identical schedule.
func GenerateSchedule(principal, periodRate float64, periodCount int, ledger *PrepaymentLedger, startDate time.Time, freq domain.Frequency) domain.Schedule {
	payment := Round2(Payment(principal, periodRate, periodCount))

	schedule := make(domain.Schedule, 0, periodCount)
	balance := Round2(principal)

	for i := 1; i <= periodCount; i++ {
		if balance <= 0 {
			break
		}

		interest := Round2(balance * periodRate)

		principalPortion := Round2(payment - interest)
		rowPayment := payment
		if i == periodCount || principalPortion > balance {
			// Last period settles whatever is still owed, absorbing
			// the rounding residue of all earlier rows. The recorded
			// payment shrinks (or grows by a cent) with it.
			principalPortion = balance
			rowPayment = Round2(interest + principalPortion)
		}

		extra := Round2(ledger.Lookup(i))
		if remaining := Round2(balance - principalPortion); extra > remaining {
			extra = remaining
		}

		balance = Round2(balance - principalPortion - extra)
		if balance < 0 {
			balance = 0
		}

		schedule = append(schedule, domain.PeriodRow{
			Period:           i,
			DueDate:          freq.Advance(startDate, i),
			Payment:          rowPayment,
			InterestPortion:  interest,
			PrincipalPortion: principalPortion,
			ExtraPayment:     extra,
			ClosingBalance:   balance,
		})

		if balance == 0 {
			break
		}
	}

	return schedule
}
