package domain

import "time"

// Frequency is the repayment/compounding interval of a loan.
type Frequency string

const (
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// PeriodsPerYear returns how many billing periods fit in a year.
// Unknown values fall back to monthly.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case Quarterly:
		return 4
	case Yearly:
		return 1
	default:
		return 12
	}
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// Advance moves t forward by n periods on the calendar, so a monthly
// loan due on the 31st lands on month ends rather than drifting by
// fixed 30-day deltas.
func (f Frequency) Advance(t time.Time, n int) time.Time {
	switch f {
	case Quarterly:
		return t.AddDate(0, 3*n, 0)
	case Yearly:
		return t.AddDate(n, 0, 0)
	default:
		return t.AddDate(0, n, 0)
	}
}

// InsuranceMode selects how an insurance premium is charged.
type InsuranceMode string

const (
	InsuranceOnce      InsuranceMode = "once"
	InsurancePerPeriod InsuranceMode = "per_period"
)

// Valid reports whether m is one of the supported insurance modes.
func (m InsuranceMode) Valid() bool {
	return m == InsuranceOnce || m == InsurancePerPeriod
}

// DefaultFeeTaxRate is the tax applied to processing fees when the
// request does not override it.
const DefaultFeeTaxRate = 0.18

// LoanTerms is the validated, immutable input of one schedule run.
// Principal is the financed amount after the deposit has been
// subtracted (and fees rolled in, when financed).
type LoanTerms struct {
	Principal         float64   `json:"principal"`
	AnnualRatePercent float64   `json:"annual_rate_percent"`
	TenurePeriods     int       `json:"tenure_periods"`
	Frequency         Frequency `json:"frequency"`
	StartDate         time.Time `json:"start_date"`
}

// Adjustments are the one-off amounts that change what the borrower
// pays overall without touching the per-period interest math.
type Adjustments struct {
	Deposit       float64       `json:"deposit"`
	Fee           float64       `json:"fee"`
	FeeTaxed      bool          `json:"fee_taxed"`
	FeeTaxRate    float64       `json:"fee_tax_rate"`
	Insurance     float64       `json:"insurance"`
	InsuranceMode InsuranceMode `json:"insurance_mode"`
	FinanceFees   bool          `json:"finance_fees"`
}

// FeeWithTax returns the fee amount including tax when the tax flag is set.
func (a Adjustments) FeeWithTax() float64 {
	if a.FeeTaxed {
		return a.Fee * (1 + a.FeeTaxRate)
	}
	return a.Fee
}

// PrepaymentEntry is one ad-hoc extra payment targeted at a period.
type PrepaymentEntry struct {
	Period int     `json:"period"`
	Amount float64 `json:"amount"`
}

// PeriodRow is a single line of the amortization schedule. The closing
// balance of row n is the opening balance of row n+1.
type PeriodRow struct {
	Period           int       `json:"period"`
	DueDate          time.Time `json:"due_date"`
	Payment          float64   `json:"payment"`
	InterestPortion  float64   `json:"interest"`
	PrincipalPortion float64   `json:"principal"`
	ExtraPayment     float64   `json:"extra"`
	ClosingBalance   float64   `json:"balance"`
}

// Schedule is the ordered sequence of periods until payoff. It may be
// shorter than the nominal tenure when prepayments accelerate payoff.
type Schedule []PeriodRow

// YearTotals is one calendar-year bucket of the schedule.
type YearTotals struct {
	Year      int     `json:"year"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Extra     float64 `json:"extra"`
}

// Summary is derived from a schedule by a read-only traversal plus the
// adjustments that only affect totals.
type Summary struct {
	PeriodicPayment float64      `json:"periodic_payment"`
	TotalInterest   float64      `json:"total_interest"`
	TotalPrincipal  float64      `json:"total_principal"`
	TotalExtra      float64      `json:"total_extra"`
	TotalPayments   float64      `json:"total_payments"`
	Deposit         float64      `json:"deposit"`
	FeeTotal        float64      `json:"fee_total"`
	InsuranceTotal  float64      `json:"insurance_total"`
	GrandTotal      float64      `json:"grand_total"`
	PeriodsToPayoff int          `json:"periods_to_payoff"`
	Yearly          []YearTotals `json:"yearly"`
}

// CalculationResult is the public output boundary: the full schedule
// plus its summary, consumable by charts and exporters without any
// engine internals.
type CalculationResult struct {
	Terms    LoanTerms   `json:"terms"`
	Schedule Schedule    `json:"schedule"`
	Summary  Summary     `json:"summary"`
	Adjust   Adjustments `json:"adjustments"`
}
