package engine

import (
	"fmt"

	"loanwise/internal/domain"
)

// PrepaymentLedger holds the extra payments of one schedule run, keyed
// by 1-based period index. Registering the same period twice replaces
// the earlier amount (last write wins). The ledger is read-only while
// the generator runs.
type PrepaymentLedger struct {
	entries map[int]float64
}

func NewPrepaymentLedger() *PrepaymentLedger {
	return &PrepaymentLedger{entries: make(map[int]float64)}
}

// NewLedgerFromEntries builds a ledger from the input-boundary entry
// list, failing on the first invalid entry.
func NewLedgerFromEntries(entries []domain.PrepaymentEntry) (*PrepaymentLedger, error) {
	l := NewPrepaymentLedger()
	for _, e := range entries {
		if err := l.Register(e.Period, e.Amount); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Register records an extra payment for a period, overwriting any
// amount already registered there.
func (l *PrepaymentLedger) Register(period int, amount float64) error {
	if period < 1 {
		return fmt.Errorf("%w: period index %d must be >= 1", ErrInvalidPrepayment, period)
	}
	if amount < 0 {
		return fmt.Errorf("%w: amount %.2f must be >= 0", ErrInvalidPrepayment, amount)
	}
	l.entries[period] = amount
	return nil
}

// Lookup returns the extra payment registered for a period, or 0.
func (l *PrepaymentLedger) Lookup(period int) float64 {
	if l == nil {
		return 0
	}
	return l.entries[period]
}

// Len returns how many periods have a registered prepayment.
func (l *PrepaymentLedger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}
