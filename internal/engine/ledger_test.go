package engine

import (
	"errors"
	"testing"

	"loanwise/internal/domain"
)

func TestPrepaymentLedger_Register(t *testing.T) {
	l := NewPrepaymentLedger()

	if err := l.Register(3, 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Lookup(3); got != 500 {
		t.Errorf("expected 500, got %v", got)
	}
	if got := l.Lookup(4); got != 0 {
		t.Errorf("expected 0 for unregistered period, got %v", got)
	}

	// Re-registering the same period overwrites, it does not accumulate.
	if err := l.Register(3, 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := l.Lookup(3); got != 200 {
		t.Errorf("expected overwrite to 200, got %v", got)
	}

	if err := l.Register(0, 100); !errors.Is(err, ErrInvalidPrepayment) {
		t.Errorf("expected ErrInvalidPrepayment for period 0, got %v", err)
	}
	if err := l.Register(2, -1); !errors.Is(err, ErrInvalidPrepayment) {
		t.Errorf("expected ErrInvalidPrepayment for negative amount, got %v", err)
	}
}

func TestNewLedgerFromEntries(t *testing.T) {
	l, err := NewLedgerFromEntries([]domain.PrepaymentEntry{
		{Period: 6, Amount: 20000},
		{Period: 12, Amount: 1000},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", l.Len())
	}

	if _, err := NewLedgerFromEntries([]domain.PrepaymentEntry{{Period: -1, Amount: 5}}); !errors.Is(err, ErrInvalidPrepayment) {
		t.Errorf("expected ErrInvalidPrepayment, got %v", err)
	}
}
