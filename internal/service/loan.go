package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"loanwise/internal/domain"
	"loanwise/internal/engine"
	"loanwise/internal/repository"

	"github.com/google/uuid"
)

// CalculationRequest is the validated input boundary of one schedule
// run: everything the borrower-facing form collects, already shaped
// into concrete types.
type CalculationRequest struct {
	Price             float64                  `json:"price"`
	Deposit           float64                  `json:"deposit"`
	AnnualRatePercent float64                  `json:"annual_rate_percent"`
	TenurePeriods     int                      `json:"tenure_periods"`
	Frequency         domain.Frequency         `json:"frequency"`
	StartDate         time.Time                `json:"start_date"`
	Fee               float64                  `json:"fee"`
	FeeTaxed          bool                     `json:"fee_taxed"`
	FeeTaxRate        float64                  `json:"fee_tax_rate"`
	FinanceFees       bool                     `json:"finance_fees"`
	Insurance         float64                  `json:"insurance"`
	InsuranceMode     domain.InsuranceMode     `json:"insurance_mode"`
	Prepayments       []domain.PrepaymentEntry `json:"prepayments"`
}

// CalculationStore records finished calculations; save failures are
// logged, never surfaced to the borrower.
type CalculationStore interface {
	Save(ctx context.Context, rec repository.CalculationRecord) error
	ListRecent(ctx context.Context, userID int64, limit int) ([]repository.CalculationRecord, error)
}

// ResultCache holds serialized calculation results keyed by a request
// digest. *clients.RedisClient satisfies it.
type ResultCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

type LoanService struct {
	store CalculationStore
	cache ResultCache
}

func NewLoanService(store CalculationStore, cache ResultCache) *LoanService {
	return &LoanService{store: store, cache: cache}
}

// Validate checks the request against the service bounds. The engine
// has its own invariants; this boundary keeps absurd inputs out before
// any math runs.
func (r CalculationRequest) Validate() error {
	if r.Price < 0 || r.Deposit < 0 || r.Fee < 0 || r.Insurance < 0 || r.FeeTaxRate < 0 {
		return fmt.Errorf("amounts must be non-negative")
	}
	if r.Price > MaxPrincipal {
		return fmt.Errorf("price exceeds the maximum of %.0f", MaxPrincipal)
	}
	if r.AnnualRatePercent < 0 || r.AnnualRatePercent > MaxAnnualRatePercent {
		return fmt.Errorf("annual rate must be between 0 and %.0f%%", MaxAnnualRatePercent)
	}
	if r.TenurePeriods <= 0 || r.TenurePeriods > MaxTenurePeriods {
		return fmt.Errorf("tenure must be between 1 and %d periods", MaxTenurePeriods)
	}
	if !r.Frequency.Valid() {
		return fmt.Errorf("unknown frequency %q", r.Frequency)
	}
	if len(r.Prepayments) > MaxPrepayments {
		return fmt.Errorf("at most %d prepayments per request", MaxPrepayments)
	}
	for _, p := range r.Prepayments {
		if p.Period < 1 || p.Period > r.TenurePeriods {
			return fmt.Errorf("prepayment period %d outside tenure", p.Period)
		}
		if p.Amount < 0 {
			return fmt.Errorf("prepayment amount must be non-negative")
		}
	}
	return nil
}

func (r CalculationRequest) adjustments() domain.Adjustments {
	return domain.Adjustments{
		Deposit:       r.Deposit,
		Fee:           r.Fee,
		FeeTaxed:      r.FeeTaxed,
		FeeTaxRate:    r.FeeTaxRate,
		Insurance:     r.Insurance,
		InsuranceMode: r.InsuranceMode,
		FinanceFees:   r.FinanceFees,
	}
}

// principal derives the financed amount: sticker price minus deposit,
// plus the fee when the borrower chose to roll it into the loan.
func (r CalculationRequest) principal() float64 {
	p := r.Price - r.Deposit
	if r.FinanceFees {
		p += r.adjustments().FeeWithTax()
	}
	return p
}

// Calculate runs the engine end to end for one request. The result is
// a pure function of the request, so identical requests are answered
// from cache.
func (s *LoanService) Calculate(ctx context.Context, req CalculationRequest, userID int64) (domain.CalculationResult, error) {
	if err := req.Validate(); err != nil {
		return domain.CalculationResult{}, err
	}

	cacheKey := requestDigest(req)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached domain.CalculationResult
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return cached, nil
			}
		}
	}

	periodRate, periodCount, err := engine.ConvertRate(req.AnnualRatePercent, req.Frequency, req.TenurePeriods)
	if err != nil {
		return domain.CalculationResult{}, err
	}

	ledger, err := engine.NewLedgerFromEntries(req.Prepayments)
	if err != nil {
		return domain.CalculationResult{}, err
	}

	terms := domain.LoanTerms{
		Principal:         engine.Round2(req.principal()),
		AnnualRatePercent: req.AnnualRatePercent,
		TenurePeriods:     periodCount,
		Frequency:         req.Frequency,
		StartDate:         req.StartDate,
	}

	schedule := engine.GenerateSchedule(terms.Principal, periodRate, periodCount, ledger, terms.StartDate, terms.Frequency)

	summary, err := engine.Summarize(schedule, req.adjustments())
	if err != nil {
		return domain.CalculationResult{}, err
	}

	result := domain.CalculationResult{
		Terms:    terms,
		Schedule: schedule,
		Summary:  summary,
		Adjust:   req.adjustments(),
	}

	if s.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), resultCacheTTL); err != nil {
				log.Printf("[LOAN] result cache write failed: %v", err)
			}
		}
	}

	if s.store != nil {
		rec := repository.CalculationRecord{
			ID:        uuid.NewString(),
			UserID:    userID,
			Terms:     terms,
			Summary:   summary,
			CreatedAt: time.Now(),
		}
		if err := s.store.Save(ctx, rec); err != nil {
			log.Printf("[LOAN] failed to save calculation history: %v", err)
		}
	}

	return result, nil
}

// History returns the user's recent saved calculations, newest first.
func (s *LoanService) History(ctx context.Context, userID int64, limit int) ([]repository.CalculationRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListRecent(ctx, userID, limit)
}

// requestDigest builds a deterministic cache key from the request. The
// struct marshals with a fixed field order, so equal requests collapse
// to the same digest.
func requestDigest(req CalculationRequest) string {
	data, _ := json.Marshal(req)
	return fmt.Sprintf("calc:%x", sha256.Sum256(data))
}
