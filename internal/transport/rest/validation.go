package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"loanwise/internal/domain"
	"loanwise/internal/service"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// rawCalculationRequest tolerates the loose typing web clients send:
// numbers arrive as strings, dates as "2006-01-02" strings.
type rawCalculationRequest struct {
	Price             interface{}     `json:"price"`
	Deposit           interface{}     `json:"deposit"`
	AnnualRatePercent interface{}     `json:"annual_rate_percent"`
	TenurePeriods     interface{}     `json:"tenure_periods"`
	Frequency         string          `json:"frequency"`
	StartDate         interface{}     `json:"start_date"`
	Fee               interface{}     `json:"fee"`
	FeeTaxed          bool            `json:"fee_taxed"`
	FeeTaxRate        interface{}     `json:"fee_tax_rate"`
	FinanceFees       bool            `json:"finance_fees"`
	Insurance         interface{}     `json:"insurance"`
	InsuranceMode     string          `json:"insurance_mode"`
	Prepayments       []rawPrepayment `json:"prepayments"`
}

type rawPrepayment struct {
	Period interface{} `json:"period"`
	Amount interface{} `json:"amount"`
}

type rawScheduleExportRequest struct {
	Fields []string `json:"fields"`
	Format string   `json:"format"`
	rawCalculationRequest
}

func ValidateCalculationRequest(r *http.Request) (*service.CalculationRequest, error) {
	var raw rawCalculationRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}
	return buildCalculationRequest(raw)
}

// ScheduleExportRequest carries the loan terms plus the export layout.
type ScheduleExportRequest struct {
	Fields []string
	Format string
	Calc   service.CalculationRequest
}

func ValidateScheduleExportRequest(r *http.Request) (*ScheduleExportRequest, error) {
	var raw rawScheduleExportRequest
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil && err != io.EOF {
		return nil, err
	}

	calc, err := buildCalculationRequest(raw.rawCalculationRequest)
	if err != nil {
		return nil, err
	}

	return &ScheduleExportRequest{
		Fields: raw.Fields,
		Format: raw.Format,
		Calc:   *calc,
	}, nil
}

func buildCalculationRequest(raw rawCalculationRequest) (*service.CalculationRequest, error) {
	price, err := toFloat(raw.Price, 0)
	if err != nil {
		return nil, &ValidationError{Field: "price", Message: "price must be a number"}
	}
	deposit, err := toFloat(raw.Deposit, 0)
	if err != nil {
		return nil, &ValidationError{Field: "deposit", Message: "deposit must be a number"}
	}
	rate, err := toFloat(raw.AnnualRatePercent, 0)
	if err != nil {
		return nil, &ValidationError{Field: "annual_rate_percent", Message: "annual_rate_percent must be a number"}
	}
	tenure, err := toInt(raw.TenurePeriods, 0)
	if err != nil {
		return nil, &ValidationError{Field: "tenure_periods", Message: "tenure_periods must be an integer"}
	}
	fee, err := toFloat(raw.Fee, 0)
	if err != nil {
		return nil, &ValidationError{Field: "fee", Message: "fee must be a number"}
	}
	feeTaxRate, err := toFloat(raw.FeeTaxRate, domain.DefaultFeeTaxRate)
	if err != nil {
		return nil, &ValidationError{Field: "fee_tax_rate", Message: "fee_tax_rate must be a number"}
	}
	insurance, err := toFloat(raw.Insurance, 0)
	if err != nil {
		return nil, &ValidationError{Field: "insurance", Message: "insurance must be a number"}
	}

	startDate, err := toDate(raw.StartDate)
	if err != nil {
		return nil, &ValidationError{Field: "start_date", Message: "start_date must be YYYY-MM-DD or empty"}
	}
	if startDate.IsZero() {
		startDate = time.Now().UTC().Truncate(24 * time.Hour)
	}

	frequency := domain.Frequency(raw.Frequency)
	if raw.Frequency == "" {
		frequency = domain.Monthly
	}
	if !frequency.Valid() {
		return nil, &ValidationError{Field: "frequency", Message: "frequency must be monthly, quarterly or yearly"}
	}

	insuranceMode := domain.InsuranceMode(raw.InsuranceMode)
	if raw.InsuranceMode == "" {
		insuranceMode = domain.InsuranceOnce
	}
	if !insuranceMode.Valid() {
		return nil, &ValidationError{Field: "insurance_mode", Message: "insurance_mode must be once or per_period"}
	}

	var prepayments []domain.PrepaymentEntry
	for _, p := range raw.Prepayments {
		period, err := toInt(p.Period, 0)
		if err != nil || period < 1 {
			return nil, &ValidationError{Field: "prepayments", Message: "prepayment period must be a positive integer"}
		}
		amount, err := toFloat(p.Amount, 0)
		if err != nil {
			return nil, &ValidationError{Field: "prepayments", Message: "prepayment amount must be a number"}
		}
		prepayments = append(prepayments, domain.PrepaymentEntry{Period: period, Amount: amount})
	}

	return &service.CalculationRequest{
		Price:             price,
		Deposit:           deposit,
		AnnualRatePercent: rate,
		TenurePeriods:     tenure,
		Frequency:         frequency,
		StartDate:         startDate,
		Fee:               fee,
		FeeTaxed:          raw.FeeTaxed,
		FeeTaxRate:        feeTaxRate,
		FinanceFees:       raw.FinanceFees,
		Insurance:         insurance,
		InsuranceMode:     insuranceMode,
		Prepayments:       prepayments,
	}, nil
}

func toFloat(v interface{}, def float64) (float64, error) {
	switch t := v.(type) {
	case nil:
		return def, nil
	case float64:
		return t, nil
	case string:
		if t == "" {
			return def, nil
		}
		return strconv.ParseFloat(t, 64)
	default:
		return 0, &ValidationError{Message: "invalid type for number field"}
	}
}

func toInt(v interface{}, def int) (int, error) {
	switch t := v.(type) {
	case nil:
		return def, nil
	case float64:
		return int(t), nil
	case string:
		if t == "" {
			return def, nil
		}
		i, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, err
		}
		return int(i), nil
	default:
		return 0, &ValidationError{Message: "invalid type for int field"}
	}
}

func toDate(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, nil
	case string:
		if t == "" {
			return time.Time{}, nil
		}
		return time.Parse("2006-01-02", t)
	default:
		return time.Time{}, &ValidationError{Message: "invalid type for date field"}
	}
}
