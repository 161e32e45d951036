package service

import "time"

const (
	MaxPrincipal         = 1_000_000_000.0
	MaxAnnualRatePercent = 100.0
	MaxTenurePeriods     = 600 // 50 years of monthly periods
	MaxPrepayments       = 120

	resultCacheTTL = 10 * time.Minute
)
