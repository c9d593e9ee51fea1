// internal/domain/status.go
package domain

import "math"

// StockStatus classifies a SKU's days-of-cover against a target.
type StockStatus string

const (
	StatusCritical   StockStatus = "critical"
	StatusUnderstock StockStatus = "understock"
	StatusBalanced   StockStatus = "balanced"
	StatusOverstock  StockStatus = "overstock"
)

// ClassifyCover applies the target-ratio policy: the status depends on the
// ratio of days-of-cover to the location's target days-of-cover.
//
//	ratio < 0.5  -> critical
//	ratio < 1.0  -> understock
//	ratio <= 2.0 -> balanced
//	otherwise    -> overstock
//
// Infinite cover (stock with no measured demand) is always overstock.
func ClassifyCover(daysOfCover, targetDays float64) StockStatus {
	if math.IsInf(daysOfCover, 1) {
		return StatusOverstock
	}
	if targetDays <= 0 {
		targetDays = 30
	}

	ratio := daysOfCover / targetDays
	switch {
	case ratio < 0.5:
		return StatusCritical
	case ratio < 1.0:
		return StatusUnderstock
	case ratio <= 2.0:
		return StatusBalanced
	default:
		return StatusOverstock
	}
}
