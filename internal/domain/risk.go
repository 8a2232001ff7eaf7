package domain

import "fmt"

// RiskLevel classifies a similarity score into a reporting band.
type RiskLevel string

const (
	// RiskLow covers scores in [0, medium].
	RiskLow RiskLevel = "low"
	// RiskMedium covers scores in (medium, high].
	RiskMedium RiskLevel = "medium"
	// RiskHigh covers scores in (high, 1].
	RiskHigh RiskLevel = "high"
)

// RiskBands holds the banding thresholds. The three bands form a total,
// non-overlapping partition of [0,1].
type RiskBands struct {
	High   float64
	Medium float64
}

// DefaultRiskBands returns the stock thresholds: high above 0.70,
// medium above 0.40.
func DefaultRiskBands() RiskBands {
	return RiskBands{High: 0.70, Medium: 0.40}
}

// Validate checks that 0 <= medium < high <= 1.
func (b RiskBands) Validate() error {
	if b.Medium < 0 || b.High > 1 || b.Medium >= b.High {
		return fmt.Errorf("risk bands must satisfy 0 <= medium < high <= 1, got medium=%g high=%g", b.Medium, b.High)
	}
	return nil
}

// Classify maps a score to exactly one band.
func (b RiskBands) Classify(score float64) RiskLevel {
	switch {
	case score > b.High:
		return RiskHigh
	case score > b.Medium:
		return RiskMedium
	default:
		return RiskLow
	}
}
