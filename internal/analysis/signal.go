package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
)

// Classification thresholds and multipliers. These are fixed constants of
// the signal model, not tunables.
const (
	buyReturnThreshold  = 2.0
	sellReturnThreshold = -1.0
	buyMultiplier       = 1.5
	sellMultiplier      = 0.8

	lowVolatilityBound    = 2.0
	mediumVolatilityBound = 5.0

	lowRiskConfidence    = 0.85
	mediumRiskConfidence = 0.70
	highRiskConfidence   = 0.55
)

// GenerateOpportunities maps segment metrics to advisory opportunities.
// It is pure: no store access, no clock reads beyond the supplied now.
// A nil metrics input yields an empty result, never an error.
func GenerateOpportunities(segmentID int64, metrics *contracts.SegmentMetrics, now time.Time) []contracts.Opportunity {
	if metrics == nil {
		return []contracts.Opportunity{}
	}

	kind, potential := classifyReturn(metrics.MeanReturn)
	risk, confidence := classifyRisk(metrics.MeanVolatility)

	return []contracts.Opportunity{{
		SegmentID:          segmentID,
		Title:              "Segment opportunity",
		Description:        fmt.Sprintf("Analysis based on %d days of price history", metrics.WindowDays),
		Kind:               kind,
		PotentialReturnPct: potential,
		RiskTier:           risk,
		Confidence:         confidence,
		AnalysisDate:       now,
		Active:             true,
		Metrics:            metrics,
	}}
}

// classifyReturn picks the signal kind and its potential return. Both
// thresholds are strict: a mean return of exactly 2 or -1 holds.
func classifyReturn(meanReturn float64) (contracts.OpportunityKind, float64) {
	switch {
	case meanReturn > buyReturnThreshold:
		return contracts.KindBuy, meanReturn * buyMultiplier
	case meanReturn < sellReturnThreshold:
		return contracts.KindSell, math.Abs(meanReturn) * sellMultiplier
	default:
		return contracts.KindHold, meanReturn
	}
}

// classifyRisk maps volatility to a risk tier. The boundary value 5
// belongs to the upper tier.
func classifyRisk(volatility float64) (contracts.RiskTier, float64) {
	switch {
	case volatility < lowVolatilityBound:
		return contracts.RiskLow, lowRiskConfidence
	case volatility < mediumVolatilityBound:
		return contracts.RiskMedium, mediumRiskConfidence
	default:
		return contracts.RiskHigh, highRiskConfidence
	}
}
