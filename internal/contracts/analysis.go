package contracts

import "time"

// SegmentMetrics aggregates trailing-window return and volatility
// statistics across every instrument linked to a segment. Percentages
// are plain floats: 2.5 means 2.5%.
type SegmentMetrics struct {
	SegmentID      int64     `json:"segment_id"`
	WindowDays     int       `json:"window_days"`
	MeanReturn     float64   `json:"mean_return"`
	MeanVolatility float64   `json:"mean_volatility"`
	MaxClose       float64   `json:"max_close"`
	MinClose       float64   `json:"min_close"`
	TotalVolume    int64     `json:"total_volume"`
	BarCount       int       `json:"bar_count"`
	ComputedAt     time.Time `json:"computed_at"`
}

// OpportunityKind classifies the advisory signal.
type OpportunityKind string

const (
	KindBuy  OpportunityKind = "BUY"
	KindSell OpportunityKind = "SELL"
	KindHold OpportunityKind = "HOLD"
)

// RiskTier classifies volatility into a discrete risk level.
type RiskTier string

const (
	RiskLow    RiskTier = "LOW"
	RiskMedium RiskTier = "MEDIUM"
	RiskHigh   RiskTier = "HIGH"
)

// Opportunity is an advisory classification derived from segment
// metrics. It is not an order.
type Opportunity struct {
	ID                 int64           `json:"id,omitempty"`
	SegmentID          int64           `json:"segment_id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Kind               OpportunityKind `json:"kind"`
	PredictedPrice     *float64        `json:"predicted_price,omitempty"`
	PotentialReturnPct float64         `json:"potential_return_pct"`
	RiskTier           RiskTier        `json:"risk_tier"`
	Confidence         float64         `json:"confidence"`
	AnalysisDate       time.Time       `json:"analysis_date"`
	CreatedAt          time.Time       `json:"created_at,omitempty"`
	Active             bool            `json:"active"`
	Metrics            *SegmentMetrics `json:"metrics,omitempty"`
}

// IsActionable reports whether the opportunity suggests a position
// change rather than holding.
func (o Opportunity) IsActionable() bool {
	return o.Kind == KindBuy || o.Kind == KindSell
}
