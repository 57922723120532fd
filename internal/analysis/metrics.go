package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// Engine computes trailing-window statistics over stored bars.
type Engine struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewEngine creates a metrics engine.
func NewEngine(pool *pgxpool.Pool, log *logger.Logger) *Engine {
	return &Engine{
		pool:   pool,
		logger: log,
	}
}

// barPoint is one (instrument, day) observation. Close and Volume keep
// their store NULLs as nil.
type barPoint struct {
	Symbol string
	Date   time.Time
	Close  *float64
	Volume *int64
}

// SegmentMetrics aggregates the trailing windowDays of bars across every
// instrument linked to the segment. It returns (nil, nil) when the segment
// has no bars in the window.
func (e *Engine) SegmentMetrics(ctx context.Context, segmentID int64, windowDays int) (*contracts.SegmentMetrics, error) {
	points, err := e.segmentBars(ctx, segmentID, windowDays)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	metrics := computeMetrics(points)
	metrics.SegmentID = segmentID
	metrics.WindowDays = windowDays
	metrics.ComputedAt = time.Now()

	e.logger.WithFields(map[string]interface{}{
		"segment_id":  segmentID,
		"window_days": windowDays,
		"bar_count":   metrics.BarCount,
		"mean_return": metrics.MeanReturn,
	}).Debug("Segment metrics computed")

	return metrics, nil
}

// segmentBars loads the window of bars for a segment ordered by symbol
// then trade date, so per-instrument return series can be walked in one
// pass.
func (e *Engine) segmentBars(ctx context.Context, segmentID int64, windowDays int) ([]barPoint, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	rows, err := e.pool.Query(ctx,
		`SELECT i.symbol, pb.trade_date, pb.close, pb.volume
		 FROM price_bars pb
		 JOIN instruments i ON i.id = pb.instrument_id
		 JOIN instrument_segments link ON link.instrument_id = i.id
		 WHERE link.segment_id = $1
		   AND i.active = TRUE
		   AND pb.trade_date >= $2
		 ORDER BY i.symbol, pb.trade_date`,
		segmentID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load bars for segment %d: %w", segmentID, err)
	}
	defer rows.Close()

	var points []barPoint
	for rows.Next() {
		var p barPoint
		if err := rows.Scan(&p.Symbol, &p.Date, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan bar row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bars for segment %d: %w", segmentID, err)
	}
	return points, nil
}

// computeMetrics aggregates a non-empty window of bar points. Missing
// closes count as 0 toward the price extremes, but never produce a
// return: a day whose prior close is 0 or missing has no defined return
// and is excluded from the mean and volatility.
func computeMetrics(points []barPoint) *contracts.SegmentMetrics {
	metrics := &contracts.SegmentMetrics{
		BarCount: len(points),
		MaxClose: math.Inf(-1),
		MinClose: math.Inf(1),
	}

	returns := dailyReturns(points)
	metrics.MeanReturn = mean(returns)
	metrics.MeanVolatility = sampleStdDev(returns, metrics.MeanReturn)

	for _, p := range points {
		close := 0.0
		if p.Close != nil {
			close = *p.Close
		}
		metrics.MaxClose = math.Max(metrics.MaxClose, close)
		metrics.MinClose = math.Min(metrics.MinClose, close)
		if p.Volume != nil {
			metrics.TotalVolume += *p.Volume
		}
	}

	return metrics
}

// dailyReturns computes percent day-over-day returns per instrument.
// Points must be ordered by symbol then date.
func dailyReturns(points []barPoint) []float64 {
	var returns []float64
	var prevSymbol string
	var prevClose float64

	for _, p := range points {
		close := 0.0
		if p.Close != nil {
			close = *p.Close
		}
		if p.Symbol == prevSymbol && prevClose != 0 {
			returns = append(returns, (close-prevClose)/prevClose*100)
		}
		prevSymbol = p.Symbol
		prevClose = close
	}
	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the standard deviation with n-1 in the denominator,
// 0 when fewer than two values are defined.
func sampleStdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
