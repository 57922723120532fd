package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
)

// SegmentSummary is one row of the segment listing.
type SegmentSummary struct {
	contracts.Segment
	InstrumentCount int `json:"instrument_count"`
}

// InstrumentInfo is one instrument within a segment detail view.
type InstrumentInfo struct {
	ID       int64  `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	BarCount int64  `json:"bar_count"`
}

// ChartPoint is one day of an instrument close series. Missing closes
// are rendered as 0 so every series stays aligned with its dates.
type ChartPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// InstrumentSeries is the chart series for one instrument.
type InstrumentSeries struct {
	Symbol string       `json:"symbol"`
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

// SegmentReader serves the read-side segment queries behind the API.
type SegmentReader struct {
	pool *pgxpool.Pool
}

// NewSegmentReader creates a segment reader.
func NewSegmentReader(pool *pgxpool.Pool) *SegmentReader {
	return &SegmentReader{pool: pool}
}

// ListActiveSegments returns all active segments with their linked
// instrument counts, ordered by name.
func (r *SegmentReader) ListActiveSegments(ctx context.Context) ([]SegmentSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.name, s.description, s.created_at, s.active,
		        COUNT(link.id) AS instrument_count
		 FROM segments s
		 LEFT JOIN instrument_segments link ON link.segment_id = s.id
		 WHERE s.active = TRUE
		 GROUP BY s.id
		 ORDER BY s.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list segments: %w", err)
	}
	defer rows.Close()

	var segments []SegmentSummary
	for rows.Next() {
		var s SegmentSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.Active, &s.InstrumentCount); err != nil {
			return nil, fmt.Errorf("failed to scan segment row: %w", err)
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}

// GetSegment returns one segment by id, or (nil, nil) when it does not
// exist.
func (r *SegmentReader) GetSegment(ctx context.Context, segmentID int64) (*contracts.Segment, error) {
	var s contracts.Segment
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, created_at, active
		 FROM segments WHERE id = $1`,
		segmentID,
	).Scan(&s.ID, &s.Name, &s.Description, &s.CreatedAt, &s.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load segment %d: %w", segmentID, err)
	}
	return &s, nil
}

// SegmentInstruments returns the active instruments linked to a segment
// with their stored bar counts.
func (r *SegmentReader) SegmentInstruments(ctx context.Context, segmentID int64) ([]InstrumentInfo, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT i.id, i.symbol, i.name, i.country, COUNT(pb.id) AS bar_count
		 FROM instruments i
		 JOIN instrument_segments link ON link.instrument_id = i.id
		 LEFT JOIN price_bars pb ON pb.instrument_id = i.id
		 WHERE link.segment_id = $1 AND i.active = TRUE
		 GROUP BY i.id
		 ORDER BY i.symbol`,
		segmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list instruments for segment %d: %w", segmentID, err)
	}
	defer rows.Close()

	var instruments []InstrumentInfo
	for rows.Next() {
		var info InstrumentInfo
		if err := rows.Scan(&info.ID, &info.Symbol, &info.Name, &info.Country, &info.BarCount); err != nil {
			return nil, fmt.Errorf("failed to scan instrument row: %w", err)
		}
		instruments = append(instruments, info)
	}
	return instruments, rows.Err()
}

// ChartSeries returns per-instrument close series for the trailing
// windowDays, suitable for plotting.
func (r *SegmentReader) ChartSeries(ctx context.Context, segmentID int64, windowDays int) ([]InstrumentSeries, error) {
	since := time.Now().AddDate(0, 0, -windowDays)

	rows, err := r.pool.Query(ctx,
		`SELECT i.symbol, i.name, pb.trade_date, pb.close
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
		return nil, fmt.Errorf("failed to load chart series for segment %d: %w", segmentID, err)
	}
	defer rows.Close()

	var series []InstrumentSeries
	for rows.Next() {
		var symbol, name string
		var date time.Time
		var close *float64
		if err := rows.Scan(&symbol, &name, &date, &close); err != nil {
			return nil, fmt.Errorf("failed to scan chart row: %w", err)
		}

		if len(series) == 0 || series[len(series)-1].Symbol != symbol {
			series = append(series, InstrumentSeries{Symbol: symbol, Name: name})
		}
		point := ChartPoint{Date: date.Format("2006-01-02")}
		if close != nil {
			point.Close = *close
		}
		last := &series[len(series)-1]
		last.Points = append(last.Points, point)
	}
	return series, rows.Err()
}
