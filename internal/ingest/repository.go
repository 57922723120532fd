package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// Repository is the write side of the price store.
type Repository struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewRepository creates a new ingest repository.
func NewRepository(pool *pgxpool.Pool, log *logger.Logger) *Repository {
	return &Repository{
		pool:   pool,
		logger: log,
	}
}

// GetOrCreateInstrument returns the id of the instrument with the given
// symbol, creating it when absent. The insert races safely: the first
// writer wins and every caller observes the same id afterwards.
func (r *Repository) GetOrCreateInstrument(ctx context.Context, symbol, name, country string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO instruments (symbol, name, country)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (symbol) DO NOTHING
		 RETURNING id`,
		symbol, name, country,
	).Scan(&id)
	if err == nil {
		r.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"id":     id,
		}).Debug("Instrument created")
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to create instrument %s: %w", symbol, err)
	}

	// Conflict path: the row already exists, fetch its id.
	err = r.pool.QueryRow(ctx,
		`SELECT id FROM instruments WHERE symbol = $1`, symbol,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up instrument %s: %w", symbol, err)
	}
	return id, nil
}

// GetOrCreateSegment returns the id of the segment with the given name,
// creating it when absent.
func (r *Repository) GetOrCreateSegment(ctx context.Context, name, description string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO segments (name, description)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING
		 RETURNING id`,
		name, description,
	).Scan(&id)
	if err == nil {
		r.logger.WithFields(map[string]interface{}{
			"segment": name,
			"id":      id,
		}).Debug("Segment created")
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to create segment %s: %w", name, err)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT id FROM segments WHERE name = $1`, name,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to look up segment %s: %w", name, err)
	}
	return id, nil
}

// LinkInstrumentSegment associates an instrument with a segment. Re-linking
// an existing pair is a no-op and keeps the original weight.
func (r *Repository) LinkInstrumentSegment(ctx context.Context, instrumentID, segmentID int64, weight float64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO instrument_segments (instrument_id, segment_id, weight)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (instrument_id, segment_id) DO NOTHING`,
		instrumentID, segmentID, weight,
	)
	if err != nil {
		return fmt.Errorf("failed to link instrument %d to segment %d: %w", instrumentID, segmentID, err)
	}
	return nil
}

// AppendBars inserts daily bars for one instrument. Bars whose
// (instrument_id, trade_date) already exists are left untouched and counted
// as duplicates. Bars that fail validation are skipped and counted as
// failed. A store error aborts the whole batch.
func (r *Repository) AppendBars(ctx context.Context, instrumentID int64, bars []contracts.RawBar) (contracts.AppendResult, error) {
	var result contracts.AppendResult
	if len(bars) == 0 {
		return result, nil
	}

	batch := &pgx.Batch{}
	queued := 0
	for _, bar := range bars {
		if err := bar.Validate(); err != nil {
			result.Failed++
			r.logger.WithFields(map[string]interface{}{
				"instrument_id": instrumentID,
				"trade_date":    bar.Date.Format("2006-01-02"),
				"error":         err.Error(),
			}).Warn("Skipping invalid bar")
			continue
		}
		batch.Queue(
			`INSERT INTO price_bars (instrument_id, trade_date, open, high, low, close, adj_close, volume)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 ON CONFLICT (instrument_id, trade_date) DO NOTHING`,
			instrumentID, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.AdjClose, bar.Volume,
		)
		queued++
	}
	if queued == 0 {
		return result, nil
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < queued; i++ {
		tag, err := br.Exec()
		if err != nil {
			return result, fmt.Errorf("failed to insert price bars for instrument %d: %w", instrumentID, err)
		}
		if tag.RowsAffected() > 0 {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}
	return result, nil
}

// BarsByInstrument returns the stored bars for an instrument in trade
// date order.
func (r *Repository) BarsByInstrument(ctx context.Context, instrumentID int64) ([]contracts.PriceBar, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT pb.instrument_id, i.symbol, pb.trade_date,
		        pb.open, pb.high, pb.low, pb.close, pb.adj_close, pb.volume,
		        pb.inserted_at
		 FROM price_bars pb
		 JOIN instruments i ON i.id = pb.instrument_id
		 WHERE pb.instrument_id = $1
		 ORDER BY pb.trade_date`,
		instrumentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load bars for instrument %d: %w", instrumentID, err)
	}
	defer rows.Close()

	var bars []contracts.PriceBar
	for rows.Next() {
		var b contracts.PriceBar
		err := rows.Scan(&b.InstrumentID, &b.Symbol, &b.TradeDate,
			&b.Open, &b.High, &b.Low, &b.Close, &b.AdjClose, &b.Volume,
			&b.InsertedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bar row: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// CountBarsByInstrument returns how many bars are stored for an instrument.
func (r *Repository) CountBarsByInstrument(ctx context.Context, instrumentID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM price_bars WHERE instrument_id = $1`, instrumentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bars for instrument %d: %w", instrumentID, err)
	}
	return count, nil
}

// BarDateRange returns the earliest and latest trade dates in the store and
// the total number of bars. Both dates are nil when the store is empty.
func (r *Repository) BarDateRange(ctx context.Context) (first, last *time.Time, total int64, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT MIN(trade_date), MAX(trade_date), COUNT(*) FROM price_bars`,
	).Scan(&first, &last, &total)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to read bar date range: %w", err)
	}
	return first, last, total, nil
}

// DeactivateInstrument marks an instrument inactive without touching its bars.
func (r *Repository) DeactivateInstrument(ctx context.Context, symbol string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE instruments SET active = FALSE WHERE symbol = $1`, symbol,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate instrument %s: %w", symbol, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("instrument %s not found", symbol)
	}
	return nil
}
