package ingest

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/catalog"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/external/yahoo"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

// defaultLinkWeight is the weight assigned when an instrument is first
// linked to its segment.
const defaultLinkWeight = 100

// Provider fetches daily bar history for one symbol.
type Provider interface {
	FetchHistory(ctx context.Context, symbol string, rng yahoo.HistoryRange) ([]contracts.RawBar, error)
}

// Store is the slice of the repository a refresh run needs.
type Store interface {
	GetOrCreateInstrument(ctx context.Context, symbol, name, country string) (int64, error)
	GetOrCreateSegment(ctx context.Context, name, description string) (int64, error)
	LinkInstrumentSegment(ctx context.Context, instrumentID, segmentID int64, weight float64) error
	AppendBars(ctx context.Context, instrumentID int64, bars []contracts.RawBar) (contracts.AppendResult, error)
	CountBarsByInstrument(ctx context.Context, instrumentID int64) (int64, error)
	BarDateRange(ctx context.Context) (first, last *time.Time, total int64, err error)
}

// BarSink receives the bars fetched for each instrument, in catalog order.
// It is optional and used for the CSV backup of a refresh run.
type BarSink interface {
	WriteInstrument(entry catalog.Entry, bars []contracts.RawBar) error
}

// Runner drives a full refresh: for every catalog entry it resolves the
// instrument and its segment, fetches the bar history and appends it to
// the store. A provider failure skips that instrument and the run
// continues; a store failure aborts the run.
type Runner struct {
	provider Provider
	store    Store
	logger   *logger.Logger
	sink     BarSink
}

// NewRunner creates a refresh runner.
func NewRunner(provider Provider, store Store, log *logger.Logger) *Runner {
	return &Runner{
		provider: provider,
		store:    store,
		logger:   log,
	}
}

// WithSink attaches a bar sink that mirrors every fetched batch.
func (r *Runner) WithSink(sink BarSink) *Runner {
	r.sink = sink
	return r
}

// Run executes a full refresh over the catalog and returns its summary.
// The returned error is non-nil only for store failures; per-instrument
// provider failures are recorded in the summary instead.
func (r *Runner) Run(ctx context.Context, cat *catalog.Catalog, rng yahoo.HistoryRange) (*contracts.RefreshSummary, error) {
	summary := &contracts.RefreshSummary{
		RunID:     uuid.NewString(),
		Period:    rng.String(),
		StartedAt: time.Now(),
	}

	r.logger.WithFields(map[string]interface{}{
		"run_id":      summary.RunID,
		"period":      summary.Period,
		"instruments": len(cat.Instruments),
	}).Info("Starting full refresh")

	segmentIDs, err := r.ensureSegments(ctx, cat)
	if err != nil {
		return summary, err
	}

	for _, entry := range cat.Instruments {
		report, err := r.refreshInstrument(ctx, entry, segmentIDs[entry.Segment], rng)
		summary.Instruments = append(summary.Instruments, report)
		if err != nil {
			summary.FinishedAt = time.Now()
			return summary, err
		}
	}

	first, last, total, err := r.store.BarDateRange(ctx)
	if err != nil {
		return summary, err
	}
	summary.FirstDate = first
	summary.LastDate = last
	summary.TotalBars = total
	summary.FinishedAt = time.Now()

	r.logger.WithFields(map[string]interface{}{
		"run_id":     summary.RunID,
		"inserted":   summary.TotalInserted(),
		"duplicates": summary.TotalDuplicates(),
		"failed":     summary.TotalFailed(),
		"total_bars": summary.TotalBars,
		"duration":   summary.FinishedAt.Sub(summary.StartedAt).String(),
	}).Info("Full refresh completed")

	return summary, nil
}

// ensureSegments gets or creates every catalog segment up front, so a
// provider outage for one instrument never leaves its segment missing.
func (r *Runner) ensureSegments(ctx context.Context, cat *catalog.Catalog) (map[string]int64, error) {
	names := make([]string, 0, len(cat.Segments))
	for name := range cat.Segments {
		names = append(names, name)
	}
	sort.Strings(names)

	ids := make(map[string]int64, len(names))
	for _, name := range names {
		id, err := r.store.GetOrCreateSegment(ctx, name, cat.Segments[name])
		if err != nil {
			return nil, fmt.Errorf("ensure segment %s: %w", name, err)
		}
		ids[name] = id
	}
	return ids, nil
}

func (r *Runner) refreshInstrument(ctx context.Context, entry catalog.Entry, segmentID int64, rng yahoo.HistoryRange) (contracts.InstrumentReport, error) {
	report := contracts.InstrumentReport{Symbol: entry.Symbol}

	instrumentID, err := r.store.GetOrCreateInstrument(ctx, entry.Symbol, entry.Name, entry.Country)
	if err != nil {
		return report, err
	}
	report.InstrumentID = instrumentID

	if err := r.store.LinkInstrumentSegment(ctx, instrumentID, segmentID, defaultLinkWeight); err != nil {
		// Linking is best effort: the bars are still worth keeping.
		r.logger.WithError(err).WithField("symbol", entry.Symbol).Warn("Failed to link instrument to segment")
	}

	bars, err := r.provider.FetchHistory(ctx, entry.Symbol, rng)
	if err != nil {
		report.Error = err.Error()
		r.logger.WithError(err).WithField("symbol", entry.Symbol).Error("Provider fetch failed, skipping instrument")
		return report, nil
	}
	report.Fetched = len(bars)
	if len(bars) == 0 {
		r.logger.WithField("symbol", entry.Symbol).Warn("Provider returned no bars")
		return report, nil
	}

	result, err := r.store.AppendBars(ctx, instrumentID, bars)
	if err != nil {
		report.Error = err.Error()
		return report, err
	}
	report.Inserted = result.Inserted
	report.Duplicates = result.Duplicates
	report.Failed = result.Failed

	stored, err := r.store.CountBarsByInstrument(ctx, instrumentID)
	if err != nil {
		return report, err
	}
	report.StoredBars = stored

	if r.sink != nil {
		if err := r.sink.WriteInstrument(entry, bars); err != nil {
			r.logger.WithError(err).WithField("symbol", entry.Symbol).Warn("Failed to mirror bars to sink")
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"symbol":     entry.Symbol,
		"fetched":    report.Fetched,
		"inserted":   report.Inserted,
		"duplicates": report.Duplicates,
		"failed":     report.Failed,
	}).Info("Instrument refreshed")

	return report, nil
}
