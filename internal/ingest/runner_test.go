package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/catalog"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/external/yahoo"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/config"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/pkg/logger"
)

type fakeProvider struct {
	bars map[string][]contracts.RawBar
	errs map[string]error
}

func (p *fakeProvider) FetchHistory(_ context.Context, symbol string, _ yahoo.HistoryRange) ([]contracts.RawBar, error) {
	if err, ok := p.errs[symbol]; ok {
		return nil, err
	}
	return p.bars[symbol], nil
}

// fakeStore mirrors the repository contract: duplicate (instrument, date)
// pairs are skipped, invalid bars are counted as failed.
type fakeStore struct {
	nextID      int64
	instruments map[string]int64
	segments    map[string]int64
	links       map[string]bool
	bars        map[int64]map[string]contracts.RawBar
	appendErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		instruments: make(map[string]int64),
		segments:    make(map[string]int64),
		links:       make(map[string]bool),
		bars:        make(map[int64]map[string]contracts.RawBar),
	}
}

func (s *fakeStore) GetOrCreateInstrument(_ context.Context, symbol, _, _ string) (int64, error) {
	if id, ok := s.instruments[symbol]; ok {
		return id, nil
	}
	s.nextID++
	s.instruments[symbol] = s.nextID
	return s.nextID, nil
}

func (s *fakeStore) GetOrCreateSegment(_ context.Context, name, _ string) (int64, error) {
	if id, ok := s.segments[name]; ok {
		return id, nil
	}
	s.nextID++
	s.segments[name] = s.nextID
	return s.nextID, nil
}

func (s *fakeStore) LinkInstrumentSegment(_ context.Context, instrumentID, segmentID int64, _ float64) error {
	s.links[fmt.Sprintf("%d:%d", instrumentID, segmentID)] = true
	return nil
}

func (s *fakeStore) AppendBars(_ context.Context, instrumentID int64, bars []contracts.RawBar) (contracts.AppendResult, error) {
	if s.appendErr != nil {
		return contracts.AppendResult{}, s.appendErr
	}
	stored, ok := s.bars[instrumentID]
	if !ok {
		stored = make(map[string]contracts.RawBar)
		s.bars[instrumentID] = stored
	}
	var result contracts.AppendResult
	for _, bar := range bars {
		if err := bar.Validate(); err != nil {
			result.Failed++
			continue
		}
		key := bar.Date.Format("2006-01-02")
		if _, exists := stored[key]; exists {
			result.Duplicates++
			continue
		}
		stored[key] = bar
		result.Inserted++
	}
	return result, nil
}

func (s *fakeStore) CountBarsByInstrument(_ context.Context, instrumentID int64) (int64, error) {
	return int64(len(s.bars[instrumentID])), nil
}

func (s *fakeStore) BarDateRange(_ context.Context) (*time.Time, *time.Time, int64, error) {
	var first, last *time.Time
	var total int64
	for _, stored := range s.bars {
		for _, bar := range stored {
			d := bar.Date
			if first == nil || d.Before(*first) {
				first = &d
			}
			if last == nil || d.After(*last) {
				last = &d
			}
			total++
		}
	}
	return first, last, total, nil
}

func testBar(date string, close float64) contracts.RawBar {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return contracts.RawBar{Date: d, Close: &close}
}

func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Segments: map[string]string{
			"US Indexes":    "Broad US market indexes",
			"Latin America": "Latin American market exposure",
		},
		Instruments: []catalog.Entry{
			{Symbol: "^GSPC", Name: "S&P 500", Country: "USA", Segment: "US Indexes"},
			{Symbol: "^DJI", Name: "Dow Jones", Country: "USA", Segment: "US Indexes"},
			{Symbol: "EWZ", Name: "Brazil ETF", Country: "Brazil", Segment: "Latin America"},
		},
	}
}

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json", Env: "test"})
}

func TestRunner_FullRefresh(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]contracts.RawBar{
			"^GSPC": {testBar("2024-01-02", 4742.83), testBar("2024-01-03", 4704.81)},
			"^DJI":  {testBar("2024-01-02", 37715.04)},
			"EWZ":   {testBar("2024-01-02", 33.12), testBar("2024-01-03", 32.95)},
		},
	}
	store := newFakeStore()
	runner := NewRunner(provider, store, testLogger())

	summary, err := runner.Run(context.Background(), testCatalog(), yahoo.Period("2y"))
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "2y", summary.Period)
	assert.Len(t, summary.Instruments, 3)
	assert.Equal(t, 5, summary.TotalInserted())
	assert.Equal(t, 0, summary.TotalDuplicates())
	assert.Equal(t, int64(5), summary.TotalBars)
	assert.Empty(t, summary.FailedInstruments())

	require.NotNil(t, summary.FirstDate)
	require.NotNil(t, summary.LastDate)
	assert.Equal(t, "2024-01-02", summary.FirstDate.Format("2006-01-02"))
	assert.Equal(t, "2024-01-03", summary.LastDate.Format("2006-01-02"))

	// Both segments exist and every instrument is linked.
	assert.Len(t, store.segments, 2)
	assert.Len(t, store.links, 3)
}

func TestRunner_SecondRunOnlyDuplicates(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]contracts.RawBar{
			"^GSPC": {testBar("2024-01-02", 4742.83), testBar("2024-01-03", 4704.81)},
			"^DJI":  {testBar("2024-01-02", 37715.04)},
			"EWZ":   {testBar("2024-01-02", 33.12)},
		},
	}
	store := newFakeStore()
	runner := NewRunner(provider, store, testLogger())

	first, err := runner.Run(context.Background(), testCatalog(), yahoo.Period("2y"))
	require.NoError(t, err)
	second, err := runner.Run(context.Background(), testCatalog(), yahoo.Period("2y"))
	require.NoError(t, err)

	assert.Equal(t, 4, first.TotalInserted())
	assert.Equal(t, 0, second.TotalInserted())
	assert.Equal(t, first.TotalInserted(), second.TotalDuplicates())
	assert.Equal(t, first.TotalBars, second.TotalBars)
}

func TestRunner_ProviderFailureSkipsInstrument(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]contracts.RawBar{
			"^GSPC": {testBar("2024-01-02", 4742.83)},
			"EWZ":   {testBar("2024-01-02", 33.12)},
		},
		errs: map[string]error{
			"^DJI": errors.New("provider returned status 500"),
		},
	}
	store := newFakeStore()
	runner := NewRunner(provider, store, testLogger())

	summary, err := runner.Run(context.Background(), testCatalog(), yahoo.Period("1y"))
	require.NoError(t, err)

	assert.Equal(t, []string{"^DJI"}, summary.FailedInstruments())
	assert.Equal(t, 2, summary.TotalInserted())

	// The failing instrument still exists and is linked to its segment.
	assert.Contains(t, store.instruments, "^DJI")
	assert.Len(t, store.links, 3)
}

func TestRunner_InvalidBarsCountedAsFailed(t *testing.T) {
	badVolume := int64(-10)
	invalid := contracts.RawBar{Volume: &badVolume} // no date either
	provider := &fakeProvider{
		bars: map[string][]contracts.RawBar{
			"^GSPC": {testBar("2024-01-02", 4742.83), invalid},
			"^DJI":  {testBar("2024-01-02", 37715.04)},
			"EWZ":   {testBar("2024-01-02", 33.12)},
		},
	}
	store := newFakeStore()
	runner := NewRunner(provider, store, testLogger())

	summary, err := runner.Run(context.Background(), testCatalog(), yahoo.Period("2y"))
	require.NoError(t, err)

	assert.Equal(t, 1, summary.TotalFailed())
	assert.Equal(t, 3, summary.TotalInserted())
	assert.Empty(t, summary.FailedInstruments())
}

func TestRunner_StoreFailureAbortsRun(t *testing.T) {
	provider := &fakeProvider{
		bars: map[string][]contracts.RawBar{
			"^GSPC": {testBar("2024-01-02", 4742.83)},
		},
	}
	store := newFakeStore()
	store.appendErr = errors.New("connection refused")
	runner := NewRunner(provider, store, testLogger())

	_, err := runner.Run(context.Background(), testCatalog(), yahoo.Period("2y"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
