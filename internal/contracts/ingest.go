package contracts

import (
	"errors"
	"time"
)

// Per-row ingestion failures. Either one marks the bar as failed and
// leaves the rest of its batch untouched.
var (
	ErrBarMissingDate    = errors.New("bar has no trade date")
	ErrBarNegativeVolume = errors.New("bar has negative volume")
)

// AppendResult reports the outcome of one bar batch. Duplicates are
// re-observed (instrument, date) pairs skipped silently; Failed counts
// malformed rows, which are tracked separately from true duplicates.
type AppendResult struct {
	Inserted   int `json:"inserted"`
	Duplicates int `json:"duplicates"`
	Failed     int `json:"failed"`
}

// Add accumulates another result into r.
func (r *AppendResult) Add(other AppendResult) {
	r.Inserted += other.Inserted
	r.Duplicates += other.Duplicates
	r.Failed += other.Failed
}

// InstrumentReport is the per-instrument slice of a refresh summary.
type InstrumentReport struct {
	Symbol       string `json:"symbol"`
	InstrumentID int64  `json:"instrument_id,omitempty"`
	Fetched      int    `json:"fetched"`
	Inserted     int    `json:"inserted"`
	Duplicates   int    `json:"duplicates"`
	Failed       int    `json:"failed"`
	StoredBars   int64  `json:"stored_bars"`
	Error        string `json:"error,omitempty"`
}

// RefreshSummary is the terminal report of a full refresh run. It is
// what makes a partial run auditable after the fact.
type RefreshSummary struct {
	RunID       string             `json:"run_id"`
	Period      string             `json:"period"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
	Instruments []InstrumentReport `json:"instruments"`
	TotalBars   int64              `json:"total_bars"`
	FirstDate   *time.Time         `json:"first_date,omitempty"`
	LastDate    *time.Time         `json:"last_date,omitempty"`
}

// TotalInserted sums inserted rows across all instruments.
func (s *RefreshSummary) TotalInserted() int {
	total := 0
	for _, r := range s.Instruments {
		total += r.Inserted
	}
	return total
}

// TotalDuplicates sums skipped duplicate rows across all instruments.
func (s *RefreshSummary) TotalDuplicates() int {
	total := 0
	for _, r := range s.Instruments {
		total += r.Duplicates
	}
	return total
}

// TotalFailed sums malformed rows across all instruments.
func (s *RefreshSummary) TotalFailed() int {
	total := 0
	for _, r := range s.Instruments {
		total += r.Failed
	}
	return total
}

// FailedInstruments lists symbols whose fetch or ingest did not
// complete cleanly.
func (s *RefreshSummary) FailedInstruments() []string {
	var failed []string
	for _, r := range s.Instruments {
		if r.Error != "" {
			failed = append(failed, r.Symbol)
		}
	}
	return failed
}
