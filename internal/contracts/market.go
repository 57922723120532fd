package contracts

import "time"

// Instrument is a tradable symbol (index, ETF) tracked by the system.
// Rows are created lazily on first encounter and never physically
// deleted; retirement is Active=false.
type Instrument struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// Segment is a named grouping of instruments for aggregate analysis.
type Segment struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Active      bool      `json:"active"`
}

// RawBar is one day's OHLCV observation as delivered by the provider.
// Every quote field is optional; the provider reports nulls for
// half-sessions and data gaps and those must survive normalization.
type RawBar struct {
	Date     time.Time `json:"date"`
	Open     *float64  `json:"open"`
	High     *float64  `json:"high"`
	Low      *float64  `json:"low"`
	Close    *float64  `json:"close"`
	AdjClose *float64  `json:"adj_close"`
	Volume   *int64    `json:"volume"`
}

// HasQuote reports whether the bar carries at least one price field.
func (b RawBar) HasQuote() bool {
	return b.Open != nil || b.High != nil || b.Low != nil || b.Close != nil
}

// Validate reports whether the bar is storable. A failing bar is
// skipped and counted, never fatal for its batch.
func (b RawBar) Validate() error {
	if b.Date.IsZero() {
		return ErrBarMissingDate
	}
	if b.Volume != nil && *b.Volume < 0 {
		return ErrBarNegativeVolume
	}
	return nil
}

// PriceBar is a stored daily bar. (InstrumentID, TradeDate) is unique
// across the table and rows are immutable once written.
type PriceBar struct {
	InstrumentID int64     `json:"instrument_id"`
	Symbol       string    `json:"symbol"`
	TradeDate    time.Time `json:"trade_date"`
	Open         *float64  `json:"open"`
	High         *float64  `json:"high"`
	Low          *float64  `json:"low"`
	Close        *float64  `json:"close"`
	AdjClose     *float64  `json:"adj_close"`
	Volume       *int64    `json:"volume"`
	InsertedAt   time.Time `json:"inserted_at"`
}
