package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/catalog"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
)

var csvHeader = []string{
	"symbol", "name", "country", "date",
	"open", "high", "low", "close", "adj_close", "volume",
}

// CSVWriter mirrors fetched bars into a flat CSV file as a backup of a
// refresh run. It implements the refresh runner's bar sink.
type CSVWriter struct {
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates the backup file, truncating any previous run.
func NewCSVWriter(path string) (*CSVWriter, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create backup file: %w", err)
	}

	w := &CSVWriter{
		file:   file,
		writer: csv.NewWriter(file),
	}
	if err := w.writer.Write(csvHeader); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write backup header: %w", err)
	}
	return w, nil
}

// WriteInstrument appends all bars of one instrument. Missing fields are
// written as empty cells.
func (w *CSVWriter) WriteInstrument(entry catalog.Entry, bars []contracts.RawBar) error {
	for _, bar := range bars {
		record := []string{
			entry.Symbol,
			entry.Name,
			entry.Country,
			bar.Date.Format("2006-01-02"),
			formatFloat(bar.Open),
			formatFloat(bar.High),
			formatFloat(bar.Low),
			formatFloat(bar.Close),
			formatFloat(bar.AdjClose),
			formatInt(bar.Volume),
		}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("failed to write backup row for %s: %w", entry.Symbol, err)
		}
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Close flushes and closes the backup file.
func (w *CSVWriter) Close() error {
	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
