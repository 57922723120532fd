package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/catalog"
	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
)

func TestCSVWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)

	open, high, low, close1 := 4745.2, 4754.33, 4722.67, 4742.83
	adj := 4742.83
	vol := int64(3743050000)
	entry := catalog.Entry{Symbol: "^GSPC", Name: "S&P 500", Country: "USA", Segment: "US Indexes"}
	bars := []contracts.RawBar{
		{
			Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			Open: &open, High: &high, Low: &low, Close: &close1,
			AdjClose: &adj, Volume: &vol,
		},
		{
			// Sparse bar: only a close.
			Date:  time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
			Close: &close1,
		},
	}

	require.NoError(t, w.WriteInstrument(entry, bars))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"^GSPC", "S&P 500", "USA", "2024-01-02",
		"4745.2", "4754.33", "4722.67", "4742.83", "4742.83", "3743050000",
	}, records[1])
	assert.Equal(t, []string{
		"^GSPC", "S&P 500", "USA", "2024-01-03",
		"", "", "", "4742.83", "", "",
	}, records[2])
}
