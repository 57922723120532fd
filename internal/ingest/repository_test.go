package ingest

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
)

// testRepository connects to the database named by DATABASE_URL. The
// integration tests are skipped in short mode and when no database is
// available.
func testRepository(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database integration test in short mode")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool))
	return NewRepository(pool, testLogger())
}

func TestRepository_GetOrCreateInstrument(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	symbol := fmt.Sprintf("TEST-%s", uuid.NewString()[:8])
	id1, err := repo.GetOrCreateInstrument(ctx, symbol, "Test Instrument", "USA")
	require.NoError(t, err)
	assert.Greater(t, id1, int64(0))

	id2, err := repo.GetOrCreateInstrument(ctx, symbol, "Different Name", "Brazil")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)
}

func TestRepository_AppendBars(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	symbol := fmt.Sprintf("TEST-%s", uuid.NewString()[:8])
	instrumentID, err := repo.GetOrCreateInstrument(ctx, symbol, "Test Instrument", "USA")
	require.NoError(t, err)

	close1, close2 := 100.0, 101.5
	vol := int64(1000)
	bars := []contracts.RawBar{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: &close1, Volume: &vol},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), Close: &close2},
	}

	result, err := repo.AppendBars(ctx, instrumentID, bars)
	require.NoError(t, err)
	assert.Equal(t, contracts.AppendResult{Inserted: 2}, result)

	// Re-appending the same dates with different values only produces
	// duplicates and must leave the stored rows untouched.
	changed := 999.0
	rewritten := []contracts.RawBar{
		{Date: bars[0].Date, Close: &changed},
		{Date: bars[1].Date, Close: &changed},
	}
	result, err = repo.AppendBars(ctx, instrumentID, rewritten)
	require.NoError(t, err)
	assert.Equal(t, contracts.AppendResult{Duplicates: 2}, result)

	stored, err := repo.BarsByInstrument(ctx, instrumentID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, symbol, stored[0].Symbol)
	require.NotNil(t, stored[0].Close)
	assert.InDelta(t, close1, *stored[0].Close, 1e-9)
	require.NotNil(t, stored[1].Close)
	assert.InDelta(t, close2, *stored[1].Close, 1e-9)
}

func TestRepository_LinkInstrumentSegment(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	symbol := fmt.Sprintf("TEST-%s", uuid.NewString()[:8])
	instrumentID, err := repo.GetOrCreateInstrument(ctx, symbol, "Test Instrument", "USA")
	require.NoError(t, err)

	segmentID, err := repo.GetOrCreateSegment(ctx, fmt.Sprintf("Segment-%s", uuid.NewString()[:8]), "test segment")
	require.NoError(t, err)

	require.NoError(t, repo.LinkInstrumentSegment(ctx, instrumentID, segmentID, 100))
	// Relinking is a no-op.
	require.NoError(t, repo.LinkInstrumentSegment(ctx, instrumentID, segmentID, 50))
}
