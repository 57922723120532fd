package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int) time.Time {
	return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func point(symbol string, offset int, close float64) barPoint {
	return barPoint{Symbol: symbol, Date: day(offset), Close: &close}
}

func pointWithVolume(symbol string, offset int, close float64, volume int64) barPoint {
	p := point(symbol, offset, close)
	p.Volume = &volume
	return p
}

func TestDailyReturns(t *testing.T) {
	points := []barPoint{
		point("AAA", 0, 100),
		point("AAA", 1, 110),
		point("AAA", 2, 99),
	}

	returns := dailyReturns(points)
	require.Len(t, returns, 2)
	assert.InDelta(t, 10.0, returns[0], 1e-9)
	assert.InDelta(t, -10.0, returns[1], 1e-9)
}

func TestDailyReturns_NoCrossInstrumentReturn(t *testing.T) {
	points := []barPoint{
		point("AAA", 0, 100),
		point("AAA", 1, 110),
		point("BBB", 0, 50),
		point("BBB", 1, 55),
	}

	returns := dailyReturns(points)
	require.Len(t, returns, 2)
	assert.InDelta(t, 10.0, returns[0], 1e-9)
	assert.InDelta(t, 10.0, returns[1], 1e-9)
}

func TestDailyReturns_ZeroAndMissingPriorClose(t *testing.T) {
	points := []barPoint{
		point("AAA", 0, 0), // zero prior close, next day has no return
		point("AAA", 1, 110),
		{Symbol: "AAA", Date: day(2)}, // missing close counts as 0
		point("AAA", 3, 120),
	}

	returns := dailyReturns(points)
	// Day 1 follows a zero close, day 3 follows a missing close. Only
	// day 2 has a defined prior, and its own close is 0.
	require.Len(t, returns, 1)
	assert.InDelta(t, -100.0, returns[0], 1e-9)
}

func TestComputeMetrics(t *testing.T) {
	points := []barPoint{
		pointWithVolume("AAA", 0, 100, 1000),
		pointWithVolume("AAA", 1, 110, 2000),
		point("AAA", 2, 99), // missing volume counts as 0
	}

	m := computeMetrics(points)
	assert.Equal(t, 3, m.BarCount)
	assert.InDelta(t, 0.0, m.MeanReturn, 1e-9)
	// Sample standard deviation of {10, -10}.
	assert.InDelta(t, 14.142135623, m.MeanVolatility, 1e-6)
	assert.InDelta(t, 110.0, m.MaxClose, 1e-9)
	assert.InDelta(t, 99.0, m.MinClose, 1e-9)
	assert.Equal(t, int64(3000), m.TotalVolume)
}

func TestComputeMetrics_SingleBarPerInstrument(t *testing.T) {
	points := []barPoint{
		point("AAA", 0, 100),
		point("BBB", 0, 50),
	}

	m := computeMetrics(points)
	assert.Equal(t, 2, m.BarCount)
	assert.Zero(t, m.MeanReturn)
	assert.Zero(t, m.MeanVolatility)
	assert.InDelta(t, 100.0, m.MaxClose, 1e-9)
	assert.InDelta(t, 50.0, m.MinClose, 1e-9)
}

func TestSampleStdDev(t *testing.T) {
	assert.Zero(t, sampleStdDev(nil, 0))
	assert.Zero(t, sampleStdDev([]float64{5}, 5))

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 2.138089935, sampleStdDev(values, mean(values)), 1e-6)
}
