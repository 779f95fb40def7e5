package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSeries(t *testing.T) {
	metrics, ok := ComputeSeries(candlesFromCloses(100, 150, 75, 120))
	require.True(t, ok)

	assert.Equal(t, 4, metrics.Days)
	assert.Equal(t, listingDay, metrics.ListingDate)
	assert.Equal(t, listingDay.AddDate(0, 0, 3), metrics.LastDate)
	assert.InDelta(t, 0.2, metrics.CumReturn, 1e-12)
	assert.InDelta(t, -0.5, metrics.MaxDrawdown, 1e-12)
	assert.Greater(t, metrics.Volatility, 0.0)
}

func TestComputeSeries_FlatHasNoVolatility(t *testing.T) {
	metrics, ok := ComputeSeries(candlesFromCloses(3, 3, 3, 3, 3))
	require.True(t, ok)
	assert.Equal(t, 0.0, metrics.Volatility)
	assert.Equal(t, 0.0, metrics.CumReturn)
}

func TestComputeSeries_Invalid(t *testing.T) {
	_, ok := ComputeSeries(candlesFromCloses(10))
	assert.False(t, ok)

	_, ok = ComputeSeries(candlesFromCloses(0, 10, 20))
	assert.False(t, ok)

	_, ok = ComputeSeries(candlesFromCloses(10, 20, math.NaN()))
	assert.False(t, ok)
}

func TestPopStdDev(t *testing.T) {
	assert.Equal(t, 0.0, popStdDev(nil))
	assert.InDelta(t, 2.0, popStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-12)
}
