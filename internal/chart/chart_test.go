package chart

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/applause/dashboard/internal/store"
)

type fakeInstance struct {
	id        string
	destroyed int
}

func (f *fakeInstance) ID() string { return f.id }
func (f *fakeInstance) Destroy()   { f.destroyed++ }

func TestSetDestroyAll(t *testing.T) {
	set := NewSet()
	a, b := &fakeInstance{id: "a"}, &fakeInstance{id: "b"}
	set.Add(a)
	set.Add(b)
	set.Add(nil)

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"a", "b"}, set.IDs())

	assert.Equal(t, 2, set.DestroyAll())
	assert.Equal(t, 0, set.Len())
	assert.Equal(t, 1, a.destroyed)
	assert.Equal(t, 1, b.destroyed)

	assert.Equal(t, 0, set.DestroyAll())
	assert.Equal(t, 1, a.destroyed, "destroyed instances are no longer owned")
}

func TestSlotReplaceAndRelease(t *testing.T) {
	var slot Slot
	first, second := &fakeInstance{id: "1"}, &fakeInstance{id: "2"}

	slot.Replace(first)
	assert.Same(t, first, slot.Active())

	slot.Replace(second)
	assert.Equal(t, 1, first.destroyed)
	assert.Same(t, second, slot.Active())

	assert.True(t, slot.Release())
	assert.Equal(t, 1, second.destroyed)
	assert.Nil(t, slot.Active())
	assert.False(t, slot.Release())
}

func candles(lows, highs []float64) []store.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]store.Candle, len(lows))
	for i := range lows {
		ts := start.AddDate(0, 0, i)
		out[i] = store.Candle{
			TimestampMs: ts.UnixMilli(),
			Timestamp:   ts,
			High:        store.NewNumber(highs[i]),
			Low:         store.NewNumber(lows[i]),
		}
	}
	return out
}

func TestHighLowSeries(t *testing.T) {
	high, low := HighLowSeries("Binance", "#fff", candles([]float64{1, math.NaN()}, []float64{2, 3}))

	assert.Equal(t, "Binance high", high.Name)
	assert.Equal(t, "Binance low", low.Name)
	assert.Equal(t, ReduceMax, high.Reduce)
	assert.Equal(t, ReduceMin, low.Reduce)
	require.Len(t, low.Points, 2)
	assert.True(t, math.IsNaN(low.Points[1].Value))
	assert.Equal(t, 3.0, high.Points[1].Value)
}

func TestPlot(t *testing.T) {
	high, low := HighLowSeries("OKX", "#abc", candles([]float64{1, 2, 3, 4}, []float64{2, 3, 4, 5}))

	frame := Plot([]Series{high, low}, 40, 10)

	require.False(t, frame.Empty)
	assert.Equal(t, 1.0, frame.Min)
	assert.Equal(t, 5.0, frame.Max)
	assert.Len(t, frame.Lines, 10)
	assert.Contains(t, frame.Lines[0], "5")
	assert.Contains(t, frame.Lines[0], "▴")
	assert.Contains(t, frame.Lines[8], "▾")
	assert.Contains(t, frame.Lines[9], "2024-01-01")
	assert.Contains(t, frame.Lines[9], "2024-01-04")
}

func TestPlot_Empty(t *testing.T) {
	frame := Plot(nil, 40, 10)
	assert.True(t, frame.Empty)
	assert.Equal(t, "no data", frame.String())

	high, _ := HighLowSeries("X", "#fff", candles([]float64{math.NaN()}, []float64{math.NaN()}))
	assert.True(t, Plot([]Series{high}, 40, 10).Empty)
}

func TestPlot_FlatSeries(t *testing.T) {
	high, _ := HighLowSeries("X", "#fff", candles([]float64{1, 1}, []float64{7, 7}))
	frame := Plot([]Series{high}, 30, 5)
	require.False(t, frame.Empty)
	assert.Contains(t, frame.Lines[2], "▴")
}

func TestColumnsReduce(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 9)
	s := Series{Reduce: ReduceMax}
	for i := 0; i < 10; i++ {
		s.Points = append(s.Points, Point{Time: from.AddDate(0, 0, i), Value: float64(i)})
	}

	cols := columns(s, from, to, 2)
	assert.Equal(t, 8.0, cols[0])
	assert.Equal(t, 9.0, cols[1])

	s.Reduce = ReduceMin
	cols = columns(s, from, to, 2)
	assert.Equal(t, 0.0, cols[0])
}

func TestExchangeColor(t *testing.T) {
	assert.Equal(t, "#f0b90b", ExchangeColor("Binance"))
	assert.Equal(t, ExchangeColor("kraken"), ExchangeColor("kraken"))
	assert.NotEmpty(t, ExchangeColor("kraken"))
}

func TestAxisFor(t *testing.T) {
	assert.Equal(t, Axis{Min: -1, Max: 1}, AxisFor(nil))
	assert.Equal(t, Axis{Min: -1, Max: 1}, AxisFor([]Bar{{Value: -0.2}, {Value: 0.3}}))
	assert.Equal(t, Axis{Min: -1, Max: 4.5}, AxisFor([]Bar{{Value: -0.9}, {Value: 4.5}}))
}

func TestBarsFromSample(t *testing.T) {
	bars := BarsFromSample([]store.DistributionEntry{
		{Coin: "AAA", CumReturn: -0.5},
		{Coin: "BBB", CumReturn: -0.1},
		{Coin: "CCC", CumReturn: 0.7},
	}, "bbb")

	require.Len(t, bars, 3)
	assert.Equal(t, Decline, bars[0].Kind)
	assert.Equal(t, Highlight, bars[1].Kind)
	assert.Equal(t, Gain, bars[2].Kind)
}

func TestRenderBars(t *testing.T) {
	lines := RenderBars([]Bar{
		{Label: "AAA", Value: -0.5, Kind: Decline},
		{Label: "CCC", Value: 0.25, Kind: Gain},
	}, 60, true)

	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "AAA"))
	assert.Contains(t, lines[0], BarColors[Decline])
	assert.Contains(t, lines[0], "-50.00%")
	assert.Contains(t, lines[1], "25.00%")
	assert.Contains(t, lines[2], "-100%")
	assert.Contains(t, lines[2], "100%")
}

func TestRenderBars_Empty(t *testing.T) {
	assert.Equal(t, []string{NoDistributionData}, RenderBars(nil, 60, true))
}

func TestRenderBars_Plain(t *testing.T) {
	lines := RenderBars([]Bar{
		{Label: "AAA", Value: -0.5, Kind: Decline},
		{Label: "HHH", Value: 0.5, Kind: Highlight},
	}, 60, false)

	require.Len(t, lines, 3)
	assert.NotContains(t, lines[0], "[")
	assert.Contains(t, lines[0], "█")
	assert.Contains(t, lines[1], "▓")
}

func TestRenderBars_NonFinite(t *testing.T) {
	lines := RenderBars([]Bar{
		{Label: "AAA", Value: -0.5, Kind: Decline},
		{Label: "NAN", Value: math.NaN(), Kind: Gain},
		{Label: "INF", Value: math.Inf(1), Kind: Gain},
	}, 60, false)

	require.Len(t, lines, 4)
	for _, l := range lines[1:3] {
		assert.NotContains(t, l, "█")
		assert.Contains(t, l, "│")
		assert.True(t, strings.HasSuffix(l, "n/a"))
	}
	assert.Contains(t, lines[3], "-100%")
	assert.True(t, strings.HasSuffix(lines[3], " 100%"))
}

func TestPlot_Uncolored(t *testing.T) {
	high, _ := HighLowSeries("X", "", candles([]float64{1, 2}, []float64{3, 4}))
	frame := Plot([]Series{high}, 30, 5)
	assert.NotContains(t, frame.String(), "[")
	assert.Equal(t, "▴ X high", Legend([]Series{high}))
}
