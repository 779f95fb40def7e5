package analytics

import (
	"math"
	"time"

	"github.com/applause/dashboard/internal/store"
)

// TradingDaysPerYear annualizes daily volatility; crypto trades every day.
const TradingDaysPerYear = 365

// SeriesMetrics summarizes a whole exchange series, first to last candle.
type SeriesMetrics struct {
	ListingDate time.Time `json:"listing_date"`
	LastDate    time.Time `json:"last_date"`
	Days        int       `json:"days"`
	CumReturn   float64   `json:"cum_return"`
	MaxDrawdown float64   `json:"max_drawdown"`
	Volatility  float64   `json:"volatility"`
}

// ComputeSeries returns full-history metrics. It needs at least two candles
// and positive first and last closes.
func ComputeSeries(candles []store.Candle) (SeriesMetrics, bool) {
	if len(candles) < 2 {
		return SeriesMetrics{}, false
	}
	first, ok1 := candles[0].Close.Float()
	last, ok2 := candles[len(candles)-1].Close.Float()
	if !ok1 || !ok2 || first <= 0 || last <= 0 {
		return SeriesMetrics{}, false
	}

	var (
		returns []float64
		prev    = first
		peak    = first
		worst   = 0.0
	)
	for i, c := range candles {
		price, ok := c.Close.Float()
		if !ok {
			continue
		}
		if i > 0 && prev > 0 && price > 0 {
			returns = append(returns, math.Log(price/prev))
		}
		prev = price
		if price > peak {
			peak = price
		}
		if peak > 0 {
			if dd := price/peak - 1; dd < worst {
				worst = dd
			}
		}
	}

	return SeriesMetrics{
		ListingDate: candles[0].Timestamp,
		LastDate:    candles[len(candles)-1].Timestamp,
		Days:        len(candles),
		CumReturn:   last/first - 1,
		MaxDrawdown: worst,
		Volatility:  popStdDev(returns) * math.Sqrt(TradingDaysPerYear),
	}, true
}

func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance)
}
