// Package analytics computes the post-listing event-window statistics, the
// cross-exchange summary and the return-distribution sample.
package analytics

import (
	"math"
	"time"

	"github.com/applause/dashboard/internal/store"
)

// DefaultWindowLength covers t=0 (listing day) through t=10.
const DefaultWindowLength = 11

// WindowStats holds the fixed-window statistics of one exchange series.
// Nil pointers mark statistics that could not be computed.
type WindowStats struct {
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	StartClose float64   `json:"start_close"`
	EndClose   *float64  `json:"end_close"`

	CumReturn    *float64 `json:"cum_return"`
	LogReturn    *float64 `json:"log_return"`
	Beta         *float64 `json:"beta"`
	MaxDrawdown  float64  `json:"max_drawdown"`
	PriceDrop    bool     `json:"price_drop"`
	LogDrop      bool     `json:"log_drop"`
	BetaDrop     bool     `json:"beta_drop"`
	WindowLength int      `json:"window_length"`
}

// ComputeWindow computes the statistics over the first length candles.
// ok is false when the series is shorter than the window or the base close
// is not a finite positive number; no partial estimate is returned then.
func ComputeWindow(candles []store.Candle, length int) (stats WindowStats, ok bool) {
	if length < 2 || len(candles) < length {
		return WindowStats{}, false
	}
	window := candles[:length]

	p0, valid := window[0].Close.Float()
	if !valid || p0 <= 0 {
		return WindowStats{}, false
	}

	stats = WindowStats{
		StartDate:    window[0].Timestamp,
		EndDate:      window[length-1].Timestamp,
		StartClose:   p0,
		WindowLength: length,
	}

	if pN, valid := window[length-1].Close.Float(); valid {
		cum := pN/p0 - 1
		stats.EndClose = &pN
		stats.CumReturn = &cum
		stats.PriceDrop = pN < p0
	}

	stats.MaxDrawdown = maxDrawdown(window, p0)

	closes, allPositive := positiveCloses(window)
	if !allPositive {
		return stats, true
	}

	logs := make([]float64, length)
	var logReturn float64
	for t, price := range closes {
		logs[t] = math.Log(price)
		if t > 0 {
			logReturn += math.Log(price / closes[t-1])
		}
	}
	beta := trendSlope(logs)

	stats.LogReturn = &logReturn
	stats.Beta = &beta
	stats.LogDrop = logReturn < 0
	stats.BetaDrop = beta < 0

	return stats, true
}

// maxDrawdown tracks a running peak starting at base. Candles without a
// finite close are skipped and leave the peak untouched.
func maxDrawdown(window []store.Candle, base float64) float64 {
	peak := base
	worst := 0.0
	for _, c := range window {
		price, ok := c.Close.Float()
		if !ok {
			continue
		}
		if price > peak {
			peak = price
		}
		if dd := price/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}

// positiveCloses returns every close of the window, or false if any close is
// missing or non-positive.
func positiveCloses(window []store.Candle) ([]float64, bool) {
	closes := make([]float64, len(window))
	for i, c := range window {
		price, ok := c.Close.Float()
		if !ok || price <= 0 {
			return nil, false
		}
		closes[i] = price
	}
	return closes, true
}

// trendSlope is the OLS slope of y against its index. Values are shifted by
// y[0] first; the slope is unchanged and a flat series yields exactly zero.
func trendSlope(y []float64) float64 {
	n := float64(len(y))
	meanT := (n - 1) / 2

	var meanY float64
	for _, v := range y {
		meanY += v - y[0]
	}
	meanY /= n

	var num, den float64
	for i, v := range y {
		dt := float64(i) - meanT
		num += dt * (v - y[0] - meanY)
		den += dt * dt
	}
	if den == 0 {
		return 0
	}
	return num / den
}
