// Package store provides the data models shared by the loader, the analytics
// engine and the renderers.
package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Candle represents one daily OHLCV bar of an exchange series.
type Candle struct {
	// TimestampMs is the bar open time in Unix milliseconds
	TimestampMs int64

	// Timestamp is the same instant as a UTC time
	Timestamp time.Time

	Open   Number
	High   Number
	Low    Number
	Close  Number
	Volume Number
}

type candleJSON struct {
	TimestampMs  *int64 `json:"timestamp_ms"`
	TimestampISO string `json:"timestamp_iso"`
	Timestamp    string `json:"timestamp"`
	Open         Number `json:"open"`
	High         Number `json:"high"`
	Low          Number `json:"low"`
	Close        Number `json:"close"`
	Volume       Number `json:"volume"`
}

// UnmarshalJSON accepts either timestamp_ms or an ISO-8601 timestamp and
// derives the missing one.
func (c *Candle) UnmarshalJSON(data []byte) error {
	var raw candleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	iso := raw.TimestampISO
	if iso == "" {
		iso = raw.Timestamp
	}

	*c = Candle{
		Open:   raw.Open,
		High:   raw.High,
		Low:    raw.Low,
		Close:  raw.Close,
		Volume: raw.Volume,
	}

	switch {
	case iso != "":
		ts, err := time.Parse(time.RFC3339Nano, iso)
		if err != nil {
			return fmt.Errorf("candle timestamp %q: %w", iso, err)
		}
		c.Timestamp = ts.UTC()
		c.TimestampMs = ts.UnixMilli()
		if raw.TimestampMs != nil {
			c.TimestampMs = *raw.TimestampMs
		}
	case raw.TimestampMs != nil:
		c.TimestampMs = *raw.TimestampMs
		c.Timestamp = time.UnixMilli(*raw.TimestampMs).UTC()
	default:
		return fmt.Errorf("candle has no timestamp")
	}
	return nil
}

// MarshalJSON writes the candle in the on-disk history format.
func (c Candle) MarshalJSON() ([]byte, error) {
	ms := c.TimestampMs
	return json.Marshal(candleJSON{
		TimestampMs:  &ms,
		TimestampISO: c.Timestamp.UTC().Format(time.RFC3339),
		Open:         c.Open,
		High:         c.High,
		Low:          c.Low,
		Close:        c.Close,
		Volume:       c.Volume,
	})
}

// Date returns the candle day as YYYY-MM-DD.
func (c Candle) Date() string {
	return c.Timestamp.UTC().Format("2006-01-02")
}

// ExchangeSeries is the candle history of one coin on one exchange.
type ExchangeSeries struct {
	// Market is the display symbol, e.g. BTC/USDT
	Market string `json:"market"`

	// Quote is the quote currency of the market
	Quote string `json:"quote"`

	// Count is the number of candles reported by the producer
	Count int `json:"count"`

	// Candles are ordered by timestamp ascending
	Candles []Candle `json:"candles"`
}

// CoinHistory is the per-coin document produced by the history fetcher.
type CoinHistory struct {
	Coin        string                    `json:"coin"`
	GeneratedAt time.Time                 `json:"generated_at"`
	Exchanges   map[string]ExchangeSeries `json:"exchanges"`
}

// Series returns the series for an exchange key, matched case-insensitively.
func (h *CoinHistory) Series(key string) (ExchangeSeries, bool) {
	if h == nil {
		return ExchangeSeries{}, false
	}
	if s, ok := h.Exchanges[key]; ok {
		return s, true
	}
	for k, s := range h.Exchanges {
		if strings.EqualFold(k, key) {
			return s, true
		}
	}
	return ExchangeSeries{}, false
}

// CommonCoins is the intersection list of coins listed on every exchange.
type CommonCoins struct {
	Coins []string `json:"coins"`
}

// Exchange is one entry of the configured exchange registry.
type Exchange struct {
	Key  string `yaml:"key" json:"key"`
	Name string `yaml:"name" json:"name"`
}

// DistributionEntry is one listing event of the precomputed return distribution.
type DistributionEntry struct {
	Coin        string  `json:"coin"`
	CumReturn   float64 `json:"cum_return"`
	ListingDate string  `json:"listing_date,omitempty"`
}

// CoinMetric is one row of the top decliners / gainers lists.
type CoinMetric struct {
	Coin            string   `json:"coin"`
	PrimaryExchange string   `json:"primary_exchange"`
	ListingDate     string   `json:"listing_date"`
	LastDate        string   `json:"last_date"`
	Days            int      `json:"days"`
	CumReturn       float64  `json:"cum_return"`
	MaxDrawdown     float64  `json:"max_drawdown"`
	Volatility      float64  `json:"volatility"`
	MedianRelSpread *float64 `json:"median_rel_spread"`
}

// InsightsSummary holds the aggregate scalars of the insights document.
// Values are passed through to display, never recomputed.
type InsightsSummary struct {
	Coins            int      `json:"coins"`
	MedianCumReturn  *float64 `json:"median_cum_return"`
	MedianDrawdown   *float64 `json:"median_drawdown"`
	MedianSpread     *float64 `json:"median_spread"`
	MedianVolatility *float64 `json:"median_volatility"`
}

// ExchangeAggregate is the per-exchange block of the insights document.
type ExchangeAggregate struct {
	Count            int     `json:"count"`
	AvgCumReturn     float64 `json:"avg_cum_return"`
	MedianDrawdown   float64 `json:"median_drawdown"`
	MedianVolatility float64 `json:"median_volatility"`
}

// QuantInsights is the precomputed analytics document.
type QuantInsights struct {
	GeneratedAt        time.Time                    `json:"generated_at"`
	CoinsProcessed     int                          `json:"coins_processed"`
	Summary            InsightsSummary              `json:"summary"`
	TopDecliners       []CoinMetric                 `json:"top_decliners"`
	TopGainers         []CoinMetric                 `json:"top_gainers"`
	ExchangeSummary    map[string]ExchangeAggregate `json:"exchange_summary"`
	ReturnDistribution []DistributionEntry          `json:"return_distribution"`
}

// TopN returns at most n leading entries of a metric list.
func TopN(list []CoinMetric, n int) []CoinMetric {
	if n < 0 || len(list) <= n {
		return list
	}
	return list[:n]
}
