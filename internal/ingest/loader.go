package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/applause/dashboard/internal/store"
)

// Document paths relative to the data root.
const (
	CommonCoinsPath = "common_coins.json"
	HistoriesDir    = "daily_histories"
	InsightsPath    = "analytics/quant_insights.json"
)

// HistoryPath returns the history document path of a coin.
func HistoryPath(coin string) string {
	return HistoriesDir + "/" + strings.ToUpper(coin) + ".json"
}

// Loader decodes the documents served by a Source.
type Loader struct {
	src Source
}

// NewLoader creates a Loader over src.
func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// SourceName describes the underlying source for logs.
func (l *Loader) SourceName() string { return l.src.Name() }

// CommonCoins fetches the common-coins list, uppercased, in document order.
func (l *Loader) CommonCoins(ctx context.Context) ([]string, error) {
	var doc store.CommonCoins
	if err := l.fetchJSON(ctx, CommonCoinsPath, &doc); err != nil {
		return nil, err
	}

	coins := make([]string, 0, len(doc.Coins))
	seen := make(map[string]bool, len(doc.Coins))
	for _, coin := range doc.Coins {
		coin = strings.ToUpper(strings.TrimSpace(coin))
		if coin == "" || seen[coin] {
			continue
		}
		seen[coin] = true
		coins = append(coins, coin)
	}

	slog.Debug("common_coins_loaded", "count", len(coins))
	return coins, nil
}

// CoinHistory fetches the candle history document of one coin.
func (l *Loader) CoinHistory(ctx context.Context, coin string) (*store.CoinHistory, error) {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" {
		return nil, fmt.Errorf("coin identifier is empty")
	}

	var doc store.CoinHistory
	if err := l.fetchJSON(ctx, HistoryPath(coin), &doc); err != nil {
		return nil, err
	}
	if doc.Coin == "" {
		doc.Coin = coin
	}
	if doc.Exchanges == nil {
		doc.Exchanges = map[string]store.ExchangeSeries{}
	}

	slog.Debug("coin_history_loaded", "coin", coin, "exchanges", len(doc.Exchanges))
	return &doc, nil
}

// Insights fetches the quant-insights document. Absent collections decode as empty.
func (l *Loader) Insights(ctx context.Context) (*store.QuantInsights, error) {
	var doc store.QuantInsights
	if err := l.fetchJSON(ctx, InsightsPath, &doc); err != nil {
		return nil, err
	}
	if doc.TopDecliners == nil {
		doc.TopDecliners = []store.CoinMetric{}
	}
	if doc.TopGainers == nil {
		doc.TopGainers = []store.CoinMetric{}
	}
	if doc.ReturnDistribution == nil {
		doc.ReturnDistribution = []store.DistributionEntry{}
	}
	if doc.ExchangeSummary == nil {
		doc.ExchangeSummary = map[string]store.ExchangeAggregate{}
	}

	slog.Debug("insights_loaded", "distribution", len(doc.ReturnDistribution))
	return &doc, nil
}

// fetchJSON fetches path and decodes it into v.
func (l *Loader) fetchJSON(ctx context.Context, path string, v any) error {
	data, err := l.src.Fetch(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &FetchError{Path: path, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
	}
	return nil
}
