package dashboard

import (
	"context"

	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/store"
)

// Renderer draws dashboard state. Implementations must not call back into
// the Controller from these methods.
type Renderer interface {
	// SetStatus shows a one-line status message
	SetStatus(msg string, isErr bool)

	RenderCoins(coins []string)
	RenderSummary(view *CoinView)
	RenderDistribution(view DistributionView)
	RenderInsights(doc *store.QuantInsights)

	// NewSeriesChart creates the high/low chart of one exchange. The
	// controller owns the returned instance and destroys it on the next selection.
	NewSeriesChart(coin string, ex store.Exchange, series store.ExchangeSeries) chart.Instance

	// OpenDetail shows the detail view and returns its chart instance
	OpenDetail(view DetailView) chart.Instance
	CloseDetail()
}

// Loader fetches the dashboard documents.
type Loader interface {
	CommonCoins(ctx context.Context) ([]string, error)
	CoinHistory(ctx context.Context, coin string) (*store.CoinHistory, error)
	Insights(ctx context.Context) (*store.QuantInsights, error)
}
