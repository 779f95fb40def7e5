package dashboard

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/applause/dashboard/internal/analytics"
	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/store"
)

// TextRenderer writes the dashboard as plain text, for headless runs.
type TextRenderer struct {
	mu     sync.Mutex
	w      io.Writer
	width  int
	height int
}

// NewTextRenderer creates a TextRenderer writing charts of the given size.
func NewTextRenderer(w io.Writer, width, height int) *TextRenderer {
	return &TextRenderer{w: w, width: max(width, 40), height: max(height, 6)}
}

func (r *TextRenderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

// SetStatus prints the status line; errors are prefixed.
func (r *TextRenderer) SetStatus(msg string, isErr bool) {
	if isErr {
		r.printf("error: %s\n", msg)
		return
	}
	r.printf("-- %s\n", msg)
}

// RenderCoins lists the coins.
func (r *TextRenderer) RenderCoins(coins []string) {
	r.printf("Common coins (%d): %s\n", len(coins), strings.Join(coins, " "))
}

// RenderSummary prints the summary table.
func (r *TextRenderer) RenderSummary(view *CoinView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.w, "\n%s: first %d days after listing\n", view.Coin, windowDays(view.Rows))
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(analytics.SummaryHeaders, "\t"))
	for _, row := range view.Rows {
		fmt.Fprintln(tw, strings.Join(row.Cells(), "\t"))
	}
	tw.Flush()
}

// RenderDistribution prints the distribution bars.
func (r *TextRenderer) RenderDistribution(view DistributionView) {
	lines := chart.RenderBars(chart.BarsFromSample(view.Sample, view.Highlight), r.width, false)

	r.mu.Lock()
	defer r.mu.Unlock()
	title := "Return distribution"
	if view.Highlight != "" {
		title += " (" + view.Highlight + " highlighted)"
	}
	fmt.Fprintf(r.w, "\n%s, %d of %d coins\n", title, len(view.Sample), view.Total)
	for _, l := range lines {
		fmt.Fprintln(r.w, l)
	}
}

// RenderInsights prints the aggregate block of the insights document.
func (r *TextRenderer) RenderInsights(doc *store.QuantInsights) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := doc.Summary
	fmt.Fprintf(r.w, "\nInsights: %d coins processed, generated %s\n",
		doc.CoinsProcessed, doc.GeneratedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(r.w, "  median return %s, median drawdown %s, median volatility %s, median spread %s\n",
		analytics.FormatPercent(s.MedianCumReturn),
		analytics.FormatPercent(s.MedianDrawdown),
		analytics.FormatPercent(s.MedianVolatility),
		analytics.FormatPercent(s.MedianSpread),
	)
	writeMetrics(r.w, "Top decliners", store.TopN(doc.TopDecliners, 5))
	writeMetrics(r.w, "Top gainers", store.TopN(doc.TopGainers, 5))
}

func writeMetrics(w io.Writer, title string, list []store.CoinMetric) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(w, "  %s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, m := range list {
		ret := m.CumReturn
		dd := m.MaxDrawdown
		fmt.Fprintf(tw, "    %s\t%s\t%s\tdd %s\n",
			m.Coin, m.PrimaryExchange, analytics.FormatPercent(&ret), analytics.FormatPercent(&dd))
	}
	tw.Flush()
}

// NewSeriesChart prints the high/low chart of one exchange.
func (r *TextRenderer) NewSeriesChart(coin string, ex store.Exchange, series store.ExchangeSeries) chart.Instance {
	high, low := chart.HighLowSeries(ex.Name, "", series.Candles)
	frame := chart.Plot([]chart.Series{high, low}, r.width, r.height)

	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "\n%s %s (%s, %d candles)\n", coin, ex.Name, series.Market, len(series.Candles))
	fmt.Fprintln(r.w, frame.String())
	fmt.Fprintln(r.w, chart.Legend([]chart.Series{high, low}))

	return &textChart{id: uuid.NewString()}
}

// OpenDetail prints the full candle table of one exchange.
func (r *TextRenderer) OpenDetail(view DetailView) chart.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.w, "\n%s on %s, %s\n", view.Coin, view.Exchange.Name, view.Series.Market)
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, strings.Join(CandleHeaders, "\t")+"\t")
	for _, c := range view.Series.Candles {
		fmt.Fprintln(tw, strings.Join(CandleCells(c), "\t")+"\t")
	}
	tw.Flush()

	return &textChart{id: uuid.NewString()}
}

// CloseDetail is a no-op for text output.
func (r *TextRenderer) CloseDetail() {}

type textChart struct {
	id string
}

func (c *textChart) ID() string { return c.id }
func (c *textChart) Destroy()   {}

// CandleHeaders are the columns of the detail candle table.
var CandleHeaders = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// CandleCells renders one candle for a CandleHeaders table.
func CandleCells(c store.Candle) []string {
	return []string{
		c.Date(),
		formatNumber(c.Open),
		formatNumber(c.High),
		formatNumber(c.Low),
		formatNumber(c.Close),
		formatNumber(c.Volume),
	}
}

func formatNumber(n store.Number) string {
	f, ok := n.Float()
	if !ok {
		return "n/a"
	}
	return analytics.FormatPrice(&f)
}

func windowDays(rows []analytics.SummaryRow) int {
	for _, row := range rows {
		if row.Stats != nil {
			return row.Stats.WindowLength - 1
		}
	}
	return analytics.DefaultWindowLength - 1
}
