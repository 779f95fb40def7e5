package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rivo/tview"

	"github.com/applause/dashboard/internal/analytics"
	"github.com/applause/dashboard/internal/metrics"
	"github.com/applause/dashboard/internal/store"
)

// InsightsPanelView displays the precomputed insights and session metrics.
type InsightsPanelView struct {
	textView *tview.TextView
	insights *store.QuantInsights
	snapshot metrics.Snapshot
}

// NewInsightsPanelView creates a new insights panel.
func NewInsightsPanelView() *InsightsPanelView {
	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)

	textView.SetTitle(" Insights ").SetBorder(true)

	return &InsightsPanelView{
		textView: textView,
	}
}

// Widget returns the tview primitive.
func (v *InsightsPanelView) Widget() tview.Primitive {
	return v.textView
}

// SetInsights replaces the insights document.
func (v *InsightsPanelView) SetInsights(doc *store.QuantInsights) {
	v.insights = doc
	v.render()
}

// Update refreshes the session metrics.
func (v *InsightsPanelView) Update(snapshot metrics.Snapshot) {
	v.snapshot = snapshot
	v.render()
}

func (v *InsightsPanelView) render() {
	var b strings.Builder

	if doc := v.insights; doc != nil {
		s := doc.Summary
		fmt.Fprintf(&b, `[yellow]Listings[-]
Coins: %d  (generated %s)
Median return: %s
Median drawdown: %s
Median volatility: %s
Median spread: %s
`,
			doc.CoinsProcessed,
			formatTimeAgo(doc.GeneratedAt),
			colorPercent(s.MedianCumReturn),
			colorPercent(s.MedianDrawdown),
			analytics.FormatPercent(s.MedianVolatility),
			analytics.FormatPercent(s.MedianSpread),
		)
		writeMovers(&b, "Top Decliners", store.TopN(doc.TopDecliners, 5))
		writeMovers(&b, "Top Gainers", store.TopN(doc.TopGainers, 5))

		if len(doc.ExchangeSummary) > 0 {
			b.WriteString("\n[yellow]By Exchange[-]\n")
			for _, key := range sortedKeys(doc.ExchangeSummary) {
				agg := doc.ExchangeSummary[key]
				avg := agg.AvgCumReturn
				fmt.Fprintf(&b, "%-9s n=%-4d avg %s  dd %s\n",
					key, agg.Count, colorPercent(&avg), analytics.FormatPercent(&agg.MedianDrawdown))
			}
		}
	} else {
		b.WriteString("[gray]Insights not loaded[-]\n")
	}

	snap := v.snapshot
	fmt.Fprintf(&b, `
[yellow]Session[-]
Uptime: %s
Source: %s
Loads: %d coins, %d histories, %d insights
Failures: %d   Stale: %d
Avg latency: %s
Charts: %d live, %d destroyed
`,
		formatDuration(snap.Uptime),
		snap.Source,
		snap.LoadsByKind[metrics.LoadCoins],
		snap.LoadsByKind[metrics.LoadHistory],
		snap.LoadsByKind[metrics.LoadInsights],
		totalFailures(snap),
		snap.StaleResponses,
		snap.AvgLoadLatency.Round(time.Millisecond),
		snap.LiveCharts,
		snap.ChartsDestroyed,
	)
	if snap.LastError != "" {
		fmt.Fprintf(&b, "[red]Last error:[-] %s\n", tview.Escape(snap.LastError))
	}

	v.textView.SetText(b.String())
}

func writeMovers(b *strings.Builder, title string, list []store.CoinMetric) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(b, "\n[yellow]%s[-]\n", title)
	for _, m := range list {
		ret := m.CumReturn
		fmt.Fprintf(b, "%-8s %-9s %s\n", m.Coin, m.PrimaryExchange, colorPercent(&ret))
	}
}

func colorPercent(v *float64) string {
	text := analytics.FormatPercent(v)
	switch {
	case v == nil:
		return text
	case *v < 0:
		return "[red]" + text + "[-]"
	default:
		return "[green]" + text + "[-]"
	}
}

func sortedKeys(m map[string]store.ExchangeAggregate) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func totalFailures(snap metrics.Snapshot) int64 {
	var n int64
	for _, v := range snap.FailuresByKind {
		n += v
	}
	return n
}

// formatDuration formats a duration in human-readable form.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// formatTimeAgo formats a time as "X ago".
func formatTimeAgo(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	elapsed := time.Since(t)

	if elapsed < time.Minute {
		return fmt.Sprintf("%.0fs ago", elapsed.Seconds())
	}
	if elapsed < time.Hour {
		return fmt.Sprintf("%.0fm ago", elapsed.Minutes())
	}
	if elapsed < 24*time.Hour {
		return fmt.Sprintf("%.0fh ago", elapsed.Hours())
	}
	return fmt.Sprintf("%.0fd ago", elapsed.Hours()/24)
}
