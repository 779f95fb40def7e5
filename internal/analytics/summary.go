package analytics

import (
	"fmt"
	"strconv"

	"github.com/applause/dashboard/internal/store"
)

// InsufficientData is the display text of a row without statistics.
const InsufficientData = "insufficient data"

// SummaryHeaders are the column titles of a summary table.
var SummaryHeaders = []string{
	"Exchange", "Market", "Start", "End", "P0", "P10",
	"Return", "Log Return", "Beta", "Max DD", "Price↓", "Log↓", "Beta↓",
}

// SummaryRow is one configured exchange in the comparison table.
type SummaryRow struct {
	Exchange store.Exchange `json:"exchange"`
	Market   string         `json:"market,omitempty"`
	Quote    string         `json:"quote,omitempty"`
	Candles  int            `json:"candles"`

	// Stats is nil when the series is missing or too short
	Stats *WindowStats `json:"stats"`

	// Series is the full-history view used by the detail page
	Series *SeriesMetrics `json:"series,omitempty"`
}

// Insufficient reports whether the row has no window statistics.
func (r SummaryRow) Insufficient() bool { return r.Stats == nil }

// BuildSummary produces exactly one row per configured exchange, in registry order.
func BuildSummary(doc *store.CoinHistory, exchanges []store.Exchange, windowLength int) []SummaryRow {
	rows := make([]SummaryRow, 0, len(exchanges))
	for _, ex := range exchanges {
		row := SummaryRow{Exchange: ex}

		series, ok := doc.Series(ex.Key)
		if ok {
			row.Market = series.Market
			row.Quote = series.Quote
			row.Candles = len(series.Candles)

			if stats, ok := ComputeWindow(series.Candles, windowLength); ok {
				row.Stats = &stats
			}
			if metrics, ok := ComputeSeries(series.Candles); ok {
				row.Series = &metrics
			}
		}

		rows = append(rows, row)
	}
	return rows
}

// Cells renders the row for a table with SummaryHeaders columns.
func (r SummaryRow) Cells() []string {
	name := r.Exchange.Name
	if name == "" {
		name = r.Exchange.Key
	}
	market := r.Market
	if market == "" {
		market = "-"
	}
	if r.Stats == nil {
		cells := make([]string, len(SummaryHeaders))
		cells[0], cells[1], cells[2] = name, market, InsufficientData
		return cells
	}

	s := r.Stats
	return []string{
		name,
		market,
		s.StartDate.Format("2006-01-02"),
		s.EndDate.Format("2006-01-02"),
		FormatPrice(&s.StartClose),
		FormatPrice(s.EndClose),
		FormatPercent(s.CumReturn),
		FormatPercent(s.LogReturn),
		FormatBeta(s.Beta),
		FormatPercent(&s.MaxDrawdown),
		FormatFlag(s.PriceDrop, s.CumReturn != nil),
		FormatFlag(s.LogDrop, s.LogReturn != nil),
		FormatFlag(s.BetaDrop, s.Beta != nil),
	}
}

// FormatPercent renders a fraction as a percentage with two decimals.
func FormatPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

// FormatBeta renders a trend coefficient with four decimals.
func FormatBeta(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'f', 4, 64)
}

// FormatPrice renders a close without trailing zeros.
func FormatPrice(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'g', 8, 64)
}

// FormatFlag renders a decline indicator.
func FormatFlag(flag, available bool) string {
	switch {
	case !available:
		return "-"
	case flag:
		return "YES"
	default:
		return "no"
	}
}
