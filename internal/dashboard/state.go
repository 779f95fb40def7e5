// Package dashboard coordinates loading, analysis and rendering: it owns the
// application state, the chart instances of the current selection and the
// detail view.
package dashboard

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/applause/dashboard/internal/analytics"
	"github.com/applause/dashboard/internal/store"
)

var (
	// ErrStaleResponse is returned when a newer request superseded this one
	ErrStaleResponse = errors.New("response superseded by a newer request")
	// ErrNoCandles refuses to open a detail view for an empty series
	ErrNoCandles = errors.New("no candle data for this exchange")
	// ErrUnknownExchange marks an exchange key outside the registry
	ErrUnknownExchange = errors.New("exchange is not configured")
	// ErrNoSelection is returned when an action needs a selected coin
	ErrNoSelection = errors.New("no coin selected")
	// ErrLoadInFlight is returned by a refresh while a coin load is pending
	ErrLoadInFlight = errors.New("coin load in progress")
)

// DetailState is the state of the detail view.
type DetailState int

const (
	DetailClosed DetailState = iota
	DetailOpen
)

func (s DetailState) String() string {
	if s == DetailOpen {
		return "open"
	}
	return "closed"
}

// CoinView is the rendered result of one coin selection.
type CoinView struct {
	Coin     string                 `json:"coin"`
	Rows     []analytics.SummaryRow `json:"rows"`
	LoadedAt time.Time              `json:"loaded_at"`

	doc *store.CoinHistory
}

// Series returns the candle series of an exchange in this view.
func (v *CoinView) Series(key string) (store.ExchangeSeries, bool) {
	return v.doc.Series(key)
}

// DistributionView is a rendered distribution sample.
type DistributionView struct {
	Highlight string                    `json:"highlight,omitempty"`
	Total     int                       `json:"total"`
	Sample    []store.DistributionEntry `json:"sample"`
	Axis      [2]float64                `json:"axis"`
}

// Empty reports whether the sample has no entries.
func (d DistributionView) Empty() bool { return len(d.Sample) == 0 }

// DetailView is what the detail page shows for one coin and exchange.
type DetailView struct {
	Coin     string
	Exchange store.Exchange
	Series   store.ExchangeSeries
	Row      analytics.SummaryRow
}

// State is the application state shared by the renderers. Values returned by
// Controller.Current are copies.
type State struct {
	Coins        []string
	Current      *CoinView
	Insights     *store.QuantInsights
	Distribution DistributionView
	Highlight    string
	Detail       DetailState
	DetailKey    string
}

// Sequencer issues monotonically increasing request tokens. Only the most
// recently issued token is current.
type Sequencer struct {
	n atomic.Uint64
}

// Next issues a new token and makes it current.
func (s *Sequencer) Next() uint64 {
	return s.n.Add(1)
}

// IsCurrent reports whether token is the latest issued.
func (s *Sequencer) IsCurrent(token uint64) bool {
	return s.n.Load() == token
}
