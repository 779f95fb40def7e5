package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/applause/dashboard/internal/analytics"
	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/metrics"
	"github.com/applause/dashboard/internal/store"
)

// EventKind names what changed in a published Event.
type EventKind string

const (
	EventCoins        EventKind = "coins"
	EventCoin         EventKind = "coin"
	EventDistribution EventKind = "distribution"
	EventInsights     EventKind = "insights"
)

// Event is published to subscribers after every successful render.
type Event struct {
	Kind         EventKind            `json:"kind"`
	Coins        []string             `json:"coins,omitempty"`
	Coin         *CoinView            `json:"coin,omitempty"`
	Distribution *DistributionView    `json:"distribution,omitempty"`
	Insights     *store.QuantInsights `json:"insights,omitempty"`
}

// Options configures a Controller.
type Options struct {
	Exchanges    []store.Exchange
	WindowLength int
	SampleTail   int

	// Highlight is the coin highlighted before any selection
	Highlight string
}

// Controller loads documents, runs the analytics and drives a Renderer.
// Every load is gated by a request token: a response that arrives after a
// newer request of the same kind is discarded and never rendered.
type Controller struct {
	loader   Loader
	renderer Renderer
	tracker  *metrics.Tracker
	opts     Options

	coinsSeq    Sequencer
	coinSeq     Sequencer
	insightsSeq Sequencer

	charts *chart.Set
	detail chart.Slot

	mu    sync.Mutex
	state State
	// pending is the coin of the latest coin token until its load completes
	pending string

	subMu     sync.Mutex
	nextSubID int
	listeners map[int]func(Event)
}

// NewController creates a Controller.
func NewController(loader Loader, renderer Renderer, tracker *metrics.Tracker, opts Options) *Controller {
	if opts.WindowLength < 2 {
		opts.WindowLength = analytics.DefaultWindowLength
	}
	if opts.SampleTail < 1 {
		opts.SampleTail = analytics.DefaultSampleTail
	}
	if tracker == nil {
		tracker = metrics.NewTracker()
	}
	return &Controller{
		loader:    loader,
		renderer:  renderer,
		tracker:   tracker,
		opts:      opts,
		charts:    chart.NewSet(),
		state:     State{Highlight: strings.ToUpper(opts.Highlight)},
		listeners: make(map[int]func(Event)),
	}
}

// Exchanges returns the configured registry.
func (c *Controller) Exchanges() []store.Exchange {
	return c.opts.Exchanges
}

// LoadCoins fetches the common-coins list and renders the coin picker.
func (c *Controller) LoadCoins(ctx context.Context) ([]string, error) {
	token := c.coinsSeq.Next()

	start := time.Now()
	coins, err := c.loader.CommonCoins(ctx)
	c.tracker.RecordLoad(metrics.LoadCoins, "", time.Since(start), err)

	c.mu.Lock()
	if !c.coinsSeq.IsCurrent(token) {
		c.mu.Unlock()
		return nil, c.discard("coins", "")
	}
	if err != nil {
		c.renderer.SetStatus(fmt.Sprintf("Failed to load coin list: %v", err), true)
		c.mu.Unlock()
		slog.Warn("coins_load_failed", "error", err)
		return nil, err
	}

	c.state.Coins = coins
	c.renderer.RenderCoins(coins)
	c.renderer.SetStatus(fmt.Sprintf("%d common coins", len(coins)), false)
	c.mu.Unlock()

	slog.Info("coins_loaded", "count", len(coins))
	c.publish(Event{Kind: EventCoins, Coins: coins})
	return coins, nil
}

// SelectCoin loads one coin, destroys the charts of the previous selection,
// renders the summary table and one chart per exchange with candles, and
// re-renders the distribution with the coin highlighted. On a fetch error
// the previous rendering is left untouched.
func (c *Controller) SelectCoin(ctx context.Context, coin string) (*CoinView, error) {
	coin = strings.ToUpper(strings.TrimSpace(coin))

	c.mu.Lock()
	token := c.coinSeq.Next()
	c.pending = coin
	c.renderer.SetStatus(fmt.Sprintf("Loading %s...", coin), false)
	c.mu.Unlock()

	return c.loadCoin(ctx, coin, token, false)
}

// RefreshCurrent reloads the rendered coin in place. The detail view stays
// open and the highlight is kept. It returns ErrLoadInFlight without
// fetching while a coin load is pending.
func (c *Controller) RefreshCurrent(ctx context.Context) (*CoinView, error) {
	c.mu.Lock()
	if c.pending != "" {
		pending := c.pending
		c.mu.Unlock()
		slog.Debug("refresh_skipped", "pending", pending)
		return nil, ErrLoadInFlight
	}
	current := c.state.Current
	if current == nil {
		c.mu.Unlock()
		return nil, ErrNoSelection
	}
	token := c.coinSeq.Next()
	c.pending = current.Coin
	c.mu.Unlock()

	return c.loadCoin(ctx, current.Coin, token, true)
}

func (c *Controller) loadCoin(ctx context.Context, coin string, token uint64, refresh bool) (*CoinView, error) {
	start := time.Now()
	doc, err := c.loader.CoinHistory(ctx, coin)
	c.tracker.RecordLoad(metrics.LoadHistory, coin, time.Since(start), err)

	c.mu.Lock()
	if !c.coinSeq.IsCurrent(token) {
		c.mu.Unlock()
		return nil, c.discard("history", coin)
	}
	c.pending = ""
	if err != nil {
		c.renderer.SetStatus(fmt.Sprintf("Failed to load %s: %v", coin, err), true)
		c.mu.Unlock()
		slog.Warn("coin_load_failed", "coin", coin, "refresh", refresh, "error", err)
		return nil, err
	}

	view := &CoinView{
		Coin:     coin,
		Rows:     analytics.BuildSummary(doc, c.opts.Exchanges, c.opts.WindowLength),
		LoadedAt: time.Now(),
		doc:      doc,
	}

	inPlace := refresh && c.state.Current != nil && c.state.Current.Coin == coin
	if !inPlace {
		c.closeDetailLocked()
	}
	destroyed := c.charts.DestroyAll()
	created := 0
	for _, ex := range c.opts.Exchanges {
		series, ok := doc.Series(ex.Key)
		if !ok || len(series.Candles) == 0 {
			continue
		}
		if inst := c.renderer.NewSeriesChart(coin, ex, series); inst != nil {
			c.charts.Add(inst)
			created++
		}
	}
	c.tracker.ChartsReplaced(destroyed, created)

	c.renderer.RenderSummary(view)
	c.state.Current = view
	if inPlace {
		c.reopenDetailLocked(view)
	} else {
		c.state.Highlight = coin
	}
	dist, rendered := c.renderDistributionLocked()
	c.renderer.SetStatus(fmt.Sprintf("%s: %d of %d exchanges with candles",
		coin, created, len(c.opts.Exchanges)), false)
	c.mu.Unlock()

	slog.Info("coin_rendered",
		"coin", coin,
		"refresh", refresh,
		"charts", created,
		"destroyed", destroyed,
		"insufficient", countInsufficient(view.Rows),
	)
	c.publish(Event{Kind: EventCoin, Coin: view})
	if rendered {
		c.publish(Event{Kind: EventDistribution, Distribution: &dist})
	}
	return view, nil
}

// reopenDetailLocked rebuilds an open detail view from a reloaded coin. The
// view is closed when its exchange no longer has candles.
func (c *Controller) reopenDetailLocked(view *CoinView) {
	if c.state.Detail != DetailOpen {
		return
	}
	ex, ok := c.exchange(c.state.DetailKey)
	if !ok {
		c.closeDetailLocked()
		return
	}
	series, ok := view.Series(ex.Key)
	if !ok || len(series.Candles) == 0 {
		c.closeDetailLocked()
		return
	}

	c.detail.Release()
	c.detail.Replace(c.renderer.OpenDetail(detailView(view, ex, series)))
	slog.Debug("detail_refreshed", "coin", view.Coin, "exchange", ex.Key, "candles", len(series.Candles))
}

// LoadInsights fetches the insights document and renders the insights panel
// and the distribution.
func (c *Controller) LoadInsights(ctx context.Context) (*store.QuantInsights, error) {
	token := c.insightsSeq.Next()

	start := time.Now()
	doc, err := c.loader.Insights(ctx)
	c.tracker.RecordLoad(metrics.LoadInsights, "", time.Since(start), err)

	c.mu.Lock()
	if !c.insightsSeq.IsCurrent(token) {
		c.mu.Unlock()
		return nil, c.discard("insights", "")
	}
	if err != nil {
		c.renderer.SetStatus(fmt.Sprintf("Failed to load insights: %v", err), true)
		c.mu.Unlock()
		slog.Warn("insights_load_failed", "error", err)
		return nil, err
	}

	c.state.Insights = doc
	c.renderer.RenderInsights(doc)
	dist, _ := c.renderDistributionLocked()
	c.mu.Unlock()

	slog.Info("insights_rendered",
		"coins_processed", doc.CoinsProcessed,
		"distribution", len(doc.ReturnDistribution),
		"sample", len(dist.Sample),
	)
	c.publish(Event{Kind: EventInsights, Insights: doc})
	c.publish(Event{Kind: EventDistribution, Distribution: &dist})
	return doc, nil
}

// SetHighlight changes the highlighted coin and re-renders the distribution.
func (c *Controller) SetHighlight(coin string) DistributionView {
	c.mu.Lock()
	c.state.Highlight = strings.ToUpper(strings.TrimSpace(coin))
	dist, rendered := c.renderDistributionLocked()
	c.mu.Unlock()

	if rendered {
		c.publish(Event{Kind: EventDistribution, Distribution: &dist})
	}
	return dist
}

// Distribution computes a sample for highlight without changing state.
func (c *Controller) Distribution(highlight string) DistributionView {
	c.mu.Lock()
	insights := c.state.Insights
	c.mu.Unlock()

	return c.sample(insights, strings.ToUpper(strings.TrimSpace(highlight)))
}

// Summary loads and analyzes a coin without rendering it.
func (c *Controller) Summary(ctx context.Context, coin string) (*CoinView, error) {
	coin = strings.ToUpper(strings.TrimSpace(coin))

	start := time.Now()
	doc, err := c.loader.CoinHistory(ctx, coin)
	c.tracker.RecordLoad(metrics.LoadHistory, coin, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &CoinView{
		Coin:     coin,
		Rows:     analytics.BuildSummary(doc, c.opts.Exchanges, c.opts.WindowLength),
		LoadedAt: time.Now(),
		doc:      doc,
	}, nil
}

// OpenDetail opens the detail view of one exchange of the selected coin.
// An open detail view is torn down first. The transition is refused when
// the exchange has no candles.
func (c *Controller) OpenDetail(exchangeKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state.Current
	if current == nil {
		return ErrNoSelection
	}
	ex, ok := c.exchange(exchangeKey)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExchange, exchangeKey)
	}
	series, ok := current.Series(ex.Key)
	if !ok || len(series.Candles) == 0 {
		c.renderer.SetStatus(fmt.Sprintf("%s has no candles on %s", current.Coin, ex.Name), true)
		return fmt.Errorf("%w: %s %s", ErrNoCandles, current.Coin, ex.Key)
	}

	c.detail.Release()
	c.detail.Replace(c.renderer.OpenDetail(detailView(current, ex, series)))
	c.state.Detail = DetailOpen
	c.state.DetailKey = ex.Key
	c.tracker.SetDetailOpen(true)

	slog.Debug("detail_opened", "coin", current.Coin, "exchange", ex.Key, "candles", len(series.Candles))
	return nil
}

// CloseDetail closes the detail view. It reports whether it was open.
func (c *Controller) CloseDetail() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeDetailLocked()
}

// Current returns a copy of the application state.
func (c *Controller) Current() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Coins = append([]string(nil), c.state.Coins...)
	s.Distribution.Sample = append([]store.DistributionEntry(nil), c.state.Distribution.Sample...)
	return s
}

// LiveCharts returns the identifiers of the charts of the current selection.
func (c *Controller) LiveCharts() []string {
	return c.charts.IDs()
}

// Subscribe registers fn for every published event and returns a function
// that removes it. fn must not block.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	c.listeners[id] = fn

	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Controller) publish(ev Event) {
	c.subMu.Lock()
	listeners := make([]func(Event), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.subMu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (c *Controller) discard(kind, target string) error {
	c.tracker.IncrementStale()
	slog.Debug("stale_response_discarded", "kind", kind, "target", target)
	return ErrStaleResponse
}

func (c *Controller) closeDetailLocked() bool {
	if c.state.Detail != DetailOpen {
		return false
	}
	c.detail.Release()
	c.renderer.CloseDetail()
	c.state.Detail = DetailClosed
	c.state.DetailKey = ""
	c.tracker.SetDetailOpen(false)
	return true
}

// renderDistributionLocked renders the sample for the current highlight.
// Nothing is rendered before the insights document is loaded.
func (c *Controller) renderDistributionLocked() (DistributionView, bool) {
	if c.state.Insights == nil {
		return DistributionView{}, false
	}
	dist := c.sample(c.state.Insights, c.state.Highlight)
	c.state.Distribution = dist
	c.renderer.RenderDistribution(dist)
	return dist, true
}

func (c *Controller) sample(doc *store.QuantInsights, highlight string) DistributionView {
	view := DistributionView{Highlight: highlight, Axis: [2]float64{-1, 1}}
	if doc == nil {
		return view
	}
	view.Total = len(doc.ReturnDistribution)
	view.Sample = analytics.SampleDistribution(doc.ReturnDistribution, c.opts.SampleTail, highlight)
	axis := chart.AxisFor(chart.BarsFromSample(view.Sample, highlight))
	view.Axis = [2]float64{axis.Min, axis.Max}
	return view
}

func detailView(coin *CoinView, ex store.Exchange, series store.ExchangeSeries) DetailView {
	view := DetailView{Coin: coin.Coin, Exchange: ex, Series: series}
	for _, row := range coin.Rows {
		if row.Exchange.Key == ex.Key {
			view.Row = row
			break
		}
	}
	return view
}

func (c *Controller) exchange(key string) (store.Exchange, bool) {
	for _, ex := range c.opts.Exchanges {
		if strings.EqualFold(ex.Key, key) {
			return ex, true
		}
	}
	return store.Exchange{}, false
}

func countInsufficient(rows []analytics.SummaryRow) int {
	n := 0
	for _, r := range rows {
		if r.Insufficient() {
			n++
		}
	}
	return n
}
