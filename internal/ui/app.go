// Package ui provides terminal user interface components.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/dashboard"
	"github.com/applause/dashboard/internal/metrics"
	"github.com/applause/dashboard/internal/store"
)

const (
	pageMain   = "main"
	pageDetail = "detail"
)

// App is the main TUI application. It implements dashboard.Renderer; every
// render call is queued onto the UI goroutine.
type App struct {
	app    *tview.Application
	pages  *tview.Pages
	layout *tview.Flex

	// Views
	coins        *CoinListView
	summary      *SummaryTableView
	charts       *SeriesChartsView
	distribution *DistributionView
	insights     *InsightsPanelView
	status       *tview.TextView
	detail       *DetailModal

	ctrl           *dashboard.Controller
	metricsTracker *metrics.Tracker

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates a new TUI application. Bind must be called before Run.
func NewApp(tracker *metrics.Tracker) *App {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		app:            tview.NewApplication(),
		metricsTracker: tracker,
		ctx:            ctx,
		cancel:         cancel,
	}

	// Initialize views
	a.coins = NewCoinListView(a.selectCoin)
	a.summary = NewSummaryTableView(a.openDetail)
	a.charts = NewSeriesChartsView()
	a.distribution = NewDistributionView()
	a.insights = NewInsightsPanelView()
	a.status = tview.NewTextView().SetDynamicColors(true)
	a.detail = NewDetailModal(a.closeDetail)

	a.setupLayout()
	a.setupKeyboard()

	return a
}

// Bind attaches the controller driven by the UI.
func (a *App) Bind(ctrl *dashboard.Controller) {
	a.ctrl = ctrl
}

// setupLayout creates the layout: coin list on the left, summary table,
// chart cards and the distribution / insights row on the right.
func (a *App) setupLayout() {
	bottomRow := tview.NewFlex().
		AddItem(a.distribution.Widget(), 0, 2, false).
		AddItem(a.insights.Widget(), 0, 1, false)

	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.summary.Widget(), 9, 0, false).
		AddItem(a.charts.Widget(), 0, 3, false).
		AddItem(bottomRow, 0, 2, false)

	body := tview.NewFlex().
		AddItem(a.coins.Widget(), 16, 0, true).
		AddItem(right, 0, 1, false)

	a.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.pages = tview.NewPages().
		AddPage(pageMain, a.layout, true, true).
		AddPage(pageDetail, a.detail.Widget(), true, false)

	a.app.SetRoot(a.pages, true).EnableMouse(true)
}

// setupKeyboard configures keyboard shortcuts.
func (a *App) setupKeyboard() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			a.Stop()
			return nil
		}

		if name, _ := a.pages.GetFrontPage(); name == pageDetail {
			if event.Key() == tcell.KeyEscape || (event.Key() == tcell.KeyRune && (event.Rune() == 'q' || event.Rune() == 'Q')) {
				a.closeDetail()
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyTab:
			if a.app.GetFocus() == a.coins.Widget() {
				a.app.SetFocus(a.summary.Widget())
			} else {
				a.app.SetFocus(a.coins.Widget())
			}
			return nil
		case tcell.KeyRune:
			switch r := event.Rune(); {
			case r == 'q' || r == 'Q':
				a.Stop()
				return nil
			case r == 'r' || r == 'R':
				a.refresh()
				return nil
			case r >= '1' && r <= '9':
				if key, ok := a.summary.ExchangeAt(int(r - '0')); ok {
					a.openDetail(key)
					return nil
				}
			}
		}
		return event
	})
}

// Run starts the TUI application (blocking).
func (a *App) Run() error {
	go a.updateLoop()

	if err := a.app.Run(); err != nil {
		return fmt.Errorf("app run failed: %w", err)
	}
	return nil
}

// Stop gracefully stops the application.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// updateLoop periodically refreshes the session metrics.
func (a *App) updateLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			snapshot := a.metricsTracker.Snapshot()
			a.app.QueueUpdateDraw(func() {
				a.insights.Update(snapshot)
			})
		}
	}
}

// Controller calls block on fetches, so UI handlers run them off the UI goroutine.

func (a *App) selectCoin(coin string) {
	go func() {
		if _, err := a.ctrl.SelectCoin(a.ctx, coin); err != nil && !errors.Is(err, dashboard.ErrStaleResponse) {
			slog.Debug("select_failed", "coin", coin, "error", err)
		}
	}()
}

func (a *App) openDetail(exchangeKey string) {
	go func() {
		if err := a.ctrl.OpenDetail(exchangeKey); err != nil {
			slog.Debug("detail_refused", "exchange", exchangeKey, "error", err)
		}
	}()
}

func (a *App) closeDetail() {
	go a.ctrl.CloseDetail()
}

func (a *App) refresh() {
	go func() {
		_, _ = a.ctrl.LoadInsights(a.ctx)
		switch _, err := a.ctrl.RefreshCurrent(a.ctx); {
		case errors.Is(err, dashboard.ErrNoSelection):
			a.SetStatus("Select a coin first", false)
		case errors.Is(err, dashboard.ErrLoadInFlight):
			a.SetStatus("Still loading, refresh skipped", false)
		}
	}()
}

func (a *App) queue(fn func()) {
	a.app.QueueUpdateDraw(fn)
}

// SetStatus shows msg in the status bar.
func (a *App) SetStatus(msg string, isErr bool) {
	a.queue(func() {
		color := "gray"
		if isErr {
			color = "red"
		}
		a.status.SetText(fmt.Sprintf(" [%s]%s[-]  [darkgray]Tab focus  Enter/1-9 details  r refresh  q quit[-]",
			color, tview.Escape(msg)))
	})
}

// RenderCoins fills the coin list.
func (a *App) RenderCoins(coins []string) {
	a.queue(func() { a.coins.SetCoins(coins) })
}

// RenderSummary fills the summary table.
func (a *App) RenderSummary(view *dashboard.CoinView) {
	a.queue(func() {
		a.summary.Update(view)
		a.coins.Mark(view.Coin)
	})
}

// RenderDistribution redraws the distribution chart.
func (a *App) RenderDistribution(view dashboard.DistributionView) {
	a.queue(func() { a.distribution.Update(view) })
}

// RenderInsights redraws the insights panel.
func (a *App) RenderInsights(doc *store.QuantInsights) {
	a.queue(func() { a.insights.SetInsights(doc) })
}

// NewSeriesChart adds a chart card for one exchange.
func (a *App) NewSeriesChart(coin string, ex store.Exchange, series store.ExchangeSeries) chart.Instance {
	card := newSeriesCard(coin, ex, series, a.charts, a.queue)
	a.queue(func() { a.charts.add(card) })
	return card
}

// OpenDetail shows the detail page.
func (a *App) OpenDetail(view dashboard.DetailView) chart.Instance {
	inst := newDetailChart(a.detail, a.queue)
	a.queue(func() {
		a.detail.show(inst.id, view)
		a.pages.ShowPage(pageDetail)
		a.app.SetFocus(a.detail.Focus())
	})
	return inst
}

// CloseDetail hides the detail page.
func (a *App) CloseDetail() {
	a.queue(func() {
		a.pages.HidePage(pageDetail)
		a.app.SetFocus(a.summary.Widget())
	})
}
