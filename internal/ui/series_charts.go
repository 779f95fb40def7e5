package ui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/tview"

	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/store"
)

// SeriesChartsView lays out one high/low chart card per exchange.
type SeriesChartsView struct {
	flex  *tview.Flex
	empty *tview.TextView
	cards []*seriesCard
}

// NewSeriesChartsView creates an empty chart area.
func NewSeriesChartsView() *SeriesChartsView {
	empty := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText("Select a coin to plot its daily highs and lows")

	flex := tview.NewFlex()
	flex.SetTitle(" Daily High / Low ").SetBorder(true)
	flex.AddItem(empty, 0, 1, false)

	return &SeriesChartsView{flex: flex, empty: empty}
}

// Widget returns the tview primitive.
func (v *SeriesChartsView) Widget() tview.Primitive {
	return v.flex
}

// add places card in the layout. Must run on the UI goroutine.
func (v *SeriesChartsView) add(card *seriesCard) {
	if len(v.cards) == 0 {
		v.flex.RemoveItem(v.empty)
	}
	v.cards = append(v.cards, card)
	v.flex.AddItem(card.box, 0, 1, false)
	v.flex.SetTitle(fmt.Sprintf(" Daily High / Low (%d) ", len(v.cards)))
}

// remove takes card out of the layout. Must run on the UI goroutine.
func (v *SeriesChartsView) remove(card *seriesCard) {
	for i, c := range v.cards {
		if c == card {
			v.cards = append(v.cards[:i], v.cards[i+1:]...)
			break
		}
	}
	v.flex.RemoveItem(card.box)
	if len(v.cards) == 0 {
		v.flex.AddItem(v.empty, 0, 1, false)
		v.flex.SetTitle(" Daily High / Low ")
		return
	}
	v.flex.SetTitle(fmt.Sprintf(" Daily High / Low (%d) ", len(v.cards)))
}

// seriesCard is a chart.Instance drawing one exchange.
type seriesCard struct {
	id     string
	box    *tview.Box
	series []chart.Series
	queue  func(func())
	parent *SeriesChartsView
	once   sync.Once
}

func newSeriesCard(coin string, ex store.Exchange, s store.ExchangeSeries, parent *SeriesChartsView, queue func(func())) *seriesCard {
	high, low := chart.HighLowSeries(ex.Name, chart.ExchangeColor(ex.Key), s.Candles)
	card := &seriesCard{
		id:     uuid.NewString(),
		box:    tview.NewBox(),
		series: []chart.Series{high, low},
		queue:  queue,
		parent: parent,
	}
	card.box.SetBorder(true).
		SetTitle(fmt.Sprintf(" %s %s (%d) ", coin, ex.Name, len(s.Candles))).
		SetTitleColor(tcell.GetColor(chart.ExchangeColor(ex.Key)))
	card.box.SetDrawFunc(card.draw)
	return card
}

func (c *seriesCard) ID() string { return c.id }

// Destroy removes the card from the layout.
func (c *seriesCard) Destroy() {
	c.once.Do(func() {
		c.queue(func() { c.parent.remove(c) })
	})
}

func (c *seriesCard) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	ix, iy, iw, ih := x+1, y+1, width-2, height-2
	if iw < 4 || ih < 2 {
		return ix, iy, iw, ih
	}
	drawSeries(screen, c.series, ix, iy, iw, ih)
	return ix, iy, iw, ih
}

// drawSeries plots series into the given rectangle with a legend on the last line.
func drawSeries(screen tcell.Screen, series []chart.Series, x, y, width, height int) {
	frame := chart.Plot(series, width, height-1)
	for i, line := range frame.Lines {
		if i >= height-1 {
			break
		}
		tview.Print(screen, line, x, y+i, width, tview.AlignLeft, tview.Styles.PrimaryTextColor)
	}
	tview.Print(screen, chart.Legend(series), x, y+height-1, width, tview.AlignLeft, tview.Styles.PrimaryTextColor)
}
