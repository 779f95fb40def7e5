package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/rivo/tview"

	"github.com/applause/dashboard/internal/analytics"
	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/dashboard"
)

// DetailModal is the full-size view of one coin on one exchange: the
// high/low chart, the window statistics and every candle.
type DetailModal struct {
	root     *tview.Flex
	content  *tview.Flex
	chartBox *tview.Box
	info     *tview.TextView
	table    *tview.Table

	activeID string
	series   []chart.Series
	onClose  func()
}

// NewDetailModal creates the modal. onClose runs on the UI goroutine on
// Escape or a click outside the content.
func NewDetailModal(onClose func()) *DetailModal {
	m := &DetailModal{
		chartBox: tview.NewBox(),
		info:     tview.NewTextView().SetDynamicColors(true),
		table: tview.NewTable().
			SetBorders(false).
			SetFixed(1, 0).
			SetSelectable(true, false),
		onClose: onClose,
	}
	m.chartBox.SetDrawFunc(m.drawChart)
	m.table.SetBorder(true).SetTitle(" Candles ")

	m.content = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(m.chartBox, 0, 3, false).
		AddItem(m.info, 3, 0, false).
		AddItem(m.table, 0, 2, true)
	m.content.SetBorder(true).SetTitle(" Detail ")

	m.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().
			AddItem(nil, 0, 1, false).
			AddItem(m.content, 0, 8, true).
			AddItem(nil, 0, 1, false), 0, 8, true).
		AddItem(nil, 0, 1, false)

	m.root.SetMouseCapture(func(action tview.MouseAction, event *tcell.EventMouse) (tview.MouseAction, *tcell.EventMouse) {
		if action == tview.MouseLeftClick && !m.content.InRect(event.Position()) {
			if m.onClose != nil {
				m.onClose()
			}
			return action, nil
		}
		return action, event
	})
	return m
}

// Widget returns the tview primitive.
func (m *DetailModal) Widget() tview.Primitive {
	return m.root
}

// Focus returns the primitive that takes keyboard focus.
func (m *DetailModal) Focus() tview.Primitive {
	return m.table
}

// show fills the modal and returns its chart instance. Must run on the UI goroutine.
func (m *DetailModal) show(id string, view dashboard.DetailView) {
	high, low := chart.HighLowSeries(view.Exchange.Name, chart.ExchangeColor(view.Exchange.Key), view.Series.Candles)
	m.activeID = id
	m.series = []chart.Series{high, low}

	m.content.SetTitle(fmt.Sprintf(" %s on %s (%s)  Esc to close ", view.Coin, view.Exchange.Name, view.Series.Market))
	m.info.SetText(detailInfo(view))

	m.table.Clear()
	for col, header := range dashboard.CandleHeaders {
		m.table.SetCell(0, col, tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignRight).
			SetSelectable(false).
			SetExpansion(1))
	}
	for i, c := range view.Series.Candles {
		for col, text := range dashboard.CandleCells(c) {
			m.table.SetCell(i+1, col, tview.NewTableCell(text).
				SetAlign(tview.AlignRight).
				SetExpansion(1))
		}
	}
	m.table.SetTitle(fmt.Sprintf(" Candles (%d) ", len(view.Series.Candles)))
	m.table.ScrollToBeginning()
}

// clear empties the modal if id is still the active instance.
func (m *DetailModal) clear(id string) {
	if m.activeID != id {
		return
	}
	m.activeID = ""
	m.series = nil
	m.table.Clear()
	m.info.Clear()
}

func (m *DetailModal) drawChart(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	if len(m.series) == 0 || width < 4 || height < 2 {
		return x, y, width, height
	}
	drawSeries(screen, m.series, x, y, width, height)
	return x, y, width, height
}

func detailInfo(view dashboard.DetailView) string {
	row := view.Row
	var b strings.Builder
	if s := row.Stats; s != nil {
		fmt.Fprintf(&b, "Window %s to %s: return %s, log return %s, beta %s, max drawdown %s\n",
			s.StartDate.Format("2006-01-02"), s.EndDate.Format("2006-01-02"),
			colorPercent(s.CumReturn), colorPercent(s.LogReturn),
			analytics.FormatBeta(s.Beta), colorPercent(&s.MaxDrawdown))
	} else {
		fmt.Fprintf(&b, "[gray]Window: %s[-]\n", analytics.InsufficientData)
	}
	if m := row.Series; m != nil {
		vol := m.Volatility
		fmt.Fprintf(&b, "Since listing (%d days): return %s, max drawdown %s, annualized volatility %s\n",
			m.Days, colorPercent(&m.CumReturn), colorPercent(&m.MaxDrawdown), analytics.FormatPercent(&vol))
	}
	return b.String()
}

// detailChart is the chart.Instance of an open detail modal.
type detailChart struct {
	id    string
	modal *DetailModal
	queue func(func())
}

func newDetailChart(modal *DetailModal, queue func(func())) *detailChart {
	return &detailChart{id: uuid.NewString(), modal: modal, queue: queue}
}

func (c *detailChart) ID() string { return c.id }

func (c *detailChart) Destroy() {
	c.queue(func() { c.modal.clear(c.id) })
}
