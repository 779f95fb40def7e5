package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/applause/dashboard/internal/analytics"
	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/dashboard"
)

// SummaryTableView shows the cross-exchange window statistics of one coin.
type SummaryTableView struct {
	table    *tview.Table
	rows     []analytics.SummaryRow
	onDetail func(exchangeKey string)
}

// NewSummaryTableView creates a new summary table. onDetail runs on the UI
// goroutine when a row is activated.
func NewSummaryTableView(onDetail func(exchangeKey string)) *SummaryTableView {
	table := tview.NewTable().
		SetBorders(false).
		SetFixed(1, 0).
		SetSelectable(true, false)

	table.SetTitle(" Summary ").SetBorder(true)

	v := &SummaryTableView{table: table, onDetail: onDetail}
	v.setHeader()

	table.SetSelectedFunc(func(row, _ int) {
		if row < 1 || row > len(v.rows) || v.onDetail == nil {
			return
		}
		v.onDetail(v.rows[row-1].Exchange.Key)
	})
	return v
}

// Widget returns the tview primitive.
func (v *SummaryTableView) Widget() tview.Primitive {
	return v.table
}

func (v *SummaryTableView) setHeader() {
	for col, header := range analytics.SummaryHeaders {
		cell := tview.NewTableCell(header).
			SetTextColor(tview.Styles.SecondaryTextColor).
			SetAlign(tview.AlignLeft).
			SetSelectable(false).
			SetExpansion(1)
		v.table.SetCell(0, col, cell)
	}
}

// Update renders one row per configured exchange.
func (v *SummaryTableView) Update(view *dashboard.CoinView) {
	v.rows = view.Rows
	v.table.Clear()
	v.setHeader()

	for i, row := range v.rows {
		cells := row.Cells()
		for col, text := range cells {
			cell := tview.NewTableCell(text).
				SetAlign(tview.AlignLeft).
				SetExpansion(1)

			switch {
			case col == 0:
				cell.SetTextColor(tcell.GetColor(chart.ExchangeColor(row.Exchange.Key)))
			case row.Insufficient():
				cell.SetTextColor(tcell.ColorGray)
			case text == "YES":
				cell.SetTextColor(tcell.ColorRed)
			}
			v.table.SetCell(i+1, col, cell)
		}
	}

	v.table.Select(1, 0)
	v.table.SetTitle(fmt.Sprintf(" %s: first %d days after listing (Enter for details) ",
		view.Coin, windowDays(view.Rows)))
}

// ExchangeAt returns the exchange key of the nth row, counting from 1.
func (v *SummaryTableView) ExchangeAt(n int) (string, bool) {
	if n < 1 || n > len(v.rows) {
		return "", false
	}
	return v.rows[n-1].Exchange.Key, true
}

func windowDays(rows []analytics.SummaryRow) int {
	for _, row := range rows {
		if row.Stats != nil {
			return row.Stats.WindowLength - 1
		}
	}
	return analytics.DefaultWindowLength - 1
}
