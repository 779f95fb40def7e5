package ui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// CoinListView is the coin picker.
type CoinListView struct {
	list     *tview.List
	coins    []string
	onSelect func(coin string)
}

// NewCoinListView creates a new coin list view. onSelect runs on the UI
// goroutine when a coin is chosen.
func NewCoinListView(onSelect func(coin string)) *CoinListView {
	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	list.SetTitle(" Coins ").SetBorder(true)
	list.SetMainTextColor(tcell.ColorWhite)

	v := &CoinListView{list: list, onSelect: onSelect}
	list.SetSelectedFunc(func(_ int, main, _ string, _ rune) {
		if v.onSelect != nil {
			v.onSelect(main)
		}
	})
	return v
}

// Widget returns the tview primitive.
func (v *CoinListView) Widget() tview.Primitive {
	return v.list
}

// SetCoins replaces the listed coins.
func (v *CoinListView) SetCoins(coins []string) {
	v.coins = append([]string(nil), coins...)
	v.list.Clear()
	for _, coin := range v.coins {
		v.list.AddItem(coin, "", 0, nil)
	}
	v.list.SetTitle(fmt.Sprintf(" Coins (%d) ", len(v.coins)))
}

// Mark moves the cursor to coin without triggering a selection.
func (v *CoinListView) Mark(coin string) {
	for i, c := range v.coins {
		if strings.EqualFold(c, coin) {
			v.list.SetCurrentItem(i)
			return
		}
	}
}
