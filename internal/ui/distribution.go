package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/applause/dashboard/internal/chart"
	"github.com/applause/dashboard/internal/dashboard"
)

// DistributionView shows the sampled post-listing return distribution.
type DistributionView struct {
	box  *tview.Box
	view dashboard.DistributionView
	set  bool
}

// NewDistributionView creates a new distribution view.
func NewDistributionView() *DistributionView {
	v := &DistributionView{box: tview.NewBox()}
	v.box.SetBorder(true).SetTitle(" Return Distribution ")
	v.box.SetDrawFunc(v.draw)
	return v
}

// Widget returns the tview primitive.
func (v *DistributionView) Widget() tview.Primitive {
	return v.box
}

// Update replaces the rendered sample.
func (v *DistributionView) Update(view dashboard.DistributionView) {
	v.view = view
	v.set = true

	title := fmt.Sprintf(" Return Distribution (%d of %d) ", len(view.Sample), view.Total)
	if view.Highlight != "" {
		title = fmt.Sprintf(" Return Distribution (%d of %d, [%s]%s[-]) ",
			len(view.Sample), view.Total, chart.BarColors[chart.Highlight], view.Highlight)
	}
	v.box.SetTitle(title)
}

func (v *DistributionView) draw(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	ix, iy, iw, ih := x+1, y+1, width-2, height-2
	if iw < 4 || ih < 1 {
		return ix, iy, iw, ih
	}

	var lines []string
	if !v.set {
		lines = []string{"Waiting for insights..."}
	} else {
		lines = chart.RenderBars(chart.BarsFromSample(v.view.Sample, v.view.Highlight), iw, true)
	}

	if len(lines) == 1 {
		tview.Print(screen, lines[0], ix, iy+ih/2, iw, tview.AlignCenter, tcell.ColorGray)
		return ix, iy, iw, ih
	}
	for i, line := range lines {
		if i >= ih {
			break
		}
		tview.Print(screen, line, ix, iy+i, iw, tview.AlignLeft, tview.Styles.PrimaryTextColor)
	}
	if len(lines) > ih {
		more := fmt.Sprintf("[gray]+%d more[-]", len(lines)-ih)
		tview.Print(screen, more, ix, iy+ih-1, iw, tview.AlignRight, tcell.ColorGray)
	}
	return ix, iy, iw, ih
}
