package chart

import (
	"fmt"
	"math"
	"strings"

	"github.com/applause/dashboard/internal/store"
)

// NoDistributionData is shown instead of an empty distribution chart.
const NoDistributionData = "No return distribution data available"

// BarKind classifies a distribution bar for coloring.
type BarKind int

const (
	Decline BarKind = iota
	Gain
	Highlight
)

// Bar colors by kind.
var BarColors = map[BarKind]string{
	Decline:   "#e74c3c",
	Gain:      "#2ecc71",
	Highlight: "#f1c40f",
}

// Bar is one coin of the distribution chart.
type Bar struct {
	Label string
	Value float64 // cumulative return as a fraction
	Kind  BarKind
}

// Axis is the value range of a distribution chart.
type Axis struct {
	Min float64
	Max float64
}

// BarsFromSample converts a distribution sample to bars. The highlighted coin
// gets the Highlight kind regardless of sign.
func BarsFromSample(sample []store.DistributionEntry, highlight string) []Bar {
	bars := make([]Bar, 0, len(sample))
	for _, e := range sample {
		kind := Gain
		switch {
		case highlight != "" && strings.EqualFold(e.Coin, highlight):
			kind = Highlight
		case e.CumReturn < 0:
			kind = Decline
		}
		bars = append(bars, Bar{Label: e.Coin, Value: e.CumReturn, Kind: kind})
	}
	return bars
}

// AxisFor returns the value range of bars. It always spans at least
// [-1, 1] so charts of different samples share a scale.
func AxisFor(bars []Bar) Axis {
	axis := Axis{Min: -1, Max: 1}
	for _, b := range bars {
		if math.IsNaN(b.Value) || math.IsInf(b.Value, 0) {
			continue
		}
		axis.Min = math.Min(axis.Min, b.Value)
		axis.Max = math.Max(axis.Max, b.Value)
	}
	return axis
}

// RenderBars draws one horizontal bar per entry, in order, inside width
// columns. Bars carry tview color tags when colored is set. A non-finite
// value draws no bar. An empty input renders the NoDistributionData message.
func RenderBars(bars []Bar, width int, colored bool) []string {
	if len(bars) == 0 {
		return []string{NoDistributionData}
	}

	labelWidth := 4
	for _, b := range bars {
		labelWidth = max(labelWidth, len(b.Label))
	}
	const valueWidth = 10
	area := max(width-labelWidth-valueWidth-2, 10)

	axis := AxisFor(bars)
	scale := float64(area-1) / (axis.Max - axis.Min)
	zero := int(math.Round(-axis.Min * scale))

	lines := make([]string, 0, len(bars)+1)
	for _, b := range bars {
		pos, value := zero, "n/a"
		if !math.IsNaN(b.Value) && !math.IsInf(b.Value, 0) {
			pos = int(math.Round((b.Value - axis.Min) * scale))
			value = fmt.Sprintf("%.2f%%", b.Value*100)
		}
		lo, hi := min(pos, zero), max(pos, zero)

		var row strings.Builder
		for col := 0; col < area; col++ {
			switch {
			case col >= lo && col <= hi && lo != hi:
				row.WriteRune('█')
			case col == zero:
				row.WriteRune('│')
			default:
				row.WriteRune(' ')
			}
		}

		bar := row.String()
		switch {
		case colored:
			bar = fmt.Sprintf("[%s]%s[-]", BarColors[b.Kind], bar)
		case b.Kind == Highlight:
			bar = strings.ReplaceAll(bar, "█", "▓")
		}
		lines = append(lines, fmt.Sprintf("%-*s %s %*s",
			labelWidth, b.Label, bar, valueWidth-1, value))
	}
	lines = append(lines, axisLine(axis, labelWidth, area))
	return lines
}

func axisLine(axis Axis, labelWidth, area int) string {
	left := fmt.Sprintf("%.0f%%", axis.Min*100)
	right := fmt.Sprintf("%.0f%%", axis.Max*100)
	pad := max(area-len(left)-len(right), 1)
	return strings.Repeat(" ", labelWidth+1) + left + strings.Repeat(" ", pad) + right
}
