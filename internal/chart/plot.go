package chart

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/applause/dashboard/internal/store"
)

// Reduce selects how several points falling into one column are combined.
type Reduce int

const (
	ReduceLast Reduce = iota
	ReduceMax
	ReduceMin
)

// Point is one observation. A NaN value is a gap.
type Point struct {
	Time  time.Time
	Value float64
}

// Series is one line of a chart.
type Series struct {
	Name   string
	Color  string
	Marker rune
	Reduce Reduce
	Points []Point
}

var palette = map[string]string{
	"binance":  "#f0b90b",
	"coinbase": "#3773f5",
	"bybit":    "#f7a600",
	"upbit":    "#1c8dff",
	"okx":      "#d0d0d0",
}

var fallbackColors = []string{"#2ecc71", "#e74c3c", "#9b59b6", "#1abc9c", "#e67e22"}

// ExchangeColor returns the display color of an exchange key. Unknown keys
// get a stable color from a fallback list.
func ExchangeColor(key string) string {
	key = strings.ToLower(key)
	if c, ok := palette[key]; ok {
		return c
	}
	var h int
	for _, r := range key {
		h += int(r)
	}
	return fallbackColors[h%len(fallbackColors)]
}

// HighLowSeries builds the daily-high and daily-low lines of one exchange.
func HighLowSeries(label, color string, candles []store.Candle) (high, low Series) {
	high = Series{Name: label + " high", Color: color, Marker: '▴', Reduce: ReduceMax}
	low = Series{Name: label + " low", Color: color, Marker: '▾', Reduce: ReduceMin}
	high.Points = make([]Point, len(candles))
	low.Points = make([]Point, len(candles))
	for i, c := range candles {
		h, ok := c.High.Float()
		if !ok {
			h = math.NaN()
		}
		l, ok := c.Low.Float()
		if !ok {
			l = math.NaN()
		}
		high.Points[i] = Point{Time: c.Timestamp, Value: h}
		low.Points[i] = Point{Time: c.Timestamp, Value: l}
	}
	return high, low
}

// Frame is a rendered chart. Lines carry tview color tags for series with a color.
type Frame struct {
	Lines []string
	Min   float64
	Max   float64
	From  time.Time
	To    time.Time
	Empty bool
}

// String joins the frame lines.
func (f Frame) String() string { return strings.Join(f.Lines, "\n") }

const gutterWidth = 11

type cell struct {
	r     rune
	color string
}

// Plot draws the series on a width x height grid with a value gutter on the
// left and a date axis below. Later series are drawn over earlier ones.
func Plot(series []Series, width, height int) Frame {
	width = max(width-gutterWidth, 8)
	height = max(height-1, 3)

	from, to, lo, hi, ok := bounds(series)
	if !ok {
		return Frame{Lines: []string{"no data"}, Empty: true}
	}

	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}

	for _, s := range series {
		for col, v := range columns(s, from, to, width) {
			if math.IsNaN(v) {
				continue
			}
			row := height / 2
			if hi > lo {
				row = height - 1 - int(math.Round((v-lo)/(hi-lo)*float64(height-1)))
			}
			grid[row][col] = cell{r: s.Marker, color: s.Color}
		}
	}

	lines := make([]string, 0, height+1)
	for i, row := range grid {
		var b strings.Builder
		b.WriteString(axisLabel(i, height, lo, hi))
		b.WriteString("│")
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			if c.color == "" {
				b.WriteRune(c.r)
				continue
			}
			fmt.Fprintf(&b, "[%s]%c[-]", c.color, c.r)
		}
		lines = append(lines, b.String())
	}
	lines = append(lines, dateAxis(from, to, width))

	return Frame{Lines: lines, Min: lo, Max: hi, From: from, To: to}
}

// Legend renders one colored entry per series.
func Legend(series []Series) string {
	parts := make([]string, 0, len(series))
	for _, s := range series {
		if s.Color == "" {
			parts = append(parts, fmt.Sprintf("%c %s", s.Marker, s.Name))
			continue
		}
		parts = append(parts, fmt.Sprintf("[%s]%c %s[-]", s.Color, s.Marker, s.Name))
	}
	return strings.Join(parts, "  ")
}

func bounds(series []Series) (from, to time.Time, lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range series {
		for _, p := range s.Points {
			if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
				continue
			}
			if !ok || p.Time.Before(from) {
				from = p.Time
			}
			if !ok || p.Time.After(to) {
				to = p.Time
			}
			lo = math.Min(lo, p.Value)
			hi = math.Max(hi, p.Value)
			ok = true
		}
	}
	return from, to, lo, hi, ok
}

// columns buckets the series into width columns; empty columns are NaN.
func columns(s Series, from, to time.Time, width int) []float64 {
	out := make([]float64, width)
	seen := make([]bool, width)
	for i := range out {
		out[i] = math.NaN()
	}

	span := to.Sub(from)
	for _, p := range s.Points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		col := 0
		if span > 0 {
			col = int(float64(p.Time.Sub(from)) / float64(span) * float64(width-1))
		}
		col = min(max(col, 0), width-1)

		switch {
		case !seen[col], s.Reduce == ReduceLast:
			out[col] = p.Value
		case s.Reduce == ReduceMax:
			out[col] = math.Max(out[col], p.Value)
		case s.Reduce == ReduceMin:
			out[col] = math.Min(out[col], p.Value)
		}
		seen[col] = true
	}
	return out
}

func axisLabel(row, height int, lo, hi float64) string {
	var v float64
	switch row {
	case 0:
		v = hi
	case height - 1:
		v = lo
	case height / 2:
		v = lo + (hi-lo)/2
	default:
		return strings.Repeat(" ", gutterWidth-1)
	}
	return fmt.Sprintf("%*s", gutterWidth-1, formatAxisValue(v))
}

func formatAxisValue(v float64) string {
	return fmt.Sprintf("%.6g", v)
}

func dateAxis(from, to time.Time, width int) string {
	left := from.UTC().Format("2006-01-02")
	right := to.UTC().Format("2006-01-02")
	pad := width - len(left) - len(right)
	if pad < 1 {
		return strings.Repeat(" ", gutterWidth) + left
	}
	return strings.Repeat(" ", gutterWidth) + left + strings.Repeat(" ", pad) + right
}
