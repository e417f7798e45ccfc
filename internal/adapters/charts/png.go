package charts

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"reviews_dashboard/internal/domain"
)

const (
	trendWidth  = 900
	trendHeight = 350
	donutSize   = 320
)

func hex(c string) drawing.Color { return drawing.ColorFromHex(strings.TrimPrefix(c, "#")) }

// RenderTrendPNG draws the sentiment trend: x = year (one tick per year), y in [0, 1].
func RenderTrendPNG(w io.Writer, tr domain.SentimentTrend) error {
	if len(tr.Points) == 0 || len(tr.Categories) == 0 {
		return ErrNothingToDraw
	}
	xs := make([]float64, len(tr.Points))
	ticks := make([]chart.Tick, len(tr.Points))
	for i, p := range tr.Points {
		xs[i] = float64(p.Year)
		ticks[i] = chart.Tick{Value: xs[i], Label: strconv.Itoa(p.Year)}
	}

	series := make([]chart.Series, 0, len(tr.Categories))
	for i, c := range tr.Categories {
		ys := make([]float64, len(tr.Points))
		for j, p := range tr.Points {
			ys[j] = p.Fractions[c]
		}
		col := hex(TrendPalette(i, c))
		series = append(series, chart.ContinuousSeries{
			Name:    c,
			XValues: xs,
			YValues: ys,
			Style:   chart.Style{StrokeColor: col, StrokeWidth: 2, DotColor: col, DotWidth: 4},
		})
	}

	// a single year has no x extent; pad it so the axis range is non-zero
	xMin, xMax := xs[0], xs[len(xs)-1]
	if xMin == xMax {
		xMin, xMax = xMin-0.5, xMax+0.5
	}

	graph := chart.Chart{
		Width:      trendWidth,
		Height:     trendHeight,
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 28}},
		XAxis: chart.XAxis{
			Name:  "Year",
			Range: &chart.ContinuousRange{Min: xMin, Max: xMax},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Fraction of Reviews",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render trend: %w", err)
	}
	return nil
}

// RenderDonutPNG draws category shares with percentage labels.
func RenderDonutPNG(w io.Writer, dist []domain.CategoryCount, colors Palette) error {
	total := 0
	for _, c := range dist {
		total += c.Count
	}
	if total == 0 {
		return ErrNothingToDraw
	}
	values := make([]chart.Value, 0, len(dist))
	for i, c := range dist {
		pct := 100 * float64(c.Count) / float64(total)
		values = append(values, chart.Value{
			Value: float64(c.Count),
			Label: fmt.Sprintf("%s %.1f%%", c.Category, pct),
			Style: chart.Style{FillColor: hex(colors(i, c.Category)), StrokeColor: drawing.ColorWhite},
		})
	}
	donut := chart.DonutChart{
		Width:  donutSize,
		Height: donutSize,
		Values: values,
	}
	if err := donut.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render donut: %w", err)
	}
	return nil
}
