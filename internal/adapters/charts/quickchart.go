package charts

import (
	"encoding/json"
	"errors"
	"fmt"

	quickchartgo "github.com/henomis/quickchart-go"
	"github.com/rs/zerolog/log"

	"reviews_dashboard/internal/domain"
)

// ErrNothingToDraw is returned for an empty series or distribution.
var ErrNothingToDraw = errors.New("charts: nothing to draw")

// Chart.js config subset understood by quickchart.io
type chartConfig struct {
	Type    string         `json:"type"`
	Data    chartData      `json:"data"`
	Options map[string]any `json:"options,omitempty"`
}

type chartData struct {
	Labels   []any     `json:"labels"`
	DataSets []dataset `json:"datasets"`
}

type dataset struct {
	Label           string   `json:"label,omitempty"`
	Data            []any    `json:"data"`
	Fill            *bool    `json:"fill,omitempty"`
	BorderColor     string   `json:"borderColor,omitempty"`
	BackgroundColor []string `json:"backgroundColor,omitempty"`
	BorderWidth     int      `json:"borderWidth,omitempty"`
	PointRadius     int      `json:"pointRadius,omitempty"`
}

func urlFor(cfg chartConfig) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal chart config: %w", err)
	}
	qc := quickchartgo.New()
	qc.Config = string(b)
	u, err := qc.GetUrl()
	if err != nil {
		log.Error().Err(err).Str("type", cfg.Type).Msg("quickchart url failed")
		return "", fmt.Errorf("quickchart url: %w", err)
	}
	return u, nil
}

// TrendURL links a line chart with one line per sentiment, y fixed to [0, 1].
func TrendURL(tr domain.SentimentTrend) (string, error) {
	if len(tr.Points) == 0 {
		return "", ErrNothingToDraw
	}
	labels := make([]any, len(tr.Points))
	for i, p := range tr.Points {
		labels[i] = p.Year
	}
	noFill := false
	sets := make([]dataset, 0, len(tr.Categories))
	for i, c := range tr.Categories {
		data := make([]any, len(tr.Points))
		for j, p := range tr.Points {
			data[j] = p.Fractions[c]
		}
		sets = append(sets, dataset{
			Label: c, Data: data, Fill: &noFill,
			BorderColor: TrendPalette(i, c), BorderWidth: 2, PointRadius: 6,
		})
	}
	return urlFor(chartConfig{
		Type: "line",
		Data: chartData{Labels: labels, DataSets: sets},
		Options: map[string]any{
			"scales": map[string]any{
				"yAxes": []any{map[string]any{
					"ticks":      map[string]any{"min": 0, "max": 1},
					"scaleLabel": map[string]any{"display": true, "labelString": "Fraction of Reviews"},
				}},
			},
		},
	})
}

// DonutURL links a doughnut chart of category shares.
func DonutURL(dist []domain.CategoryCount, colors Palette) (string, error) {
	if len(dist) == 0 {
		return "", ErrNothingToDraw
	}
	labels := make([]any, len(dist))
	data := make([]any, len(dist))
	bg := make([]string, len(dist))
	for i, c := range dist {
		labels[i], data[i], bg[i] = c.Category, c.Count, colors(i, c.Category)
	}
	return urlFor(chartConfig{
		Type:    "doughnut",
		Data:    chartData{Labels: labels, DataSets: []dataset{{Data: data, BackgroundColor: bg}}},
		Options: map[string]any{"cutoutPercentage": 60},
	})
}

// Links builds every link a dashboard needs; a chart with no data gets no link.
func Links(d domain.Dashboard) *domain.ChartLinks {
	out := &domain.ChartLinks{}
	if d.Trend != nil {
		out.Trend, _ = TrendURL(*d.Trend)
	}
	out.Sentiment, _ = DonutURL(d.Sentiment, SentimentPalette)
	out.Behavior, _ = DonutURL(d.Behavior, BehaviorPalette)
	return out
}
