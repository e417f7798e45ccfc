package charts

// Colors follow the original dashboard: the trend uses pure red/gray for
// negative/neutral, the donuts the softer shades.
var (
	trendColors = map[string]string{
		"positive": "#674FEE",
		"negative": "#FF0000",
		"neutral":  "#808080",
	}
	sentimentColors = map[string]string{
		"positive": "#674FEE",
		"negative": "#C50101",
		"neutral":  "#A5A8A8",
	}
	behaviorPalette = []string{"#674FEE", "#3223FA", "#C50101", "#A5A8A8"}
	fallbackPalette = []string{"#3AA6B9", "#F7418F", "#FFCBCB", "#2E8B57", "#D2691E"}
)

// Palette picks a color for the i-th category of a chart.
type Palette func(i int, category string) string

func TrendPalette(i int, category string) string { return fromMap(trendColors, i, category) }

func SentimentPalette(i int, category string) string { return fromMap(sentimentColors, i, category) }

// BehaviorPalette assigns colors by rank, cycling.
func BehaviorPalette(i int, _ string) string { return behaviorPalette[i%len(behaviorPalette)] }

func fromMap(m map[string]string, i int, category string) string {
	if c, ok := m[category]; ok {
		return c
	}
	return fallbackPalette[i%len(fallbackPalette)]
}
