package domain

// Read models

type KPIs struct {
	TotalProducts int `json:"total_products"`
	TotalUsers    int `json:"total_users"`
	TotalReviews  int `json:"total_reviews"`
}

type TrendPoint struct {
	Year      int                `json:"year"`
	Fractions map[string]float64 `json:"fractions"`
}

// SentimentTrend is rectangular: every point has a fraction for every category.
type SentimentTrend struct {
	Behavior   string       `json:"behavior"`
	Categories []string     `json:"categories"`
	Points     []TrendPoint `json:"points"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Field names a categorical column that can be counted.
type Field string

const (
	FieldSentiment Field = "Sentiment"
	FieldBehavior  Field = "Behavior"
)

func (f Field) Value(r Review) string {
	switch f {
	case FieldSentiment:
		return r.Sentiment
	case FieldBehavior:
		return r.Behavior
	}
	return ""
}

type Dashboard struct {
	Selection    Selection       `json:"selection"`
	KPIs         KPIs            `json:"kpis"`
	Trend        *SentimentTrend `json:"trend,omitempty"`
	TrendMessage string          `json:"trend_message,omitempty"`
	Sentiment    []CategoryCount `json:"sentiment"`
	Behavior     []CategoryCount `json:"behavior"`
	Charts       *ChartLinks     `json:"charts,omitempty"`
}

type ChartLinks struct {
	Trend     string `json:"trend,omitempty"`
	Sentiment string `json:"sentiment,omitempty"`
	Behavior  string `json:"behavior,omitempty"`
}

// Options feeds the year and score selectors.
type Options struct {
	Years      []int    `json:"years"`
	StartYears []int    `json:"start_years"`
	EndYears   []int    `json:"end_years"`
	Scores     []int    `json:"scores"`
	Behaviors  []string `json:"behaviors"`
}
