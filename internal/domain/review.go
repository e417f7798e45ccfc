package domain

import "time"

// Known sentiment labels, in the order the trend chart draws them.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// DefaultTrendBehavior is the behavior category the sentiment trend is drawn for.
const DefaultTrendBehavior = "Diverse"

type Review struct {
	ProductID string
	UserID    string
	Time      time.Time
	Score     int
	Sentiment string
	Behavior  string

	// derived from Time by Derive; never stored
	Year  int
	Month int
	Day   int
}

// Derive recomputes Year, Month and Day from Time.
func (r *Review) Derive() {
	r.Year = r.Time.Year()
	r.Month = int(r.Time.Month())
	r.Day = r.Time.Day()
}

// ReviewTable is an in-memory review set. A zero ReviewTable (nil Rows) means
// "not computed"; a filtered result always carries a non-nil slice.
type ReviewTable struct {
	Rows []Review
}

func NewReviewTable(rows []Review) ReviewTable {
	if rows == nil {
		rows = []Review{}
	}
	return ReviewTable{Rows: rows}
}

func (t ReviewTable) Len() int { return len(t.Rows) }

// Computed reports whether the table holds a result, possibly empty.
func (t ReviewTable) Computed() bool { return t.Rows != nil }

// Prepare derives date parts for every row in place.
func (t ReviewTable) Prepare() ReviewTable {
	for i := range t.Rows {
		t.Rows[i].Derive()
	}
	return t
}
