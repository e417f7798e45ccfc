package app

import (
	"cmp"
	"slices"
	"sort"

	"reviews_dashboard/internal/domain"
)

// Filter keeps rows with start <= Year <= end that pass the score filter.
// Callers validate start <= end first; an inverted range yields an empty table.
func Filter(t domain.ReviewTable, start, end int, scores domain.ScoreFilter) domain.ReviewTable {
	out := make([]domain.Review, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Year < start || r.Year > end {
			continue
		}
		if !scores.Allows(r.Score) {
			continue
		}
		out = append(out, r)
	}
	return domain.NewReviewTable(out)
}

// FilterSelection applies a whole selection.
func FilterSelection(t domain.ReviewTable, sel domain.Selection) domain.ReviewTable {
	return Filter(t, sel.StartYear, sel.EndYear, sel.Scores)
}

func ComputeKPIs(t domain.ReviewTable) domain.KPIs {
	products := make(map[string]struct{}, len(t.Rows))
	users := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		products[r.ProductID] = struct{}{}
		users[r.UserID] = struct{}{}
	}
	return domain.KPIs{
		TotalProducts: len(products),
		TotalUsers:    len(users),
		TotalReviews:  len(t.Rows),
	}
}

var sentimentOrder = []string{domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral}

// SentimentTrend returns, per year, the share of each sentiment among rows of
// the given behavior. It returns domain.ErrEmptySeries when no row matches.
func SentimentTrend(t domain.ReviewTable, behavior string) (domain.SentimentTrend, error) {
	perYear := map[int]map[string]int{}
	totals := map[string]int{}
	for _, r := range t.Rows {
		if r.Behavior != behavior {
			continue
		}
		counts, ok := perYear[r.Year]
		if !ok {
			counts = map[string]int{}
			perYear[r.Year] = counts
		}
		counts[r.Sentiment]++
		totals[r.Sentiment]++
	}
	if len(perYear) == 0 {
		return domain.SentimentTrend{}, domain.ErrEmptySeries
	}

	years := make([]int, 0, len(perYear))
	for y := range perYear {
		years = append(years, y)
	}
	slices.Sort(years)

	cats := trendCategories(totals)
	points := make([]domain.TrendPoint, 0, len(years))
	for _, y := range years {
		counts := perYear[y]
		n := 0
		for _, c := range counts {
			n += c
		}
		fr := make(map[string]float64, len(cats))
		for _, c := range cats {
			fr[c] = float64(counts[c]) / float64(n)
		}
		points = append(points, domain.TrendPoint{Year: y, Fractions: fr})
	}
	return domain.SentimentTrend{Behavior: behavior, Categories: cats, Points: points}, nil
}

// known sentiments first, then anything else alphabetically
func trendCategories(totals map[string]int) []string {
	cats := make([]string, 0, len(totals))
	for _, s := range sentimentOrder {
		if totals[s] > 0 {
			cats = append(cats, s)
		}
	}
	var extra []string
	for s, n := range totals {
		if n > 0 && !slices.Contains(sentimentOrder, s) {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	return append(cats, extra...)
}

// Distribution counts each value of field, most frequent first; ties keep
// first-encounter order.
func Distribution(t domain.ReviewTable, field domain.Field) []domain.CategoryCount {
	out := []domain.CategoryCount{}
	idx := map[string]int{}
	for _, r := range t.Rows {
		v := field.Value(r)
		if i, ok := idx[v]; ok {
			out[i].Count++
			continue
		}
		idx[v] = len(out)
		out = append(out, domain.CategoryCount{Category: v, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// BuildOptions lists selector choices from the base table. Start years omit the
// last year unless it is the only one.
func BuildOptions(t domain.ReviewTable) domain.Options {
	years := map[int]struct{}{}
	scores := map[int]struct{}{}
	behaviors := map[string]struct{}{}
	for _, r := range t.Rows {
		years[r.Year] = struct{}{}
		scores[r.Score] = struct{}{}
		behaviors[r.Behavior] = struct{}{}
	}
	o := domain.Options{
		Years:     sortedKeys(years),
		Scores:    sortedKeys(scores),
		Behaviors: sortedKeys(behaviors),
	}
	o.EndYears = o.Years
	o.StartYears = o.Years
	if len(o.Years) > 1 {
		o.StartYears = o.Years[:len(o.Years)-1]
	}
	return o
}

// DefaultSelection spans every year with no score restriction.
func DefaultSelection(t domain.ReviewTable, behavior string) domain.Selection {
	sel := domain.Selection{Scores: domain.NoScoreFilter(), Behavior: behavior}
	for i, r := range t.Rows {
		if i == 0 || r.Year < sel.StartYear {
			sel.StartYear = r.Year
		}
		if i == 0 || r.Year > sel.EndYear {
			sel.EndYear = r.Year
		}
	}
	return sel
}

func sortedKeys[K cmp.Ordered](m map[K]struct{}) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
