package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog/log"

	"reviews_dashboard/internal/domain"
)

// ParseMode controls what happens to a row that cannot be decoded.
type ParseMode string

const (
	ParseStrict ParseMode = "strict" // any bad row fails the whole load
	ParseSkip   ParseMode = "skip"   // bad rows are logged and dropped
)

func ParseModeOf(s string) (ParseMode, error) {
	switch ParseMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ParseStrict:
		return ParseStrict, nil
	case ParseSkip:
		return ParseSkip, nil
	}
	return "", fmt.Errorf("unknown parse mode %q", s)
}

var requiredColumns = []string{"Time", "ProductId", "UserId", "Score", "Sentiment", "Behavior"}

// LoadAndPrepare decodes a CSV payload into a review table with Year/Month/Day derived.
func LoadAndPrepare(raw []byte, mode ParseMode) (domain.ReviewTable, error) {
	t, _, err := prepare(raw, mode)
	return t, err
}

func prepare(raw []byte, mode ParseMode) (domain.ReviewTable, int, error) {
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))
	first, _, _ := bytes.Cut(raw, []byte("\n"))
	if !bytes.Contains(first, []byte("Time")) {
		return domain.ReviewTable{}, 0, fmt.Errorf("%w: header has no Time column", domain.ErrInvalidFormat)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	headers, err := r.Read()
	if err != nil {
		return domain.ReviewTable{}, 0, fmt.Errorf("%w: read header: %v", domain.ErrInvalidFormat, err)
	}
	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[strings.TrimSpace(h)] = i
	}
	var missing []string
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return domain.ReviewTable{}, 0, fmt.Errorf("%w: missing columns %s", domain.ErrInvalidFormat, strings.Join(missing, ", "))
	}

	rows := make([]domain.Review, 0, 1024)
	skipped := 0
	for line := 2; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var rv domain.Review
		if err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidFormat, err)
		} else {
			rv, err = decodeRow(rec, col)
		}
		if err != nil {
			if mode != ParseSkip {
				return domain.ReviewTable{}, skipped, fmt.Errorf("line %d: %w", line, err)
			}
			skipped++
			log.Warn().Int("line", line).Err(err).Msg("skipping malformed review row")
			continue
		}
		rows = append(rows, rv)
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("rows", len(rows)).Msg("review payload had malformed rows")
	}
	return domain.NewReviewTable(rows).Prepare(), skipped, nil
}

func decodeRow(rec []string, col map[string]int) (domain.Review, error) {
	field := func(name string) (string, error) {
		i := col[name]
		if i >= len(rec) {
			return "", fmt.Errorf("%w: row has %d fields, no %s", domain.ErrParseFailure, len(rec), name)
		}
		return strings.TrimSpace(rec[i]), nil
	}

	var rv domain.Review
	var err error
	vals := make(map[string]string, len(requiredColumns))
	for _, name := range requiredColumns {
		if vals[name], err = field(name); err != nil {
			return rv, err
		}
	}

	if rv.Time, err = parseTime(vals["Time"]); err != nil {
		return rv, fmt.Errorf("%w: Time %q: %v", domain.ErrParseFailure, vals["Time"], err)
	}
	if rv.Score, err = parseScore(vals["Score"]); err != nil {
		return rv, fmt.Errorf("%w: Score %q: %v", domain.ErrParseFailure, vals["Score"], err)
	}
	rv.ProductID = vals["ProductId"]
	rv.UserID = vals["UserId"]
	rv.Sentiment = vals["Sentiment"]
	rv.Behavior = vals["Behavior"]
	return rv, nil
}

// a four-digit year, not part of a longer number
var yearPattern = regexp.MustCompile(`(^|[^0-9])[0-9]{4}([^0-9]|$)`)

// parseTime accepts unix seconds or any layout jinzhu/now understands, in UTC.
// Values without a year are rejected: jinzhu/now would fill the missing date
// from the wall clock.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("empty value")
	}
	if len(s) >= 9 && isDigits(s) {
		sec, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(sec, 0).UTC(), nil
	}
	if !yearPattern.MatchString(s) {
		return time.Time{}, errors.New("no calendar date")
	}
	return now.ParseInLocation(time.UTC, s)
}

// scores may arrive as "5" or "5.0"
func parseScore(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(f), nil
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// FeedSource fetches the CSV from a FeedClient and prepares it.
type FeedSource struct {
	feed      domain.FeedClient
	mode      ParseMode
	onSkipped func(n int)
}

func NewFeedSource(feed domain.FeedClient, mode ParseMode, onSkipped func(n int)) *FeedSource {
	return &FeedSource{feed: feed, mode: mode, onSkipped: onSkipped}
}

func (s *FeedSource) LoadReviews(ctx context.Context) (domain.ReviewTable, error) {
	raw, err := s.feed.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrFetchFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
		return domain.ReviewTable{}, err
	}
	t, skipped, err := prepare(raw, s.mode)
	if skipped > 0 && s.onSkipped != nil {
		s.onSkipped(skipped)
	}
	return t, err
}
