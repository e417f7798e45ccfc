package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"reviews_dashboard/internal/domain"
)

// MySQL allows at most 65535 placeholders per statement.
const (
	maxPlaceholders = 65535
	reviewColumns   = 8
	maxRowsPerStmt  = maxPlaceholders / reviewColumns
)

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// StartRun opens an ingest run and returns its id.
func (r *Repo) StartRun(ctx context.Context, startedAt time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertRunSQL, startedAt.UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// InsertReviews stores rs at positions offset.. of the run. Identical records
// stay distinct rows.
func (r *Repo) InsertReviews(ctx context.Context, runID int64, offset int, rs []domain.Review) error {
	for len(rs) > 0 {
		n := min(len(rs), maxRowsPerStmt)
		if err := r.insert(ctx, runID, offset, rs[:n]); err != nil {
			return err
		}
		rs, offset = rs[n:], offset+n
	}
	return nil
}

func (r *Repo) insert(ctx context.Context, runID int64, offset int, rs []domain.Review) error {
	values := make([]string, 0, len(rs))
	args := make([]any, 0, len(rs)*reviewColumns)
	for i, rv := range rs {
		values = append(values, "(?,?,?,?,?,?,?,?)")
		args = append(args,
			runID,
			offset+i,
			rv.ProductID,
			rv.UserID,
			rv.Time.UTC(),
			rv.Score,
			rv.Sentiment,
			rv.Behavior,
		)
	}
	sqlStr := insertReviewsPrefix + strings.Join(values, ",") + insertReviewsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// FinishRun records the outcome. A successful run becomes the snapshot and
// older runs' rows are dropped; a failed run's partial rows are dropped.
func (r *Repo) FinishRun(ctx context.Context, run domain.IngestRun) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, finishRunSQL,
		time.Now().UTC(), run.Rows, run.Status, valStr(run.Error), run.ID); err != nil {
		return fmt.Errorf("update run %d: %w", run.ID, err)
	}
	cleanup := deleteRunSQL
	if run.Status == "ok" {
		cleanup = deleteOlderRunsSQL
	}
	if _, err := tx.ExecContext(ctx, cleanup, run.ID); err != nil {
		return fmt.Errorf("clean up after run %d: %w", run.ID, err)
	}
	return tx.Commit()
}

// LoadReviews reads the published snapshot as a prepared table.
func (r *Repo) LoadReviews(ctx context.Context) (domain.ReviewTable, error) {
	rows, err := r.db.QueryContext(ctx, selectReviewsSQL)
	if err != nil {
		return domain.ReviewTable{}, fmt.Errorf("%w: query reviews: %v", domain.ErrFetchFailed, err)
	}
	defer rows.Close()

	out := make([]domain.Review, 0, 1024)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(
			&rv.ProductID,
			&rv.UserID,
			&rv.Time,
			&rv.Score,
			&rv.Sentiment,
			&rv.Behavior,
		); err != nil {
			return domain.ReviewTable{}, fmt.Errorf("%w: scan review: %v", domain.ErrParseFailure, err)
		}
		rv.Time = rv.Time.UTC()
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewTable{}, fmt.Errorf("%w: read reviews: %v", domain.ErrFetchFailed, err)
	}
	return domain.NewReviewTable(out).Prepare(), nil
}
