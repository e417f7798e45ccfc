package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"reviews_dashboard/internal/domain"
)

// MaxBatchSize bounds rows per insert statement; MySQL allows at most 65535
// placeholders and each row takes 8.
const MaxBatchSize = 5000

// IngestionService snapshots the review feed into the repository.
type IngestionService struct {
	src     domain.ReviewSource
	repo    domain.ReviewRepository
	batch   int
	workers int
}

func NewIngestionService(src domain.ReviewSource, repo domain.ReviewRepository, batch, workers int) *IngestionService {
	if batch <= 0 {
		batch = 500
	}
	if batch > MaxBatchSize {
		log.Warn().Int("batch", batch).Int("max", MaxBatchSize).Msg("ingest batch size capped")
		batch = MaxBatchSize
	}
	if workers <= 0 {
		workers = 1
	}
	return &IngestionService{src: src, repo: repo, batch: batch, workers: workers}
}

// Ingest loads the feed and writes every record under a new run, in batches
// with at most `workers` in flight. The run replaces the stored snapshot only
// when every batch landed; either way it is recorded with FinishRun.
func (s *IngestionService) Ingest(ctx context.Context) (int, error) {
	run := domain.IngestRun{StartedAt: time.Now().UTC(), Status: "ok"}
	id, err := s.repo.StartRun(ctx, run.StartedAt)
	if err != nil {
		return 0, fmt.Errorf("start ingest run: %w", err)
	}
	run.ID = id

	n, err := s.ingest(ctx, id)
	run.Rows = n
	if err != nil {
		run.Status, run.Error = "failed", err.Error()
	}
	if ferr := s.repo.FinishRun(ctx, run); ferr != nil {
		log.Warn().Err(ferr).Int64("run", id).Msg("finish ingest run failed")
		if err == nil {
			err = fmt.Errorf("finish ingest run: %w", ferr)
		}
	}
	return n, err
}

func (s *IngestionService) ingest(ctx context.Context, runID int64) (int, error) {
	t, err := s.src.LoadReviews(ctx)
	if err != nil {
		return 0, err
	}

	sem := semaphore.NewWeighted(int64(s.workers))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		written  int
	)
	for offset := 0; offset < len(t.Rows); offset += s.batch {
		rows := t.Rows[offset:min(offset+s.batch, len(t.Rows))]
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return written, err
		}
		wg.Add(1)
		go func(offset int, rows []domain.Review) {
			defer wg.Done()
			defer sem.Release(1)

			err := s.repo.InsertReviews(ctx, runID, offset, rows)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("insert %d reviews at %d: %w", len(rows), offset, err)
				}
				return
			}
			written += len(rows)
		}(offset, rows)
	}
	wg.Wait()
	return written, firstErr
}
