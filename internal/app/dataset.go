package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reviews_dashboard/internal/domain"
)

// Dataset owns the base review table for the process. The table is replaced
// wholesale on each successful load and never mutated in place.
type Dataset struct {
	src    domain.ReviewSource
	onLoad func(rows int)

	mu       sync.RWMutex
	table    domain.ReviewTable
	loadedAt time.Time
	err      error
}

func NewDataset(src domain.ReviewSource, onLoad func(rows int)) *Dataset {
	return &Dataset{src: src, onLoad: onLoad, err: domain.ErrNotLoaded}
}

// Load (re)reads the source. A failed first load leaves the dataset halted
// with the load error; a failed reload keeps serving the previous table.
func (d *Dataset) Load(ctx context.Context) error {
	start := time.Now()
	t, err := d.src.LoadReviews(ctx)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		if !d.table.Computed() {
			d.err = err
		}
		log.Error().Err(err).Msg("review dataset load failed")
		return err
	}
	d.table, d.err, d.loadedAt = t, nil, time.Now()
	if d.onLoad != nil {
		d.onLoad(t.Len())
	}
	log.Info().Int("rows", t.Len()).Dur("took", time.Since(start)).Msg("review dataset loaded")
	return nil
}

// Table returns the base table, or the error that keeps it unavailable.
func (d *Dataset) Table() (domain.ReviewTable, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.err != nil {
		return domain.ReviewTable{}, d.err
	}
	return d.table, nil
}

func (d *Dataset) LoadedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadedAt
}
