package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"reviews_dashboard/internal/domain"
)

type QueryService struct {
	data       *Dataset
	sessions   domain.SessionStore
	sessionTTL time.Duration
	behavior   string
}

func NewQueryService(d *Dataset, s domain.SessionStore, ttl time.Duration, behavior string) *QueryService {
	if behavior == "" {
		behavior = domain.DefaultTrendBehavior
	}
	return &QueryService{data: d, sessions: s, sessionTTL: ttl, behavior: behavior}
}

// Compose runs the whole pipeline for one selection. The selection must be valid.
func Compose(base domain.ReviewTable, sel domain.Selection) domain.Dashboard {
	t := FilterSelection(base, sel)
	out := domain.Dashboard{
		Selection: sel,
		KPIs:      ComputeKPIs(t),
		Sentiment: Distribution(t, domain.FieldSentiment),
		Behavior:  Distribution(t, domain.FieldBehavior),
	}
	trend, err := SentimentTrend(t, sel.Behavior)
	if errors.Is(err, domain.ErrEmptySeries) {
		out.TrendMessage = fmt.Sprintf("No %s users found for the selected filters.", sel.Behavior)
	} else {
		out.Trend = &trend
	}
	return out
}

func (s *QueryService) Options(ctx context.Context) (domain.Options, error) {
	t, err := s.data.Table()
	if err != nil {
		return domain.Options{}, err
	}
	return BuildOptions(t), nil
}

func (s *QueryService) DefaultSelection(ctx context.Context) (domain.Selection, error) {
	t, err := s.data.Table()
	if err != nil {
		return domain.Selection{}, err
	}
	return DefaultSelection(t, s.behavior), nil
}

// Dashboard validates sel and computes every view from the current base table.
func (s *QueryService) Dashboard(ctx context.Context, sel domain.Selection) (domain.Dashboard, error) {
	t, err := s.data.Table()
	if err != nil {
		return domain.Dashboard{}, err
	}
	if sel.Behavior == "" {
		sel.Behavior = s.behavior
	}
	if err := sel.Validate(); err != nil {
		return domain.Dashboard{}, err
	}
	return Compose(t, sel), nil
}

// NewSession stores the default selection under a fresh id.
func (s *QueryService) NewSession(ctx context.Context) (string, domain.Dashboard, error) {
	sel, err := s.DefaultSelection(ctx)
	if err != nil {
		return "", domain.Dashboard{}, err
	}
	id := uuid.NewString()
	if err := s.sessions.Save(ctx, id, sel, s.sessionTTL); err != nil {
		return "", domain.Dashboard{}, fmt.Errorf("save session: %w", err)
	}
	d, err := s.Dashboard(ctx, sel)
	return id, d, err
}

func (s *QueryService) SessionDashboard(ctx context.Context, id string) (domain.Dashboard, error) {
	var sel domain.Selection
	ok, err := s.sessions.Get(ctx, id, &sel)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.Dashboard{}, domain.ErrSessionNotFound
	}
	return s.Dashboard(ctx, sel)
}

// UpdateSelection is the handler for a selector change. An invalid range is
// rejected before anything is stored, so the session keeps its last good selection.
func (s *QueryService) UpdateSelection(ctx context.Context, id string, sel domain.Selection) (domain.Dashboard, error) {
	var prev domain.Selection
	ok, err := s.sessions.Get(ctx, id, &prev)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.Dashboard{}, domain.ErrSessionNotFound
	}
	if sel.Behavior == "" {
		sel.Behavior = prev.Behavior
	}
	d, err := s.Dashboard(ctx, sel)
	if err != nil {
		return domain.Dashboard{}, err
	}
	if err := s.sessions.Save(ctx, id, d.Selection, s.sessionTTL); err != nil {
		return domain.Dashboard{}, fmt.Errorf("save session: %w", err)
	}
	return d, nil
}

func (s *QueryService) EndSession(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// Reload re-reads the base table from its source.
func (s *QueryService) Reload(ctx context.Context) error {
	return s.data.Load(ctx)
}
