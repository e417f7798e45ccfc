package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	server "reviews_dashboard/internal/adapters/http_server"
	"reviews_dashboard/internal/app"
	"reviews_dashboard/internal/domain"
)

// ---- fakes ----

type fakeSource struct {
	t   domain.ReviewTable
	err error
}

func (f *fakeSource) LoadReviews(ctx context.Context) (domain.ReviewTable, error) {
	return f.t, f.err
}

type memSessions struct {
	mu sync.Mutex
	m  map[string]domain.Selection
}

func (s *memSessions) Get(ctx context.Context, id string, dst *domain.Selection) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	if ok {
		*dst = v
	}
	return ok, nil
}

func (s *memSessions) Save(ctx context.Context, id string, sel domain.Selection, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = map[string]domain.Selection{}
	}
	s.m[id] = sel
	return nil
}

func (s *memSessions) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func at(year int) time.Time { return time.Date(year, 6, 1, 12, 0, 0, 0, time.UTC) }

func sampleTable() domain.ReviewTable {
	return domain.NewReviewTable([]domain.Review{
		{ProductID: "P1", UserID: "U1", Time: at(2019), Score: 5, Sentiment: "positive", Behavior: "Diverse"},
		{ProductID: "P1", UserID: "U2", Time: at(2020), Score: 4, Sentiment: "positive", Behavior: "Diverse"},
		{ProductID: "P2", UserID: "U3", Time: at(2020), Score: 1, Sentiment: "negative", Behavior: "Diverse"},
		{ProductID: "P2", UserID: "U1", Time: at(2020), Score: 5, Sentiment: "positive", Behavior: "Loyal"},
		{ProductID: "P3", UserID: "U4", Time: at(2021), Score: 3, Sentiment: "neutral", Behavior: "Loyal"},
	}).Prepare()
}

func newServer(t *testing.T, src domain.ReviewSource, load bool) http.Handler {
	t.Helper()
	ds := app.NewDataset(src, nil)
	if load {
		_ = ds.Load(context.Background())
	}
	q := app.NewQueryService(ds, &memSessions{}, time.Hour, "")
	srv := server.New(5 * time.Second)
	srv.MountHandlers(&server.Handlers{Q: q})
	return srv.Mux()
}

func do(t *testing.T, h http.Handler, method, target, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type sessionBody struct {
	ID        string           `json:"id"`
	Dashboard domain.Dashboard `json:"dashboard"`
}

// ---- tests ----

func TestOptions(t *testing.T) {
	h := newServer(t, &fakeSource{t: sampleTable()}, true)

	rec := do(t, h, http.MethodGet, "/v1/options", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}
	o := decode[domain.Options](t, rec)
	if len(o.Years) != 3 || o.Years[0] != 2019 || o.Years[2] != 2021 {
		t.Fatalf("years: %v", o.Years)
	}
	if len(o.StartYears) != 2 || o.StartYears[1] != 2020 {
		t.Fatalf("start years should omit the last year: %v", o.StartYears)
	}
}

func TestDashboard_FilterAndETag(t *testing.T) {
	h := newServer(t, &fakeSource{t: sampleTable()}, true)

	rec := do(t, h, http.MethodGet, "/v1/dashboard?start=2020&end=2020&score=4,5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: %d body=%s", rec.Code, rec.Body.String())
	}
	d := decode[domain.Dashboard](t, rec)
	if d.KPIs.TotalReviews != 2 || d.KPIs.TotalProducts != 2 || d.KPIs.TotalUsers != 2 {
		t.Fatalf("kpis: %+v", d.KPIs)
	}
	if d.Charts == nil || !strings.Contains(d.Charts.Sentiment, "quickchart.io") {
		t.Fatalf("expected chart links, got %+v", d.Charts)
	}

	etag := rec.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("missing ETag")
	}
	rec = do(t, h, http.MethodGet, "/v1/dashboard?start=2020&end=2020&score=4&score=5", "", "If-None-Match", etag)
	if rec.Code != http.StatusNotModified {
		t.Fatalf("expected 304 for repeated score params, got %d", rec.Code)
	}
}

func TestDashboard_NoScoresMeansAll(t *testing.T) {
	h := newServer(t, &fakeSource{t: sampleTable()}, true)

	d := decode[domain.Dashboard](t, do(t, h, http.MethodGet, "/v1/dashboard", ""))
	if d.KPIs.TotalReviews != 5 {
		t.Fatalf("expected the full table, got %+v", d.KPIs)
	}
	if d.Trend == nil || len(d.Trend.Points) != 2 {
		t.Fatalf("expected a Diverse trend over 2019 and 2020, got %+v", d.Trend)
	}
}

func TestDashboard_Errors(t *testing.T) {
	h := newServer(t, &fakeSource{t: sampleTable()}, true)

	if rec := do(t, h, http.MethodGet, "/v1/dashboard?start=2021&end=2019", ""); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("inverted range: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/dashboard?score=five", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad score: %d", rec.Code)
	}

	notLoaded := newServer(t, &fakeSource{t: sampleTable()}, false)
	if rec := do(t, notLoaded, http.MethodGet, "/v1/options", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not loaded: %d", rec.Code)
	}

	broken := newServer(t, &fakeSource{err: errors.Join(domain.ErrFetchFailed, errors.New("boom"))}, true)
	rec := do(t, broken, http.MethodGet, "/v1/dashboard", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("fetch failure: %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Failed to load CSV file") {
		t.Fatalf("unexpected problem body: %s", rec.Body.String())
	}
}

func TestCharts(t *testing.T) {
	h := newServer(t, &fakeSource{t: sampleTable()}, true)

	rec := do(t, h, http.MethodGet, "/v1/charts/sentiment.png", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("sentiment chart: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec := do(t, h, http.MethodGet, "/v1/charts/trend.png?behavior=Nobody", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("trend without matching users: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/charts/behavior.png?score=2", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("empty behavior chart: %d", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := newServer(t, &fakeSource{t: sampleTable()}, true)

	rec := do(t, h, http.MethodPost, "/v1/sessions/", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d body=%s", rec.Code, rec.Body.String())
	}
	s := decode[sessionBody](t, rec)
	if s.ID == "" || s.Dashboard.Selection.StartYear != 2019 || s.Dashboard.Selection.EndYear != 2021 {
		t.Fatalf("unexpected session: %+v", s)
	}
	path := "/v1/sessions/" + s.ID

	// rejected selection leaves the stored one untouched
	if rec := do(t, h, http.MethodPut, path+"/selection", `{"start_year":2021,"end_year":2020}`); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid range: %d", rec.Code)
	}
	got := decode[sessionBody](t, do(t, h, http.MethodGet, path, ""))
	if got.Dashboard.Selection.StartYear != 2019 {
		t.Fatalf("selection changed after invalid update: %+v", got.Dashboard.Selection)
	}

	rec = do(t, h, http.MethodPut, path+"/selection", `{"start_year":2020,"end_year":2021,"scores":[5]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d body=%s", rec.Code, rec.Body.String())
	}
	if got := decode[sessionBody](t, rec); got.Dashboard.KPIs.TotalReviews != 1 {
		t.Fatalf("expected one 5-star review in 2020-2021, got %+v", got.Dashboard.KPIs)
	}

	if rec := do(t, h, http.MethodDelete, path, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
		t.Fatalf("get after delete: %d", rec.Code)
	}
}

func TestReload(t *testing.T) {
	src := &fakeSource{t: domain.NewReviewTable(nil)}
	h := newServer(t, src, true)

	src.t = sampleTable()
	rec := do(t, h, http.MethodPost, "/v1/reload", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reload: %d", rec.Code)
	}
	if o := decode[domain.Options](t, rec); len(o.Years) != 3 {
		t.Fatalf("reload did not pick up new rows: %+v", o)
	}
}
