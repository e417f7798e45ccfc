// internal/adapters/http_server/handlers.go
package httpserver

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviews_dashboard/internal/adapters/charts"
	"reviews_dashboard/internal/app"
	"reviews_dashboard/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/options", h.options)
	s.mux.Get("/v1/dashboard", h.dashboard)
	s.mux.Get("/v1/charts/trend.png", h.trendPNG)
	s.mux.Get("/v1/charts/sentiment.png", h.donutPNG(domain.FieldSentiment, charts.SentimentPalette))
	s.mux.Get("/v1/charts/behavior.png", h.donutPNG(domain.FieldBehavior, charts.BehaviorPalette))
	s.mux.Post("/v1/reload", h.reload)

	s.mux.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Get("/{id}", h.getSession)
		r.Put("/{id}/selection", h.updateSelection)
		r.Delete("/{id}", h.deleteSession)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps pipeline errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRange):
		writeProblem(w, http.StatusUnprocessableEntity, "Invalid range", err.Error())
	case errors.Is(err, domain.ErrSessionNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "session not found")
	case errors.Is(err, domain.ErrNotLoaded):
		writeProblem(w, http.StatusServiceUnavailable, "Data not loaded", "review data has not been loaded yet")
	case errors.Is(err, domain.ErrFetchFailed):
		writeProblem(w, http.StatusBadGateway, "Failed to load CSV file", err.Error())
	case errors.Is(err, domain.ErrInvalidFormat):
		writeProblem(w, http.StatusBadGateway, "The file content is not a valid CSV", err.Error())
	case errors.Is(err, domain.ErrParseFailure):
		writeProblem(w, http.StatusBadGateway, "Failed to parse review data", err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response could not be encoded")
		return
	}
	if etag != "" && status == http.StatusOK {
		if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
			w.Header().Set("ETag", etag)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", etag)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// parseSelection overlays query parameters on def:
// start, end, behavior, and score (repeatable or comma separated).
// No score parameter at all means no score restriction.
func parseSelection(r *http.Request, def domain.Selection) (domain.Selection, error) {
	q := r.URL.Query()
	sel := def
	for _, p := range []struct {
		name string
		dst  *int
	}{{"start", &sel.StartYear}, {"end", &sel.EndYear}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return sel, fmt.Errorf("%s must be a year", p.name)
			}
			*p.dst = n
		}
	}
	var scores []int
	for _, raw := range q["score"] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			n, err := strconv.Atoi(v)
			if err != nil {
				return sel, fmt.Errorf("score must be an integer")
			}
			scores = append(scores, n)
		}
	}
	sel.Scores = domain.ScoresFromSelect(scores)
	if b := q.Get("behavior"); b != "" {
		sel.Behavior = b
	}
	return sel, nil
}

func (h *Handlers) selection(w http.ResponseWriter, r *http.Request) (domain.Selection, bool) {
	def, err := h.Q.DefaultSelection(r.Context())
	if err != nil {
		writeError(w, err)
		return def, false
	}
	sel, err := parseSelection(r, def)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid selection", err.Error())
		return sel, false
	}
	return sel, true
}

func (h *Handlers) options(w http.ResponseWriter, r *http.Request) {
	out, err := h.Q.Options(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, r, http.StatusOK, out)
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	d, err := h.Q.Dashboard(r.Context(), sel)
	if err != nil {
		writeError(w, err)
		return
	}
	d.Charts = charts.Links(d)
	writeJSON(w, r, http.StatusOK, d)
}

func writePNG(w http.ResponseWriter, render func(io.Writer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		if errors.Is(err, charts.ErrNothingToDraw) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Msg("failed to write chart")
	}
}

func (h *Handlers) trendPNG(w http.ResponseWriter, r *http.Request) {
	sel, ok := h.selection(w, r)
	if !ok {
		return
	}
	d, err := h.Q.Dashboard(r.Context(), sel)
	if err != nil {
		writeError(w, err)
		return
	}
	writePNG(w, func(out io.Writer) error {
		if d.Trend == nil {
			return charts.ErrNothingToDraw
		}
		return charts.RenderTrendPNG(out, *d.Trend)
	})
}

func (h *Handlers) donutPNG(field domain.Field, colors charts.Palette) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sel, ok := h.selection(w, r)
		if !ok {
			return
		}
		d, err := h.Q.Dashboard(r.Context(), sel)
		if err != nil {
			writeError(w, err)
			return
		}
		dist := d.Sentiment
		if field == domain.FieldBehavior {
			dist = d.Behavior
		}
		writePNG(w, func(out io.Writer) error { return charts.RenderDonutPNG(out, dist, colors) })
	}
}

func (h *Handlers) reload(w http.ResponseWriter, r *http.Request) {
	if err := h.Q.Reload(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	h.options(w, r)
}

type sessionResponse struct {
	ID        string           `json:"id"`
	Dashboard domain.Dashboard `json:"dashboard"`
}

type selectionRequest struct {
	StartYear *int   `json:"start_year"`
	EndYear   *int   `json:"end_year"`
	Scores    []int  `json:"scores"`
	Behavior  string `json:"behavior"`
}

func (h *Handlers) createSession(w http.ResponseWriter, r *http.Request) {
	id, d, err := h.Q.NewSession(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	d.Charts = charts.Links(d)
	w.Header().Set("Location", "/v1/sessions/"+id)
	writeJSON(w, r, http.StatusCreated, sessionResponse{ID: id, Dashboard: d})
}

func (h *Handlers) getSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.Q.SessionDashboard(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	d.Charts = charts.Links(d)
	writeJSON(w, r, http.StatusOK, sessionResponse{ID: id, Dashboard: d})
}

func (h *Handlers) updateSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req selectionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid selection", "body must be a JSON selection")
		return
	}
	if req.StartYear == nil || req.EndYear == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid selection", "start_year and end_year are required")
		return
	}
	sel := domain.Selection{
		StartYear: *req.StartYear,
		EndYear:   *req.EndYear,
		Scores:    domain.ScoresFromSelect(req.Scores),
		Behavior:  req.Behavior,
	}
	d, err := h.Q.UpdateSelection(r.Context(), id, sel)
	if err != nil {
		writeError(w, err)
		return
	}
	d.Charts = charts.Links(d)
	writeJSON(w, r, http.StatusOK, sessionResponse{ID: id, Dashboard: d})
}

func (h *Handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Q.EndSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
