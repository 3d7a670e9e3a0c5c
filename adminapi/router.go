// Package adminapi serves the JSON HTTP interface operators use to manage
// level overrides.
package adminapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/linchenxuan/lumber/log"
	"github.com/linchenxuan/lumber/override"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Levels is the override surface exposed over HTTP. *override.Engine
// implements it.
type Levels interface {
	SetLevels(ctx context.Context, m override.Mapping) error
	GetLevels(ctx context.Context) (override.Mapping, error)
	ClearLevels(ctx context.Context) error
	Activate(ctx context.Context) error
	Overridden() map[string]log.Level
}

// LevelsBody is the body of GET and PUT /levels.
type LevelsBody struct {
	Levels override.Mapping `json:"levels"`
}

// ErrorBody is returned with every non-2xx status.
type ErrorBody struct {
	Error  string `json:"error"`
	Target string `json:"target,omitempty"`
	Level  string `json:"level,omitempty"`
}

// SinkInfo describes one sink.
type SinkInfo struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

// LoggerInfo describes one logger with the sinks attached to it.
type LoggerInfo struct {
	Name  string     `json:"name"`
	Level string     `json:"level"`
	Sinks []SinkInfo `json:"sinks"`
}

// LoggersBody is the body of GET /loggers. Root holds the sinks of the
// unnamed root logger.
type LoggersBody struct {
	Loggers []LoggerInfo `json:"loggers"`
	Root    []SinkInfo   `json:"root_sinks"`
}

// OverridesBody is the body of GET /overrides: the original level of every
// overridden target.
type OverridesBody struct {
	Originals map[string]string `json:"originals"`
}

type handler struct {
	levels   Levels
	registry *log.Registry
}

// NewRouter routes the admin endpoints to levels and registry.
func NewRouter(levels Levels, registry *log.Registry) *chi.Mux {
	h := &handler{levels: levels, registry: registry}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLog)

	r.Route("/levels", func(r chi.Router) {
		r.Get("/", h.getLevels)
		r.Put("/", h.putLevels)
		r.Delete("/", h.deleteLevels)
		r.Post("/activate", h.activate)
	})
	r.Get("/loggers", h.loggers)
	r.Get("/overrides", h.overrides)
	return r
}

func (h *handler) getLevels(w http.ResponseWriter, r *http.Request) {
	m, err := h.levels.GetLevels(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, LevelsBody{Levels: m})
}

func (h *handler) putLevels(w http.ResponseWriter, r *http.Request) {
	var body LevelsBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "malformed body: " + err.Error()})
		return
	}
	if body.Levels == nil {
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: `missing "levels"`})
		return
	}
	if err := h.levels.SetLevels(r.Context(), body.Levels); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) deleteLevels(w http.ResponseWriter, r *http.Request) {
	if err := h.levels.ClearLevels(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) activate(w http.ResponseWriter, r *http.Request) {
	if err := h.levels.Activate(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) loggers(w http.ResponseWriter, _ *http.Request) {
	names := h.registry.Names()
	body := LoggersBody{
		Loggers: make([]LoggerInfo, 0, len(names)),
		Root:    sinkInfos(h.registry.Root().Sinks()),
	}
	for _, name := range names {
		l, ok := h.registry.Lookup(name)
		if !ok {
			continue
		}
		body.Loggers = append(body.Loggers, LoggerInfo{
			Name:  name,
			Level: l.Level().String(),
			Sinks: sinkInfos(l.Sinks()),
		})
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *handler) overrides(w http.ResponseWriter, _ *http.Request) {
	originals := h.levels.Overridden()
	body := OverridesBody{Originals: make(map[string]string, len(originals))}
	for name, level := range originals {
		body.Originals[name] = level.String()
	}
	writeJSON(w, http.StatusOK, body)
}

func sinkInfos(sinks []*log.Sink) []SinkInfo {
	out := make([]SinkInfo, 0, len(sinks))
	for _, s := range sinks {
		out = append(out, SinkInfo{Name: s.Name(), Level: s.Level().String()})
	}
	return out
}

func writeError(w http.ResponseWriter, err error) {
	var (
		lerr *override.LevelError
		terr *override.TargetError
	)
	switch {
	case errors.As(err, &lerr):
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error(), Target: lerr.Target, Level: lerr.Level})
	case errors.As(err, &terr):
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error(), Target: terr.Target})
	case errors.Is(err, override.ErrEmptyTarget):
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: err.Error()})
	case errors.Is(err, override.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, ErrorBody{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorBody{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write admin response")
	}
}

func requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("admin request")
	})
}
