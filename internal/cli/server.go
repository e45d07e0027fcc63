package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/chazu/liftplan/pkg/analysis"
	"github.com/chazu/liftplan/pkg/component"
	"github.com/chazu/liftplan/pkg/config"
	"github.com/chazu/liftplan/pkg/export"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxRequestBody bounds POST /v1/analyze bodies.
const maxRequestBody = 32 << 20

type server struct {
	cfg    config.Config
	logger *zap.Logger
}

// newServer returns the HTTP API:
//
//	POST /v1/analyze   records (JSON, or a scene with ?format=lisp) -> result document
//	GET  /metrics      Prometheus metrics
//	GET  /healthz      liveness
func newServer(cfg config.Config, logger *zap.Logger) http.Handler {
	s := &server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/v1/analyze", s.handleAnalyze)
	return r
}

func (s *server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	log := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, err)
		return
	}

	var recs []component.Record
	if isScene(r) {
		recs, err = evalScene(string(body))
	} else {
		recs, err = component.DecodeRecords(bytes.NewReader(body))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := s.cfg
	if p := r.URL.Query().Get("policy"); p != "" {
		cfg.Sequence.DeadlockPolicy = p
	}
	res, err := runAnalysis(r.Context(), cfg, recs, log)
	if err != nil {
		var ce *analysis.ConfigurationError
		switch {
		case errors.As(err, &ce):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, analysis.ErrTooManyInputErrors), errors.Is(err, analysis.ErrLoadBearingRejected):
			writeError(w, http.StatusUnprocessableEntity, err)
		default:
			log.Error("analysis failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = "request"
	}
	w.Header().Set("Content-Type", "application/json")
	if err := export.Write(w, export.NewDocument(res, name)); err != nil {
		log.Warn("write response", zap.Error(err))
	}
}

func isScene(r *http.Request) bool {
	if r.URL.Query().Get("format") == "lisp" {
		return true
	}
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-lisp")
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
