// Package rest exposes the catalogue and subsetting services over a chi
// HTTP API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/climkit/ccidex/internal/domain"
	"github.com/climkit/ccidex/internal/logger"
	"github.com/climkit/ccidex/internal/metrics"
	"github.com/climkit/ccidex/internal/subset"
)

// CatalogueService runs discovery passes.
type CatalogueService interface {
	Build(ctx context.Context) ([]string, error)
}

// MetadataService assembles dataset descriptions.
type MetadataService interface {
	DatasetMetadata(ctx context.Context, id string) (domain.DatasetMetadata, error)
}

// SubsetService extracts binary sub-arrays.
type SubsetService interface {
	Extract(ctx context.Context, req subset.Request) ([]byte, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the ccidex HTTP API.
type Server struct {
	catalogue     CatalogueService
	metadata      MetadataService
	subsets       SubsetService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	catalogue CatalogueService,
	metadata MetadataService,
	subsets SubsetService,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		catalogue: catalogue,
		metadata:  metadata,
		subsets:   subsets,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNoDataset, http.StatusNotFound, "no_dataset"),
		sentinelHandler(domain.ErrParse, http.StatusBadGateway, "upstream_parse_failure"),
		sentinelHandler(domain.ErrUpstream, http.StatusBadGateway, "upstream_failure"),
	}
	return s
}

// Router builds the chi router for the server.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/datasets", s.handleDatasets)
		// Identifiers contain dots, so they travel as a query param.
		r.Get("/datasets/metadata", s.handleMetadata)
		r.Post("/subset", s.handleSubset)
	})

	return r
}

// requestLogger attaches a request-scoped logger carrying the request id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger
		if reqID := chiMiddleware.GetReqID(r.Context()); reqID != "" {
			l = l.With(zap.String("request_id", reqID))
		}
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), l)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	ids, err := s.catalogue.Build(r.Context())
	if err != nil {
		s.writeError(w, r, err, "catalogue build failed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"datasets": ids})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		s.writeJSON(w, http.StatusBadRequest, errorBody("missing_id", "query parameter id is required"))
		return
	}
	md, err := s.metadata.DatasetMetadata(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err, "describe failed")
		return
	}
	s.writeJSON(w, http.StatusOK, md)
}

// subsetRequestDTO is the JSON body of POST /v1/subset.
type subsetRequestDTO struct {
	VarNames  []string          `json:"var_names"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	BBox      [4]float64        `json:"bbox"`
	Query     map[string]string `json:"query"`
}

func (s *Server) handleSubset(w http.ResponseWriter, r *http.Request) {
	var dto subsetRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid_body", err.Error()))
		return
	}
	if len(dto.VarNames) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid_body", "var_names is required"))
		return
	}
	start, err := time.Parse(domain.TimestampFormat, dto.StartDate)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid_body", "start_date: "+err.Error()))
		return
	}
	end, err := time.Parse(domain.TimestampFormat, dto.EndDate)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorBody("invalid_body", "end_date: "+err.Error()))
		return
	}

	payload, err := s.subsets.Extract(r.Context(), subset.Request{
		VarNames:  dto.VarNames,
		StartDate: start,
		EndDate:   end,
		BBox:      dto.BBox,
		Query:     dto.Query,
	})
	if err != nil {
		s.writeError(w, r, err, "subset extraction failed")
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(payload); err != nil {
		logger.FromContext(r.Context()).Warn("write subset payload", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	for _, handle := range s.errorHandlers {
		if handle(w, err) {
			return
		}
	}
	logger.FromContext(r.Context()).Error(msg, zap.Error(err))
	s.writeJSON(w, http.StatusInternalServerError, errorBody("internal_error", msg))
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeJSONStatus(w, status, errorBody(code, err.Error()))
		return true
	}
}

func errorBody(code, message string) map[string]string {
	return map[string]string{"code": code, "message": message}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	writeJSONStatus(w, status, body)
}

func writeJSONStatus(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
