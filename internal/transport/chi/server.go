// Package chi exposes a geo38 client over HTTP/JSON.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geo38"
	"github.com/kailas-cloud/geo38/internal/logger"
	"github.com/kailas-cloud/geo38/internal/metrics"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest      = "bad_request"
	codeUnauthorized    = "unauthorized"
	codeKeyNotFound     = "key_not_found"
	codeIDNotFound      = "id_not_found"
	codeInvalidArgument = "invalid_argument"
	codeOutOfRange      = "out_of_range"
	codeServerError     = "server_error"
	codeBadReply        = "bad_reply"
	codeUnavailable     = "unavailable"
	codeInternal        = "internal_error"
)

const defaultMaxBody = 1 << 20

// errorHandler tries to handle a client error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) (code string, handled bool)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Server serves the gateway routes.
type Server struct {
	client        *geo38.Client
	metrics       *metrics.HTTP
	logger        *zap.Logger
	maxBody       int64
	defaultLimit  int
	maxLimit      int
	errorHandlers []errorHandler
}

// NewServer creates the gateway. maxBody <= 0 selects 1 MiB.
func NewServer(client *geo38.Client, m *metrics.HTTP, l *zap.Logger, maxBody int64) *Server {
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{
		client:  client,
		metrics: m,
		logger:  l,
		maxBody: maxBody,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(geo38.ErrInvalidState, http.StatusBadRequest, codeBadRequest, ""),
		sentinelHandler(geo38.ErrKeyNotFound, http.StatusNotFound, codeKeyNotFound, ""),
		sentinelHandler(geo38.ErrIDNotFound, http.StatusNotFound, codeIDNotFound, ""),
		sentinelHandler(geo38.ErrInvalidArgument, http.StatusBadRequest, codeInvalidArgument, ""),
		sentinelHandler(geo38.ErrOutOfRange, http.StatusBadRequest, codeOutOfRange, ""),
		sentinelHandler(geo38.ErrServer, http.StatusBadGateway, codeServerError, ""),
		sentinelHandler(geo38.ErrDecode, http.StatusBadGateway, codeBadReply, "unexpected reply from database"),
		sentinelHandler(geo38.ErrTransport, http.StatusServiceUnavailable, codeUnavailable, "database unavailable"),
	}
	return s
}

// WithSearchLimits sets the LIMIT applied to searches that give none and the
// largest LIMIT a request may ask for. Zero disables either.
func (s *Server) WithSearchLimits(defaultLimit, maxLimit int) *Server {
	s.defaultLimit = defaultLimit
	s.maxLimit = maxLimit
	return s
}

// Routes builds the router. apiKeys enables bearer auth when non-empty;
// gatherer backs /metrics.
func (s *Server) Routes(apiKeys []string, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(middleware.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	if s.metrics != nil {
		r.Use(s.metrics.Middleware())
	}
	r.Use(BearerAuthMiddleware(apiKeys))

	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1/keys", func(r chi.Router) {
		r.Get("/", s.ListKeys)
		r.Route("/{key}", func(r chi.Router) {
			r.Delete("/", s.DeleteKey)
			r.Get("/bounds", s.KeyBounds)

			r.Post("/within", s.search(geo38.VerbWithin))
			r.Post("/intersects", s.search(geo38.VerbIntersects))
			r.Post("/nearby", s.search(geo38.VerbNearby))
			r.Post("/scan", s.search(geo38.VerbScan))

			r.Route("/objects/{id}", func(r chi.Router) {
				r.Get("/", s.GetObject)
				r.Put("/", s.SetObject)
				r.Delete("/", s.DeleteObject)
				r.Patch("/fields", s.SetFields)
				r.Get("/ttl", s.GetTTL)
				r.Put("/expire", s.Expire)
				r.Delete("/expire", s.Persist)
			})
		})
	})
	return r
}

// HealthCheck handles GET /health by pinging the database.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := s.client.Ping(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// sentinelHandler maps a sentinel to a status. An empty message exposes
// the server's own error text for ServerError and the error text otherwise.
func sentinelHandler(sentinel error, status int, code, message string) errorHandler {
	return func(w http.ResponseWriter, err error) (string, bool) {
		if !errors.Is(err, sentinel) {
			return "", false
		}
		msg := message
		if msg == "" {
			var se *geo38.ServerError
			if errors.As(err, &se) {
				msg = se.Message
			} else {
				msg = err.Error()
			}
		}
		writeError(w, status, code, msg)
		return code, true
	}
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if code, ok := h(w, err); ok {
			log.Warn("command failed", zap.String("code", code), zap.Error(err))
			s.countError(code)
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	s.countError(codeInternal)
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}

func (s *Server) countError(code string) {
	if s.metrics != nil {
		s.metrics.CommandError(code)
	}
}
