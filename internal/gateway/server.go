// Package gateway exposes the query API over HTTP, together with health
// probes and Prometheus metrics.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/demigunkan/marketstatus/internal/config"
	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/internal/types"
	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Querier answers one query; the returned error is only for the caller's
// own context ending.
type Querier interface {
	Route(ctx context.Context, q types.Query) (types.Reply, error)
}

const timeoutMessage = "Request timed out, try in a while"

type Server struct {
	router       *mux.Router
	server       *http.Server
	querier      Querier
	ready        func() bool
	queryTimeout time.Duration
	logger       zerolog.Logger
}

func New(cfg config.Config, querier Querier, ready func() bool, reg *prometheus.Registry, logger zerolog.Logger) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		querier:      querier,
		ready:        ready,
		queryTimeout: cfg.QueryTimeout(),
		logger:       logger.With().Str("component", "gateway").Logger(),
	}

	s.router.Use(RequestID)
	s.router.Use(Logger(s.logger))

	s.router.HandleFunc("/healthz", Healthz).Methods(http.MethodGet)
	s.router.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	if reg != nil {
		s.router.Handle("/metrics", metrics.Handler(reg)).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(jsonContentType)
	api.HandleFunc("/tips/{pair}", s.tips).Methods(http.MethodGet)
	api.HandleFunc("/price/{pair}", s.price).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("starting HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) tips(w http.ResponseWriter, r *http.Request) {
	s.query(w, r, types.Query{
		Method:       types.MethodGetTips,
		CurrencyPair: mux.Vars(r)["pair"],
	})
}

// price is GET /price/{pair}?operation=buy|sell&amount=&cap=
func (s *Server) price(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	s.query(w, r, types.Query{
		Method:       types.MethodCalcPrice,
		CurrencyPair: mux.Vars(r)["pair"],
		Operation:    types.Operation(params.Get("operation")),
		Amount:       params.Get("amount"),
		Cap:          params.Get("cap"),
	})
}

func (s *Server) query(w http.ResponseWriter, r *http.Request, q types.Query) {
	ctx := r.Context()
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := s.querier.Route(ctx, q)
	metrics.QueryLatencyMs.WithLabelValues(string(q.Method)).Observe(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		s.logger.Warn().Err(err).Str("rid", GetRequestID(r.Context())).Str("pair", q.CurrencyPair).Msg("query not answered")
		writeJSON(w, http.StatusGatewayTimeout, types.ErrorReply(timeoutMessage))
		return
	}

	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready == nil || s.ready() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	http.Error(w, "not ready", http.StatusServiceUnavailable)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
