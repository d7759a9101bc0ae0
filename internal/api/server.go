// Package api serves the read-only portfolio views and the engine start/stop
// commands over HTTP, plus a websocket feed of price updates.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/econicmedia/bot-sub001/internal/config"
	"github.com/econicmedia/bot-sub001/internal/logger"
	"github.com/econicmedia/bot-sub001/internal/metrics"
	"github.com/econicmedia/bot-sub001/internal/portfolio"
	"github.com/econicmedia/bot-sub001/internal/trading/engine"
)

const (
	// DefaultPriceBuffer is the per-connection price tick buffer of /ws/prices.
	DefaultPriceBuffer = 64
	wsWriteTimeout     = 5 * time.Second
	wsPingInterval     = 30 * time.Second
)

// Server is the HTTP API of the bot.
type Server struct {
	config   config.ServerConfig
	engine   engine.TradingEngine
	store    *portfolio.Store
	metrics  *metrics.Recorder
	logger   *logger.Logger
	upgrader websocket.Upgrader
	router   *mux.Router

	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates the API server. metrics may be nil, in which case
// /metrics is not served.
func NewServer(
	cfg config.ServerConfig,
	eng engine.TradingEngine,
	store *portfolio.Store,
	recorder *metrics.Recorder,
	log *logger.Logger,
) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Server{
		config:  cfg,
		engine:  eng,
		store:   store,
		metrics: recorder,
		logger:  log.Named("api"),
		upgrader: websocket.Upgrader{ //nolint:exhaustruct
			CheckOrigin: func(*http.Request) bool { return true },
		},
		router:     mux.NewRouter(),
		httpServer: nil,
		listener:   nil,
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.Use(s.logRequests)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/stats/daily", s.handleDailyStats).Methods(http.MethodGet)
	v1.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	v1.HandleFunc("/trades", s.handleTrades).Methods(http.MethodGet)
	v1.HandleFunc("/orders", s.handleOrders).Methods(http.MethodGet)
	v1.HandleFunc("/prices", s.handlePrices).Methods(http.MethodGet)
	v1.HandleFunc("/prices/{symbol}", s.handlePrice).Methods(http.MethodGet)
	v1.HandleFunc("/trading/start", s.handleStart).Methods(http.MethodPost)
	v1.HandleFunc("/trading/stop", s.handleStop).Methods(http.MethodPost)

	s.router.HandleFunc("/ws/prices", s.handlePriceStream)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}
}

// Handler returns the root handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}

	s.listener = listener
	s.httpServer = &http.Server{ //nolint:exhaustruct
		Handler:           s.router,
		ReadHeaderTimeout: s.config.ReadTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}

	s.logger.Info("API server listening", zap.String("addr", listener.Addr().String()))

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server stopped", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.config.Addr
	}

	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for active ones until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}
