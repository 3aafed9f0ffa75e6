// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wallet-insights/internal/catalog"
	"github.com/wallet-insights/internal/logging"
	"github.com/wallet-insights/internal/service"
	"github.com/wallet-insights/internal/types"
)

// InsightsServiceInterface defines the storage-backed operations used by the wallet routes
type InsightsServiceInterface interface {
	GetInsights(ctx context.Context, address string) (*types.ProtocolInsights, error)
	GetProfile(ctx context.Context, address string) (*types.SmartMoneyProfile, error)
	ProfileCohort(ctx context.Context, addresses []string) (*service.Cohort, error)
	IngestActivity(ctx context.Context, address string, input service.WalletActivityInput) error
	Stats() service.ReportStats
}

// Engine bundles the scoring components served over HTTP
type Engine struct {
	Catalog     *catalog.Catalog
	Aggregator  *service.ActivityAggregator
	Scorer      *service.EligibilityScorer
	Profiler    *service.WalletBehaviorProfiler
	Batch       *service.BatchProfiler
	Detector    *service.SmartMoneySignalDetector
	Correlation *service.WalletCorrelationAnalyzer
}

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	httpServer *http.Server
	engine     *Engine
	insights   InsightsServiceInterface
	config     *ServerConfig
	logger     *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	FreeTierRPS     int // Requests per second for free tier
	BasicTierRPS    int // Requests per second for basic tier
	PremiumTierRPS  int // Requests per second for premium tier
	MaxCohortSize   int // Upper bound on wallets per batch request
}

// NewServer creates a new API server instance. insights may be nil, in which
// case the storage-backed wallet routes answer 503.
func NewServer(config *ServerConfig, engine *Engine, insights InsightsServiceInterface) *Server {
	if config.MaxCohortSize <= 0 {
		config.MaxCohortSize = 500
	}

	s := &Server{
		router:   mux.NewRouter(),
		engine:   engine,
		insights: insights,
		config:   config,
		logger:   logging.GetGlobalLogger().WithField("component", "api"),
	}

	s.setupRouter()

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.FreeTierRPS, s.config.BasicTierRPS, s.config.PremiumTierRPS)

	// Middleware order matters
	s.router.Use(LoggingMiddleware)
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Catalog endpoints
	api.HandleFunc("/protocols", s.handleListProtocols).Methods("GET")
	api.HandleFunc("/protocols/{address}", s.handleGetProtocol).Methods("GET")
	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")

	// Engine endpoints over request-supplied records
	api.HandleFunc("/insights", s.handleBuildInsights).Methods("POST")
	api.HandleFunc("/eligibility", s.handleEligibility).Methods("POST")
	api.HandleFunc("/profile", s.handleProfile).Methods("POST")
	api.HandleFunc("/whales", s.handleWhales).Methods("POST")
	api.HandleFunc("/smart-money/signals", s.handleSignals).Methods("POST")
	api.HandleFunc("/smart-money/top", s.handleTopPerformers).Methods("POST")
	api.HandleFunc("/smart-money/airdrops", s.handleAirdrops).Methods("POST")
	api.HandleFunc("/correlation", s.handleCorrelation).Methods("POST")
	api.HandleFunc("/correlation/search", s.handleCorrelationSearch).Methods("POST")

	// Storage-backed endpoints
	api.HandleFunc("/wallets/{address}/insights", s.handleWalletInsights).Methods("GET")
	api.HandleFunc("/wallets/{address}/profile", s.handleWalletProfile).Methods("GET")
	api.HandleFunc("/wallets/{address}/activity", s.handleIngestActivity).Methods("POST")
	api.HandleFunc("/smart-money/cohort", s.handleCohort).Methods("POST")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")

	// Preflight requests need a matching route for the middleware chain to run
	s.router.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storage := "disabled"
	if s.insights != nil {
		storage = "enabled"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "wallet-insights",
		"protocols": s.engine.Catalog.Len(),
		"storage":   storage,
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Infof("Starting API server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
