// Package api provides the HTTP REST API server for VietVal.
//
// It exposes endpoints for multi-model valuations, quotes, peer
// comparables, report exports, and WebSocket streaming for interactive
// weight adjustment.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/vietquant/vietval/internal/config"
	"github.com/vietquant/vietval/internal/fundamentals"
	"github.com/vietquant/vietval/internal/report"
	"github.com/vietquant/vietval/internal/valuation"
	"github.com/vietquant/vietval/pkg/models"
	"github.com/vietquant/vietval/pkg/utils"
)

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	provider fundamentals.Provider
	engine   *valuation.Engine
	wsHub    *WSHub
	log      *logrus.Entry
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, provider fundamentals.Provider) *Server {
	engine := valuation.NewEngine()
	engine.Graham = valuation.GrahamConfig{
		Multiplier:   cfg.Valuation.Graham.Multiplier,
		ExcludeBanks: cfg.Valuation.Graham.ExcludeBanks,
	}

	srv := &Server{
		cfg:      cfg,
		provider: provider,
		engine:   engine,
		wsHub:    NewWSHub(),
		log:      logrus.WithField("component", "api"),
	}

	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start WebSocket hub
	go s.wsHub.Run()

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-done
	s.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Valuation
		r.Post("/valuation/{symbol}", s.handleValuation)

		// Market data
		r.Get("/quote/{symbol}", s.handleQuote)
		r.Get("/peers/{symbol}", s.handlePeers)

		// Report export
		r.Post("/export/{symbol}", s.handleExport)

		// WebSocket
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AssumptionOverrides carries optional per-request assumption changes.
// Unset fields keep the configured defaults. All rates are percentages.
type AssumptionOverrides struct {
	RevenueGrowth   *float64 `json:"revenue_growth,omitempty"`
	TerminalGrowth  *float64 `json:"terminal_growth,omitempty"`
	WACC            *float64 `json:"wacc,omitempty"`
	RequiredReturn  *float64 `json:"required_return,omitempty"`
	TaxRate         *float64 `json:"tax_rate,omitempty"`
	ProjectionYears *int     `json:"projection_years,omitempty"`
}

// WeightOverride carries one model's weight setting.
type WeightOverride struct {
	Enabled bool    `json:"enabled"`
	Weight  float64 `json:"weight"`
}

// ValuationRequest is the body for POST /api/v1/valuation/{symbol}.
// An empty body runs the valuation with configured defaults.
type ValuationRequest struct {
	Assumptions  *AssumptionOverrides      `json:"assumptions,omitempty"`
	Weights      map[string]WeightOverride `json:"weights,omitempty"`
	CurrentPrice float64                   `json:"current_price,omitempty"` // manual override, VND
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":        "ok",
			"version":       "dev",
			"market_status": utils.MarketStatus(),
			"time_ict":      utils.FormatDateTimeICT(utils.NowICT()),
		},
	})
}

func (s *Server) handleValuation(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.symbolParam(w, r)
	if !ok {
		return
	}

	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	weights, err := parseWeights(req.Weights)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	f, err := s.provider.GetFundamentals(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	a := s.assumptions(req.Assumptions)
	vr := s.engine.Valuate(f, a, weights, req.CurrentPrice)

	// Broadcast to WebSocket clients
	s.wsHub.Broadcast(WSMessage{
		Type: "valuation_complete",
		Data: map[string]interface{}{
			"symbol":           vr.Symbol,
			"weighted_average": vr.WeightedAverage,
			"recommendation":   vr.Recommendation,
		},
	})

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    vr,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.symbolParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.provider.GetQuote(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    quote,
	})
}

func (s *Server) handlePeers(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.symbolParam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	peers, err := s.provider.GetPeers(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    peers,
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	symbol, ok := s.symbolParam(w, r)
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format: %s", format))
		return
	}

	var req ValuationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	weights, err := parseWeights(req.Weights)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	f, err := s.provider.GetFundamentals(ctx, symbol)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	peers, err := s.provider.GetPeers(ctx, symbol)
	if err != nil {
		// A report without the peer table is still useful.
		s.log.Warnf("peers unavailable for %s: %v", symbol, err)
		peers = nil
	}

	a := s.assumptions(req.Assumptions)
	vr := s.engine.Valuate(f, a, weights, req.CurrentPrice)

	filename := fmt.Sprintf("%s_valuation_%s.%s", symbol, utils.FormatDateICT(utils.NowICT()), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))

	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = report.NewCSVBuilder(report.LogNotifier{}).WriteCSV(w, vr, f, a, peers)
	default:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = report.NewExcelBuilder(report.LogNotifier{}).WriteExcel(w, vr, f, a, peers)
	}
	if err != nil {
		// Headers are already sent; log and give up on the body.
		s.log.Errorf("export failed for %s: %v", symbol, err)
	}
}

// ============================================================
// Helpers
// ============================================================

// symbolParam extracts and validates the {symbol} route parameter.
func (s *Server) symbolParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	symbol := chi.URLParam(r, "symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return "", false
	}
	symbol = utils.NormalizeSymbol(symbol)
	if !utils.IsValidSymbol(symbol) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid symbol: %s", symbol))
		return "", false
	}
	return symbol, true
}

// assumptions builds the effective assumption set: configured defaults
// with any request overrides applied.
func (s *Server) assumptions(o *AssumptionOverrides) models.Assumptions {
	a := models.Assumptions{
		RevenueGrowth:   s.cfg.Valuation.RevenueGrowth,
		TerminalGrowth:  s.cfg.Valuation.TerminalGrowth,
		WACC:            s.cfg.Valuation.WACC,
		RequiredReturn:  s.cfg.Valuation.RequiredReturn,
		TaxRate:         s.cfg.Valuation.TaxRate,
		ProjectionYears: s.cfg.Valuation.ProjectionYears,
	}
	if o == nil {
		return a
	}
	if o.RevenueGrowth != nil {
		a.RevenueGrowth = *o.RevenueGrowth
	}
	if o.TerminalGrowth != nil {
		a.TerminalGrowth = *o.TerminalGrowth
	}
	if o.WACC != nil {
		a.WACC = *o.WACC
	}
	if o.RequiredReturn != nil {
		a.RequiredReturn = *o.RequiredReturn
	}
	if o.TaxRate != nil {
		a.TaxRate = *o.TaxRate
	}
	if o.ProjectionYears != nil {
		a.ProjectionYears = *o.ProjectionYears
	}
	return a
}

// parseWeights converts the request weight map into a WeightSet. A nil
// or empty map returns nil, which lets the engine apply its defaults.
func parseWeights(raw map[string]WeightOverride) (models.WeightSet, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ws := make(models.WeightSet, len(raw))
	for k, v := range raw {
		key := models.ModelKey(k)
		known := false
		for _, m := range models.AllModels {
			if m == key {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("unknown model: %s", k)
		}
		if v.Weight < 0 {
			return nil, fmt.Errorf("negative weight for model %s", k)
		}
		ws[key] = models.ModelWeight{Enabled: v.Enabled, Weight: v.Weight}
	}
	return ws, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithField("component", "api").Errorf("failed to write JSON response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}

// ============================================================
// WebSocket Hub
// ============================================================

// WSMessage is a message sent over WebSocket connections.
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// WSHub manages WebSocket connections and message broadcasting.
type WSHub struct {
	mu         sync.RWMutex
	clients    map[*WSClient]bool
	broadcast  chan WSMessage
	register   chan *WSClient
	unregister chan *WSClient
}

// WSClient represents a single WebSocket connection. Each client keeps
// the calculator output of its last valuation so that weight changes
// re-run only the aggregation step.
type WSClient struct {
	hub  *WSHub
	send chan WSMessage

	mu           sync.Mutex
	closed       bool
	symbol       string
	results      map[models.ModelKey]models.ModelResult
	currentPrice float64
}

// trySend queues msg for the client without blocking. It reports false
// when the client has been closed or its buffer is full.
func (c *WSClient) trySend(msg WSMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once. Senders must go
// through trySend, which observes the closed flag under the same lock.
func (c *WSClient) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[*WSClient]bool),
		broadcast:  make(chan WSMessage, 256),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run starts the hub event loop.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			// Slow clients are dropped inline; Run must never block on
			// its own register/unregister channels.
			h.mu.Lock()
			for client := range h.clients {
				if !client.trySend(msg) {
					delete(h.clients, client)
					client.closeSend()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a client to the hub.
func (h *WSHub) Register(client *WSClient) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WSHub) Unregister(client *WSClient) {
	h.unregister <- client
}

// Broadcast sends a message to all connected clients.
func (h *WSHub) Broadcast(msg WSMessage) {
	select {
	case h.broadcast <- msg:
	default:
		// Broadcast buffer full; drop the message
	}
}
