package target

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/felixge/httpsnoop"
)

// Config tunes the simulated database behind the endpoints. QueryDelay
// is the cost of one query; Jitter adds up to that much extra per
// query. The slow path pays 1 + 2 queries per order, the fast path
// pays exactly one, which is the whole point of the demo.
type Config struct {
	Port       int
	QueryDelay time.Duration
	Jitter     time.Duration
	ErrorRate  float64 // [0,1] chance a request fails with a 500
}

func DefaultServerConfig() Config {
	return Config{
		Port:       8080,
		QueryDelay: 5 * time.Millisecond,
		Jitter:     5 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.QueryDelay < 0 {
		return fmt.Errorf("query-delay must not be negative, got %v", c.QueryDelay)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("jitter must not be negative, got %v", c.Jitter)
	}
	if c.ErrorRate < 0 || c.ErrorRate > 1 {
		return fmt.Errorf("error-rate must be between 0 and 1, got %v", c.ErrorRate)
	}
	return nil
}

// Server simulates the order service the driver targets: same routes,
// same JSON shapes, with sleeps standing in for database queries.
type Server struct {
	cfg     Config
	catalog *Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

func NewServer(cfg Config, catalog *Catalog) *Server {
	return &Server{
		cfg:     cfg,
		catalog: catalog,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/customer/{customerId}/slow", s.handleSlow)
	mux.HandleFunc("GET /api/orders/customer/{customerId}/fast", s.handleFast)
	mux.HandleFunc("GET /api/orders/health", s.handleHealth)
	return logRequests(mux)
}

// ListenAndServe runs the simulator until ctx is canceled, then shuts
// down gracefully so in-flight responses complete.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		// The slow path sleeps once per simulated query; give large
		// catalogs with cranked-up delays room to finish.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("order service simulator listening",
			"addr", srv.Addr,
			"customers", len(s.catalog.Customers()),
			"orders", s.catalog.TotalOrders(),
			"query_delay", s.cfg.QueryDelay,
			"error_rate", s.cfg.ErrorRate)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down simulator")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// orderResponse matches the original service's endpoint payload.
type orderResponse struct {
	CustomerID       int     `json:"customerId"`
	OrderCount       int     `json:"orderCount"`
	Orders           []Order `json:"orders"`
	Method           string  `json:"method"`
	EstimatedQueries int     `json:"estimatedQueries"`
	DurationMs       int64   `json:"durationMs"`
}

// handleSlow plays out the N+1 access pattern: one query for the
// orders, then an items lookup and a shipping lookup per order, each
// paid for sequentially.
func (s *Server) handleSlow(w http.ResponseWriter, r *http.Request) {
	customerID, ok := s.customerID(w, r)
	if !ok {
		return
	}
	if s.injectError(w) {
		return
	}

	start := time.Now()
	s.simulateQuery()
	orders := s.catalog.Orders(customerID)
	for range orders {
		s.simulateQuery() // items
		s.simulateQuery() // shipping
	}

	writeJSON(w, http.StatusOK, orderResponse{
		CustomerID:       customerID,
		OrderCount:       len(orders),
		Orders:           emptyIfNil(orders),
		Method:           "SLOW (N+1 queries)",
		EstimatedQueries: 1 + len(orders)*2,
		DurationMs:       time.Since(start).Milliseconds(),
	})
}

// handleFast is the eager-join path: everything in a single query.
func (s *Server) handleFast(w http.ResponseWriter, r *http.Request) {
	customerID, ok := s.customerID(w, r)
	if !ok {
		return
	}
	if s.injectError(w) {
		return
	}

	start := time.Now()
	s.simulateQuery()
	orders := s.catalog.Orders(customerID)

	writeJSON(w, http.StatusOK, orderResponse{
		CustomerID:       customerID,
		OrderCount:       len(orders),
		Orders:           emptyIfNil(orders),
		Method:           "FAST (JOIN FETCH)",
		EstimatedQueries: 1,
		DurationMs:       time.Since(start).Milliseconds(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "UP",
		"service": "Order Service",
		"endpoints": map[string]string{
			"slow":   "/api/orders/customer/{id}/slow",
			"fast":   "/api/orders/customer/{id}/fast",
			"health": "/api/orders/health",
		},
		"customers": s.catalog.Customers(),
	})
}

func (s *Server) customerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("customerId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("customer ID must be an integer, got %q", r.PathValue("customerId")),
		})
		return 0, false
	}
	return id, true
}

// simulateQuery sleeps for one query's worth of latency.
func (s *Server) simulateQuery() {
	d := s.cfg.QueryDelay
	if s.cfg.Jitter > 0 {
		s.mu.Lock()
		d += time.Duration(s.rng.Int63n(int64(s.cfg.Jitter)))
		s.mu.Unlock()
	}
	if d > 0 {
		time.Sleep(d)
	}
}

// injectError reports whether this request was chosen to fail.
func (s *Server) injectError(w http.ResponseWriter) bool {
	if s.cfg.ErrorRate <= 0 {
		return false
	}
	s.mu.Lock()
	failed := s.rng.Float64() < s.cfg.ErrorRate
	s.mu.Unlock()
	if failed {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "injected failure"})
	}
	return failed
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

func emptyIfNil(orders []Order) []Order {
	if orders == nil {
		return []Order{}
	}
	return orders
}

// logRequests wraps a handler with status and timing capture.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration_ms", m.Duration.Milliseconds(),
			"bytes", m.Written)
	})
}
