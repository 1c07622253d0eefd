// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/socialpulse/viralpipe/internal/utils"
	"github.com/socialpulse/viralpipe/pkg/types"
)

// Server is the ops HTTP server: Prometheus metrics, health and the summary
// of the most recent run.
type Server struct {
	addr   string
	server *http.Server
	logger utils.Logger

	mu          sync.RWMutex
	lastSummary *types.RunSummary
}

// NewServer builds the ops server listening on addr.
func NewServer(addr string) *Server {
	s := &Server{
		addr:   addr,
		logger: utils.NewComponentLogger("monitoring"),
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/summary", s.handleSummary).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start runs the server in the background.
func (s *Server) Start() {
	go func() {
		s.logger.Infof("ops server listening on %s", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("ops server failed: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// SetSummary publishes the finished run's summary on /summary.
func (s *Server) SetSummary(summary *types.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSummary = summary
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	summary := s.lastSummary
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if summary == nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "no run completed yet"})
		return
	}
	json.NewEncoder(w).Encode(summary)
}
