package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/careplus-labs/voice-relay/cache"
	"github.com/careplus-labs/voice-relay/log"
	"github.com/careplus-labs/voice-relay/system"
	"go.uber.org/zap"
)

// Status is the report served at /health.
type Status struct {
	Status         string  `json:"status"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	ActiveSessions int     `json:"active_sessions"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	Cache          string  `json:"cache"`
}

// Server exposes a readiness endpoint on its own port so probes never
// contend with the voice listener.
type Server struct {
	db             *cache.DB
	activeSessions func() int
	startedAt      time.Time
}

// NewServer builds a health server. db may be nil when the transcript
// store is not configured; activeSessions reports live call count.
func NewServer(db *cache.DB, activeSessions func() int) *Server {
	return &Server{
		db:             db,
		activeSessions: activeSessions,
		startedAt:      time.Now(),
	}
}

// GetCacheStatus reports the transcript store's reachability.
func (s *Server) GetCacheStatus() string {
	if s.db == nil {
		return "not configured"
	}
	if err := s.db.Ping(); err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return "ok"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := Status{
		Status:        "ok",
		UptimeSeconds: time.Since(s.startedAt).Seconds(),
		Cache:         s.GetCacheStatus(),
	}
	if s.activeSessions != nil {
		status.ActiveSessions = s.activeSessions()
	}
	if cpuPct, err := system.GetCPUUsage(); err == nil {
		status.CPUPercent = cpuPct
	}
	if memPct, err := system.GetMemoryUsage(); err == nil {
		status.MemoryPercent = memPct
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error("failed to write health response", err)
	}
}

// Start serves /health on the given port. It blocks, so callers run it
// in its own goroutine.
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	addr := fmt.Sprintf(":%d", port)
	log.L().Info("health server listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, mux)
}
