package handlers

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/config"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
)

// StatusSource reports lexicon refresh history.
type StatusSource interface {
	Status() lexicon.Status
}

// PingResponse contains service status and version information.
type PingResponse struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Service     string `json:"service"`
	GoVersion   string `json:"go_version"`
	Hostname    string `json:"hostname"`
	Environment string `json:"environment"`
}

// HealthResponse reports liveness plus the age of the published lexicon.
type HealthResponse struct {
	Status      string    `json:"status"`
	SnapshotID  string    `json:"snapshot_id,omitempty"`
	BuiltAt     time.Time `json:"built_at,omitzero"`
	Modules     int       `json:"modules"`
	LastError   string    `json:"last_error,omitempty"`
	LastFailure time.Time `json:"last_failure,omitzero"`
}

// HealthHandler handles health check and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	status StatusSource
	logger *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. status may be nil.
func NewHealthHandler(cfg *config.Config, status StatusSource, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{cfg: cfg, status: status, logger: logger}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health handles GET /health. The service stays healthy while it serves a
// stale snapshot after failed refreshes; "degraded" reports that condition.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{Status: "ok"}

	if h.status != nil {
		st := h.status.Status()
		response.SnapshotID = st.SnapshotID
		response.BuiltAt = st.BuiltAt
		response.Modules = st.Modules
		if st.LastFailure.After(st.LastSuccess) {
			response.Status = "degraded"
			response.LastError = st.LastError
			response.LastFailure = st.LastFailure
		}
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}

// Ping handles GET /ping requests.
// Returns detailed service information including version and environment.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		http.Error(w, "failed to get hostname", http.StatusInternalServerError)
		return
	}

	response := PingResponse{
		Status:      "ok",
		Version:     h.cfg.Version,
		Service:     "ekaya-command",
		GoVersion:   runtime.Version(),
		Hostname:    hostname,
		Environment: h.cfg.Env,
	}

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode ping response", zap.Error(err))
	}
}
