package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
	"github.com/ekaya-inc/ekaya-command/pkg/logging"
)

// LexiconCache is the subset of *lexicon.Cache the handler needs.
type LexiconCache interface {
	Current() *lexicon.Snapshot
	Refresh(ctx context.Context) (*lexicon.Snapshot, error)
	Status() lexicon.Status
}

// LexiconResponse for GET /api/lexicon and POST /api/lexicon/refresh
type LexiconResponse struct {
	Snapshot lexicon.Stats  `json:"snapshot"`
	Status   lexicon.Status `json:"status"`
}

// LexiconHandler exposes the published snapshot and forced refresh.
type LexiconHandler struct {
	cache  LexiconCache
	logger *zap.Logger
}

// NewLexiconHandler creates a new lexicon handler.
func NewLexiconHandler(cache LexiconCache, logger *zap.Logger) *LexiconHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LexiconHandler{cache: cache, logger: logger.Named("lexicon-handler")}
}

// RegisterRoutes registers the lexicon handler's routes on the given mux.
func (h *LexiconHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/lexicon", h.Get)
	mux.HandleFunc("POST /api/lexicon/refresh", h.Refresh)
}

// Get handles GET /api/lexicon
func (h *LexiconHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := LexiconResponse{
		Snapshot: h.cache.Current().Stats(),
		Status:   h.cache.Status(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Refresh handles POST /api/lexicon/refresh. A failed refresh leaves the
// previous snapshot published and answers 503.
func (h *LexiconHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	snap, err := h.cache.Refresh(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusServiceUnavailable, "refresh_failed", logging.SanitizeError(err)); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := LexiconResponse{
		Snapshot: snap.Stats(),
		Status:   h.cache.Status(),
	}
	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
