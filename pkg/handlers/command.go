package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-command/pkg/interpret"
	"github.com/ekaya-inc/ekaya-command/pkg/middleware"
)

const maxCommandBody = 64 << 10

// Headers carrying interpretation diagnostics alongside the command body.
const (
	SnapshotIDHeader     = "X-Lexicon-Snapshot"
	ModuleStrategyHeader = "X-Module-Strategy"
)

// Interpreter turns command text into a structured result.
type Interpreter interface {
	Interpret(ctx context.Context, text string) (*interpret.Result, error)
}

// CommandRequest for POST /api/command
type CommandRequest struct {
	Command *string `json:"command"`
}

// CommandHandler serves command interpretation.
type CommandHandler struct {
	interpreter Interpreter
	logger      *zap.Logger
}

// NewCommandHandler creates a new command handler.
func NewCommandHandler(interpreter Interpreter, logger *zap.Logger) *CommandHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandHandler{
		interpreter: interpreter,
		logger:      logger.Named("command"),
	}
}

// RegisterRoutes registers the command handler's routes on the given mux.
// Other methods on the path get 405 from the mux.
func (h *CommandHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/command", h.Interpret)
}

// Interpret handles POST /api/command
func (h *CommandHandler) Interpret(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody)).Decode(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, http.StatusRequestEntityTooLarge, "request_too_large", "command body exceeds 64 KiB")
			return
		}
		h.writeNoCommand(w)
		return
	}
	if req.Command == nil || strings.TrimSpace(*req.Command) == "" {
		h.writeNoCommand(w)
		return
	}

	result, err := h.interpreter.Interpret(r.Context(), *req.Command)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoCommand):
			h.writeNoCommand(w)
		case errors.Is(err, apperrors.ErrParserUnavailable):
			h.logger.Error("Language parser unavailable",
				zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
				zap.Error(err))
			h.writeError(w, http.StatusServiceUnavailable, "parser_unavailable", "language parser unavailable")
		case errors.Is(err, context.DeadlineExceeded):
			h.writeError(w, http.StatusGatewayTimeout, "timeout", "command interpretation timed out")
		default:
			h.logger.Error("Failed to interpret command",
				zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
				zap.Error(err))
			h.writeError(w, http.StatusInternalServerError, "internal_error", "failed to interpret command")
		}
		return
	}

	w.Header().Set(SnapshotIDHeader, result.SnapshotID)
	w.Header().Set(ModuleStrategyHeader, result.ModuleStrategy)
	if err := WriteJSON(w, http.StatusOK, result.Command); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

func (h *CommandHandler) writeNoCommand(w http.ResponseWriter) {
	if err := WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "No command provided"}); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *CommandHandler) writeError(w http.ResponseWriter, status int, code, message string) {
	if err := ErrorResponse(w, status, code, message); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
