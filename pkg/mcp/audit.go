package mcp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/guard"
	"github.com/ekaya-inc/ekaya-command/pkg/logging"
)

// Security levels attached to audit events.
const (
	SecurityNormal     = "normal"
	SecuritySuspicious = "suspicious"
)

const maxParamSize = 1024

// AuditEvent describes one tool call.
type AuditEvent struct {
	Tool          string
	Params        map[string]any
	Successful    bool
	Duration      time.Duration
	Error         string
	SecurityLevel string
	Fingerprint   string
}

// AuditLogger writes MCP tool call events to the structured log.
type AuditLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger.
func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{logger: logger.Named("mcp-audit")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *AuditLogger) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	event := a.buildEvent(id, req)
	event.Successful = result == nil || !result.IsError
	a.record(event)
}

func (a *AuditLogger) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	event := a.buildEvent(id, req)
	event.Error = logging.SanitizeError(err)
	a.record(event)
}

func (a *AuditLogger) loadAndDeleteStart(id any) time.Time {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time)
	}
	return time.Now()
}

func (a *AuditLogger) buildEvent(id any, req *mcplib.CallToolRequest) *AuditEvent {
	event := &AuditEvent{
		Tool:          req.Params.Name,
		Params:        sanitizeParams(req.Params.Arguments),
		Duration:      time.Since(a.loadAndDeleteStart(id)),
		SecurityLevel: SecurityNormal,
	}
	classifyCommand(event)
	return event
}

func (a *AuditLogger) record(event *AuditEvent) {
	fields := []zap.Field{
		zap.String("tool", event.Tool),
		zap.Bool("successful", event.Successful),
		zap.Duration("duration", event.Duration),
		zap.String("security_level", event.SecurityLevel),
		zap.Any("params", event.Params),
	}
	if event.Fingerprint != "" {
		fields = append(fields, zap.String("fingerprint", event.Fingerprint))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error", event.Error))
	}

	if event.SecurityLevel != SecurityNormal {
		a.logger.Warn("MCP tool call", fields...)
		return
	}
	a.logger.Info("MCP tool call", fields...)
}

// classifyCommand flags commands whose text carries SQL injection.
func classifyCommand(event *AuditEvent) {
	command, ok := event.Params["command"].(string)
	if !ok {
		return
	}
	if hit := guard.CheckEntityValue("command", command); hit != nil {
		event.SecurityLevel = SecuritySuspicious
		event.Fingerprint = hit.Fingerprint
	}
}

var sensitiveKeys = []string{"password", "secret", "token", "api_key", "apikey"}

// sanitizeParams truncates long strings and hashes values under sensitive keys.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	if isSensitiveKey(key) {
		return hashSensitiveValue(value)
	}

	switch val := value.(type) {
	case string:
		return logging.TruncateString(val, maxParamSize)
	case map[string]any:
		return sanitizeParams(val)
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// hashSensitiveValue returns a SHA-256 prefix so entries correlate without
// storing the value.
func hashSensitiveValue(value any) string {
	str, ok := value.(string)
	if !ok {
		str = fmt.Sprintf("%v", value)
	}
	hash := sha256.Sum256([]byte(str))
	return "sha256:" + hex.EncodeToString(hash[:8])
}
