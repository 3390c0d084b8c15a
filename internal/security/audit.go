// Package security provides the journal's audit trail and read-only mode.
package security

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// Journal mutations
	AuditTradeAdded     AuditEventType = "TRADE_ADDED"
	AuditTradeDeleted   AuditEventType = "TRADE_DELETED"
	AuditTradesImported AuditEventType = "TRADES_IMPORTED"
	AuditSampleSeeded   AuditEventType = "SAMPLE_SEEDED"

	// Access events
	AuditReadOnlyViolation AuditEventType = "READ_ONLY_VIOLATION"
	AuditInputValidation   AuditEventType = "INPUT_VALIDATION"
)

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time              `json:"timestamp"`
	EventType AuditEventType         `json:"event_type"`
	TradeID   string                 `json:"trade_id,omitempty"`
	Symbol    string                 `json:"symbol,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Success   bool                   `json:"success"`
	ErrorMsg  string                 `json:"error,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	Source    string                 `json:"source,omitempty"`
}

type sourceKey struct{}

// WithSource tags ctx with the surface a mutation came from ("cli", "api").
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// AuditLogger appends journal events as JSON lines to a rotated file.
type AuditLogger struct {
	writer    *lumberjack.Logger
	mu        sync.Mutex
	sessionID string
	now       func() time.Time
}

// AuditConfig holds audit logger configuration.
type AuditConfig struct {
	LogDir     string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DefaultAuditConfig returns the default audit configuration.
func DefaultAuditConfig() AuditConfig {
	home, _ := os.UserHomeDir()
	return AuditConfig{
		LogDir:     filepath.Join(home, ".config", "trade-journal", "audit"),
		MaxSize:    10,
		MaxBackups: 10,
		MaxAge:     365,
		Compress:   true,
	}
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(cfg AuditConfig) (*AuditLogger, error) {
	if err := os.MkdirAll(cfg.LogDir, 0700); err != nil {
		return nil, fmt.Errorf("creating audit directory: %w", err)
	}

	return &AuditLogger{
		writer: &lumberjack.Logger{
			Filename:   AuditPath(cfg.LogDir),
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		},
		sessionID: generateSessionID(),
		now:       time.Now,
	}, nil
}

// AuditPath returns the active audit file inside dir.
func AuditPath(dir string) string {
	return filepath.Join(dir, "audit.log")
}

// Log writes one audit event. A nil logger discards it.
func (al *AuditLogger) Log(ctx context.Context, event AuditEvent) error {
	if al == nil {
		return nil
	}
	al.mu.Lock()
	defer al.mu.Unlock()

	event.Timestamp = al.now().UTC()
	event.SessionID = al.sessionID
	if source, ok := ctx.Value(sourceKey{}).(string); ok && event.Source == "" {
		event.Source = source
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serializing audit event: %w", err)
	}
	if _, err := al.writer.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// LogTradeAdded records a single trade insert.
func (al *AuditLogger) LogTradeAdded(ctx context.Context, tradeID, symbol, side string, pnl float64, err error) error {
	return al.Log(ctx, AuditEvent{
		EventType: AuditTradeAdded,
		TradeID:   tradeID,
		Symbol:    symbol,
		Action:    side,
		Success:   err == nil,
		ErrorMsg:  errMsg(err),
		Details:   map[string]interface{}{"profit_loss": pnl},
	})
}

// LogTradeDeleted records a delete by ID.
func (al *AuditLogger) LogTradeDeleted(ctx context.Context, tradeID string, err error) error {
	return al.Log(ctx, AuditEvent{
		EventType: AuditTradeDeleted,
		TradeID:   tradeID,
		Success:   err == nil,
		ErrorMsg:  errMsg(err),
	})
}

// LogTradesImported records a batch insert and how much of it landed.
func (al *AuditLogger) LogTradesImported(ctx context.Context, saved, total int, err error) error {
	return al.Log(ctx, AuditEvent{
		EventType: AuditTradesImported,
		Success:   err == nil,
		ErrorMsg:  errMsg(err),
		Details:   map[string]interface{}{"saved": saved, "total": total},
	})
}

// LogSampleSeeded records the demo trades being inserted.
func (al *AuditLogger) LogSampleSeeded(ctx context.Context, count int) error {
	return al.Log(ctx, AuditEvent{
		EventType: AuditSampleSeeded,
		Success:   true,
		Details:   map[string]interface{}{"count": count},
	})
}

// LogReadOnlyViolation logs an attempt to perform a write operation in read-only mode.
func (al *AuditLogger) LogReadOnlyViolation(ctx context.Context, operation string) error {
	return al.Log(ctx, AuditEvent{
		EventType: AuditReadOnlyViolation,
		Action:    operation,
		Success:   false,
		ErrorMsg:  "operation blocked: read-only mode enabled",
	})
}

// LogInputValidation logs a rejected trade form or import row.
func (al *AuditLogger) LogInputValidation(ctx context.Context, field string, value interface{}, reason string) error {
	return al.Log(ctx, AuditEvent{
		EventType: AuditInputValidation,
		Success:   false,
		ErrorMsg:  reason,
		Details: map[string]interface{}{
			"field": field,
			"value": fmt.Sprint(value),
		},
	})
}

// Close closes the audit logger.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	return al.writer.Close()
}

func errMsg(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func generateSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
